// Package access holds the course access decision shared by the edge gate and the
// page-embedded check.
package access

import (
	"context"
	"errors"
	"strings"
)

// Outcome is the terminal state of an access decision.
type Outcome string

const (
	// Allowed lets the page render.
	Allowed Outcome = "allowed"
	// Denied redirects the caller away from the page.
	Denied Outcome = "denied"
)

// Reason explains a decision.
type Reason string

const (
	ReasonNoCourse       Reason = "no_course"
	ReasonNoSession      Reason = "no_session"
	ReasonInvalidSession Reason = "invalid_session"
	ReasonAdmin          Reason = "admin"
	ReasonEnrolled       Reason = "enrolled"
	ReasonNotEnrolled    Reason = "not_enrolled"
	ReasonLookupFailed   Reason = "lookup_failed"
)

// ErrNoDirectory is reported when Authorize is called without a directory.
var ErrNoDirectory = errors.New("access: no directory configured")

// Session is the verified identity of the caller. An empty UserID with a nil Err means no
// credential was presented; a non-nil Err means verification failed.
type Session struct {
	UserID string
	Err    error
}

// Directory answers the entitlement questions behind a decision.
type Directory interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	ActiveCourseIDs(ctx context.Context, userID string) ([]string, error)
}

// Request is a single access check. CourseRef is a course id or a course page filename.
type Request struct {
	CourseRef string
	Session   Session
}

// Policy configures Authorize. AllowMissingCourse lets requests that name no course through.
type Policy struct {
	AllowMissingCourse bool
	Resolver           *Resolver
}

// Decision is the result of Authorize.
type Decision struct {
	Outcome  Outcome
	Reason   Reason
	CourseID string
	Err      error
}

// Allowed reports whether the page may render.
func (d Decision) Allowed() bool {
	return d.Outcome == Allowed
}

// RequiresLogin reports whether the caller should be sent to the login page.
func (d Decision) RequiresLogin() bool {
	return d.Outcome == Denied && (d.Reason == ReasonNoSession || d.Reason == ReasonInvalidSession)
}

// Authorize evaluates the course access decision table. Every verification or lookup
// error ends in Denied.
func Authorize(ctx context.Context, req Request, dir Directory, policy Policy) Decision {
	ref := strings.TrimSpace(req.CourseRef)
	if ref == "" {
		if policy.AllowMissingCourse {
			return Decision{Outcome: Allowed, Reason: ReasonNoCourse}
		}
		return Decision{Outcome: Denied, Reason: ReasonNoCourse}
	}

	if req.Session.Err != nil {
		return Decision{Outcome: Denied, Reason: ReasonInvalidSession, Err: req.Session.Err}
	}
	userID := strings.TrimSpace(req.Session.UserID)
	if userID == "" {
		return Decision{Outcome: Denied, Reason: ReasonNoSession}
	}

	if dir == nil {
		return Decision{Outcome: Denied, Reason: ReasonLookupFailed, Err: ErrNoDirectory}
	}

	resolver := policy.Resolver
	if resolver == nil {
		resolver = NewResolver(nil)
	}

	// An admin lookup failure only withholds the bypass; the enrollment check still runs.
	isAdmin, adminErr := dir.IsAdmin(ctx, userID)
	if adminErr == nil && isAdmin {
		return Decision{Outcome: Allowed, Reason: ReasonAdmin, CourseID: resolver.Prefix(ref)}
	}

	enrolled, err := dir.ActiveCourseIDs(ctx, userID)
	if err != nil {
		return Decision{Outcome: Denied, Reason: ReasonLookupFailed, Err: err}
	}

	if courseID, ok := resolver.Match(ref, enrolled); ok {
		return Decision{Outcome: Allowed, Reason: ReasonEnrolled, CourseID: courseID}
	}

	return Decision{Outcome: Denied, Reason: ReasonNotEnrolled, CourseID: resolver.Prefix(ref), Err: adminErr}
}
