package service

import "errors"

var (
	// ErrCourseIDRequired indicates the request did not name a course.
	ErrCourseIDRequired = errors.New("courseId is required")
	// ErrUserIDRequired indicates the request did not name a user.
	ErrUserIDRequired = errors.New("userId is required")
	// ErrEnrollmentNotFound indicates the caller has no active enrollment for the course.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrCourseNotFound indicates the course does not exist in the catalog.
	ErrCourseNotFound = errors.New("course not found")
	// ErrProgressNotFound indicates no progress row exists for the learner and course.
	ErrProgressNotFound = errors.New("progress not found")
	// ErrCertificateNotFound indicates no certificate matches the lookup.
	ErrCertificateNotFound = errors.New("certificate not found")
	// ErrInvalidCertificateNumber indicates the certificate number failed the format check.
	ErrInvalidCertificateNumber = errors.New("invalid certificate number format")
	// ErrAlreadyEnrolled indicates an active enrollment already exists.
	ErrAlreadyEnrolled = errors.New("user already enrolled in this course")
	// ErrCompletionNotReady indicates a configured completion gate was not met.
	ErrCompletionNotReady = errors.New("course completion requirements not met")
	// ErrQuizScoreRequired indicates neither a score nor answer counts were submitted.
	ErrQuizScoreRequired = errors.New("quiz_score or answer counts are required")
)
