package coursesync

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ServerProgress is the stored progress returned by the API.
type ServerProgress struct {
	CourseID         string `json:"course_id"`
	Status           string `json:"status"`
	ProgressPercent  int    `json:"progress_percent"`
	TimeSpentSeconds int64  `json:"time_spent_seconds"`
	QuizScore        *int   `json:"quiz_score"`
	QuizPassed       *bool  `json:"quiz_passed"`
}

// ExamSubmission is the body of an exam result submission.
type ExamSubmission struct {
	CourseID       string  `json:"course_id"`
	QuizScore      float64 `json:"quiz_score"`
	PassingScore   float64 `json:"passing_score"`
	TotalQuestions int     `json:"total_questions"`
	CorrectAnswers int     `json:"correct_answers"`
}

// Transport carries sync traffic to the progress API.
type Transport interface {
	UpdateProgress(ctx context.Context, token string, snapshot Snapshot) error
	CompleteCourse(ctx context.Context, token string, snapshot Snapshot) error
	SubmitExam(ctx context.Context, token string, submission ExamSubmission) error
	LoadProgress(ctx context.Context, token, courseID string) (ServerProgress, bool, error)
}

// StatusError is returned for non-2xx API responses.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("coursesync: api returned %d", e.Status)
	}
	return fmt.Sprintf("coursesync: api returned %d: %s", e.Status, e.Message)
}

// HTTPConfig configures HTTPTransport.
type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPTransport talks to the progress API over HTTP.
type HTTPTransport struct {
	http *resty.Client
}

type apiEnvelope struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Progress ServerProgress `json:"progress"`
}

// NewHTTPTransport constructs a transport rooted at cfg.BaseURL.
func NewHTTPTransport(cfg HTTPConfig) *HTTPTransport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Requested-With", "fetch")
	return &HTTPTransport{http: client}
}

// UpdateProgress posts a partial progress update.
func (t *HTTPTransport) UpdateProgress(ctx context.Context, token string, snapshot Snapshot) error {
	return t.post(ctx, token, "/api/v1/progress/update", snapshot)
}

// CompleteCourse posts a completion.
func (t *HTTPTransport) CompleteCourse(ctx context.Context, token string, snapshot Snapshot) error {
	return t.post(ctx, token, "/api/v1/progress/complete", snapshot)
}

// SubmitExam posts an exam result.
func (t *HTTPTransport) SubmitExam(ctx context.Context, token string, submission ExamSubmission) error {
	return t.post(ctx, token, "/api/v1/exams/submit", submission)
}

// LoadProgress fetches the stored progress for courseID. It reports false when the
// server holds none.
func (t *HTTPTransport) LoadProgress(ctx context.Context, token, courseID string) (ServerProgress, bool, error) {
	var envelope apiEnvelope
	resp, err := t.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&envelope).
		SetError(&envelope).
		Get("/api/v1/progress/" + url.PathEscape(courseID))
	if err != nil {
		return ServerProgress{}, false, fmt.Errorf("coursesync: load progress: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ServerProgress{}, false, nil
	}
	if resp.IsError() {
		return ServerProgress{}, false, &StatusError{Status: resp.StatusCode(), Message: envelope.Message}
	}
	return envelope.Progress, true, nil
}

func (t *HTTPTransport) post(ctx context.Context, token, path string, body interface{}) error {
	var failure apiEnvelope
	resp, err := t.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(body).
		SetError(&failure).
		Post(path)
	if err != nil {
		return fmt.Errorf("coursesync: post %s: %w", path, err)
	}
	if resp.IsError() {
		return &StatusError{Status: resp.StatusCode(), Message: failure.Message}
	}
	return nil
}
