package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ceu-go-api/internal/access"
	"github.com/noah-isme/ceu-go-api/internal/dto"
	"github.com/noah-isme/ceu-go-api/internal/service"
)

const testSecret = "handler-secret"

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": userID + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func perform(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

type stubProgressService struct {
	lastLearner service.Learner
	lastUpdate  dto.ProgressUpdateRequest
	snapshot    dto.ProgressSnapshot
	completion  dto.CompletionResult
	err         error
}

func (s *stubProgressService) Update(_ context.Context, learner service.Learner, req dto.ProgressUpdateRequest) (dto.ProgressSnapshot, error) {
	s.lastLearner = learner
	s.lastUpdate = req
	return s.snapshot, s.err
}

func (s *stubProgressService) Complete(_ context.Context, learner service.Learner, _ dto.ProgressCompleteRequest) (dto.CompletionResult, error) {
	s.lastLearner = learner
	return s.completion, s.err
}

func (s *stubProgressService) Get(_ context.Context, learner service.Learner, _ string) (dto.ProgressSnapshot, error) {
	s.lastLearner = learner
	return s.snapshot, s.err
}

type stubCertificateService struct {
	issueReq     service.IssueRequest
	issueResult  service.IssueResult
	verification dto.CertificateVerification
	revoked      dto.CertificateSnapshot
	list         []dto.CertificateSnapshot
	err          error
}

func (s *stubCertificateService) Issue(_ context.Context, req service.IssueRequest) (service.IssueResult, error) {
	s.issueReq = req
	return s.issueResult, s.err
}

func (s *stubCertificateService) Verify(_ context.Context, number string) (dto.CertificateVerification, error) {
	if _, err := service.NormalizeCertificateNumber(number); err != nil {
		return dto.CertificateVerification{}, err
	}
	return s.verification, s.err
}

func (s *stubCertificateService) Revoke(_ context.Context, _ dto.CertificateRevokeRequest) (dto.CertificateSnapshot, error) {
	return s.revoked, s.err
}

func (s *stubCertificateService) ListForUser(_ context.Context, _ string) ([]dto.CertificateSnapshot, error) {
	return s.list, s.err
}

func (s *stubCertificateService) RetryPendingEmails(context.Context, time.Duration, int) (int, error) {
	return 0, nil
}

type stubAdminService struct {
	admins     map[string]bool
	enrollment dto.EnrollmentSnapshot
	removedID  uint
	err        error
}

func (s *stubAdminService) ManualEnroll(_ context.Context, _ dto.ManualEnrollRequest) (dto.EnrollmentSnapshot, error) {
	return s.enrollment, s.err
}

func (s *stubAdminService) RemoveEnrollment(_ context.Context, id uint) error {
	s.removedID = id
	return s.err
}

func (s *stubAdminService) ResetProgress(_ context.Context, _ dto.ProgressResetRequest) error {
	return s.err
}

func (s *stubAdminService) IsAdmin(_ context.Context, userID string) (bool, error) {
	return s.admins[userID], nil
}

type stubEvaluator struct {
	decision access.Decision
	last     access.Request
}

func (s *stubEvaluator) Evaluate(_ context.Context, req access.Request, _ string) access.Decision {
	s.last = req
	return s.decision
}
