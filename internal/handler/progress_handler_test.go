package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ceu-go-api/internal/dto"
	"github.com/noah-isme/ceu-go-api/internal/handler"
	"github.com/noah-isme/ceu-go-api/internal/middleware"
	"github.com/noah-isme/ceu-go-api/internal/service"
)

func progressApp(svc service.ProgressService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/progress", middleware.JWTProtected(middleware.NewTokenVerifier(testSecret)))
	handler.NewProgressHandler(svc, zerolog.Nop()).Register(group, handler.ProgressRoutes{
		Script: middleware.RequireScriptContext(),
	})
	return app
}

func TestProgressHandler_UpdateSuccess(t *testing.T) {
	svc := &stubProgressService{snapshot: dto.ProgressSnapshot{ID: 3, CourseID: "pt-msk-001", Status: "in_progress", ProgressPercent: 40}}
	app := progressApp(svc)

	req := jsonRequest(t, http.MethodPost, "/api/v1/progress/update", map[string]interface{}{
		"courseId":         "pt-msk-001",
		"progressPercent":  40,
		"timeSpentSeconds": 600,
		"modulesCompleted": []string{"intro"},
	})
	req.Header.Set("Authorization", bearer(t, "user-1"))
	req.Header.Set("X-Requested-With", "fetch")

	resp := perform(t, app, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.ProgressResponse
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, 40, body.Progress.ProgressPercent)
	require.Equal(t, "user-1", svc.lastLearner.UserID)
	require.Equal(t, "user-1@example.com", svc.lastLearner.Email)
	require.Equal(t, "pt-msk-001", svc.lastUpdate.CourseID)
	require.InDelta(t, 600, *svc.lastUpdate.TimeSpentSeconds, 0.001)
	require.JSONEq(t, `["intro"]`, string(svc.lastUpdate.ModulesCompleted))
}

func TestProgressHandler_SnapshotUsesProgressPercentKey(t *testing.T) {
	app := progressApp(&stubProgressService{snapshot: dto.ProgressSnapshot{CourseID: "pt-msk-001", Status: "in_progress", ProgressPercent: 40}})

	req := jsonRequest(t, http.MethodPost, "/api/v1/progress/update", map[string]interface{}{
		"courseId":        "pt-msk-001",
		"progressPercent": 40,
	})
	req.Header.Set("Authorization", bearer(t, "user-1"))
	req.Header.Set("X-Requested-With", "fetch")

	resp := perform(t, app, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Progress map[string]interface{} `json:"progress"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, float64(40), body.Progress["progress_percent"])
	require.NotContains(t, body.Progress, "progress_percentage")
}

func TestProgressHandler_RequiresScriptHeader(t *testing.T) {
	svc := &stubProgressService{}
	req := jsonRequest(t, http.MethodPost, "/api/v1/progress/update", map[string]interface{}{"courseId": "pt-msk-001"})
	req.Header.Set("Authorization", bearer(t, "user-1"))

	resp := perform(t, progressApp(svc), req)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	require.Empty(t, svc.lastLearner.UserID)
}

func TestProgressHandler_RequiresBearer(t *testing.T) {
	req := jsonRequest(t, http.MethodPost, "/api/v1/progress/update", map[string]interface{}{"courseId": "pt-msk-001"})
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp := perform(t, progressApp(&stubProgressService{}), req)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProgressHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		path   string
		status int
	}{
		{service.ErrEnrollmentNotFound, "/update", fiber.StatusNotFound},
		{service.ErrCourseIDRequired, "/update", fiber.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", service.ErrCompletionNotReady), "/complete", fiber.StatusUnprocessableEntity},
		{service.ErrCourseNotFound, "/complete", fiber.StatusNotFound},
		{fmt.Errorf("db exploded"), "/complete", fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		app := progressApp(&stubProgressService{err: tc.err})
		req := jsonRequest(t, http.MethodPost, "/api/v1/progress"+tc.path, map[string]interface{}{"courseId": "pt-msk-001"})
		req.Header.Set("Authorization", bearer(t, "user-1"))
		req.Header.Set("X-Requested-With", "fetch")

		resp := perform(t, app, req)
		require.Equal(t, tc.status, resp.StatusCode, tc.err.Error())

		var body struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		decodeResponse(t, resp, &body)
		require.False(t, body.Success)
		require.NotEmpty(t, body.Message)
	}
}

func TestProgressHandler_CompleteReturnsCertificate(t *testing.T) {
	completedAt := time.Now().UTC()
	svc := &stubProgressService{completion: dto.CompletionResult{
		Progress:    dto.ProgressSnapshot{ID: 5, Status: "completed", ProgressPercent: 100, CompletedAt: &completedAt},
		Certificate: &dto.CertificateSnapshot{ID: 9, CertificateNumber: "DRTROY-2025-ABCDEF123456"},
		EmailSent:   true,
	}}
	req := jsonRequest(t, http.MethodPost, "/api/v1/progress/complete", map[string]interface{}{"courseId": "pt-msk-001"})
	req.Header.Set("Authorization", bearer(t, "user-1"))
	req.Header.Set("X-Requested-With", "fetch")

	resp := perform(t, progressApp(svc), req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success     bool                    `json:"success"`
		Progress    dto.ProgressSnapshot    `json:"progress"`
		Certificate dto.CertificateSnapshot `json:"certificate"`
		EmailSent   bool                    `json:"emailSent"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "completed", body.Progress.Status)
	require.Equal(t, "DRTROY-2025-ABCDEF123456", body.Certificate.CertificateNumber)
	require.True(t, body.EmailSent)
}

func TestProgressHandler_Get(t *testing.T) {
	app := progressApp(&stubProgressService{err: service.ErrProgressNotFound})
	req := jsonRequest(t, http.MethodGet, "/api/v1/progress/pt-msk-001", nil)
	req.Header.Set("Authorization", bearer(t, "user-1"))
	require.Equal(t, fiber.StatusNotFound, perform(t, app, req).StatusCode)

	app = progressApp(&stubProgressService{snapshot: dto.ProgressSnapshot{CourseID: "pt-msk-001", ProgressPercent: 55}})
	req = jsonRequest(t, http.MethodGet, "/api/v1/progress/pt-msk-001", nil)
	req.Header.Set("Authorization", bearer(t, "user-1"))
	resp := perform(t, app, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.ProgressResponse
	decodeResponse(t, resp, &body)
	require.Equal(t, 55, body.Progress.ProgressPercent)
}
