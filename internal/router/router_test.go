package router_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ceu-go-api/internal/access"
	"github.com/noah-isme/ceu-go-api/internal/config"
	"github.com/noah-isme/ceu-go-api/internal/middleware"
	"github.com/noah-isme/ceu-go-api/internal/router"
)

const secret = "router-secret"

type enrolledOnly struct {
	userID string
}

func (e enrolledOnly) Evaluate(_ context.Context, req access.Request, _ string) access.Decision {
	switch {
	case req.Session.Err != nil:
		return access.Decision{Outcome: access.Denied, Reason: access.ReasonInvalidSession}
	case req.Session.UserID == "":
		return access.Decision{Outcome: access.Denied, Reason: access.ReasonNoSession}
	case req.Session.UserID == e.userID:
		return access.Decision{Outcome: access.Allowed, Reason: access.ReasonEnrolled, CourseID: "pt-msk-001"}
	default:
		return access.Decision{Outcome: access.Denied, Reason: access.ReasonNotEnrolled}
	}
}

func signedToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pt-msk-001.html"), []byte("<h1>Lesson 1</h1>"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "bonus"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bonus", "index.html"), []byte("<h1>Bonus lesson</h1>"), 0o600))

	cfg := config.Config{
		AppName:         "ceu-go-api",
		AuthCookieName:  "sb-auth-token",
		GuardLoginURL:   "/my-account.html?auth=required",
		GuardCatalogURL: "/course-catalog.html?access=denied",
		GuardContentDir: dir,
	}

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{
		AccessEvaluator: enrolledOnly{userID: "user-1"},
		Verifier:        middleware.NewTokenVerifier(secret),
		Logger:          zerolog.Nop(),
	})
	return app
}

func TestHealthRoute(t *testing.T) {
	resp, err := newApp(t).Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "ceu-go-api", resp.Header.Get("X-Application"))
}

func TestCoursePagesAreGated(t *testing.T) {
	app := newApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/courses/pt-msk-001.html", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/my-account.html?auth=required&return=%2Fcourses%2Fpt-msk-001.html", resp.Header.Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/courses/pt-msk-001.html", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "user-2"))
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/course-catalog.html?access=denied", resp.Header.Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/courses/pt-msk-001.html", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "user-1"))
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "private, no-store", resp.Header.Get("Cache-Control"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "Lesson 1")
}

func TestCourseDirectoryIndexIsNotServed(t *testing.T) {
	app := newApp(t)

	for _, target := range []string{"/courses/bonus/", "/courses/bonus", "/courses/"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNotFound, resp.StatusCode, target)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NotContains(t, string(body), "Bonus lesson", target)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/courses/bonus/index.html", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestAccessCheckRoute(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/access/check?course=pt-msk-001", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "user-1"))
	resp, err := newApp(t).Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"allowed":true,"reason":"enrolled","courseId":"pt-msk-001"}`, string(body))
}

func TestUnconfiguredRoutesAreAbsent(t *testing.T) {
	resp, err := newApp(t).Test(httptest.NewRequest(http.MethodPost, "/api/v1/progress/update", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
