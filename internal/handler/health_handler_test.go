package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ceu-go-api/internal/config"
	"github.com/noah-isme/ceu-go-api/internal/handler"
)

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{AppName: "ceu-go-api", AppEnv: "test"}

	app := fiber.New()
	app.Get("/health", handler.HealthCheck(cfg, map[string]handler.Pinger{
		"database": func(context.Context) error { return nil },
	}))

	resp := perform(t, app, jsonRequest(t, http.MethodGet, "/health", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body handler.HealthResponse
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "ceu-go-api", body.Service)
	require.Equal(t, "up", body.Checks["database"])
}

func TestHealthCheckDegraded(t *testing.T) {
	app := fiber.New()
	app.Get("/health", handler.HealthCheck(config.Config{}, map[string]handler.Pinger{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}))

	resp := perform(t, app, jsonRequest(t, http.MethodGet, "/health", nil))
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var body handler.HealthResponse
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)
	require.Equal(t, "degraded", body.Status)
	require.Equal(t, "down", body.Checks["redis"])
	require.Equal(t, "up", body.Checks["database"])
}
