package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursetrack-api/internal/middleware"
)

func TestObservabilityLogsActorAndRoute(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	app.Use(middleware.Observability(zerolog.New(&buf)))
	app.Get("/api/v1/activity-logs/:id", func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, uint(5))
		c.Locals(middleware.LocalRole, "manager")
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/metrics", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("GET", "/api/v1/activity-logs/12", nil)
	req.Header.Set(middleware.HeaderCorrelationID, "req-7")
	_, err := app.Test(req, -1)
	require.NoError(t, err)

	_, err = app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "request completed", entry["message"])
	require.Equal(t, "/api/v1/activity-logs/:id", entry["route"])
	require.Equal(t, "req-7", entry["correlation_id"])
	require.Equal(t, float64(5), entry["user_id"])
	require.Equal(t, "manager", entry["role"])
}

func TestObservabilityFlagsRateLimitedRequests(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(middleware.Observability(zerolog.New(&buf)))
	app.Post("/api/v1/auth/login", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusTooManyRequests)
	})

	_, err := app.Test(httptest.NewRequest("POST", "/api/v1/auth/login", nil), -1)
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"message":"request rate limited"`)
	require.NotContains(t, buf.String(), "user_id")
}
