package middleware_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursetrack-api/internal/middleware"
	"github.com/noah-isme/coursetrack-api/internal/observability"
)

func correlationApp(seen *string) *fiber.App {
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	app.Get("/api/v1/activity-logs", func(c *fiber.Ctx) error {
		*seen = observability.CorrelationID(c.UserContext())
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestCorrelationIDPropagatesIncomingHeader(t *testing.T) {
	var seen string
	app := correlationApp(&seen)

	req := httptest.NewRequest("GET", "/api/v1/activity-logs", nil)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	require.Equal(t, "req-42", resp.Header.Get(middleware.HeaderCorrelationID))
	require.Equal(t, "req-42", seen)
}

func TestCorrelationIDReplacesMissingOrOversizedHeader(t *testing.T) {
	var seen string
	app := correlationApp(&seen)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/activity-logs", nil), -1)
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get(middleware.HeaderCorrelationID))
	require.NoError(t, err)
	require.Equal(t, resp.Header.Get(middleware.HeaderCorrelationID), seen)

	req := httptest.NewRequest("GET", "/api/v1/activity-logs", nil)
	req.Header.Set(middleware.HeaderCorrelationID, strings.Repeat("x", 200))
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	_, err = uuid.Parse(seen)
	require.NoError(t, err)
}
