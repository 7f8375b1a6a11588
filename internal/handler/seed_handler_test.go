package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursetrack-api/internal/handler"
	"github.com/noah-isme/coursetrack-api/internal/service"
)

type mockSeedService struct {
	err       error
	result    service.SeedResult
	lastToken string
}

func (m *mockSeedService) SeedDemo(_ context.Context, token string) (service.SeedResult, error) {
	m.lastToken = token
	if m.err != nil {
		return service.SeedResult{}, m.err
	}
	return m.result, nil
}

func newSeedApp(svc service.SeedService) *fiber.App {
	app := fiber.New()
	handler.NewSeedHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1/seed"))
	return app
}

func TestSeedHandler_DemoSuccess(t *testing.T) {
	svc := &mockSeedService{result: service.SeedResult{Created: true, ManagerEmail: service.DemoManagerEmail, ActivityLogs: 3}}
	app := newSeedApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/seed/demo", nil)
	req.Header.Set("X-Seed-Token", "secret")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool               `json:"success"`
		Message string             `json:"message"`
		Data    service.SeedResult `json:"data"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, "demo data seeded", response.Message)
	require.Equal(t, 3, response.Data.ActivityLogs)
	require.Equal(t, "secret", svc.lastToken)
}

func TestSeedHandler_AlreadySeeded(t *testing.T) {
	app := newSeedApp(&mockSeedService{result: service.SeedResult{Created: false}})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/seed/demo", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSeedHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
		message    string
	}{
		{name: "disabled", err: service.ErrSeedDisabled, statusCode: fiber.StatusForbidden, message: "seeding disabled"},
		{name: "unauthorized", err: service.ErrSeedUnauthorized, statusCode: fiber.StatusForbidden, message: "invalid token"},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError, message: "seed operation failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newSeedApp(&mockSeedService{err: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/seed/demo", nil)
			req.Header.Set("X-Seed-Token", "wrong")

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)

			var response struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			decodeResponse(t, resp, &response)
			require.False(t, response.Success)
			require.Equal(t, tc.message, response.Message)
		})
	}
}
