package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursetrack-api/internal/config"
	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/handler"
	"github.com/noah-isme/coursetrack-api/internal/middleware"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/repository"
	"github.com/noah-isme/coursetrack-api/internal/router"
	"github.com/noah-isme/coursetrack-api/internal/service"
)

func setupAuthApp(t *testing.T, loginMax int) (*fiber.App, staffFixture) {
	t.Helper()
	db := setupTestDB(t)
	f := seedStaff(t, db)
	logger := testLogger()

	auth := service.NewAuthService(repository.NewUserRepository(db), repository.NewStaffRepository(db), testValidator(), testSecret, time.Hour, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: testSecret}, router.Dependencies{
		AuthHandler:   handler.NewAuthHandler(auth, middleware.RateLimit("login", loginMax, time.Minute), logger),
		JWTMiddleware: middleware.JWTProtected(testSecret),
	})
	return app, f
}

func TestRegisterThenLoginAndMe(t *testing.T) {
	app, f := setupAuthApp(t, 10)

	register := dto.RegisterRequest{
		FirstName:       "Barbara",
		LastName:        "Liskov",
		Email:           "barbara@example.com",
		Password:        "s3cret-pass",
		Role:            models.RoleFacilitator,
		Department:      "Computing",
		Specializations: []string{"databases"},
	}

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", facilitatorToken(t, f.facilitator), register)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", managerToken(t, f), register)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", managerToken(t, f), register)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", dto.LoginRequest{Email: "barbara@example.com", Password: "s3cret-pass"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var login struct {
		Data dto.AuthResponse `json:"data"`
	}
	decodeResponse(t, resp, &login)
	require.NotEmpty(t, login.Data.Token)
	require.Equal(t, models.RoleFacilitator, login.Data.User.Role)
	require.NotNil(t, login.Data.User.FacilitatorID)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/auth/me", login.Data.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me struct {
		Data dto.UserResponse `json:"data"`
	}
	decodeResponse(t, resp, &me)
	require.Equal(t, "barbara@example.com", me.Data.Email)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/auth/me", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLoginFailuresAndRateLimit(t *testing.T) {
	app, _ := setupAuthApp(t, 2)
	creds := dto.LoginRequest{Email: "nobody@example.com", Password: "wrong-pass"}

	for i := 0; i < 2; i++ {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", creds)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	}

	resp := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", creds)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
