package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/middleware"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/service"
	"github.com/noah-isme/coursetrack-api/internal/utils"
)

// AuthHandler serves login, registration and the current-user lookup.
type AuthHandler struct {
	service      service.AuthService
	loginLimiter fiber.Handler
	logger       zerolog.Logger
}

// NewAuthHandler constructs the handler. loginLimiter may be nil.
func NewAuthHandler(service service.AuthService, loginLimiter fiber.Handler, logger zerolog.Logger) *AuthHandler {
	if loginLimiter == nil {
		loginLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	return &AuthHandler{
		service:      service,
		loginLimiter: loginLimiter,
		logger:       logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register binds the auth routes. Only login is reachable without a token.
func (h *AuthHandler) Register(router fiber.Router, protect fiber.Handler) {
	router.Post("/login", h.loginLimiter, h.login)
	router.Post("/register", protect, middleware.RequireRole(models.RoleManager), h.register)
	router.Get("/me", protect, h.me)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	resp, err := h.service.Login(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "login successful", resp)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	resp, err := h.service.Register(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user registered", resp.User)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		user, err := h.service.Me(requestContext(c), actor.UserID)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "profile retrieved", user)
	})
}
