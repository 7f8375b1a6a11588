package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursetrack-api/internal/middleware"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/observability"
	"github.com/noah-isme/coursetrack-api/internal/queue"
	"github.com/noah-isme/coursetrack-api/internal/service"
	"github.com/noah-isme/coursetrack-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return observability.WithCorrelationID(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// fieldErrors flattens validator errors into field -> rule pairs.
func fieldErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	details := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		details[fe.Field()] = fe.Tag()
	}
	return details
}

// respondError maps service errors onto HTTP responses. Unknown errors become 500s.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	if details := fieldErrors(err); details != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	switch {
	case errors.Is(err, service.ErrActivityLogNotFound),
		errors.Is(err, service.ErrCourseOfferingNotFound),
		errors.Is(err, service.ErrCatalogItemNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, service.ErrFacilitatorNotFound),
		errors.Is(err, service.ErrManagerNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrActivityLogWeekExists),
		errors.Is(err, service.ErrCatalogItemExists),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrStudentNumberTaken):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrActivityLogAlreadySubmitted),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, models.ErrInvalidWeekNumber),
		errors.Is(err, models.ErrInvalidWeekRange),
		errors.Is(err, models.ErrInvalidTaskStatus),
		errors.Is(err, models.ErrUnknownNotificationType):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, queue.ErrStoreUnavailable):
		requestLogger(logger, c).Error().Err(err).Msg("notification store unavailable")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "notification store unavailable")
	default:
		requestLogger(logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

// withActor resolves the authenticated caller or answers 401.
func withActor(c *fiber.Ctx, next func(service.Actor) error) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	return next(actor)
}
