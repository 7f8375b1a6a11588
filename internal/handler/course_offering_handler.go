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

// CourseOfferingHandler wires course allocation routes.
type CourseOfferingHandler struct {
	service service.CourseOfferingService
	logger  zerolog.Logger
}

// NewCourseOfferingHandler constructs the handler.
func NewCourseOfferingHandler(service service.CourseOfferingService, logger zerolog.Logger) *CourseOfferingHandler {
	return &CourseOfferingHandler{
		service: service,
		logger:  logger.With().Str("component", "course_offering_handler").Logger(),
	}
}

// Register attaches course offering endpoints. Writes are manager-only.
func (h *CourseOfferingHandler) Register(router fiber.Router) {
	managerOnly := middleware.RequireRole(models.RoleManager)

	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", managerOnly, h.create)
	router.Put("/:id", managerOnly, h.update)
	router.Delete("/:id", managerOnly, h.delete)
}

func (h *CourseOfferingHandler) list(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		var req dto.CourseOfferingListRequest
		if err := c.QueryParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
		}

		result, err := h.service.List(requestContext(c), actor, req)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.OK(c, result.Items, "course offerings retrieved", result.Pagination)
	})
}

func (h *CourseOfferingHandler) get(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		id, err := parseUintParam(c, "id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}

		offering, err := h.service.Get(requestContext(c), actor, id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "course offering retrieved", offering)
	})
}

func (h *CourseOfferingHandler) create(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		var payload dto.CourseOfferingCreateRequest
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}

		offering, err := h.service.Create(requestContext(c), actor, payload)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course offering created", offering)
	})
}

func (h *CourseOfferingHandler) update(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		id, err := parseUintParam(c, "id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}

		var payload dto.CourseOfferingUpdateRequest
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}

		offering, err := h.service.Update(requestContext(c), actor, id, payload)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "course offering updated", offering)
	})
}

func (h *CourseOfferingHandler) delete(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		id, err := parseUintParam(c, "id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}

		if err := h.service.Delete(requestContext(c), actor, id); err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "course offering deleted", fiber.Map{"id": id})
	})
}
