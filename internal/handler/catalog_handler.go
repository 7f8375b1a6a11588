package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursetrack-api/internal/middleware"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/service"
	"github.com/noah-isme/coursetrack-api/internal/utils"
)

// CatalogHandler serves CRUD for one catalog entity (module, cohort, class or mode).
type CatalogHandler[T any, R any] struct {
	service service.CatalogService[T, R]
	noun    string
	logger  zerolog.Logger
}

// NewCatalogHandler constructs a handler; noun is used in response messages.
func NewCatalogHandler[T any, R any](service service.CatalogService[T, R], noun string, logger zerolog.Logger) *CatalogHandler[T, R] {
	return &CatalogHandler[T, R]{
		service: service,
		noun:    noun,
		logger:  logger.With().Str("component", "catalog_handler").Str("entity", noun).Logger(),
	}
}

// Register attaches the CRUD routes. Reads are open to any authenticated user.
func (h *CatalogHandler[T, R]) Register(router fiber.Router) {
	managerOnly := middleware.RequireRole(models.RoleManager)

	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", managerOnly, h.create)
	router.Put("/:id", managerOnly, h.update)
	router.Delete("/:id", managerOnly, h.delete)
}

func (h *CatalogHandler[T, R]) list(c *fiber.Ctx) error {
	items, err := h.service.List(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, h.noun+" list retrieved", items)
}

func (h *CatalogHandler[T, R]) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	item, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, h.noun+" retrieved", item)
}

func (h *CatalogHandler[T, R]) create(c *fiber.Ctx) error {
	var payload R
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	item, err := h.service.Create(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, h.noun+" created", item)
}

func (h *CatalogHandler[T, R]) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload R
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	item, err := h.service.Update(requestContext(c), id, payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, h.noun+" updated", item)
}

func (h *CatalogHandler[T, R]) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(requestContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, h.noun+" deleted", fiber.Map{"id": id})
}
