package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/middleware"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/service"
	"github.com/noah-isme/coursetrack-api/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ActivityLogHandler exposes weekly activity log routes.
type ActivityLogHandler struct {
	service service.ActivityLogService
	export  service.ExportService
	logger  zerolog.Logger
}

// NewActivityLogHandler constructs the handler.
func NewActivityLogHandler(service service.ActivityLogService, export service.ExportService, logger zerolog.Logger) *ActivityLogHandler {
	return &ActivityLogHandler{
		service: service,
		export:  export,
		logger:  logger.With().Str("component", "activity_log_handler").Logger(),
	}
}

// Register attaches activity log endpoints to the router group.
func (h *ActivityLogHandler) Register(router fiber.Router) {
	managerOnly := middleware.RequireRole(models.RoleManager)

	router.Get("", h.list)
	router.Get("/summary", h.summary)
	router.Get("/export", managerOnly, h.exportXLSX)
	router.Get("/:id", h.get)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Post("/:id/submit", h.submit)
	router.Delete("/:id", managerOnly, h.delete)
}

func (h *ActivityLogHandler) list(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		var req dto.ActivityLogListRequest
		if err := c.QueryParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
		}

		result, err := h.service.List(requestContext(c), actor, req)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.OK(c, result.Items, "activity logs retrieved", result.Pagination)
	})
}

func (h *ActivityLogHandler) get(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		id, err := parseUintParam(c, "id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}

		log, err := h.service.Get(requestContext(c), actor, id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "activity log retrieved", log)
	})
}

func (h *ActivityLogHandler) create(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		var payload dto.ActivityLogCreateRequest
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}

		log, err := h.service.Create(requestContext(c), actor, payload)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity log created", log)
	})
}

func (h *ActivityLogHandler) update(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		id, err := parseUintParam(c, "id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}

		var payload dto.ActivityLogUpdateRequest
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}

		log, err := h.service.Update(requestContext(c), actor, id, payload)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "activity log updated", log)
	})
}

func (h *ActivityLogHandler) submit(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		id, err := parseUintParam(c, "id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}

		log, err := h.service.Submit(requestContext(c), actor, id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "activity log submitted", log)
	})
}

func (h *ActivityLogHandler) delete(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		id, err := parseUintParam(c, "id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}

		if err := h.service.Delete(requestContext(c), actor, id); err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "activity log deleted", fiber.Map{"id": id})
	})
}

func (h *ActivityLogHandler) summary(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		var req dto.ActivityLogSummaryRequest
		if err := c.QueryParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
		}

		summary, err := h.service.Summary(requestContext(c), actor, req)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "activity log summary", summary)
	})
}

func (h *ActivityLogHandler) exportXLSX(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		var req dto.ActivityLogListRequest
		if err := c.QueryParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
		}

		buf, filename, err := h.export.ExportActivityLogs(requestContext(c), actor, req)
		if err != nil {
			return respondError(c, h.logger, err)
		}

		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
		return c.Status(fiber.StatusOK).Send(buf.Bytes())
	})
}
