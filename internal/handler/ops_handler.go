package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/utils"
	"github.com/noah-isme/coursetrack-api/internal/worker"
)

// WorkerControl is the worker surface the ops endpoints drive.
type WorkerControl interface {
	Status() dto.WorkerStatusResponse
	TriggerOverdueCheck(ctx context.Context) (int, error)
	ProcessQueue(ctx context.Context, t models.NotificationType) (*worker.Outcome, error)
}

// QueueInspector reads queue depths and delivery outcomes.
type QueueInspector interface {
	Lengths(ctx context.Context) (map[models.NotificationType]int64, error)
	DeliveryStatus(ctx context.Context, jobID string) (*models.DeliveryStatus, error)
}

// OpsHandler exposes manager-only worker and queue controls.
type OpsHandler struct {
	worker WorkerControl
	queue  QueueInspector
	logger zerolog.Logger
}

// NewOpsHandler constructs the handler.
func NewOpsHandler(worker WorkerControl, queue QueueInspector, logger zerolog.Logger) *OpsHandler {
	return &OpsHandler{
		worker: worker,
		queue:  queue,
		logger: logger.With().Str("component", "ops_handler").Logger(),
	}
}

// Register binds the ops routes.
func (h *OpsHandler) Register(router fiber.Router) {
	router.Get("/worker", h.status)
	router.Post("/overdue-check", h.overdueCheck)
	router.Post("/queues/:type/process", h.processQueue)
	router.Get("/queues", h.depths)
	router.Get("/deliveries/:id", h.delivery)
}

func (h *OpsHandler) status(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "worker status", h.worker.Status())
}

func (h *OpsHandler) overdueCheck(c *fiber.Ctx) error {
	count, err := h.worker.TriggerOverdueCheck(requestContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "overdue check completed", dto.OverdueCheckResponse{OverdueCount: count})
}

func (h *OpsHandler) processQueue(c *fiber.Ctx) error {
	t, err := models.ParseNotificationType(c.Params("type"))
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	outcome, err := h.worker.ProcessQueue(requestContext(c), t)
	if err != nil {
		return h.handleError(c, err)
	}

	resp := dto.ProcessQueueResponse{Type: string(t)}
	if outcome != nil {
		resp.Processed = true
		resp.JobID = outcome.JobID
		resp.Status = outcome.Status
	}
	return utils.SendSuccess(c, "queue processed", resp)
}

func (h *OpsHandler) depths(c *fiber.Ctx) error {
	lengths, err := h.queue.Lengths(requestContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	resp := dto.QueueDepthResponse{Queues: make(map[string]int64, len(lengths))}
	for t, n := range lengths {
		resp.Queues[string(t)] = n
	}
	return utils.SendSuccess(c, "queue depths", resp)
}

func (h *OpsHandler) delivery(c *fiber.Ctx) error {
	status, err := h.queue.DeliveryStatus(requestContext(c), c.Params("id"))
	if err != nil {
		return h.handleError(c, err)
	}
	if status == nil {
		return utils.SendError(c, fiber.StatusNotFound, "delivery status not found")
	}
	return utils.SendSuccess(c, "delivery status", dto.DeliveryStatusResponse{DeliveryStatus: *status})
}

func (h *OpsHandler) handleError(c *fiber.Ctx, err error) error {
	if errors.Is(err, worker.ErrNotRunning) {
		return utils.SendError(c, fiber.StatusConflict, "notification worker is not running")
	}
	return respondError(c, h.logger, err)
}
