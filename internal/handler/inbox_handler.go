package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coursetrack-api/internal/middleware"
	"github.com/noah-isme/coursetrack-api/internal/observability"
	"github.com/noah-isme/coursetrack-api/internal/service"
	"github.com/noah-isme/coursetrack-api/internal/utils"
)

// InboxHandler streams and manages in-app notifications for the current user.
type InboxHandler struct {
	service service.InboxService
	logger  zerolog.Logger
	timeout time.Duration
}

// NewInboxHandler constructs a handler instance. timeout sets the keep-alive cadence of streams.
func NewInboxHandler(service service.InboxService, logger zerolog.Logger, timeout time.Duration) *InboxHandler {
	return &InboxHandler{
		service: service,
		logger:  logger.With().Str("component", "inbox_handler").Logger(),
		timeout: timeout,
	}
}

// Register binds the inbox routes.
func (h *InboxHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/stream", h.stream)
	router.Patch("/:id/read", h.markRead)
}

func (h *InboxHandler) list(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		limit, err := parseQueryInt(c, "limit")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
		}
		offset, err := parseQueryInt(c, "offset")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
		}
		unreadOnly := c.QueryBool("unread", false)

		notifications, err := h.service.List(requestContext(c), actor.UserID, unreadOnly, limit, offset)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "notifications", notifications)
	})
}

func (h *InboxHandler) stream(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(requestContext(c))
	stream, cleanup := h.service.Subscribe(actor.UserID)
	observability.InboxClientsActive().Inc()

	keepAliveInterval := h.timeout
	if keepAliveInterval <= 0 {
		keepAliveInterval = 30 * time.Second
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
			observability.InboxClientsActive().Dec()
		}()

		ticker := time.NewTicker(keepAliveInterval / 2)
		defer ticker.Stop()

		for {
			select {
			case notification, ok := <-stream:
				if !ok {
					return
				}
				if err := writeNotificationEvent(w, notification); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write notification event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write notification keepalive")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func (h *InboxHandler) markRead(c *fiber.Ctx) error {
	return withActor(c, func(actor service.Actor) error {
		id, err := parseUintParam(c, "id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid notification id")
		}

		notification, err := h.service.MarkRead(requestContext(c), id, actor.UserID)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return utils.SendSuccess(c, "notification updated", notification)
	})
}

func writeNotificationEvent(w *bufio.Writer, notification interface{}) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: notification\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
