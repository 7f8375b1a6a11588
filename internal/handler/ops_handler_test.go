package handler_test

import (
	"context"
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
	"github.com/noah-isme/coursetrack-api/internal/router"
	"github.com/noah-isme/coursetrack-api/internal/worker"
)

type stubWorker struct {
	running   bool
	overdue   int
	outcome   *worker.Outcome
	processed []models.NotificationType
}

func (w *stubWorker) Status() dto.WorkerStatusResponse {
	return dto.WorkerStatusResponse{IsRunning: w.running, OverdueCheckActive: w.running}
}

func (w *stubWorker) TriggerOverdueCheck(context.Context) (int, error) {
	if !w.running {
		return 0, worker.ErrNotRunning
	}
	return w.overdue, nil
}

func (w *stubWorker) ProcessQueue(_ context.Context, t models.NotificationType) (*worker.Outcome, error) {
	if !w.running {
		return nil, worker.ErrNotRunning
	}
	w.processed = append(w.processed, t)
	return w.outcome, nil
}

type stubInspector struct {
	statuses map[string]models.DeliveryStatus
}

func (s stubInspector) Lengths(context.Context) (map[models.NotificationType]int64, error) {
	return map[models.NotificationType]int64{
		models.NotificationReminder: 2,
		models.NotificationAlert:    0,
		models.NotificationDeadline: 1,
	}, nil
}

func (s stubInspector) DeliveryStatus(_ context.Context, id string) (*models.DeliveryStatus, error) {
	status, ok := s.statuses[id]
	if !ok {
		return nil, nil
	}
	return &status, nil
}

func setupOpsApp(t *testing.T, w *stubWorker) (*fiber.App, staffFixture) {
	t.Helper()
	f := seedStaff(t, setupTestDB(t))

	inspector := stubInspector{statuses: map[string]models.DeliveryStatus{
		"reminder_1_abcdef01": {JobID: "reminder_1_abcdef01", Status: models.DeliveryFailed, Error: "smtp down", RecordedAt: time.Now().UTC()},
	}}

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: testSecret}, router.Dependencies{
		OpsHandler:    handler.NewOpsHandler(w, inspector, testLogger()),
		JWTMiddleware: middleware.JWTProtected(testSecret),
	})
	return app, f
}

func TestOpsEndpointsRequireManager(t *testing.T) {
	app, f := setupOpsApp(t, &stubWorker{running: true})

	resp := doJSON(t, app, http.MethodGet, "/api/v1/ops/worker", facilitatorToken(t, f.facilitator), nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/ops/worker", managerToken(t, f), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestOpsManualTriggers(t *testing.T) {
	w := &stubWorker{running: true, overdue: 4, outcome: &worker.Outcome{JobID: "alert_9_deadbeef", Type: models.NotificationAlert, Status: models.DeliveryDelivered}}
	app, f := setupOpsApp(t, w)
	token := managerToken(t, f)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/ops/overdue-check", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var overdue struct {
		Data dto.OverdueCheckResponse `json:"data"`
	}
	decodeResponse(t, resp, &overdue)
	require.Equal(t, 4, overdue.Data.OverdueCount)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/ops/queues/alert/process", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var processed struct {
		Data dto.ProcessQueueResponse `json:"data"`
	}
	decodeResponse(t, resp, &processed)
	require.True(t, processed.Data.Processed)
	require.Equal(t, "ALERT", processed.Data.Type)
	require.Equal(t, "alert_9_deadbeef", processed.Data.JobID)
	require.Equal(t, []models.NotificationType{models.NotificationAlert}, w.processed)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/ops/queues/digest/process", token, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestOpsStoppedWorkerConflicts(t *testing.T) {
	app, f := setupOpsApp(t, &stubWorker{running: false})
	token := managerToken(t, f)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/ops/overdue-check", token, nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/ops/queues/REMINDER/process", token, nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestOpsQueueDepthsAndDeliveryStatus(t *testing.T) {
	app, f := setupOpsApp(t, &stubWorker{running: true})
	token := managerToken(t, f)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/ops/queues", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var depths struct {
		Data dto.QueueDepthResponse `json:"data"`
	}
	decodeResponse(t, resp, &depths)
	require.Equal(t, int64(2), depths.Data.Queues["REMINDER"])
	require.Equal(t, int64(1), depths.Data.Queues["DEADLINE"])

	resp = doJSON(t, app, http.MethodGet, "/api/v1/ops/deliveries/reminder_1_abcdef01", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var delivery struct {
		Data models.DeliveryStatus `json:"data"`
	}
	decodeResponse(t, resp, &delivery)
	require.Equal(t, models.DeliveryFailed, delivery.Data.Status)
	require.Equal(t, "smtp down", delivery.Data.Error)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/ops/deliveries/missing", token, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
