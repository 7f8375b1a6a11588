package observability

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerReportsQueueDepth(t *testing.T) {
	depth := func(context.Context) (map[string]int64, error) {
		return map[string]int64{"REMINDER": 2, "ALERT": 0, "DEADLINE": 5}, nil
	}

	app := fiber.New()
	app.Get("/metrics", MetricsHandler(NewQueueDepthCollector(depth)))
	// a second registration of an equivalent collector is tolerated
	app.Get("/metrics/again", MetricsHandler(NewQueueDepthCollector(depth)))

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `coursetrack_notification_queue_depth{type="REMINDER"} 2`)
	require.Contains(t, string(body), `coursetrack_notification_queue_depth{type="DEADLINE"} 5`)
}

func TestQueueDepthCollectorReportsStoreErrors(t *testing.T) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(NewQueueDepthCollector(func(context.Context) (map[string]int64, error) {
		return nil, errors.New("redis down")
	}))

	_, err := registry.Gather()
	require.ErrorContains(t, err, "redis down")
}
