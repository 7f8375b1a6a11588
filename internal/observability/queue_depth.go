package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueDepthFunc reports how many jobs wait in each notification queue.
type QueueDepthFunc func(ctx context.Context) (map[string]int64, error)

type queueDepthCollector struct {
	desc    *prometheus.Desc
	depth   QueueDepthFunc
	timeout time.Duration
}

// NewQueueDepthCollector reads queue depths from Redis at scrape time.
func NewQueueDepthCollector(depth QueueDepthFunc) prometheus.Collector {
	return &queueDepthCollector{
		desc: prometheus.NewDesc(
			"coursetrack_notification_queue_depth",
			"Notification jobs waiting per queue.",
			[]string{"type"}, nil,
		),
		depth:   depth,
		timeout: 2 * time.Second,
	}
}

func (c *queueDepthCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *queueDepthCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	lengths, err := c.depth(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.desc, err)
		return
	}
	for queueType, n := range lengths {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), queueType)
	}
}
