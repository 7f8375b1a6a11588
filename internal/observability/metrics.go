package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	notificationsEnqueued  *prometheus.CounterVec
	notificationsProcessed *prometheus.CounterVec
	overdueChecksTotal     *prometheus.CounterVec
	overdueRecordsFound    prometheus.Gauge
	inboxClientsActive     prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the API and the worker.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursetrack_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coursetrack_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursetrack_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		notificationsEnqueued = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursetrack_notifications_enqueued_total",
			Help: "Notification jobs pushed onto the queue.",
		}, []string{"type"})

		notificationsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursetrack_notifications_processed_total",
			Help: "Notification jobs taken off the queue by the worker, by outcome.",
		}, []string{"type", "status"})

		overdueChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coursetrack_overdue_checks_total",
			Help: "Overdue activity log scans, by outcome.",
		}, []string{"status"})

		overdueRecordsFound = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coursetrack_overdue_activity_logs",
			Help: "Overdue activity logs found by the latest scan.",
		})

		inboxClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coursetrack_inbox_stream_clients",
			Help: "Open inbox event streams.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			notificationsEnqueued,
			notificationsProcessed,
			overdueChecksTotal,
			overdueRecordsFound,
			inboxClientsActive,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// NotificationsEnqueued counts jobs per type.
func NotificationsEnqueued() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsEnqueued
}

// NotificationsProcessed counts worker outcomes per type.
func NotificationsProcessed() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsProcessed
}

// OverdueChecks counts overdue scans.
func OverdueChecks() *prometheus.CounterVec {
	RegisterMetrics()
	return overdueChecksTotal
}

// OverdueRecords reports the size of the latest overdue set.
func OverdueRecords() prometheus.Gauge {
	RegisterMetrics()
	return overdueRecordsFound
}

// InboxClientsActive tracks open SSE connections.
func InboxClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return inboxClientsActive
}
