package observability

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber. Extra collectors, such as
// the queue depth collector, join the default registry. Registering the same collector twice
// is ignored; any other registration error panics like prometheus.MustRegister.
func MetricsHandler(extra ...prometheus.Collector) fiber.Handler {
	RegisterMetrics()

	for _, collector := range extra {
		if err := prometheus.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				panic(err)
			}
		}
	}
	return adaptor.HTTPHandler(promhttp.Handler())
}
