package middleware

import (
	"time"

	"triage_server/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// Latency records per-route latency into the given registry.
// Routes are keyed as "METHOD /route/pattern" so path parameters collapse
// into a single tracker.
func Latency(registry *metrics.LatencyRegistry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		registry.Record(c.Method()+" "+c.Route().Path, time.Since(start))
		return err
	}
}
