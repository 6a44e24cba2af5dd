package http

import (
	"time"

	"triage_server/adapter/in/worker"
	"triage_server/pkg/metrics"

	"github.com/gofiber/fiber/v2"
)

// StatsHandler exposes runtime statistics: HTTP route latencies,
// database pool health and worker pool counters.
type StatsHandler struct {
	latency *metrics.LatencyRegistry
	pool    *worker.Pool
}

// NewStatsHandler creates a stats handler. pool may be nil when the
// process runs in api-only mode.
func NewStatsHandler(latency *metrics.LatencyRegistry, pool *worker.Pool) *StatsHandler {
	return &StatsHandler{
		latency: latency,
		pool:    pool,
	}
}

func (h *StatsHandler) Register(app *fiber.App) {
	app.Get("/stats", h.Stats)
}

// Stats returns runtime statistics.
// GET /stats
func (h *StatsHandler) Stats(c *fiber.Ctx) error {
	httpLatency := make(map[string]any)
	if h.latency != nil {
		for route, stats := range h.latency.AllStats() {
			httpLatency[route] = stats.ToMap()
		}
	}

	dbPools := make(map[string]any)
	for name, stats := range metrics.AllPoolStats() {
		dbPools[name] = fiber.Map{
			"stats":  stats.ToMap(),
			"health": metrics.AssessDBPoolHealth(stats),
		}
	}

	result := fiber.Map{
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"http_latency": httpLatency,
		"db_pools":     dbPools,
	}

	if h.pool != nil {
		jobLatency := make(map[string]any)
		for jobType, stats := range h.pool.LatencyStats() {
			jobLatency[jobType] = stats.ToMap()
		}
		result["worker_pool"] = fiber.Map{
			"metrics": h.pool.GetMetrics(),
			"latency": jobLatency,
		}
	}

	return c.JSON(result)
}
