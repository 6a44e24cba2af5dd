package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"triage_server/core/domain"
	"triage_server/core/port/out"
	"triage_server/core/service/metrics"
	"triage_server/pkg/apperr"
	"triage_server/pkg/response"
	"triage_server/pkg/snowflake"
)

// MetricsHandler handles evaluation ingestion and the consolidated metrics view.
type MetricsHandler struct {
	aggregator *metrics.Service
	producer   out.EvaluationProducer // nil applies evaluations inline
	idGen      *snowflake.Generator
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(aggregator *metrics.Service, producer out.EvaluationProducer, idGen *snowflake.Generator) *MetricsHandler {
	return &MetricsHandler{
		aggregator: aggregator,
		producer:   producer,
		idGen:      idGen,
	}
}

// Register registers metrics routes.
func (h *MetricsHandler) Register(router fiber.Router) {
	router.Post("/evaluations", h.CreateEvaluation)

	group := router.Group("/metrics")
	group.Get("/", h.GetMetrics)
	group.Post("/rebuild", h.Rebuild)
}

// CreateEvaluation accepts one post-conversation evaluation.
//
// With a stream producer configured the evaluation is queued and applied by
// the stream consumer; the response is 202 with the assigned ID. Without one
// it is folded into the aggregate inline and the response is 201.
// @Summary Submit an evaluation
// @Tags Metrics
// @Accept json
// @Produce json
// @Router /api/v1/evaluations [post]
func (h *MetricsHandler) CreateEvaluation(c *fiber.Ctx) error {
	var rec domain.EvaluationRecord
	if err := c.BodyParser(&rec); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	if err := rec.Validate(); err != nil {
		return apperr.ValidationFailed(err.Error()).WithError(err)
	}

	if rec.ID == 0 {
		rec.ID = h.idGen.MustGenerate()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	if h.producer != nil {
		if _, err := h.producer.PublishEvaluation(c.Context(), &rec); err != nil {
			return apperr.StorageError("queue evaluation", err)
		}
		return response.Accepted(c, fiber.Map{"id": rec.ID})
	}

	updated, err := h.aggregator.Record(c.Context(), &rec)
	if err != nil {
		return err
	}
	return response.Created(c, fiber.Map{
		"id":          rec.ID,
		"total_count": updated.TotalCount,
		"global_nps":  updated.GlobalNPS,
	})
}

// GetMetrics returns the consolidated metrics aggregate.
// @Summary Get consolidated metrics
// @Tags Metrics
// @Produce json
// @Success 200 {object} domain.ConsolidatedMetrics
// @Router /api/v1/metrics [get]
func (h *MetricsHandler) GetMetrics(c *fiber.Ctx) error {
	m, err := h.aggregator.Current(c.Context())
	if err != nil {
		return err
	}
	return response.OK(c, m)
}

// Rebuild recomputes the aggregate from the evaluation archive.
// @Summary Rebuild consolidated metrics from the archive
// @Tags Metrics
// @Produce json
// @Router /api/v1/metrics/rebuild [post]
func (h *MetricsHandler) Rebuild(c *fiber.Ctx) error {
	rebuilt, err := h.aggregator.Rebuild(c.Context())
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{
		"total_count": rebuilt.TotalCount,
		"global_nps":  rebuilt.GlobalNPS,
		"version":     rebuilt.Version,
	})
}
