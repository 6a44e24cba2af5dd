// Package http implements the inbound HTTP API.
package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"triage_server/core/domain"
	"triage_server/core/service/triage"
	"triage_server/pkg/apperr"
	"triage_server/pkg/response"
)

// TextHandler exposes the stateless text classification operations. Callers
// can triage arbitrary text without a stored conversation.
type TextHandler struct {
	ranker *triage.Ranker
}

// NewTextHandler creates a new TextHandler.
func NewTextHandler(ranker *triage.Ranker) *TextHandler {
	return &TextHandler{ranker: ranker}
}

// Register registers text triage routes.
func (h *TextHandler) Register(router fiber.Router) {
	group := router.Group("/triage")

	group.Post("/signals", h.Signals)
	group.Post("/quality", h.Quality)
	group.Post("/rank", h.Rank)
}

type textRequest struct {
	Text string `json:"text"`
}

// Signals extracts classification signals from one text.
// @Summary Extract triage signals from text
// @Tags Triage
// @Accept json
// @Produce json
// @Success 200 {object} domain.TextSignals
// @Router /api/v1/triage/signals [post]
func (h *TextHandler) Signals(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	signals := triage.ExtractSignals(req.Text)
	return response.OK(c, signals)
}

// Quality scores an agent response text.
// @Summary Score the quality of an agent response
// @Tags Triage
// @Accept json
// @Produce json
// @Success 200 {object} domain.QualityScore
// @Router /api/v1/triage/quality [post]
func (h *TextHandler) Quality(c *fiber.Ctx) error {
	var req textRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	score := triage.ScoreResponse(req.Text)
	return response.OK(c, score)
}

type rankRequest struct {
	Conversations []*domain.ConversationSnapshot `json:"conversations"`
}

// Rank orders caller-supplied conversation snapshots by priority.
// @Summary Rank conversation snapshots
// @Tags Triage
// @Accept json
// @Produce json
// @Success 200 {array} domain.PriorityScore
// @Router /api/v1/triage/rank [post]
func (h *TextHandler) Rank(c *fiber.Ctx) error {
	var req rankRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	scores := h.ranker.Rank(time.Now(), req.Conversations)
	return response.OKWithMeta(c, scores, &response.Meta{Total: len(scores)})
}
