package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"triage_server/core/domain"
	"triage_server/core/service/conversation"
	"triage_server/core/service/suggest"
	"triage_server/pkg/apperr"
	"triage_server/pkg/response"
)

// ConversationHandler handles HTTP requests for stored conversations.
type ConversationHandler struct {
	convService    *conversation.Service
	suggestService *suggest.Service // nil when no LLM is configured
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(convService *conversation.Service, suggestService *suggest.Service) *ConversationHandler {
	return &ConversationHandler{
		convService:    convService,
		suggestService: suggestService,
	}
}

// Register registers conversation routes.
func (h *ConversationHandler) Register(router fiber.Router) {
	convs := router.Group("/conversations")

	convs.Get("/rank", h.RankOpen)
	convs.Put("/:id", h.Upsert)
	convs.Get("/:id", h.Get)
	convs.Post("/:id/retriage", h.Retriage)
	convs.Post("/retriage", h.RetriageAll)
	convs.Get("/:id/suggestion", h.Suggest)
}

// RankOpen returns every open conversation ordered by priority.
// @Summary Rank open conversations
// @Tags Conversations
// @Produce json
// @Success 200 {array} domain.PriorityScore
// @Router /api/v1/conversations/rank [get]
func (h *ConversationHandler) RankOpen(c *fiber.Ctx) error {
	scores, err := h.convService.RankOpen(c.Context(), time.Now())
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, scores, &response.Meta{Total: len(scores)})
}

// Upsert stores a conversation snapshot and triggers its triage.
// @Summary Upsert a conversation snapshot
// @Tags Conversations
// @Accept json
// @Produce json
// @Router /api/v1/conversations/{id} [put]
func (h *ConversationHandler) Upsert(c *fiber.Ctx) error {
	var conv domain.ConversationSnapshot
	if err := c.BodyParser(&conv); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	conv.ID = c.Params("id")

	if conv.Status == "" {
		conv.Status = domain.ConversationOpen
	}
	if conv.StartTime.IsZero() {
		conv.StartTime = time.Now()
	}

	if err := h.convService.Upsert(c.Context(), &conv); err != nil {
		return err
	}
	return response.OK(c, conv)
}

// Get returns one conversation snapshot.
// @Summary Get a conversation
// @Tags Conversations
// @Produce json
// @Router /api/v1/conversations/{id} [get]
func (h *ConversationHandler) Get(c *fiber.Ctx) error {
	conv, err := h.convService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return response.OK(c, conv)
}

// Retriage recomputes the triage signals of one conversation.
// @Summary Re-run triage on a conversation
// @Tags Conversations
// @Router /api/v1/conversations/{id}/retriage [post]
func (h *ConversationHandler) Retriage(c *fiber.Ctx) error {
	if err := h.convService.Retriage(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return response.NoContent(c)
}

// RetriageAll queues every open conversation for re-triage.
// @Summary Queue re-triage of all open conversations
// @Tags Conversations
// @Produce json
// @Router /api/v1/conversations/retriage [post]
func (h *ConversationHandler) RetriageAll(c *fiber.Ctx) error {
	queued, err := h.convService.RetriageAll(c.Context())
	if err != nil {
		return err
	}
	return response.Accepted(c, fiber.Map{"queued": queued})
}

// Suggest drafts a reply to the latest client message.
// @Summary Suggest an agent reply
// @Tags Conversations
// @Produce json
// @Router /api/v1/conversations/{id}/suggestion [get]
func (h *ConversationHandler) Suggest(c *fiber.Ctx) error {
	if h.suggestService == nil {
		return apperr.Conflict("reply suggestions are not configured")
	}

	suggestion, err := h.suggestService.SuggestReply(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return response.OK(c, suggestion)
}
