// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/replyflow/inbox/internal/middleware"
	"github.com/replyflow/inbox/internal/model"
	"github.com/replyflow/inbox/internal/service"
	"github.com/replyflow/inbox/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	events  publisher
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler. events may be nil.
func NewConversationHandler(svc *service.ConversationService, events EventPublisher, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		events:  publisher{events: events, logger: log},
		logger:  log,
	}
}

// List handles GET /api/v1/conversations
// Supports ?platform=<name> and ?q=<search>. An empty or whitespace-only
// search returns every conversation.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	platform := model.Platform(r.URL.Query().Get("platform"))
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	if platform != "" {
		if err := middleware.ValidatePlatform(platform); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	var (
		convs []model.Conversation
		err   error
	)
	switch {
	case query != "":
		convs, err = h.service.Search(ctx, query)
	case platform != "":
		convs, err = h.service.ListByPlatform(ctx, platform)
	default:
		convs, err = h.service.ListAll(ctx)
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err, "list conversations")
		return
	}

	if query != "" && platform != "" {
		filtered := convs[:0]
		for _, c := range convs {
			if c.Platform == platform {
				filtered = append(filtered, c)
			}
		}
		convs = filtered
	}

	writeJSON(w, http.StatusOK, &model.ListConversationsResponse{
		Conversations: convs,
		Total:         len(convs),
	})
}

// Create handles POST /api/v1/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateCustomerName(req.CustomerName); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidatePlatform(req.Platform); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status != "" {
		if err := middleware.ValidateStatus(req.Status); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Priority != 0 && (req.Priority < model.PriorityLow || req.Priority > model.PriorityHigh) {
		writeError(w, http.StatusBadRequest, "priority must be 1, 2 or 3")
		return
	}
	if req.UnreadCount < 0 {
		writeError(w, http.StatusBadRequest, "unread count cannot be negative")
		return
	}

	conv, err := h.service.Create(ctx, &req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "create conversation")
		return
	}

	h.events.publish(r, model.EntityConversation, conv.ID, model.EventConversationCreated, map[string]any{
		"platform": conv.Platform,
	})

	writeJSON(w, http.StatusCreated, conv)
}

// Get handles GET /api/v1/conversations/:id
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "get conversation")
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// UpdateStatus handles PUT /api/v1/conversations/:id/status
func (h *ConversationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateStatus(req.Status); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "update status")
		return
	}

	h.events.publish(r, model.EntityConversation, id, model.EventStatusChanged, map[string]any{
		"status": conv.Status,
	})

	writeJSON(w, http.StatusOK, conv)
}

// MarkAsRead handles POST /api/v1/conversations/:id/read
func (h *ConversationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.MarkAsRead(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "mark conversation read")
		return
	}

	h.events.publish(r, model.EntityConversation, id, model.EventConversationRead, nil)

	writeJSON(w, http.StatusOK, conv)
}

// Unread handles GET /api/v1/conversations/unread
func (h *ConversationHandler) Unread(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.UnreadSummary(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "count unread messages")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Analytics handles GET /api/v1/analytics
func (h *ConversationHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "compute analytics")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
