package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/replyflow/inbox/internal/middleware"
	"github.com/replyflow/inbox/internal/model"
	"github.com/replyflow/inbox/internal/service"
	"github.com/replyflow/inbox/pkg/logger"
	"github.com/replyflow/inbox/pkg/metrics"
)

// SuggestionHandler handles reply suggestion endpoints.
type SuggestionHandler struct {
	service             *service.SuggestionService
	conversationService *service.ConversationService
	logger              *logger.Logger
}

// NewSuggestionHandler creates a new suggestion handler.
func NewSuggestionHandler(
	svc *service.SuggestionService,
	convSvc *service.ConversationService,
	log *logger.Logger,
) *SuggestionHandler {
	return &SuggestionHandler{
		service:             svc,
		conversationService: convSvc,
		logger:              log,
	}
}

// List handles GET /api/v1/conversations/:id/suggestions
func (h *SuggestionHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestions, err := h.service.Generate(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "generate suggestions")
		return
	}
	if suggestions == nil {
		suggestions = []model.Suggestion{}
	}

	writeJSON(w, http.StatusOK, &model.SuggestionsResponse{
		ConversationID: id,
		Suggestions:    suggestions,
	})
}

// Stream handles POST /api/v1/conversations/:id/suggestions/stream
// The suggestion is sent as server-sent "token" events followed by "done".
func (h *SuggestionHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Fail before switching to SSE so a missing conversation is a plain 404.
	if _, err := h.conversationService.GetByID(ctx, id); err != nil {
		writeServiceError(w, r, h.logger, err, "stream suggestion")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	text, err := h.service.Stream(ctx, id, func(token string, index int) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		return sendSSEEvent(w, flusher, "token", &model.TokenEvent{
			Token: token,
			Index: index,
		})
	})
	if err != nil {
		requestLogger(h.logger, r).Warn("suggestion stream failed",
			zap.Int("conversation_id", id),
			zap.Error(err),
		)
		sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
			Code:    "stream_error",
			Message: "failed to generate suggestion",
		})
		return
	}

	sendSSEEvent(w, flusher, "done", map[string]any{
		"conversation_id": id,
		"text":            text,
	})
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
