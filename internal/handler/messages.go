package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/replyflow/inbox/internal/middleware"
	"github.com/replyflow/inbox/internal/model"
	"github.com/replyflow/inbox/internal/service"
	"github.com/replyflow/inbox/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	conversationService *service.ConversationService
	events              publisher
	logger              *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(
	convSvc *service.ConversationService,
	events EventPublisher,
	log *logger.Logger,
) *MessageHandler {
	return &MessageHandler{
		conversationService: convSvc,
		events:              publisher{events: events, logger: log},
		logger:              log,
	}
}

// List handles GET /api/v1/conversations/:id/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.conversationService.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "get messages")
		return
	}

	messages := conv.Messages
	if messages == nil {
		messages = []model.Message{}
	}

	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{
		ConversationID: conv.ID,
		Messages:       messages,
	})
}

// Send handles POST /api/v1/conversations/:id/messages
// An agent reply moves an open conversation to pending. A customer message
// bumps the unread count.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := middleware.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var draft model.MessageDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if draft.Sender == "" {
		draft.Sender = model.SenderAgent
	}

	if err := middleware.ValidateSender(draft.Sender); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageContent(draft.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.conversationService.AppendMessage(ctx, id, draft)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "send message")
		return
	}

	if msg.FromAgent() {
		h.moveToPending(r, id)
	} else if _, err := h.conversationService.IncrementUnread(ctx, id, 1); err != nil {
		h.logger.Warn("failed to bump unread count",
			zap.Int("conversation_id", id),
			zap.Error(err),
		)
	}

	h.events.publish(r, model.EntityConversation, id, model.EventMessageAppended, map[string]any{
		"message_id": msg.ID,
		"sender":     msg.Sender,
	})

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) moveToPending(r *http.Request, id int) {
	_, changed, err := h.conversationService.TransitionStatus(r.Context(), id, model.StatusOpen, model.StatusPending)
	if err != nil {
		h.logger.Warn("failed to move conversation to pending",
			zap.Int("conversation_id", id),
			zap.Error(err),
		)
		return
	}
	if !changed {
		return
	}

	h.events.publish(r, model.EntityConversation, id, model.EventStatusChanged, map[string]any{
		"status": model.StatusPending,
	})
}
