package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/replyflow/inbox/internal/middleware"
	"github.com/replyflow/inbox/internal/model"
	"github.com/replyflow/inbox/internal/service"
	"github.com/replyflow/inbox/pkg/logger"
)

// EventPublisher receives inbox activity after a successful change.
type EventPublisher interface {
	Publish(ctx context.Context, event *model.InboxEvent) error
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeServiceError maps a store error to a response. Not-found becomes 404;
// anything else is logged and reported as 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error, action string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		requestLogger(log, r).Error("failed to "+action, zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// publisher stamps and sends inbox events. Publishing is best effort: a
// failure is logged and never fails the request.
type publisher struct {
	events EventPublisher
	logger *logger.Logger
}

func (p publisher) publish(r *http.Request, kind model.EntityKind, id int, eventType model.EventType, data map[string]any) {
	if p.events == nil {
		return
	}
	ctx := r.Context()
	event := &model.InboxEvent{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Kind:        kind,
		EntityID:    id,
		Type:        eventType,
		WorkspaceID: middleware.GetWorkspaceID(ctx),
		AgentID:     middleware.GetAgentID(ctx),
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}
	if err := p.events.Publish(ctx, event); err != nil {
		requestLogger(p.logger, r).Warn("failed to publish inbox event",
			zap.Error(err),
			zap.String("kind", string(kind)),
			zap.Int("entity_id", id),
			zap.String("type", string(eventType)),
		)
	}
}

func requestLogger(log *logger.Logger, r *http.Request) *logger.Logger {
	ctx := r.Context()
	return log.ForRequest(
		middleware.GetCorrelationID(ctx),
		middleware.GetWorkspaceID(ctx),
		middleware.GetAgentID(ctx),
	)
}
