package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/replyflow/inbox/internal/model"
	"github.com/replyflow/inbox/pkg/metrics"
)

const (
	// StreamName is the name of the inbox activity stream.
	StreamName = "INBOX"

	// SubjectPrefix is the prefix for all inbox subjects.
	SubjectPrefix = "inbox"
)

// Publisher writes inbox events to JetStream.
type Publisher struct {
	client *Client
}

// NewPublisher creates a new publisher.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// EnsureStream ensures the inbox stream exists with proper configuration.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Inbox conversation and template activity",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// Subject returns the subject an event is published on, for example
// inbox.conversation.7.message.
func Subject(event *model.InboxEvent) string {
	return fmt.Sprintf("%s.%s.%d.%s", SubjectPrefix, event.Kind, event.EntityID, event.Type)
}

// Publish publishes an event to JetStream. The event ID is used as the
// message ID so retried publishes are de-duplicated by the server.
func (p *Publisher) Publish(ctx context.Context, event *model.InboxEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.client.JetStream().Publish(ctx, Subject(event), data, jetstream.WithMsgID(event.ID))
	if err != nil {
		metrics.EventsPublished.WithLabelValues(string(event.Kind), "error").Inc()
		return fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.EventsPublished.WithLabelValues(string(event.Kind), "ok").Inc()
	return nil
}
