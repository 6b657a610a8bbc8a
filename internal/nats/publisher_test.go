package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/replyflow/inbox/internal/model"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		event *model.InboxEvent
		want  string
	}{
		{&model.InboxEvent{Kind: model.EntityConversation, EntityID: 7, Type: model.EventMessageAppended}, "inbox.conversation.7.message"},
		{&model.InboxEvent{Kind: model.EntityConversation, EntityID: 1, Type: model.EventStatusChanged}, "inbox.conversation.1.status"},
		{&model.InboxEvent{Kind: model.EntityTemplate, EntityID: 12, Type: model.EventTemplateDeleted}, "inbox.template.12.deleted"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Subject(tt.event))
		})
	}
}
