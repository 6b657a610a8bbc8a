package model

import (
	"time"
)

// EventType represents the kind of inbox activity.
type EventType string

const (
	EventConversationCreated EventType = "created"
	EventMessageAppended     EventType = "message"
	EventStatusChanged       EventType = "status"
	EventConversationRead    EventType = "read"
	EventTemplateCreated     EventType = "created"
	EventTemplateUpdated     EventType = "updated"
	EventTemplateDeleted     EventType = "deleted"
)

// EntityKind names what an event is about.
type EntityKind string

const (
	EntityConversation EntityKind = "conversation"
	EntityTemplate     EntityKind = "template"
)

// InboxEvent records a change made through the API.
type InboxEvent struct {
	ID          string         `json:"id"`
	Kind        EntityKind     `json:"kind"`
	EntityID    int            `json:"entity_id"`
	Type        EventType      `json:"type"`
	WorkspaceID string         `json:"workspace_id,omitempty"`
	AgentID     string         `json:"agent_id,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
