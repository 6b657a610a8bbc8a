// Package model defines data structures for the inbox.
package model

import (
	"time"
)

// Platform is the messaging channel a conversation arrived on.
type Platform string

const (
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
)

// Platforms returns every supported platform in display order.
func Platforms() []Platform {
	return []Platform{PlatformWhatsApp, PlatformFacebook, PlatformInstagram, PlatformTwitter}
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	for _, known := range Platforms() {
		if p == known {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a conversation.
type Status string

const (
	StatusOpen     Status = "open"
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPending, StatusResolved:
		return true
	}
	return false
}

// Priority ranks a conversation for triage.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

// String returns the label shown to agents.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	default:
		return "Low"
	}
}

// Conversation represents a customer thread on one platform.
type Conversation struct {
	ID              int        `json:"id" yaml:"id"`
	CustomerName    string     `json:"customer_name" yaml:"customer_name"`
	Platform        Platform   `json:"platform" yaml:"platform"`
	Status          Status     `json:"status" yaml:"status"`
	Priority        Priority   `json:"priority" yaml:"priority"`
	UnreadCount     int        `json:"unread_count" yaml:"unread_count"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty" yaml:"last_message_time,omitempty"`
	Messages        []Message  `json:"messages" yaml:"messages"`
}

// Clone returns a deep copy of the conversation.
func (c Conversation) Clone() Conversation {
	out := c
	if c.LastMessageTime != nil {
		t := *c.LastMessageTime
		out.LastMessageTime = &t
	}
	if c.Messages != nil {
		out.Messages = make([]Message, len(c.Messages))
		copy(out.Messages, c.Messages)
	}
	return out
}

// CreateConversationRequest is the request to open a new conversation.
type CreateConversationRequest struct {
	CustomerName string         `json:"customer_name"`
	Platform     Platform       `json:"platform"`
	Status       Status         `json:"status,omitempty"`
	Priority     Priority       `json:"priority,omitempty"`
	UnreadCount  int            `json:"unread_count,omitempty"`
	Messages     []MessageDraft `json:"messages,omitempty"`
}

// UpdateStatusRequest is the request to change a conversation's status.
type UpdateStatusRequest struct {
	Status Status `json:"status"`
}

// UnreadSummary aggregates unread counts across the inbox.
type UnreadSummary struct {
	Total       int              `json:"total"`
	PerPlatform map[Platform]int `json:"per_platform"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}

// InboxStats holds the analytics figures for the inbox.
type InboxStats struct {
	Total          int              `json:"total"`
	Open           int              `json:"open"`
	Pending        int              `json:"pending"`
	Resolved       int              `json:"resolved"`
	HighPriority   int              `json:"high_priority"`
	PerPlatform    map[Platform]int `json:"per_platform"`
	ResolutionRate int              `json:"resolution_rate"`
}
