package model

import (
	"time"
)

// SenderAgent marks messages written by an agent. Any other sender value is
// the customer identifier.
const SenderAgent = "agent"

// Sentiment is the tone attached to a message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Message represents one entry in a conversation thread.
type Message struct {
	ID             int       `json:"id" yaml:"id"`
	Sender         string    `json:"sender" yaml:"sender"`
	Content        string    `json:"content" yaml:"content"`
	Sentiment      Sentiment `json:"sentiment" yaml:"sentiment"`
	IsAISuggestion bool      `json:"is_ai_suggestion" yaml:"is_ai_suggestion"`
	Timestamp      time.Time `json:"timestamp" yaml:"timestamp"`
}

// FromAgent reports whether the message was sent by an agent.
func (m Message) FromAgent() bool {
	return m.Sender == SenderAgent
}

// MessageDraft is the caller-supplied part of a new message. The store
// assigns the ID and timestamp.
type MessageDraft struct {
	Sender         string    `json:"sender" yaml:"sender"`
	Content        string    `json:"content" yaml:"content"`
	Sentiment      Sentiment `json:"sentiment,omitempty" yaml:"sentiment,omitempty"`
	IsAISuggestion bool      `json:"is_ai_suggestion,omitempty" yaml:"is_ai_suggestion,omitempty"`
}

// ListMessagesResponse is the response for listing a thread.
type ListMessagesResponse struct {
	ConversationID int       `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}

// Suggestion is a proposed agent reply.
type Suggestion struct {
	Text       string `json:"text"`
	Confidence int    `json:"confidence"`
	Type       string `json:"type"`
}

// SuggestionsResponse is the response for listing reply suggestions.
type SuggestionsResponse struct {
	ConversationID int          `json:"conversation_id"`
	Suggestions    []Suggestion `json:"suggestions"`
}

// TokenEvent represents a streaming token event.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// ErrorEvent represents an error event.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
