package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/replyflow/inbox/internal/model"
	"github.com/replyflow/inbox/pkg/logger"
	"github.com/replyflow/inbox/pkg/metrics"
)

// ConversationService owns the in-memory conversation collection.
type ConversationService struct {
	logger *logger.Logger
	opts   options

	// Ordered as seeded, new conversations appended. Never handed out
	// without cloning.
	conversations []model.Conversation
	mu            sync.RWMutex
}

// NewConversationService creates a conversation service holding a copy of seed.
func NewConversationService(seed []model.Conversation, log *logger.Logger, opts ...Option) *ConversationService {
	s := &ConversationService{
		logger:        log,
		opts:          newOptions(opts),
		conversations: make([]model.Conversation, 0, len(seed)),
	}
	for _, conv := range seed {
		conv = conv.Clone()
		syncLastMessageTime(&conv)
		s.conversations = append(s.conversations, conv)
	}
	s.refreshUnreadLocked()
	return s
}

// ListAll returns every conversation in collection order.
func (s *ConversationService) ListAll(ctx context.Context) ([]model.Conversation, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneConversations(s.conversations, nil), nil
}

// GetByID retrieves a conversation by ID.
func (s *ConversationService) GetByID(ctx context.Context, id int) (*model.Conversation, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, conversationNotFound(id)
	}
	conv := s.conversations[i].Clone()
	return &conv, nil
}

// ListByPlatform returns the conversations on one platform.
func (s *ConversationService) ListByPlatform(ctx context.Context, platform model.Platform) ([]model.Conversation, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneConversations(s.conversations, func(c *model.Conversation) bool {
		return c.Platform == platform
	}), nil
}

// Create adds a new conversation. Initial messages are numbered from 1 and
// stamped with the current time.
func (s *ConversationService) Create(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	conv := model.Conversation{
		CustomerName: req.CustomerName,
		Platform:     req.Platform,
		Status:       req.Status,
		Priority:     req.Priority,
		UnreadCount:  req.UnreadCount,
		Messages:     make([]model.Message, 0, len(req.Messages)),
	}
	if conv.Status == "" {
		conv.Status = model.StatusOpen
	}
	if conv.Priority == 0 {
		conv.Priority = model.PriorityLow
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, draft := range req.Messages {
		conv.Messages = append(conv.Messages, newMessage(len(conv.Messages)+1, draft, s.opts.clock()))
	}
	syncLastMessageTime(&conv)

	conv.ID = s.nextID()
	s.conversations = append(s.conversations, conv)
	s.refreshUnreadLocked()

	metrics.ConversationsCreated.WithLabelValues(string(conv.Platform)).Inc()
	s.logger.Info("conversation created",
		zap.Int("conversation_id", conv.ID),
		zap.String("platform", string(conv.Platform)),
	)

	out := conv.Clone()
	return &out, nil
}

// UpdateStatus sets the conversation status. Any status is accepted from
// any current state.
func (s *ConversationService) UpdateStatus(ctx context.Context, id int, status model.Status) (*model.Conversation, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, conversationNotFound(id)
	}

	s.setStatusLocked(i, status)

	conv := s.conversations[i].Clone()
	return &conv, nil
}

// TransitionStatus moves a conversation to status to only if it is currently
// in status from. The check and the write happen under one lock. changed
// reports whether the status was written; the returned conversation is the
// current state either way.
func (s *ConversationService) TransitionStatus(ctx context.Context, id int, from, to model.Status) (conv *model.Conversation, changed bool, err error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, false, conversationNotFound(id)
	}

	if s.conversations[i].Status == from {
		s.setStatusLocked(i, to)
		changed = true
	}

	out := s.conversations[i].Clone()
	return &out, changed, nil
}

func (s *ConversationService) setStatusLocked(i int, status model.Status) {
	previous := s.conversations[i].Status
	s.conversations[i].Status = status

	metrics.StatusChanges.WithLabelValues(string(previous), string(status)).Inc()
	s.logger.Debug("conversation status updated",
		zap.Int("conversation_id", s.conversations[i].ID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
	)
}

// AppendMessage adds a message to the end of a conversation thread and
// returns it with its assigned ID and timestamp.
func (s *ConversationService) AppendMessage(ctx context.Context, conversationID int, draft model.MessageDraft) (*model.Message, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(conversationID)
	if i < 0 {
		return nil, conversationNotFound(conversationID)
	}
	conv := &s.conversations[i]

	nextID := 1
	for _, m := range conv.Messages {
		if m.ID >= nextID {
			nextID = m.ID + 1
		}
	}

	msg := newMessage(nextID, draft, s.opts.clock())
	conv.Messages = append(conv.Messages, msg)
	ts := msg.Timestamp
	conv.LastMessageTime = &ts

	metrics.MessagesAppended.WithLabelValues(string(conv.Platform), senderKind(msg)).Inc()
	s.logger.Debug("message appended",
		zap.Int("conversation_id", conversationID),
		zap.Int("message_id", msg.ID),
		zap.Bool("ai_suggestion", msg.IsAISuggestion),
	)

	return &msg, nil
}

// MarkAsRead resets the unread count of a conversation.
func (s *ConversationService) MarkAsRead(ctx context.Context, id int) (*model.Conversation, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, conversationNotFound(id)
	}

	s.conversations[i].UnreadCount = 0
	s.refreshUnreadLocked()

	conv := s.conversations[i].Clone()
	return &conv, nil
}

// IncrementUnread adds n to the unread count of a conversation, recording
// inbound customer activity.
func (s *ConversationService) IncrementUnread(ctx context.Context, id int, n int) (*model.Conversation, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, conversationNotFound(id)
	}

	s.conversations[i].UnreadCount += n
	if s.conversations[i].UnreadCount < 0 {
		s.conversations[i].UnreadCount = 0
	}
	s.refreshUnreadLocked()

	conv := s.conversations[i].Clone()
	return &conv, nil
}

// UnreadSummary sums unread counts overall and per platform. Every known
// platform is present in the result, with 0 when it has no conversations.
func (s *ConversationService) UnreadSummary(ctx context.Context) (*model.UnreadSummary, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := s.unreadSummaryLocked()
	return &summary, nil
}

// Search returns conversations whose customer name or any message content
// contains query, ignoring case. An empty query matches everything.
func (s *ConversationService) Search(ctx context.Context, query string) ([]model.Conversation, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	q := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneConversations(s.conversations, func(c *model.Conversation) bool {
		if strings.Contains(strings.ToLower(c.CustomerName), q) {
			return true
		}
		for _, m := range c.Messages {
			if strings.Contains(strings.ToLower(m.Content), q) {
				return true
			}
		}
		return false
	}), nil
}

// Stats computes the analytics figures for the inbox.
func (s *ConversationService) Stats(ctx context.Context) (*model.InboxStats, error) {
	if err := s.opts.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &model.InboxStats{
		Total:       len(s.conversations),
		PerPlatform: make(map[model.Platform]int),
	}
	for _, p := range model.Platforms() {
		stats.PerPlatform[p] = 0
	}

	for _, c := range s.conversations {
		switch c.Status {
		case model.StatusOpen:
			stats.Open++
		case model.StatusPending:
			stats.Pending++
		case model.StatusResolved:
			stats.Resolved++
		}
		if c.Priority == model.PriorityHigh {
			stats.HighPriority++
		}
		stats.PerPlatform[c.Platform]++
	}

	if stats.Total > 0 {
		stats.ResolutionRate = int(math.Round(float64(stats.Resolved) / float64(stats.Total) * 100))
	}

	return stats, nil
}

func (s *ConversationService) indexOf(id int) int {
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *ConversationService) nextID() int {
	next := 1
	for _, c := range s.conversations {
		if c.ID >= next {
			next = c.ID + 1
		}
	}
	return next
}

func (s *ConversationService) unreadSummaryLocked() model.UnreadSummary {
	summary := model.UnreadSummary{PerPlatform: make(map[model.Platform]int)}
	for _, p := range model.Platforms() {
		summary.PerPlatform[p] = 0
	}
	for _, c := range s.conversations {
		summary.Total += c.UnreadCount
		summary.PerPlatform[c.Platform] += c.UnreadCount
	}
	return summary
}

func (s *ConversationService) refreshUnreadLocked() {
	for platform, n := range s.unreadSummaryLocked().PerPlatform {
		metrics.UnreadMessages.WithLabelValues(string(platform)).Set(float64(n))
	}
}

func conversationNotFound(id int) error {
	return fmt.Errorf("conversation %d: %w", id, ErrNotFound)
}

func cloneConversations(src []model.Conversation, keep func(*model.Conversation) bool) []model.Conversation {
	out := make([]model.Conversation, 0, len(src))
	for i := range src {
		if keep != nil && !keep(&src[i]) {
			continue
		}
		out = append(out, src[i].Clone())
	}
	return out
}

func newMessage(id int, draft model.MessageDraft, now time.Time) model.Message {
	sentiment := draft.Sentiment
	if sentiment == "" {
		sentiment = model.SentimentNeutral
	}
	return model.Message{
		ID:             id,
		Sender:         draft.Sender,
		Content:        draft.Content,
		Sentiment:      sentiment,
		IsAISuggestion: draft.IsAISuggestion,
		Timestamp:      now,
	}
}

// syncLastMessageTime makes LastMessageTime match the newest message, or
// clears it for an empty thread.
func syncLastMessageTime(c *model.Conversation) {
	if len(c.Messages) == 0 {
		c.LastMessageTime = nil
		return
	}
	ts := c.Messages[len(c.Messages)-1].Timestamp
	c.LastMessageTime = &ts
}

func senderKind(m model.Message) string {
	if m.FromAgent() {
		return "agent"
	}
	return "customer"
}
