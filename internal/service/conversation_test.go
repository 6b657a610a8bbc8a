package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/replyflow/inbox/internal/model"
	"github.com/replyflow/inbox/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var base = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// stepClock returns a clock that advances one second per call.
func stepClock() Clock {
	var mu sync.Mutex
	now := base
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func fixtureConversations() []model.Conversation {
	return []model.Conversation{
		{
			ID: 1, CustomerName: "Sarah Johnson", Platform: model.PlatformWhatsApp,
			Status: model.StatusOpen, Priority: model.PriorityHigh, UnreadCount: 2,
			Messages: []model.Message{
				{ID: 1, Sender: "sarah", Content: "Where is my order?", Sentiment: model.SentimentNegative, Timestamp: base},
				{ID: 2, Sender: "sarah", Content: "I want a REFUND", Sentiment: model.SentimentNegative, Timestamp: base.Add(time.Minute)},
			},
		},
		{
			ID: 4, CustomerName: "Mike Chen", Platform: model.PlatformFacebook,
			Status: model.StatusPending, Priority: model.PriorityMedium, UnreadCount: 1,
			Messages: []model.Message{
				{ID: 3, Sender: "mike", Content: "Do you ship to Canada?", Timestamp: base},
			},
		},
		{
			ID: 2, CustomerName: "Emma Wilson", Platform: model.PlatformWhatsApp,
			Status: model.StatusResolved, Priority: model.PriorityLow, UnreadCount: 5,
		},
	}
}

func newConversationService(t *testing.T, opts ...Option) *ConversationService {
	t.Helper()
	opts = append([]Option{WithClock(stepClock())}, opts...)
	return NewConversationService(fixtureConversations(), logger.NewNop(), opts...)
}

func TestConversationService_ListAll(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	convs, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 3)

	var ids []int
	for _, c := range convs {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int{1, 4, 2}, ids, "collection order is preserved")

	t.Run("seed is copied", func(t *testing.T) {
		seed := fixtureConversations()
		s := NewConversationService(seed, logger.NewNop())
		seed[0].CustomerName = "changed"
		seed[0].Messages[0].Content = "changed"

		got, err := s.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Sarah Johnson", got.CustomerName)
		assert.Equal(t, "Where is my order?", got.Messages[0].Content)
	})

	t.Run("last message time follows the thread", func(t *testing.T) {
		got, err := svc.GetByID(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, got.LastMessageTime)
		assert.Equal(t, base.Add(time.Minute), *got.LastMessageTime)

		empty, err := svc.GetByID(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, empty.LastMessageTime)
	})
}

func TestConversationService_GetByID(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	conv, err := svc.GetByID(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "Mike Chen", conv.CustomerName)

	_, err = svc.GetByID(ctx, 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "conversation 99")
}

func TestConversationService_DefensiveCopies(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	conv, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	conv.Status = model.StatusResolved
	conv.Messages[0].Content = "tampered"
	*conv.LastMessageTime = time.Time{}

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	all[0].Messages = append(all[0].Messages, model.Message{ID: 50})

	again, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, again.Status)
	assert.Equal(t, "Where is my order?", again.Messages[0].Content)
	assert.Len(t, again.Messages, 2)
	assert.Equal(t, base.Add(time.Minute), *again.LastMessageTime)
}

func TestConversationService_ListByPlatform(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	whatsapp, err := svc.ListByPlatform(ctx, model.PlatformWhatsApp)
	require.NoError(t, err)
	require.Len(t, whatsapp, 2)
	assert.Equal(t, 1, whatsapp[0].ID)
	assert.Equal(t, 2, whatsapp[1].ID)

	twitter, err := svc.ListByPlatform(ctx, model.PlatformTwitter)
	require.NoError(t, err)
	assert.Empty(t, twitter)
}

func TestConversationService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	// No transition table: resolved can go straight back to open.
	conv, err := svc.UpdateStatus(ctx, 2, model.StatusOpen)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, conv.Status)
	assert.Equal(t, 5, conv.UnreadCount, "other fields untouched")

	got, err := svc.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, got.Status)

	_, err = svc.UpdateStatus(ctx, 42, model.StatusPending)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationService_TransitionStatus(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	conv, changed, err := svc.TransitionStatus(ctx, 1, model.StatusOpen, model.StatusPending)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.StatusPending, conv.Status)

	conv, changed, err = svc.TransitionStatus(ctx, 2, model.StatusOpen, model.StatusPending)
	require.NoError(t, err)
	assert.False(t, changed, "resolved is not open")
	assert.Equal(t, model.StatusResolved, conv.Status)

	got, err := svc.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, model.StatusResolved, got.Status)

	_, _, err = svc.TransitionStatus(ctx, 42, model.StatusOpen, model.StatusPending)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationService_TransitionStatusRacesResolve(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		svc := newConversationService(t, WithLatency(time.Millisecond))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, err := svc.TransitionStatus(ctx, 1, model.StatusOpen, model.StatusPending)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.UpdateStatus(ctx, 1, model.StatusResolved)
			assert.NoError(t, err)
		}()
		wg.Wait()

		conv, err := svc.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, model.StatusResolved, conv.Status, "a conditional move never overwrites a resolve")
	}
}

func TestConversationService_AppendMessage(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	draft := model.MessageDraft{Sender: model.SenderAgent, Content: "On it!", IsAISuggestion: true}

	first, err := svc.AppendMessage(ctx, 1, draft)
	require.NoError(t, err)
	second, err := svc.AppendMessage(ctx, 1, draft)
	require.NoError(t, err)

	assert.Equal(t, 3, first.ID)
	assert.Equal(t, 4, second.ID)
	assert.Equal(t, model.SentimentNeutral, first.Sentiment, "sentiment defaults to neutral")
	assert.True(t, first.IsAISuggestion)
	assert.True(t, second.Timestamp.After(first.Timestamp))

	conv, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 4)
	assert.Equal(t, *second, conv.Messages[3])
	require.NotNil(t, conv.LastMessageTime)
	assert.Equal(t, second.Timestamp, *conv.LastMessageTime)

	t.Run("ids continue from the max, not the count", func(t *testing.T) {
		msg, err := svc.AppendMessage(ctx, 4, model.MessageDraft{Sender: "mike", Content: "hello?"})
		require.NoError(t, err)
		assert.Equal(t, 4, msg.ID)
	})

	t.Run("empty thread starts at one", func(t *testing.T) {
		msg, err := svc.AppendMessage(ctx, 2, model.MessageDraft{Sender: "emma", Content: "hi", Sentiment: model.SentimentPositive})
		require.NoError(t, err)
		assert.Equal(t, 1, msg.ID)
		assert.Equal(t, model.SentimentPositive, msg.Sentiment)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		_, err := svc.AppendMessage(ctx, 99, draft)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestConversationService_MarkAsRead(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	for _, id := range []int{1, 4, 2} {
		conv, err := svc.MarkAsRead(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, conv.UnreadCount)

		got, err := svc.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, got.UnreadCount)
	}

	// Already zero stays zero.
	conv, err := svc.MarkAsRead(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, conv.UnreadCount)

	_, err = svc.MarkAsRead(ctx, 100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationService_IncrementUnread(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	conv, err := svc.IncrementUnread(ctx, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, conv.UnreadCount)

	_, err = svc.IncrementUnread(ctx, 100, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationService_UnreadSummary(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	summary, err := svc.UnreadSummary(ctx)
	require.NoError(t, err)

	want := &model.UnreadSummary{
		Total: 8,
		PerPlatform: map[model.Platform]int{
			model.PlatformWhatsApp:  7,
			model.PlatformFacebook:  1,
			model.PlatformInstagram: 0,
			model.PlatformTwitter:   0,
		},
	}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Errorf("UnreadSummary() mismatch (-want +got):\n%s", diff)
	}

	t.Run("total equals the per-platform sum", func(t *testing.T) {
		_, err := svc.MarkAsRead(ctx, 1)
		require.NoError(t, err)
		_, err = svc.Create(ctx, &model.CreateConversationRequest{CustomerName: "Zed", Platform: "sms", UnreadCount: 4})
		require.NoError(t, err)

		summary, err := svc.UnreadSummary(ctx)
		require.NoError(t, err)

		sum := 0
		for _, n := range summary.PerPlatform {
			sum += n
		}
		assert.Equal(t, summary.Total, sum)
		assert.Equal(t, 10, summary.Total)
	})

	t.Run("empty store reports every platform", func(t *testing.T) {
		empty := NewConversationService(nil, logger.NewNop())
		summary, err := empty.UnreadSummary(ctx)
		require.NoError(t, err)
		assert.Zero(t, summary.Total)
		assert.Len(t, summary.PerPlatform, len(model.Platforms()))
	})
}

func TestConversationService_Search(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	tests := []struct {
		name  string
		query string
		want  []int
	}{
		{name: "message content ignores case", query: "refund", want: []int{1}},
		{name: "customer name", query: "mike", want: []int{4}},
		{name: "matches across fields", query: "e", want: []int{1, 4, 2}},
		{name: "no match", query: "invoice", want: []int{}},
		{name: "empty query matches all", query: "", want: []int{1, 4, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(ctx, tt.query)
			require.NoError(t, err)

			ids := []int{}
			for _, c := range got {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestConversationService_Create(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	conv, err := svc.Create(ctx, &model.CreateConversationRequest{
		CustomerName: "Lena",
		Platform:     model.PlatformInstagram,
		Messages: []model.MessageDraft{
			{Sender: "lena", Content: "hello"},
			{Sender: "lena", Content: "anyone there?"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, conv.ID, "max existing id plus one")
	assert.Equal(t, model.StatusOpen, conv.Status)
	assert.Equal(t, model.PriorityLow, conv.Priority)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, 1, conv.Messages[0].ID)
	assert.Equal(t, 2, conv.Messages[1].ID)
	require.NotNil(t, conv.LastMessageTime)
	assert.Equal(t, conv.Messages[1].Timestamp, *conv.LastMessageTime)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	t.Run("first conversation gets id one", func(t *testing.T) {
		empty := NewConversationService(nil, logger.NewNop())
		conv, err := empty.Create(ctx, &model.CreateConversationRequest{CustomerName: "A", Platform: model.PlatformTwitter})
		require.NoError(t, err)
		assert.Equal(t, 1, conv.ID)
		assert.Nil(t, conv.LastMessageTime)
	})
}

func TestConversationService_Stats(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Open)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 1, stats.HighPriority)
	assert.Equal(t, 33, stats.ResolutionRate)
	assert.Equal(t, 2, stats.PerPlatform[model.PlatformWhatsApp])
	assert.Equal(t, 0, stats.PerPlatform[model.PlatformTwitter])

	empty, err := NewConversationService(nil, logger.NewNop()).Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.ResolutionRate)
}

func TestConversationService_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	const writers = 50
	var wg sync.WaitGroup
	ids := make(chan int, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg, err := svc.AppendMessage(ctx, 2, model.MessageDraft{Sender: "emma", Content: "ping"})
			if err != nil {
				t.Error(err)
				return
			}
			ids <- msg.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate message id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, writers)

	conv, err := svc.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, writers)
	assert.Equal(t, conv.Messages[writers-1].Timestamp, *conv.LastMessageTime)
}

func TestConversationService_Latency(t *testing.T) {
	svc := newConversationService(t, WithLatency(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ListAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	quick := newConversationService(t, WithLatency(time.Millisecond))
	convs, err := quick.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, convs, 3)
}
