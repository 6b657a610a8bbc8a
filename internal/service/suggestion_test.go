package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyflow/inbox/internal/llm"
	"github.com/replyflow/inbox/internal/model"
	"github.com/replyflow/inbox/pkg/logger"
)

type fakeLLM struct {
	reply   string
	err     error
	lastReq *llm.CompletionRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply, TokensIn: 10, TokensOut: 5}, nil
}

func (f *fakeLLM) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	for i, word := range strings.SplitAfter(f.reply, " ") {
		if err := callback(word, i); err != nil {
			return nil, err
		}
	}
	return &llm.CompletionResponse{Content: f.reply}, nil
}

func (f *fakeLLM) Name() string { return "fake" }

func TestRuleSuggestions(t *testing.T) {
	conv := func(s model.Sentiment) *model.Conversation {
		return &model.Conversation{
			CustomerName: "Ana",
			Messages:     []model.Message{{Content: "x", Sentiment: s}},
		}
	}

	negative := RuleSuggestions(conv(model.SentimentNegative))
	require.Len(t, negative, 2)
	assert.Equal(t, "empathy", negative[0].Type)
	assert.Equal(t, 92, negative[0].Confidence)
	assert.Equal(t, "escalation", negative[1].Type)
	assert.Contains(t, negative[0].Text, "Ana")

	positive := RuleSuggestions(conv(model.SentimentPositive))
	require.Len(t, positive, 1)
	assert.Equal(t, "appreciation", positive[0].Type)

	neutral := RuleSuggestions(conv(model.SentimentNeutral))
	require.Len(t, neutral, 1)
	assert.Equal(t, "general", neutral[0].Type)
	assert.Equal(t, 88, neutral[0].Confidence)

	assert.Empty(t, RuleSuggestions(&model.Conversation{CustomerName: "Ana"}))
}

func TestSuggestionService_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("rules only", func(t *testing.T) {
		svc := NewSuggestionService(newConversationService(t), nil, "", logger.NewNop())
		got, err := svc.Generate(ctx, 1)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "empathy", got[0].Type)
	})

	t.Run("llm adds a suggestion", func(t *testing.T) {
		fake := &fakeLLM{reply: "  Sorry Sarah, a refund is on its way.  "}
		svc := NewSuggestionService(newConversationService(t), fake, "test-model", logger.NewNop())

		got, err := svc.Generate(ctx, 1)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "ai", got[2].Type)
		assert.Equal(t, "Sorry Sarah, a refund is on its way.", got[2].Text)

		require.NotNil(t, fake.lastReq)
		assert.Equal(t, "test-model", fake.lastReq.Model)
		require.Len(t, fake.lastReq.Messages, 1)
		assert.Contains(t, fake.lastReq.Messages[0].Content, "Sarah Johnson: I want a REFUND")
	})

	t.Run("llm failure falls back to rules", func(t *testing.T) {
		fake := &fakeLLM{err: errors.New("upstream down")}
		svc := NewSuggestionService(newConversationService(t), fake, "", logger.NewNop())

		got, err := svc.Generate(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		svc := NewSuggestionService(newConversationService(t), nil, "", logger.NewNop())
		_, err := svc.Generate(ctx, 404)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSuggestionService_Stream(t *testing.T) {
	ctx := context.Background()

	collect := func(tokens *[]string) TokenCallback {
		return func(token string, index int) error {
			*tokens = append(*tokens, token)
			return nil
		}
	}

	t.Run("llm tokens", func(t *testing.T) {
		fake := &fakeLLM{reply: "We are on it"}
		svc := NewSuggestionService(newConversationService(t), fake, "", logger.NewNop())

		var tokens []string
		text, err := svc.Stream(ctx, 4, collect(&tokens))
		require.NoError(t, err)
		assert.Equal(t, "We are on it", text)
		assert.Equal(t, []string{"We ", "are ", "on ", "it"}, tokens)
	})

	t.Run("rule fallback is a single token", func(t *testing.T) {
		svc := NewSuggestionService(newConversationService(t), nil, "", logger.NewNop())

		var tokens []string
		text, err := svc.Stream(ctx, 4, collect(&tokens))
		require.NoError(t, err)
		require.Len(t, tokens, 1)
		assert.Equal(t, text, tokens[0])
		assert.Contains(t, text, "Mike Chen")
	})

	t.Run("callback error aborts", func(t *testing.T) {
		fake := &fakeLLM{reply: "a b c"}
		svc := NewSuggestionService(newConversationService(t), fake, "", logger.NewNop())

		stop := errors.New("client gone")
		_, err := svc.Stream(ctx, 4, func(string, int) error { return stop })
		assert.ErrorIs(t, err, stop)
	})

	t.Run("empty thread", func(t *testing.T) {
		svc := NewSuggestionService(newConversationService(t), &fakeLLM{reply: "x"}, "", logger.NewNop())
		text, err := svc.Stream(ctx, 2, collect(new([]string)))
		require.NoError(t, err)
		assert.Empty(t, text)
	})
}
