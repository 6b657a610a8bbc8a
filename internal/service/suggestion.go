package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/replyflow/inbox/internal/llm"
	"github.com/replyflow/inbox/internal/model"
	"github.com/replyflow/inbox/pkg/logger"
	"github.com/replyflow/inbox/pkg/metrics"
)

// TokenCallback is called for each token during streaming.
type TokenCallback func(token string, index int) error

// Only the tail of a long thread is sent to the model.
const suggestionHistory = 20

// SuggestionService drafts agent replies for a conversation.
type SuggestionService struct {
	conversations *ConversationService
	llmClient     llm.Client
	model         string
	logger        *logger.Logger
}

// NewSuggestionService creates a suggestion service. llmClient may be nil,
// in which case only rule-based suggestions are produced.
func NewSuggestionService(conversations *ConversationService, llmClient llm.Client, modelName string, log *logger.Logger) *SuggestionService {
	return &SuggestionService{
		conversations: conversations,
		llmClient:     llmClient,
		model:         modelName,
		logger:        log,
	}
}

// Generate returns reply suggestions for a conversation. An LLM failure is
// logged and the rule-based suggestions are still returned.
func (s *SuggestionService) Generate(ctx context.Context, conversationID int) ([]model.Suggestion, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	suggestions := RuleSuggestions(conv)
	if s.llmClient == nil || len(conv.Messages) == 0 {
		return suggestions, nil
	}

	start := time.Now()
	resp, err := s.llmClient.Complete(ctx, s.completionRequest(conv))
	if err != nil {
		metrics.RecordSuggestion(s.llmClient.Name(), "error", time.Since(start).Seconds(), 0, 0)
		s.logger.Warn("llm suggestion failed",
			zap.Int("conversation_id", conversationID),
			zap.String("provider", s.llmClient.Name()),
			zap.Error(err),
		)
		return suggestions, nil
	}
	metrics.RecordSuggestion(s.llmClient.Name(), "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)

	if text := strings.TrimSpace(resp.Content); text != "" {
		suggestions = append(suggestions, model.Suggestion{Text: text, Confidence: 80, Type: "ai"})
	}
	return suggestions, nil
}

// Stream produces one suggestion token by token and returns the full text.
// Without an LLM client the first rule-based suggestion is sent as a single
// token.
func (s *SuggestionService) Stream(ctx context.Context, conversationID int, onToken TokenCallback) (string, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return "", err
	}

	if s.llmClient == nil || len(conv.Messages) == 0 {
		rules := RuleSuggestions(conv)
		if len(rules) == 0 {
			return "", nil
		}
		if err := onToken(rules[0].Text, 0); err != nil {
			return "", err
		}
		return rules[0].Text, nil
	}

	start := time.Now()
	resp, err := s.llmClient.CompleteStream(ctx, s.completionRequest(conv), llm.StreamCallback(onToken))
	if err != nil {
		metrics.RecordSuggestion(s.llmClient.Name(), "error", time.Since(start).Seconds(), 0, 0)
		return "", fmt.Errorf("suggestion stream failed: %w", err)
	}
	metrics.RecordSuggestion(s.llmClient.Name(), "success", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)

	return resp.Content, nil
}

func (s *SuggestionService) completionRequest(conv *model.Conversation) *llm.CompletionRequest {
	history := conv.Messages
	if len(history) > suggestionHistory {
		history = history[len(history)-suggestionHistory:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a customer support agent replying on %s to %s.\n", conv.Platform, conv.CustomerName)
	b.WriteString("Write one short, friendly reply to the latest customer message. Reply with the message text only.\n\nConversation:\n")
	for _, m := range history {
		who := conv.CustomerName
		if m.FromAgent() {
			who = "Agent"
		}
		fmt.Fprintf(&b, "%s: %s\n", who, m.Content)
	}

	return &llm.CompletionRequest{
		Model:       s.model,
		Messages:    []llm.ChatMessage{{Role: "user", Content: b.String()}},
		Temperature: 0.4,
	}
}

// RuleSuggestions proposes replies from the sentiment of the last message.
// A conversation without messages gets none.
func RuleSuggestions(conv *model.Conversation) []model.Suggestion {
	if len(conv.Messages) == 0 {
		return nil
	}
	name := conv.CustomerName
	last := conv.Messages[len(conv.Messages)-1]

	switch last.Sentiment {
	case model.SentimentNegative:
		return []model.Suggestion{
			{
				Text:       fmt.Sprintf("Hi %s, I sincerely apologize for the inconvenience you're experiencing. Let me personally look into this matter and provide you with a solution right away.", name),
				Confidence: 92,
				Type:       "empathy",
			},
			{
				Text:       fmt.Sprintf("Thank you for bringing this to our attention, %s. This is definitely not the experience we want for our valued customers. I'm escalating this to our priority queue for immediate resolution.", name),
				Confidence: 87,
				Type:       "escalation",
			},
		}
	case model.SentimentPositive:
		return []model.Suggestion{{
			Text:       fmt.Sprintf("Thank you so much for your kind words, %s! We're thrilled to hear about your positive experience. Is there anything else I can help you with today?", name),
			Confidence: 95,
			Type:       "appreciation",
		}}
	default:
		return []model.Suggestion{{
			Text:       fmt.Sprintf("Hi %s, thank you for reaching out! I'm here to help you with your inquiry. Let me get the information you need right away.", name),
			Confidence: 88,
			Type:       "general",
		}}
	}
}
