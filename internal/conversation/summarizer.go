package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhaddad/aeromind/internal/llm"
)

const summarizerSystemPrompt = `You summarize conversation history for an airport capacity-planning assistant.
Condense the messages into a short running summary that preserves airports, stands, terminals, flights, decisions and user preferences. Keep it under 150 words. Return only the summary text.`

// LLMSummarizer condenses overflow conversation messages with an LLM.
type LLMSummarizer struct {
	llm *llm.Service
}

// NewLLMSummarizer creates a summarizer over the given service.
func NewLLMSummarizer(service *llm.Service) *LLMSummarizer {
	return &LLMSummarizer{llm: service}
}

// SummarizeMessages folds overflow messages into the existing summary.
func (s *LLMSummarizer) SummarizeMessages(ctx context.Context, existingSummary string, overflow []Message) (string, error) {
	if len(overflow) == 0 {
		return existingSummary, nil
	}

	var b strings.Builder
	if existingSummary != "" {
		fmt.Fprintf(&b, "Current summary:\n%s\n\n", existingSummary)
	}
	b.WriteString("Messages to fold in:\n")
	for _, msg := range overflow {
		fmt.Fprintf(&b, "[%s] %s\n", msg.Role, msg.Content)
	}

	summary, err := s.llm.ProcessQuery(ctx, b.String(), nil, summarizerSystemPrompt)
	if err != nil {
		return "", fmt.Errorf("summarizing conversation: %w", err)
	}
	return strings.TrimSpace(summary), nil
}
