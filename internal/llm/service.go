package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Service exposes the text operations the reasoning core needs from an LLM.
// It is a thin, stateless facade over a Provider; all calls are functional
// requests returning text or parsed JSON.
type Service struct {
	provider Provider
	model    string
}

// NewService creates a new LLM service on top of the given provider.
func NewService(provider Provider, model string) *Service {
	return &Service{provider: provider, model: model}
}

// ProcessQuery sends a free-form prompt, optionally with conversation history
// and a system prompt, and returns the raw text response.
func (s *Service) ProcessQuery(ctx context.Context, prompt string, history []Message, system string) (string, error) {
	var messages []Message
	if system != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: system})
	}
	messages = append(messages, history...)
	messages = append(messages, Message{Role: RoleUser, Content: prompt})

	resp, err := s.provider.Complete(ctx, CompletionRequest{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   2048,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("LLM completion: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// CompleteJSON sends a prompt in JSON mode and unmarshals the response into
// out, stripping markdown fences or prose around the JSON object.
func (s *Service) CompleteJSON(ctx context.Context, system, prompt string, out any) error {
	resp, err := s.provider.Complete(ctx, CompletionRequest{
		Model: s.model,
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: prompt},
		},
		MaxTokens:   4096,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return fmt.Errorf("LLM completion: %w", err)
	}
	if err := json.Unmarshal([]byte(ExtractJSONObject(resp.Content)), out); err != nil {
		return fmt.Errorf("parsing LLM response: %w", err)
	}
	return nil
}

// Extraction is the result of extracting structured parameters from text.
type Extraction struct {
	Parameters map[string]any `json:"parameters"`
	Confidence float64        `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
}

const extractionSystemPrompt = `You are a parameter extraction engine for an airport capacity-planning assistant. Extract structured parameters from the user's text.

You MUST respond with valid JSON matching this schema:
{
  "parameters": {
    "terminal": "...", "stand": "...", "airport": "...", "aircraftType": "...",
    "date": "...", "timeRange": "...", "referencePoint": "...", "coordinates": "..."
  },
  "confidence": 0.0,
  "reasoning": "why you extracted these values"
}

Only include parameters actually present in the text. Use IATA-style codes for
airports, stand identifiers exactly as written (e.g. "A1", "23L"), ISO dates.`

// ExtractParameters extracts entity parameters from free text.
func (s *Service) ExtractParameters(ctx context.Context, text string) (*Extraction, error) {
	var ex Extraction
	if err := s.CompleteJSON(ctx, extractionSystemPrompt, text, &ex); err != nil {
		return nil, fmt.Errorf("extracting parameters: %w", err)
	}
	if ex.Parameters == nil {
		ex.Parameters = map[string]any{}
	}
	return &ex, nil
}

// ProposedStep is one step of a multi-step reasoning proposal as returned by
// the LLM, before plan normalization.
type ProposedStep struct {
	Number               int            `json:"step"`
	Description          string         `json:"description"`
	Type                 string         `json:"type,omitempty"`
	DependsOn            []any          `json:"depends_on,omitempty"`
	Parameters           map[string]any `json:"parameters,omitempty"`
	EstimatedDurationSec float64        `json:"estimated_duration_sec,omitempty"`
}

// ProposedPlan is the raw reasoning proposal returned by the LLM.
type ProposedPlan struct {
	Steps      []ProposedStep `json:"steps"`
	Confidence float64        `json:"confidence"`
}

const reasoningSystemPrompt = `You are the reasoning planner for an airport capacity-planning assistant. Given a user query, break it into a short sequence of atomic reasoning steps.

Allowed step types: knowledge_retrieval, parameter_extraction, data_retrieval, calculation, validation, comparison, recommendation, fact_checking, generic.

You MUST respond with valid JSON matching this schema:
{
  "steps": [
    {
      "step": 1,
      "description": "what this step does",
      "type": "data_retrieval",
      "depends_on": [],
      "parameters": {"dataSource": "stands"},
      "estimated_duration_sec": 1.5
    }
  ],
  "confidence": 0.0
}

Rules:
- Steps may only depend on earlier steps.
- data_retrieval steps need a "dataSource" parameter, one of: airports, flights, stands, maintenance, capacity.
- Keep plans to at most 7 steps.`

// ProposeSteps asks the LLM for a multi-step reasoning proposal for the query.
func (s *Service) ProposeSteps(ctx context.Context, query string, contextSummary string) (*ProposedPlan, error) {
	prompt := query
	if contextSummary != "" {
		prompt = fmt.Sprintf("## Context\n%s\n\n## Query\n%s", contextSummary, query)
	}

	var plan ProposedPlan
	if err := s.CompleteJSON(ctx, reasoningSystemPrompt, prompt, &plan); err != nil {
		return nil, fmt.Errorf("proposing steps: %w", err)
	}
	return &plan, nil
}
