// Package agent is the facade over the reasoning pipeline: it normalizes a
// query, classifies its intent, enriches entities, plans, executes, and
// keeps conversation and long-term memory up to date.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/zhaddad/aeromind/internal/conversation"
	"github.com/zhaddad/aeromind/internal/domain"
	"github.com/zhaddad/aeromind/internal/executor"
	"github.com/zhaddad/aeromind/internal/intent"
	"github.com/zhaddad/aeromind/internal/llm"
	"github.com/zhaddad/aeromind/internal/longterm"
	"github.com/zhaddad/aeromind/internal/memory"
	"github.com/zhaddad/aeromind/internal/normalizer"
	"github.com/zhaddad/aeromind/internal/planner"
)

// Context identifies the caller of a query.
type Context struct {
	SessionID     string           `json:"sessionId"`
	UserID        string           `json:"userId,omitempty"`
	CurrentView   string           `json:"currentView,omitempty"`
	OriginalQuery string           `json:"originalQuery,omitempty"`
	Entities      domain.EntityBag `json:"entities,omitempty"`
}

// Envelope is the answer envelope returned by ExecuteQuery.
type Envelope struct {
	Success              bool     `json:"success"`
	Answer               string   `json:"answer,omitempty"`
	Confidence           float64  `json:"confidence"`
	Reasoning            []string `json:"reasoning,omitempty"`
	FactChecked          bool     `json:"factChecked"`
	Error                string   `json:"error,omitempty"`
	SuggestedAlternative string   `json:"suggestedAlternative,omitempty"`
}

// Agent wires the pipeline components together.
type Agent struct {
	normalizer    *normalizer.Normalizer
	classifier    *intent.Classifier
	processor     *domain.Processor
	planner       *planner.Planner
	executor      *executor.Executor
	llm           *llm.Service
	working       *memory.Store
	conversations *conversation.Store
	longterm      *longterm.Store
}

// Config collects the agent's collaborators.
type Config struct {
	Normalizer    *normalizer.Normalizer
	Classifier    *intent.Classifier
	Processor     *domain.Processor
	Planner       *planner.Planner
	Executor      *executor.Executor
	LLM           *llm.Service
	Working       *memory.Store
	Conversations *conversation.Store
	LongTerm      *longterm.Store
}

// New creates an agent.
func New(cfg Config) *Agent {
	return &Agent{
		normalizer:    cfg.Normalizer,
		classifier:    cfg.Classifier,
		processor:     cfg.Processor,
		planner:       cfg.Planner,
		executor:      cfg.Executor,
		llm:           cfg.LLM,
		working:       cfg.Working,
		conversations: cfg.Conversations,
		longterm:      cfg.LongTerm,
	}
}

// planState carries the intermediate products of planning into execution.
type planState struct {
	queryID    string
	normalized string
	intent     *intent.Intent
	processed  *domain.Result
	plan       *planner.Plan
}

// PlanQuery runs normalization, classification, domain processing and
// planning for a query, without executing it.
func (a *Agent) PlanQuery(ctx context.Context, query string, actx Context) (*planner.Plan, error) {
	state, err := a.plan(ctx, query, actx)
	if err != nil {
		return nil, err
	}
	return state.plan, nil
}

func (a *Agent) plan(ctx context.Context, query string, actx Context) (*planState, error) {
	norm, err := a.normalizer.Normalize(query)
	if err != nil {
		return nil, err
	}

	it, err := a.classifier.Classify(ctx, norm.NormalizedQuery)
	if err != nil {
		return nil, err
	}

	entities := actx.Entities.Clone()
	if entities == nil {
		entities = domain.EntityBag{}
	}
	// Extracted entities supplement, never override, caller-supplied ones.
	if extraction, err := a.llm.ExtractParameters(ctx, norm.NormalizedQuery); err == nil {
		for name, value := range extraction.Parameters {
			if !entities.Has(name) && value != nil && value != "" {
				entities[name] = domain.EntityValue{Value: value}
			}
		}
	}

	var contextEntities domain.EntityBag
	if conv, err := a.conversations.Get(ctx, actx.SessionID); err == nil && conv != nil {
		contextEntities = conv.Entities
	}

	processed, err := a.processor.Process(ctx, it, entities, contextEntities)
	if err != nil {
		return nil, err
	}

	queryID := uuid.NewString()
	contextParams := processed.Entities.Values()
	contextParams["originalQuery"] = query

	plan, err := a.planner.BuildPlan(ctx, queryID, norm.NormalizedQuery, a.contextSummary(ctx, actx), contextParams)
	if err != nil {
		return nil, err
	}

	a.working.StoreQueryPlan(actx.SessionID, queryID, plan)
	a.working.StoreEntityMentions(actx.SessionID, processed.Entities)

	return &planState{
		queryID:    queryID,
		normalized: norm.NormalizedQuery,
		intent:     it,
		processed:  processed,
		plan:       plan,
	}, nil
}

// contextSummary renders the recent conversation for planner prompts.
func (a *Agent) contextSummary(ctx context.Context, actx Context) string {
	conv, err := a.conversations.Get(ctx, actx.SessionID)
	if err != nil || conv == nil {
		return ""
	}
	var b strings.Builder
	if conv.Summary != "" {
		b.WriteString(conv.Summary)
		b.WriteString("\n")
	}
	for _, m := range conv.RecentMessages(6) {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	return strings.TrimSpace(b.String())
}

// ExecutePlan runs a previously built plan.
func (a *Agent) ExecutePlan(ctx context.Context, plan *planner.Plan, actx Context) *executor.RunResult {
	originalQuery := actx.OriginalQuery

	return a.executor.Execute(ctx, plan, executor.RunContext{
		SessionID:     actx.SessionID,
		UserID:        actx.UserID,
		QueryID:       plan.QueryID,
		OriginalQuery: originalQuery,
		Entities:      actx.Entities,
		ContextKeys:   actx.Entities.Values(),
	})
}

// ExecuteQuery plans and executes a query, returning an answer envelope.
// Pipeline failures map onto the envelope instead of surfacing as errors.
func (a *Agent) ExecuteQuery(ctx context.Context, query string, actx Context) *Envelope {
	if _, err := a.conversations.GetOrCreate(ctx, actx.SessionID, actx.UserID); err != nil {
		log.Printf("conversation init: %v", err)
	}

	state, err := a.plan(ctx, query, actx)
	if err != nil {
		env := envelopeForError(err)
		a.recordTurn(ctx, actx, query, "", env)
		return env
	}

	a.recordUserTurn(ctx, actx, query, state.intent.Label)

	run := a.executor.Execute(ctx, state.plan, executor.RunContext{
		SessionID:     actx.SessionID,
		UserID:        actx.UserID,
		QueryID:       state.queryID,
		OriginalQuery: query,
		Entities:      state.processed.Entities,
		ContextKeys:   state.processed.Entities.Values(),
	})

	env := &Envelope{Success: run.Success}
	if run.Success && run.FinalAnswer != nil {
		env.Answer = run.FinalAnswer.Text
		env.Confidence = run.FinalAnswer.Confidence
		env.FactChecked = run.FinalAnswer.FactChecked
		for _, item := range run.FinalAnswer.ReasoningTrace {
			env.Reasoning = append(env.Reasoning, item.Explanation)
		}
	} else {
		env.Error = run.Error
	}

	a.afterRun(ctx, actx, state, env)
	return env
}

// recordUserTurn appends the user message; failures are logged, never
// surfaced.
func (a *Agent) recordUserTurn(ctx context.Context, actx Context, query, intentLabel string) {
	if _, err := a.conversations.AddUserMessage(ctx, actx.SessionID, query, intentLabel); err != nil {
		log.Printf("recording user turn: %v", err)
	}
}

// afterRun updates the conversation with the answer, merges resolved
// entities, and periodically captures a long-term snapshot.
func (a *Agent) afterRun(ctx context.Context, actx Context, state *planState, env *Envelope) {
	answer := env.Answer
	if answer == "" {
		answer = env.Error
	}
	conv, err := a.conversations.AddAgentMessage(ctx, actx.SessionID, answer, state.queryID)
	if err != nil {
		log.Printf("recording agent turn: %v", err)
		return
	}
	if _, err := a.conversations.MergeEntities(ctx, actx.SessionID, state.processed.Entities); err != nil {
		log.Printf("merging entities: %v", err)
	}

	if env.Success && conv.AgentMessageCount()%longterm.CaptureInterval == 0 {
		a.captureLongTerm(ctx, actx, conv)
	}
}

// captureLongTerm persists a sanitized conversation snapshot.
func (a *Agent) captureLongTerm(ctx context.Context, actx Context, conv *conversation.Context) {
	userID := actx.UserID
	if userID == "" {
		userID = conv.UserID
	}
	snapshot := map[string]any{
		"topicTags": conv.TopicTags,
		"intents":   conv.Intents,
		"summary":   conv.Summary,
		"messages":  messagesAsAny(conv.RecentMessages(longterm.CaptureInterval * 2)),
	}
	if err := a.longterm.SaveContextSnapshot(ctx, userID, conv.ID, snapshot); err != nil {
		log.Printf("capturing long-term snapshot: %v", err)
	}
}

func messagesAsAny(msgs []conversation.Message) []any {
	out := make([]any, len(msgs))
	for i, m := range msgs {
		out[i] = map[string]any{"role": m.Role, "content": m.Content}
	}
	return out
}

// recordTurn records a failed turn (both sides) so the conversation shows
// the error.
func (a *Agent) recordTurn(ctx context.Context, actx Context, query, intentLabel string, env *Envelope) {
	a.recordUserTurn(ctx, actx, query, intentLabel)
	if _, err := a.conversations.AddAgentMessage(ctx, actx.SessionID, env.Error, ""); err != nil {
		log.Printf("recording error turn: %v", err)
	}
}

// envelopeForError maps pipeline errors onto user-facing envelopes.
func envelopeForError(err error) *Envelope {
	env := &Envelope{Success: false, Error: err.Error()}

	switch {
	case errors.Is(err, normalizer.ErrInvalidInput):
		env.SuggestedAlternative = "Please ask a non-empty question, for example: status of stand A1"
	case errors.Is(err, domain.ErrValidationFailed):
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			env.SuggestedAlternative = "Please provide: " + strings.Join(verr.Missing, ", ")
		}
	case errors.Is(err, intent.ErrClassificationFailed):
		env.SuggestedAlternative = "Try rephrasing the question in operational terms"
	case errors.Is(err, planner.ErrInvalidPlan):
		var perr *planner.InvalidPlanError
		if errors.As(err, &perr) {
			env.Error = perr.Reason
			env.SuggestedAlternative = perr.SuggestedAlternative
		}
	}
	return env
}
