// Package executor runs reasoning plans step by step: it gates each step on
// its dependencies, dispatches to a typed handler, records results in
// working memory and synthesizes a final, optionally fact-checked answer.
package executor

import (
	"time"

	"github.com/zhaddad/aeromind/internal/domain"
	"github.com/zhaddad/aeromind/internal/verifier"
)

// RunContext carries per-run state into step handlers.
type RunContext struct {
	SessionID     string           `json:"sessionId"`
	UserID        string           `json:"userId"`
	QueryID       string           `json:"queryId"`
	OriginalQuery string           `json:"originalQuery"`
	Entities      domain.EntityBag `json:"entities,omitempty"`
	ContextKeys   map[string]any   `json:"contextKeys,omitempty"`
}

// StepResult records the outcome of one executed step.
type StepResult struct {
	StepID        string    `json:"stepId"`
	Success       bool      `json:"success"`
	Value         any       `json:"value,omitempty"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
	ExecutionTime float64   `json:"executionTime"`
	Explanation   string    `json:"explanation,omitempty"`
}

// TraceItem is one entry of the reasoning trace in the final answer.
type TraceItem struct {
	Description string `json:"description"`
	Explanation string `json:"explanation"`
	Summary     string `json:"summary"`
}

// FinalAnswer is the synthesized answer to a query.
type FinalAnswer struct {
	Text                string             `json:"text"`
	Confidence          float64            `json:"confidence"`
	FactChecked         bool               `json:"factChecked"`
	KnowledgeSources    []string           `json:"knowledgeSources,omitempty"`
	ReasoningTrace      []TraceItem        `json:"reasoningTrace"`
	VerificationDetails *verifier.Response `json:"verificationDetails,omitempty"`
}

// RunResult is the outcome of executing a plan.
type RunResult struct {
	QueryID       string       `json:"queryId"`
	OriginalQuery string       `json:"originalQuery"`
	Success       bool         `json:"success"`
	Error         string       `json:"error,omitempty"`
	StepResults   []StepResult `json:"stepResults"`
	FinalAnswer   *FinalAnswer `json:"finalAnswer,omitempty"`
	ExecutionTime float64      `json:"executionTime"`
}
