package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zhaddad/aeromind/internal/airportdata"
	"github.com/zhaddad/aeromind/internal/knowledge"
	"github.com/zhaddad/aeromind/internal/llm"
	"github.com/zhaddad/aeromind/internal/memory"
	"github.com/zhaddad/aeromind/internal/planner"
	"github.com/zhaddad/aeromind/internal/verifier"
)

// DefaultQueryTimeout bounds a full plan execution.
const DefaultQueryTimeout = 60 * time.Second

// Executor runs plans against the LLM, knowledge retriever and data
// service, persisting intermediate state to working memory.
type Executor struct {
	llm       *llm.Service
	retriever *knowledge.Retriever
	data      *airportdata.Store
	working   *memory.Store
	verifier  *verifier.Verifier
	timeout   time.Duration
}

// New creates an executor. timeout <= 0 uses the default per-query timeout.
func New(service *llm.Service, retriever *knowledge.Retriever, data *airportdata.Store, working *memory.Store, v *verifier.Verifier, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &Executor{
		llm:       service,
		retriever: retriever,
		data:      data,
		working:   working,
		verifier:  v,
		timeout:   timeout,
	}
}

// Execute runs the plan sequentially in declared order. Steps execute only
// when all their dependencies succeeded; the first failure stops the run.
// The in-flight step is allowed to finish when the deadline passes, its
// result is recorded, and the run fails with "deadline exceeded".
func (e *Executor) Execute(ctx context.Context, plan *planner.Plan, rc RunContext) *RunResult {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	run := &RunResult{
		QueryID:       rc.QueryID,
		OriginalQuery: rc.OriginalQuery,
		Success:       true,
	}
	byID := make(map[string]*StepResult, len(plan.Steps))

	for i, step := range plan.Steps {
		// Dependency gate: a step never runs over a missing or failed
		// dependency. No handler is invoked for a skipped step.
		if unmet := unmetDependency(step, byID); unmet != "" {
			run.Success = false
			run.Error = fmt.Sprintf("Step %d skipped: dependency %s did not succeed", i+1, unmet)
			break
		}

		result := e.runStep(ctx, step, rc, plan.Steps[:i], byID)
		e.explain(ctx, step, result, byID)

		run.StepResults = append(run.StepResults, *result)
		byID[step.ID] = result
		e.working.StoreStepResult(rc.SessionID, rc.QueryID, step.ID, *result)

		if !result.Success {
			run.Success = false
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				run.Error = "deadline exceeded"
			} else {
				run.Error = fmt.Sprintf("Step %d failed: %s", i+1, result.Error)
			}
			break
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			run.Success = false
			run.Error = "deadline exceeded"
			break
		}
	}

	if run.Success {
		answer, err := e.synthesize(ctx, plan, rc, byID)
		if err != nil {
			run.Success = false
			run.Error = fmt.Sprintf("Synthesis failed: %v", err)
		} else {
			run.FinalAnswer = answer
			e.working.StoreFinalResult(rc.SessionID, rc.QueryID, answer)
		}
	}

	run.ExecutionTime = time.Since(start).Seconds()
	return run
}

func unmetDependency(step planner.Step, byID map[string]*StepResult) string {
	for _, dep := range step.DependsOn {
		prior, ok := byID[dep]
		if !ok || !prior.Success {
			return dep
		}
	}
	return ""
}

// runStep dispatches to the handler for the step's type and stamps timing.
func (e *Executor) runStep(ctx context.Context, step planner.Step, rc RunContext, prior []planner.Step, byID map[string]*StepResult) *StepResult {
	result := &StepResult{StepID: step.ID, StartedAt: time.Now().UTC()}

	var (
		value any
		err   error
	)
	switch step.Type {
	case planner.TypeKnowledgeRetrieval:
		value, err = e.handleKnowledgeRetrieval(ctx, step, rc)
	case planner.TypeParameterExtraction:
		value, err = e.handleParameterExtraction(ctx, step, rc)
	case planner.TypeDataRetrieval:
		value, err = e.handleDataRetrieval(ctx, step, rc)
	case planner.TypeCalculation:
		value, err = e.handleCalculation(ctx, step, rc, byID)
	case planner.TypeValidation:
		value, err = e.handleValidation(ctx, step, rc, byID)
	case planner.TypeComparison:
		value, err = e.handleComparison(ctx, step, byID)
	case planner.TypeRecommendation:
		value, err = e.handleRecommendation(ctx, step, rc, byID)
	case planner.TypeFactChecking:
		value, err = e.handleFactChecking(ctx, step, rc, prior, byID)
	default:
		value, err = e.handleGeneric(ctx, step, rc)
	}

	result.FinishedAt = time.Now().UTC()
	result.ExecutionTime = result.FinishedAt.Sub(result.StartedAt).Seconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	result.Value = value
	return result
}

// explain asks the LLM for a one-line summary of the step. Explanation
// failures never fail the step; the description stands in.
func (e *Executor) explain(ctx context.Context, step planner.Step, result *StepResult, byID map[string]*StepResult) {
	prompt := fmt.Sprintf("Step: %s\nOutcome: %s\n\nSummarize in one sentence what this reasoning step established.",
		step.Description, compactValue(result.Value, 500))
	explanation, err := e.llm.ProcessQuery(ctx, prompt, nil, "You narrate reasoning steps of an airport capacity assistant, one concise sentence each.")
	if err != nil || strings.TrimSpace(explanation) == "" {
		result.Explanation = step.Description
		return
	}
	result.Explanation = explanation
}

// compactValue renders a step value as truncated JSON for prompts and
// traces.
func compactValue(v any, limit int) string {
	if v == nil {
		return "(no value)"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	s := string(b)
	if len(s) > limit {
		s = s[:limit] + "…"
	}
	return s
}
