package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/zhaddad/aeromind/internal/knowledge"
	"github.com/zhaddad/aeromind/internal/planner"
	"github.com/zhaddad/aeromind/internal/verifier"
)

// synthesize produces the final answer. Runs holding retrieved knowledge
// take the knowledge-grounded path with fact checking; anything else, or
// any failure on that path, falls back to the standard path.
func (e *Executor) synthesize(ctx context.Context, plan *planner.Plan, rc RunContext, byID map[string]*StepResult) (*FinalAnswer, error) {
	trace := buildTrace(plan, byID)

	if kr := latestKnowledgeResult(plan, byID); kr != nil {
		if answer, err := e.synthesizeGrounded(ctx, plan, rc, byID, kr, trace); err == nil {
			return answer, nil
		}
	}
	return e.synthesizeStandard(ctx, plan, rc, byID, trace)
}

func latestKnowledgeResult(plan *planner.Plan, byID map[string]*StepResult) *knowledge.Result {
	for i := len(plan.Steps) - 1; i >= 0; i-- {
		if plan.Steps[i].Type != planner.TypeKnowledgeRetrieval {
			continue
		}
		if res, ok := byID[plan.Steps[i].ID]; ok && res.Success {
			if kr, ok := res.Value.(*knowledge.Result); ok {
				return kr
			}
		}
	}
	return nil
}

// synthesizeGrounded composes the answer from the original query, retrieved
// knowledge and step results, then fact-checks it against the same
// knowledge items.
func (e *Executor) synthesizeGrounded(ctx context.Context, plan *planner.Plan, rc RunContext, byID map[string]*StepResult, kr *knowledge.Result, trace []TraceItem) (*FinalAnswer, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "## Question\n%s\n\n## Retrieved knowledge\n", rc.OriginalQuery)
	for _, item := range kr.Items() {
		fmt.Fprintf(&b, "- [%s] %s\n", item.Source, item.Content)
	}
	b.WriteString("\n## Reasoning results\n")
	writeStepResults(&b, plan, byID)
	b.WriteString("\nAnswer the question using only the knowledge and results above.")

	text, err := e.llm.ProcessQuery(ctx, b.String(), nil, synthesisSystemPrompt)
	if err != nil {
		return nil, err
	}

	verification := e.verifier.VerifyResponse(ctx, text, kr.Items(), verifier.Options{ExtractStatements: true})

	// FactChecked only when a check actually completed: a failed or
	// skipped verification must not present the answer as checked.
	return &FinalAnswer{
		Text:                verification.CorrectedResponse,
		Confidence:          verification.Confidence,
		FactChecked:         verification.Ran,
		KnowledgeSources:    kr.Sources,
		ReasoningTrace:      trace,
		VerificationDetails: verification,
	}, nil
}

// synthesizeStandard composes the answer from step summaries alone.
func (e *Executor) synthesizeStandard(ctx context.Context, plan *planner.Plan, rc RunContext, byID map[string]*StepResult, trace []TraceItem) (*FinalAnswer, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "## Question\n%s\n\n## Reasoning results\n", rc.OriginalQuery)
	writeStepResults(&b, plan, byID)
	b.WriteString("\nAnswer the question from the results above.")

	text, err := e.llm.ProcessQuery(ctx, b.String(), nil, synthesisSystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("synthesizing answer: %w", err)
	}

	return &FinalAnswer{
		Text:           text,
		Confidence:     plan.Confidence,
		FactChecked:    false,
		ReasoningTrace: trace,
	}, nil
}

func writeStepResults(b *strings.Builder, plan *planner.Plan, byID map[string]*StepResult) {
	for _, step := range plan.Steps {
		res, ok := byID[step.ID]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "- %s (%s): %s\n", step.ID, step.Description, compactValue(res.Value, 800))
	}
}

func buildTrace(plan *planner.Plan, byID map[string]*StepResult) []TraceItem {
	var trace []TraceItem
	for _, step := range plan.Steps {
		res, ok := byID[step.ID]
		if !ok {
			continue
		}
		trace = append(trace, TraceItem{
			Description: step.Description,
			Explanation: res.Explanation,
			Summary:     compactValue(res.Value, 200),
		})
	}
	return trace
}

const synthesisSystemPrompt = `You are an airport capacity-planning assistant. Give a direct, operational answer grounded strictly in the supplied knowledge and reasoning results. State figures plainly and note any caveats the results imply.`
