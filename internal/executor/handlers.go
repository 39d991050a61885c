package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zhaddad/aeromind/internal/airportdata"
	"github.com/zhaddad/aeromind/internal/knowledge"
	"github.com/zhaddad/aeromind/internal/llm"
	"github.com/zhaddad/aeromind/internal/planner"
	"github.com/zhaddad/aeromind/internal/verifier"
)

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intParam(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

func (e *Executor) handleKnowledgeRetrieval(ctx context.Context, step planner.Step, rc RunContext) (any, error) {
	req := knowledge.Request{
		Text:          stringParam(step.Parameters, "query", rc.OriginalQuery),
		QueryID:       rc.QueryID,
		RetrievalType: stringParam(step.Parameters, "retrievalType", knowledge.RetrievalSemantic),
		MaxResults:    intParam(step.Parameters, "maxResults", knowledge.DefaultMaxResults),
	}
	result, err := e.retriever.Retrieve(ctx, rc.SessionID, req)
	if err != nil {
		return nil, err
	}
	e.working.StoreRetrievedKnowledge(rc.SessionID, rc.QueryID, result.Items(), req.RetrievalType, 0)
	return result, nil
}

func (e *Executor) handleParameterExtraction(ctx context.Context, step planner.Step, rc RunContext) (any, error) {
	text := stringParam(step.Parameters, "text", rc.OriginalQuery)
	extraction, err := e.llm.ExtractParameters(ctx, text)
	if err != nil {
		return nil, err
	}
	return extraction, nil
}

// noDataResult is the structured value returned for unknown data sources,
// which do not fail the run.
type noDataResult struct {
	Data   any    `json:"data"`
	NoData bool   `json:"noData"`
	Reason string `json:"reason"`
}

func (e *Executor) handleDataRetrieval(ctx context.Context, step planner.Step, rc RunContext) (any, error) {
	dataSource := stringParam(step.Parameters, "dataSource", "")
	if dataSource == "" {
		if v, ok := rc.ContextKeys["dataSource"].(string); ok {
			dataSource = v
		}
	}

	filters, _ := step.Parameters["filters"].(map[string]any)
	limit := intParam(step.Parameters, "limit", 0)
	var fields []string
	if raw, ok := step.Parameters["fields"].([]any); ok {
		for _, f := range raw {
			if s, ok := f.(string); ok {
				fields = append(fields, s)
			}
		}
	}

	rows, err := e.data.Query(ctx, dataSource, filters, limit, fields)
	if errors.Is(err, airportdata.ErrUnknownSource) {
		return noDataResult{NoData: true, Reason: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{"dataSource": dataSource, "rows": rows, "count": len(rows)}, nil
}

func (e *Executor) handleCalculation(ctx context.Context, step planner.Step, rc RunContext, byID map[string]*StepResult) (any, error) {
	input := e.calculationInput(step, rc, byID)

	instruction := stringParam(step.Parameters, "instruction", step.Description)
	prompt := fmt.Sprintf("## Task\n%s\n\n## Input data\n%s\n\nRespond with a JSON object holding the calculation result.",
		instruction, compactValue(input, 4000))

	raw, err := e.llm.ProcessQuery(ctx, prompt, nil, "You perform precise calculations for airport capacity planning. Respond with JSON only.")
	if err != nil {
		return nil, err
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(llm.ExtractJSONObject(raw)), &parsed); err != nil {
		return map[string]any{"calculationResult": raw, "structured": false}, nil
	}
	return parsed, nil
}

// calculationInput gathers input for a calculation from the previous step
// or from named context keys.
func (e *Executor) calculationInput(step planner.Step, rc RunContext, byID map[string]*StepResult) any {
	if stringParam(step.Parameters, "dataSource", "") == "previous_step" {
		if len(step.DependsOn) > 0 {
			if prior, ok := byID[step.DependsOn[len(step.DependsOn)-1]]; ok {
				return prior.Value
			}
		}
	}
	if raw, ok := step.Parameters["contextKeys"].([]any); ok {
		input := make(map[string]any)
		for _, k := range raw {
			if key, ok := k.(string); ok {
				if v, ok := rc.ContextKeys[key]; ok {
					input[key] = v
				}
			}
		}
		if len(input) > 0 {
			return input
		}
	}
	// Default to everything the prior steps established.
	input := make(map[string]any, len(byID))
	for id, res := range byID {
		if res.Success {
			input[id] = res.Value
		}
	}
	return input
}

type validationOutcome struct {
	IsValid   bool     `json:"isValid"`
	Issues    []string `json:"issues"`
	Reasoning string   `json:"reasoning"`
}

func (e *Executor) handleValidation(ctx context.Context, step planner.Step, rc RunContext, byID map[string]*StepResult) (any, error) {
	criteria := stringParam(step.Parameters, "validationCriteria", step.Description)

	input := make(map[string]any, len(byID))
	for id, res := range byID {
		if res.Success {
			input[id] = res.Value
		}
	}

	prompt := fmt.Sprintf("## Criteria\n%s\n\n## Results to validate\n%s", criteria, compactValue(input, 4000))
	var outcome validationOutcome
	if err := e.llm.CompleteJSON(ctx, validationSystemPrompt, prompt, &outcome); err != nil {
		return nil, err
	}
	if !outcome.IsValid {
		return nil, fmt.Errorf("validation failed: %s", strings.Join(outcome.Issues, "; "))
	}
	return outcome, nil
}

func (e *Executor) handleComparison(ctx context.Context, step planner.Step, byID map[string]*StepResult) (any, error) {
	var items []any
	if raw, ok := step.Parameters["itemIds"].([]any); ok {
		for _, id := range raw {
			sid, ok := id.(string)
			if !ok {
				continue
			}
			if prior, ok := byID[sid]; ok && prior.Success {
				items = append(items, prior.Value)
			}
		}
	}
	if len(items) < 2 {
		return nil, errors.New("Need at least two items to compare")
	}

	prompt := fmt.Sprintf("## Task\n%s\n\n## Items\n%s\n\nRespond with a JSON object: {\"comparison\": \"...\", \"differences\": [...], \"winner\": \"...\"}.",
		step.Description, compactValue(items, 4000))
	var parsed map[string]any
	if err := e.llm.CompleteJSON(ctx, "You compare operational airport data sets precisely.", prompt, &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

type recommendationOutcome struct {
	Recommendations []string `json:"recommendations"`
	Rationale       string   `json:"rationale"`
	Confidence      float64  `json:"confidence"`
}

func (e *Executor) handleRecommendation(ctx context.Context, step planner.Step, rc RunContext, byID map[string]*StepResult) (any, error) {
	input := make(map[string]any)
	if raw, ok := step.Parameters["dataStepIds"].([]any); ok {
		for _, id := range raw {
			if sid, ok := id.(string); ok {
				if prior, ok := byID[sid]; ok && prior.Success {
					input[sid] = prior.Value
				}
			}
		}
	}
	if len(input) == 0 {
		for id, res := range byID {
			if res.Success {
				input[id] = res.Value
			}
		}
	}

	prompt := fmt.Sprintf("## Query\n%s\n\n## Goal\n%s\n\n## Data\n%s",
		rc.OriginalQuery, step.Description, compactValue(input, 4000))
	var outcome recommendationOutcome
	if err := e.llm.CompleteJSON(ctx, recommendationSystemPrompt, prompt, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (e *Executor) handleFactChecking(ctx context.Context, step planner.Step, rc RunContext, prior []planner.Step, byID map[string]*StepResult) (any, error) {
	target := stringParam(step.Parameters, "text", "")
	if stepID := stringParam(step.Parameters, "stepId", ""); stepID != "" {
		if res, ok := byID[stepID]; ok && res.Success {
			target = compactValue(res.Value, 4000)
		}
	}
	if target == "" {
		return nil, errors.New("fact_checking step has no target text")
	}

	items := e.knowledgeForFactCheck(rc, prior, byID)
	strict, _ := step.Parameters["strictMode"].(bool)

	resp := e.verifier.VerifyResponse(ctx, target, items, verifier.Options{StrictMode: strict})
	return resp, nil
}

// knowledgeForFactCheck resolves knowledge items from the latest prior
// knowledge_retrieval step, falling back to working memory.
func (e *Executor) knowledgeForFactCheck(rc RunContext, prior []planner.Step, byID map[string]*StepResult) []knowledge.Item {
	for i := len(prior) - 1; i >= 0; i-- {
		if prior[i].Type != planner.TypeKnowledgeRetrieval {
			continue
		}
		if res, ok := byID[prior[i].ID]; ok && res.Success {
			if kr, ok := res.Value.(*knowledge.Result); ok {
				return kr.Items()
			}
		}
	}
	if v, ok := e.working.GetRetrievedKnowledge(rc.SessionID, rc.QueryID); ok {
		if items, ok := v.([]knowledge.Item); ok {
			return items
		}
	}
	return nil
}

func (e *Executor) handleGeneric(ctx context.Context, step planner.Step, rc RunContext) (any, error) {
	prompt := fmt.Sprintf("## Query\n%s\n\n## Task\n%s", rc.OriginalQuery, step.Description)
	text, err := e.llm.ProcessQuery(ctx, prompt, nil, "You are a reasoning step of an airport capacity-planning assistant. Answer the task directly.")
	if err != nil {
		return nil, err
	}
	return map[string]any{"text": text}, nil
}

const validationSystemPrompt = `You validate reasoning results for an airport capacity-planning assistant against stated criteria.

Respond with valid JSON only:
{"isValid": true, "issues": [], "reasoning": "..."}`

const recommendationSystemPrompt = `You produce operational recommendations for airport capacity planners, grounded strictly in the supplied data.

Respond with valid JSON only:
{"recommendations": ["..."], "rationale": "...", "confidence": 0.0}`
