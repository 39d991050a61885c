package planner

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zhaddad/aeromind/internal/llm"
)

// maxSteps bounds accepted plan length.
const maxSteps = 7

// Planner proposes and normalizes reasoning plans.
type Planner struct {
	llm *llm.Service
}

// New creates a planner.
func New(service *llm.Service) *Planner {
	return &Planner{llm: service}
}

// BuildPlan asks the LLM to propose steps for the query and normalizes the
// proposal into a validated Plan. contextParams holds parameters already
// resolved from the conversation (entities, the original query) that steps
// may rely on without declaring them.
func (p *Planner) BuildPlan(ctx context.Context, queryID, query, contextSummary string, contextParams map[string]any) (*Plan, error) {
	proposal, err := p.llm.ProposeSteps(ctx, query, contextSummary)
	if err != nil {
		return nil, fmt.Errorf("proposing plan: %w", err)
	}
	return Normalize(queryID, proposal, contextParams)
}

// Normalize validates and canonicalizes a proposed plan: it infers missing
// step types, remaps dependencies, guarantees a knowledge_retrieval step,
// rejects cyclic or infeasible plans and assigns step-N identifiers.
func Normalize(queryID string, proposal *llm.ProposedPlan, contextParams map[string]any) (*Plan, error) {
	if len(proposal.Steps) == 0 {
		return nil, &InvalidPlanError{
			Reason:               "Plan contains no steps",
			SuggestedAlternative: "Rephrase the query with a concrete question",
		}
	}
	if len(proposal.Steps) > maxSteps {
		return nil, &InvalidPlanError{
			Reason:               fmt.Sprintf("Plan exceeds %d steps", maxSteps),
			SuggestedAlternative: "Split the query into smaller questions",
		}
	}

	steps := make([]Step, len(proposal.Steps))
	numberToIndex := make(map[int]int, len(proposal.Steps))
	for i, ps := range proposal.Steps {
		steps[i] = Step{
			Index:       i,
			Description: ps.Description,
			Type:        normalizeType(ps.Type, ps.Description),
			Parameters:  ps.Parameters,
		}
		// Proposals without explicit step numbers are numbered by position.
		n := ps.Number
		if n <= 0 {
			n = i + 1
		}
		if _, taken := numberToIndex[n]; !taken {
			numberToIndex[n] = i
		}
	}

	// Dependencies from the proposal may be step numbers, bare numerals or
	// "step-N" strings.
	deps := make([][]int, len(steps))
	for i, ps := range proposal.Steps {
		for _, d := range ps.DependsOn {
			idx, ok := resolveDependency(d, numberToIndex)
			if !ok {
				return nil, &InvalidPlanError{
					Reason:               fmt.Sprintf("Step %d declares unknown dependency %v", i+1, d),
					SuggestedAlternative: "Rephrase the query",
				}
			}
			deps[i] = append(deps[i], idx)
		}
	}

	if hasCycle(deps) {
		return nil, &InvalidPlanError{
			Reason:               "Circular dependency detected in plan",
			SuggestedAlternative: "Rephrase query to avoid circular reasoning",
		}
	}

	// The graph is acyclic; a stable topological reorder turns any forward
	// references into backward ones.
	order := topologicalOrder(deps)
	steps, deps = reorder(steps, deps, order)

	steps, deps = ensureKnowledgeRetrieval(steps, deps)

	if missing := missingParameters(steps, contextParams); len(missing) > 0 {
		return nil, &InvalidPlanError{
			Reason:               "Missing required parameters: " + strings.Join(missing, ", "),
			SuggestedAlternative: "Provide the missing details and ask again",
		}
	}

	total := 0.0
	for i := range steps {
		steps[i].Index = i
		steps[i].ID = fmt.Sprintf("step-%d", i+1)
		steps[i].EstimatedDurationSec = BaselineDuration(steps[i].Type)
		total += steps[i].EstimatedDurationSec
	}
	for i, dd := range deps {
		ids := make([]string, 0, len(dd))
		for _, d := range dd {
			ids = append(ids, steps[d].ID)
		}
		sort.Strings(ids)
		steps[i].DependsOn = ids
	}

	confidence := proposal.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.8
	}

	return &Plan{
		ID:                 uuid.NewString(),
		QueryID:            queryID,
		Steps:              steps,
		Confidence:         confidence,
		EstimatedTotalTime: total,
		CreatedAt:          time.Now().UTC(),
	}, nil
}

var stepIDPattern = regexp.MustCompile(`^step-(\d+)$`)

// resolveDependency maps a declared dependency (step number, numeral string
// or "step-N" id) to a zero-based step index.
func resolveDependency(dep any, numberToIndex map[int]int) (int, bool) {
	switch d := dep.(type) {
	case float64:
		idx, ok := numberToIndex[int(d)]
		return idx, ok
	case int:
		idx, ok := numberToIndex[d]
		return idx, ok
	case string:
		s := strings.TrimSpace(d)
		if m := stepIDPattern.FindStringSubmatch(s); m != nil {
			n, _ := strconv.Atoi(m[1])
			idx, ok := numberToIndex[n]
			return idx, ok
		}
		if n, err := strconv.Atoi(s); err == nil {
			idx, ok := numberToIndex[n]
			return idx, ok
		}
	}
	return 0, false
}

// typeKeywords map description prefixes to step types, checked in order.
var typeKeywords = []struct {
	keywords []string
	stepType string
}{
	{[]string{"calculat"}, TypeCalculation},
	{[]string{"extract", "identif"}, TypeParameterExtraction},
	{[]string{"retriev", "fetch", "get"}, TypeDataRetrieval},
	{[]string{"validat", "verify", "check"}, TypeValidation},
	{[]string{"compar", "contrast"}, TypeComparison},
	{[]string{"recommend", "suggest"}, TypeRecommendation},
}

// normalizeType returns the declared type when valid, otherwise infers one
// from description keywords, defaulting to generic.
func normalizeType(declared, description string) string {
	if _, ok := baselineDurations[declared]; ok {
		return declared
	}
	lower := strings.ToLower(description)
	for _, tk := range typeKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(lower, kw) {
				return tk.stepType
			}
		}
	}
	return TypeGeneric
}

// hasCycle runs DFS with a recursion stack over the dependency graph.
func hasCycle(deps [][]int) bool {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make([]int, len(deps))

	var visit func(int) bool
	visit = func(i int) bool {
		state[i] = inStack
		for _, d := range deps[i] {
			if d == i || state[d] == inStack {
				return true
			}
			if state[d] == unvisited && visit(d) {
				return true
			}
		}
		state[i] = done
		return false
	}

	for i := range deps {
		if state[i] == unvisited && visit(i) {
			return true
		}
	}
	return false
}

// topologicalOrder returns a stable topological order of the acyclic
// dependency graph: among ready steps, declared order wins.
func topologicalOrder(deps [][]int) []int {
	n := len(deps)
	indegree := make([]int, n)
	dependents := make([][]int, n)
	for i, dd := range deps {
		indegree[i] = len(dd)
		for _, d := range dd {
			dependents[d] = append(dependents[d], i)
		}
	}

	var order []int
	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	for len(ready) > 0 {
		sort.Ints(ready)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	return order
}

// reorder permutes steps into the given order and rewrites dependency
// indices accordingly.
func reorder(steps []Step, deps [][]int, order []int) ([]Step, [][]int) {
	position := make([]int, len(order))
	for pos, old := range order {
		position[old] = pos
	}

	newSteps := make([]Step, len(steps))
	newDeps := make([][]int, len(steps))
	for pos, old := range order {
		newSteps[pos] = steps[old]
		for _, d := range deps[old] {
			newDeps[pos] = append(newDeps[pos], position[d])
		}
	}
	return newSteps, newDeps
}

// ensureKnowledgeRetrieval prepends a synthetic knowledge_retrieval step
// when the plan has none; pre-existing steps without dependencies then
// depend on it, so every execution path is knowledge-grounded.
func ensureKnowledgeRetrieval(steps []Step, deps [][]int) ([]Step, [][]int) {
	for _, s := range steps {
		if s.Type == TypeKnowledgeRetrieval {
			return steps, deps
		}
	}

	synthetic := Step{
		Description: "Retrieve relevant knowledge for the query",
		Type:        TypeKnowledgeRetrieval,
		Parameters:  map[string]any{"retrievalType": "hybrid"},
	}
	newSteps := append([]Step{synthetic}, steps...)
	newDeps := make([][]int, len(newSteps))
	for i, dd := range deps {
		if len(dd) == 0 {
			newDeps[i+1] = []int{0}
			continue
		}
		shifted := make([]int, len(dd))
		for j, d := range dd {
			shifted[j] = d + 1
		}
		newDeps[i+1] = shifted
	}
	return newSteps, newDeps
}

// requiredParameters per step type. A required parameter may instead be
// resolvable from the plan context.
var requiredParameters = map[string][]string{
	TypeDataRetrieval: {"dataSource"},
	TypeComparison:    {"itemIds"},
}

// missingParameters checks parameter feasibility for every step.
func missingParameters(steps []Step, contextParams map[string]any) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, s := range steps {
		for _, name := range requiredParameters[s.Type] {
			if _, ok := s.Parameters[name]; ok {
				continue
			}
			if _, ok := contextParams[name]; ok {
				continue
			}
			key := s.Type + "." + name
			if !seen[key] {
				seen[key] = true
				missing = append(missing, name)
			}
		}
	}
	sort.Strings(missing)
	return missing
}
