// Package planner turns a canonical query into a validated, knowledge-
// grounded reasoning plan: an ordered sequence of typed steps whose
// dependency graph is a DAG referencing only earlier steps.
package planner

import (
	"errors"
	"fmt"
	"time"
)

// Step types.
const (
	TypeKnowledgeRetrieval  = "knowledge_retrieval"
	TypeParameterExtraction = "parameter_extraction"
	TypeDataRetrieval       = "data_retrieval"
	TypeCalculation         = "calculation"
	TypeValidation          = "validation"
	TypeComparison          = "comparison"
	TypeRecommendation      = "recommendation"
	TypeFactChecking        = "fact_checking"
	TypeGeneric             = "generic"
)

// baselineDurations are per-type duration estimates in seconds.
var baselineDurations = map[string]float64{
	TypeCalculation:         2.0,
	TypeParameterExtraction: 3.5,
	TypeDataRetrieval:       1.5,
	TypeValidation:          0.5,
	TypeComparison:          3.0,
	TypeRecommendation:      4.0,
	TypeKnowledgeRetrieval:  2.0,
	TypeFactChecking:        2.5,
	TypeGeneric:             1.0,
}

// BaselineDuration returns the estimated duration for a step type in
// seconds.
func BaselineDuration(stepType string) float64 {
	if d, ok := baselineDurations[stepType]; ok {
		return d
	}
	return baselineDurations[TypeGeneric]
}

// Step is one normalized plan step. DependsOn holds canonical step IDs and
// only ever references earlier steps.
type Step struct {
	ID                   string         `json:"id"`
	Index                int            `json:"index"`
	Description          string         `json:"description"`
	Type                 string         `json:"type"`
	DependsOn            []string       `json:"dependsOn,omitempty"`
	Parameters           map[string]any `json:"parameters,omitempty"`
	EstimatedDurationSec float64        `json:"estimatedDurationSec"`
}

// Plan is a validated reasoning plan.
type Plan struct {
	ID                 string    `json:"id"`
	QueryID            string    `json:"queryId"`
	Steps              []Step    `json:"steps"`
	Confidence         float64   `json:"confidence"`
	EstimatedTotalTime float64   `json:"estimatedTotalTime"`
	CreatedAt          time.Time `json:"createdAt"`
}

// ErrInvalidPlan is the sentinel wrapped by InvalidPlanError.
var ErrInvalidPlan = errors.New("invalid plan")

// InvalidPlanError reports why a proposed plan cannot be executed and what
// the user could do instead.
type InvalidPlanError struct {
	Reason               string `json:"reason"`
	SuggestedAlternative string `json:"suggestedAlternative,omitempty"`
}

func (e *InvalidPlanError) Error() string {
	return fmt.Sprintf("invalid plan: %s", e.Reason)
}

func (e *InvalidPlanError) Unwrap() error { return ErrInvalidPlan }
