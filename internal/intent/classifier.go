package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zhaddad/aeromind/internal/llm"
)

// DefaultConfidenceThreshold is the minimum rule score accepted without
// consulting the LLM.
const DefaultConfidenceThreshold = 0.7

// ErrClassificationFailed is returned when no rule clears the threshold and
// the LLM fallback also fails.
var ErrClassificationFailed = errors.New("intent classification failed")

// Classifier performs rules-first, LLM-fallback intent classification.
type Classifier struct {
	llm       *llm.Service
	threshold float64
}

// NewClassifier creates a classifier. A threshold <= 0 uses the default.
func NewClassifier(service *llm.Service, threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Classifier{llm: service, threshold: threshold}
}

// Classify determines the intent of a canonicalized query. Rule matches at or
// above the confidence threshold short-circuit; otherwise the LLM is asked.
// Rule-based classification is deterministic for a given input.
func (c *Classifier) Classify(ctx context.Context, text string) (*Intent, error) {
	if best, ok := matchRules(text); ok && best.Confidence >= c.threshold {
		return &best, nil
	}

	it, err := c.classifyWithLLM(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}
	return it, nil
}

type llmClassification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

func (c *Classifier) classifyWithLLM(ctx context.Context, text string) (*Intent, error) {
	var parsed llmClassification
	if err := c.llm.CompleteJSON(ctx, classifierSystemPrompt(), text, &parsed); err != nil {
		return nil, err
	}

	label := strings.TrimSpace(parsed.Intent)
	if !Known(label) {
		return nil, fmt.Errorf("llm returned unknown intent %q", label)
	}
	conf := parsed.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}

	return &Intent{
		Label:      label,
		Category:   CategoryOf(label),
		Confidence: conf,
		Method:     MethodLLM,
	}, nil
}

func classifierSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are the intent classifier for an airport capacity-planning assistant.\n")
	b.WriteString("Classify the user's query into exactly one of these intents:\n")
	for _, l := range Labels {
		fmt.Fprintf(&b, "- %s\n", l)
	}
	b.WriteString(`
Examples:
- "show details for stand A1" -> {"intent":"stand.details","confidence":0.95}
- "how many more flights can we handle" -> {"intent":"capacity.current","confidence":0.9}
- "will we cope with the schedule next week" -> {"intent":"capacity.forecast","confidence":0.85}
- "which stands are blocked by the pier works" -> {"intent":"maintenance.impact","confidence":0.9}

Respond with valid JSON only: {"intent":"<label>","confidence":<0..1>}`)
	return b.String()
}
