// Package normalizer canonicalizes colloquial user queries into the fixed
// vocabulary of the airport domain before classification and planning.
package normalizer

import (
	"errors"
	"strings"
)

// Pipeline stage names recorded in the processing trace.
const (
	StepWhitespaceTrim        = "whitespace_trim"
	StepAbbreviationExpansion = "abbreviation_expansion"
	StepSynonymReplacement    = "synonym_replacement"
	StepColloquialTranslation = "colloquial_translation"
	StepPhrasingNormalization = "phrasing_normalization"
)

const (
	confidenceStart   = 1.0
	confidencePenalty = 0.05
	confidenceFloor   = 0.5
)

// ErrInvalidInput is returned for empty input.
var ErrInvalidInput = errors.New("query must be a non-empty string")

// Options toggles individual normalization stages.
type Options struct {
	EnableAbbreviationExpansion bool
	EnableSynonymReplacement    bool
	EnableColloquialTranslation bool
	EnablePhrasingNormalization bool
}

// DefaultOptions enables every stage.
func DefaultOptions() Options {
	return Options{
		EnableAbbreviationExpansion: true,
		EnableSynonymReplacement:    true,
		EnableColloquialTranslation: true,
		EnablePhrasingNormalization: true,
	}
}

// TraceItem records a single transformation applied by the pipeline.
type TraceItem struct {
	Step   string `json:"step"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Result is the outcome of normalizing a query.
type Result struct {
	Success         bool        `json:"success"`
	OriginalQuery   string      `json:"originalQuery"`
	NormalizedQuery string      `json:"normalizedQuery"`
	WasTransformed  bool        `json:"wasTransformed"`
	ProcessingSteps []TraceItem `json:"processingSteps"`
	Confidence      float64     `json:"confidence"`
}

// Normalizer applies the ordered canonicalization pipeline.
type Normalizer struct {
	opts Options
}

// New creates a normalizer with the given options.
func New(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Normalize runs the pipeline: whitespace trim, abbreviation expansion,
// synonym replacement, colloquial rewriting, phrasing normalization.
// Confidence starts at 1.0 and decays by 0.05 per applied transformation,
// floored at 0.5. Normalizing an already-canonical query is a fixed point.
func (n *Normalizer) Normalize(raw string) (*Result, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrInvalidInput
	}

	res := &Result{
		Success:       true,
		OriginalQuery: raw,
		Confidence:    confidenceStart,
	}

	text := raw
	apply := func(step string, next string) {
		if next == text {
			return
		}
		res.ProcessingSteps = append(res.ProcessingSteps, TraceItem{Step: step, Before: text, After: next})
		text = next
	}

	apply(StepWhitespaceTrim, collapseWhitespace(raw))

	if n.opts.EnableAbbreviationExpansion {
		apply(StepAbbreviationExpansion, expandAbbreviations(text))
	}
	if n.opts.EnableSynonymReplacement {
		apply(StepSynonymReplacement, replaceSynonyms(text))
	}
	if n.opts.EnableColloquialTranslation {
		apply(StepColloquialTranslation, translateColloquialisms(text))
	}
	if n.opts.EnablePhrasingNormalization {
		apply(StepPhrasingNormalization, normalizePhrasing(text))
	}

	res.NormalizedQuery = text
	res.WasTransformed = len(res.ProcessingSteps) > 0
	res.Confidence = confidenceStart - confidencePenalty*float64(len(res.ProcessingSteps))
	if res.Confidence < confidenceFloor {
		res.Confidence = confidenceFloor
	}

	return res, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
