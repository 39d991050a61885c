// Package verifier fact-checks generated responses against retrieved
// knowledge: it extracts claims, verifies each against the knowledge items,
// and rewrites the response when it is not fully supported.
package verifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zhaddad/aeromind/internal/knowledge"
	"github.com/zhaddad/aeromind/internal/llm"
)

// Verification statuses.
const (
	StatusSupported          = "SUPPORTED"
	StatusPartiallySupported = "PARTIALLY_SUPPORTED"
	StatusUnsupported        = "UNSUPPORTED"
	StatusContradicted       = "CONTRADICTED"
	StatusVerificationError  = "VERIFICATION_ERROR"
)

// confidenceByStatus fills in a statement confidence when the verifier LLM
// omits one.
var confidenceByStatus = map[string]float64{
	StatusSupported:          1.0,
	StatusPartiallySupported: 0.5,
	StatusUnsupported:        0.2,
	StatusContradicted:       0.0,
	StatusVerificationError:  0.0,
}

// DefaultConfidenceThreshold triggers correction when overall confidence
// falls below it.
const DefaultConfidenceThreshold = 0.7

// Options control a verification run.
type Options struct {
	// ExtractStatements splits the response into discrete claims before
	// verification. When false, the whole response is one statement.
	ExtractStatements bool
	// StrictMode forbids marking statements SUPPORTED without explicit
	// support in the knowledge items.
	StrictMode bool
	// ConfidenceThreshold below which a correction is produced. <= 0 uses
	// the default.
	ConfidenceThreshold float64
}

// VerifiedStatement is one claim with its verification verdict.
type VerifiedStatement struct {
	Text                string   `json:"text"`
	LineNumber          int      `json:"lineNumber"`
	Specificity         float64  `json:"specificity,omitempty"`
	Status              string   `json:"status"`
	Confidence          float64  `json:"confidence"`
	SourceRefs          []string `json:"sourceRefs,omitempty"`
	Explanation         string   `json:"explanation,omitempty"`
	SuggestedCorrection string   `json:"suggestedCorrection,omitempty"`
}

// Response is the outcome of verifying a generated response.
type Response struct {
	// Ran reports whether the check actually completed. False when there
	// was nothing to check against, the response was blank, or the
	// pipeline errored.
	Ran                bool                `json:"ran"`
	Verified           bool                `json:"verified"`
	Confidence         float64             `json:"confidence"`
	Statements         []VerifiedStatement `json:"statements"`
	CorrectedResponse  string              `json:"correctedResponse"`
	VerificationTimeMs int64               `json:"verificationTimeMs"`
}

// Verifier runs the verification pipeline.
type Verifier struct {
	llm     *llm.Service
	metrics Metrics
}

// New creates a verifier.
func New(service *llm.Service) *Verifier {
	return &Verifier{llm: service}
}

// VerifyResponse verifies a generated response against knowledge items.
// Pipeline errors never surface: the original response comes back with
// verified=false so user-visible content is preserved.
func (v *Verifier) VerifyResponse(ctx context.Context, text string, items []knowledge.Item, opts Options) *Response {
	start := time.Now()

	if len(items) == 0 {
		// Nothing to check against; pass the response through untouched.
		return &Response{
			Verified:           false,
			Confidence:         1.0,
			CorrectedResponse:  text,
			VerificationTimeMs: time.Since(start).Milliseconds(),
		}
	}
	if strings.TrimSpace(text) == "" {
		// A blank response cannot be checked; fail safe.
		return &Response{
			Verified:           false,
			Confidence:         0,
			CorrectedResponse:  text,
			VerificationTimeMs: time.Since(start).Milliseconds(),
		}
	}

	threshold := opts.ConfidenceThreshold
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}

	statements := v.extractStatements(ctx, text, opts)
	verified, err := v.verifyStatements(ctx, statements, items, opts)
	if err != nil {
		// The statements survive with an error status so callers can see
		// what went unchecked.
		for i := range statements {
			statements[i].Status = StatusVerificationError
			statements[i].Confidence = confidenceByStatus[StatusVerificationError]
		}
		resp := &Response{
			Verified:           false,
			Confidence:         0,
			Statements:         statements,
			CorrectedResponse:  text,
			VerificationTimeMs: time.Since(start).Milliseconds(),
		}
		v.metrics.record(resp, false)
		return resp
	}

	confidence := overallConfidence(verified)

	needsCorrection := confidence < threshold
	for _, st := range verified {
		if st.Status != StatusSupported {
			needsCorrection = true
			break
		}
	}

	corrected := text
	didCorrect := false
	if needsCorrection {
		if fixed, err := v.correct(ctx, text, verified, items); err == nil && strings.TrimSpace(fixed) != "" {
			corrected = fixed
			didCorrect = true
		}
	}

	resp := &Response{
		Ran:                true,
		Verified:           !needsCorrection,
		Confidence:         confidence,
		Statements:         verified,
		CorrectedResponse:  corrected,
		VerificationTimeMs: time.Since(start).Milliseconds(),
	}
	v.metrics.record(resp, didCorrect)
	return resp
}

// VerifyClaim verifies a single claim against knowledge items.
func (v *Verifier) VerifyClaim(ctx context.Context, claim string, items []knowledge.Item, opts Options) (*VerifiedStatement, error) {
	statements := []VerifiedStatement{{Text: claim, LineNumber: 1}}
	verified, err := v.verifyStatements(ctx, statements, items, opts)
	if err != nil {
		return nil, err
	}
	if len(verified) == 0 {
		return nil, fmt.Errorf("verifier returned no verdict for claim")
	}
	return &verified[0], nil
}

// Stats returns a snapshot of the running verification metrics.
func (v *Verifier) Stats() MetricsSnapshot {
	return v.metrics.snapshot()
}

type extractedClaim struct {
	Text        string  `json:"text"`
	LineNumber  int     `json:"lineNumber"`
	Type        string  `json:"type"`
	Specificity float64 `json:"specificity"`
}

// extractStatements splits text into discrete claims. Any failure collapses
// to a single whole-text statement.
func (v *Verifier) extractStatements(ctx context.Context, text string, opts Options) []VerifiedStatement {
	whole := []VerifiedStatement{{Text: text, LineNumber: 1}}
	if !opts.ExtractStatements {
		return whole
	}

	var parsed struct {
		Claims []extractedClaim `json:"claims"`
	}
	if err := v.llm.CompleteJSON(ctx, claimExtractionPrompt, text, &parsed); err != nil {
		return whole
	}
	if len(parsed.Claims) == 0 {
		return whole
	}

	statements := make([]VerifiedStatement, 0, len(parsed.Claims))
	for i, c := range parsed.Claims {
		line := c.LineNumber
		if line <= 0 {
			line = i + 1
		}
		statements = append(statements, VerifiedStatement{
			Text:        c.Text,
			LineNumber:  line,
			Specificity: c.Specificity,
		})
	}
	return statements
}

type verdict struct {
	Status      string   `json:"status"`
	Confidence  *float64 `json:"confidence"`
	Sources     []string `json:"sources"`
	Explanation string   `json:"explanation"`
	Correction  string   `json:"correction"`
}

// verifyStatements makes a single LLM call covering all statements and all
// knowledge items, then normalizes the verdicts.
func (v *Verifier) verifyStatements(ctx context.Context, statements []VerifiedStatement, items []knowledge.Item, opts Options) ([]VerifiedStatement, error) {
	prompt := buildVerificationPrompt(statements, items)
	system := verificationPrompt
	if opts.StrictMode {
		system += "\n" + strictModeAddendum
	}

	var parsed struct {
		Verdicts []verdict `json:"verdicts"`
	}
	if err := v.llm.CompleteJSON(ctx, system, prompt, &parsed); err != nil {
		return nil, fmt.Errorf("verifying statements: %w", err)
	}
	if len(parsed.Verdicts) != len(statements) {
		return nil, fmt.Errorf("verifier returned %d verdicts for %d statements", len(parsed.Verdicts), len(statements))
	}

	out := make([]VerifiedStatement, len(statements))
	for i, st := range statements {
		vd := parsed.Verdicts[i]
		st.Status = normalizeStatus(vd.Status)
		if vd.Confidence != nil {
			st.Confidence = clamp01(*vd.Confidence)
		} else {
			st.Confidence = confidenceByStatus[st.Status]
		}
		st.SourceRefs = vd.Sources
		st.Explanation = vd.Explanation
		st.SuggestedCorrection = vd.Correction
		out[i] = st
	}
	return out, nil
}

// correct asks the LLM for a rewritten response grounded in the knowledge
// items, preserving the original style.
func (v *Verifier) correct(ctx context.Context, text string, statements []VerifiedStatement, items []knowledge.Item) (string, error) {
	var b strings.Builder
	b.WriteString("## Original response\n")
	b.WriteString(text)
	b.WriteString("\n\n## Verification findings\n")
	for _, st := range statements {
		if st.Status == StatusSupported {
			continue
		}
		fmt.Fprintf(&b, "- [%s] %q", st.Status, st.Text)
		if st.SuggestedCorrection != "" {
			fmt.Fprintf(&b, " (suggested: %s)", st.SuggestedCorrection)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n## Knowledge\n")
	writeKnowledge(&b, items)

	return v.llm.ProcessQuery(ctx, b.String(), nil, correctionPrompt)
}

func buildVerificationPrompt(statements []VerifiedStatement, items []knowledge.Item) string {
	var b strings.Builder
	b.WriteString("## Statements\n")
	for i, st := range statements {
		fmt.Fprintf(&b, "%d. %s\n", i+1, st.Text)
	}
	b.WriteString("\n## Knowledge\n")
	writeKnowledge(&b, items)
	return b.String()
}

func writeKnowledge(b *strings.Builder, items []knowledge.Item) {
	for _, item := range items {
		source := item.Source
		if source == "" {
			source = "unknown"
		}
		fmt.Fprintf(b, "- [%s] %s\n", source, item.Content)
	}
}

// normalizeStatus maps free-form verdicts onto the closed status set.
// Anything unrecognized is treated as UNSUPPORTED.
func normalizeStatus(s string) string {
	switch strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(s, " ", "_"))) {
	case StatusSupported, "TRUE", "CORRECT", "VERIFIED":
		return StatusSupported
	case StatusPartiallySupported, "PARTIAL", "PARTIALLY":
		return StatusPartiallySupported
	case StatusContradicted, "FALSE", "INCORRECT", "REFUTED":
		return StatusContradicted
	default:
		return StatusUnsupported
	}
}

// overallConfidence is the specificity-weighted mean of statement
// confidences. Specificity defaults to 1; with no statements the response
// is vacuously confident.
func overallConfidence(statements []VerifiedStatement) float64 {
	if len(statements) == 0 {
		return 1.0
	}
	var sum, weights float64
	for _, st := range statements {
		w := st.Specificity
		if w <= 0 {
			w = 1
		}
		sum += st.Confidence * w
		weights += w
	}
	return sum / weights
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
