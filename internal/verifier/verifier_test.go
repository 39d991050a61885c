package verifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zhaddad/aeromind/internal/knowledge"
	"github.com/zhaddad/aeromind/internal/llm"
)

// scriptedProvider returns canned responses in order.
type scriptedProvider struct {
	responses []string
	err       error
	calls     int
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.calls >= len(s.responses) {
		return nil, errors.New("scripted provider exhausted")
	}
	resp := s.responses[s.calls]
	s.calls++
	return &llm.CompletionResponse{Content: resp}, nil
}

func newVerifier(p *scriptedProvider) *Verifier {
	return New(llm.NewService(p, "test-model"))
}

func facts(contents ...string) []knowledge.Item {
	items := make([]knowledge.Item, len(contents))
	for i, c := range contents {
		items[i] = knowledge.Item{Source: "handbook.md", Type: "fact", Content: c, Confidence: 0.9}
	}
	return items
}

func TestContradictedClaimIsCorrected(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		`{"verdicts":[{"status":"CONTRADICTED","sources":["handbook.md"],"explanation":"knowledge says 30","correction":"The airport has 30 stands."}]}`,
		`The airport has 30 stands.`,
	}}
	v := newVerifier(p)

	resp := v.VerifyResponse(context.Background(),
		"The airport has 25 stands.",
		facts("The airport has 30 stands."),
		Options{})

	if resp.Verified {
		t.Error("contradicted response must not verify")
	}
	if resp.CorrectedResponse == "The airport has 25 stands." {
		t.Error("corrected response should differ from the input")
	}
	if !strings.Contains(resp.CorrectedResponse, "30") {
		t.Errorf("unexpected correction: %q", resp.CorrectedResponse)
	}
	if len(resp.Statements) != 1 || resp.Statements[0].Status != StatusContradicted {
		t.Errorf("unexpected statements: %+v", resp.Statements)
	}
	if resp.Statements[0].Confidence != 0.0 {
		t.Errorf("missing confidence should map from CONTRADICTED: %v", resp.Statements[0].Confidence)
	}
}

func TestEmptyKnowledgePassesThrough(t *testing.T) {
	p := &scriptedProvider{}
	v := newVerifier(p)

	resp := v.VerifyResponse(context.Background(), "The airport has 25 stands.", nil, Options{})
	if resp.Verified {
		t.Error("nothing was checked, must not claim verified")
	}
	if resp.CorrectedResponse != "The airport has 25 stands." {
		t.Errorf("original must be returned unchanged: %q", resp.CorrectedResponse)
	}
	if resp.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", resp.Confidence)
	}
	if resp.Ran {
		t.Error("no check happened, Ran must be false")
	}
	if p.calls != 0 {
		t.Errorf("no LLM calls expected, got %d", p.calls)
	}
}

func TestBlankResponseFailsSafe(t *testing.T) {
	p := &scriptedProvider{}
	v := newVerifier(p)

	resp := v.VerifyResponse(context.Background(), "   ",
		facts("The airport has 30 stands."), Options{})
	if resp.Verified {
		t.Error("blank response must not verify")
	}
	if resp.Ran {
		t.Error("blank response cannot be checked, Ran must be false")
	}
	if resp.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", resp.Confidence)
	}
	if resp.CorrectedResponse != "   " {
		t.Errorf("original must be returned unchanged: %q", resp.CorrectedResponse)
	}
	if p.calls != 0 {
		t.Errorf("no LLM calls expected, got %d", p.calls)
	}
}

func TestSupportedResponseUnchanged(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		`{"verdicts":[{"status":"SUPPORTED","confidence":0.95,"sources":["handbook.md"]}]}`,
	}}
	v := newVerifier(p)

	resp := v.VerifyResponse(context.Background(),
		"The airport has 30 stands.",
		facts("The airport has 30 stands."),
		Options{})

	if !resp.Verified {
		t.Error("supported response should verify")
	}
	if !resp.Ran {
		t.Error("completed check must report Ran")
	}
	if resp.CorrectedResponse != "The airport has 30 stands." {
		t.Errorf("supported response must pass through: %q", resp.CorrectedResponse)
	}
	if resp.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", resp.Confidence)
	}
}

func TestStatementExtraction(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		`{"claims":[
			{"text":"The airport has 30 stands.","lineNumber":1,"specificity":0.9},
			{"text":"Pier A is busy.","lineNumber":2,"specificity":0.3}
		]}`,
		`{"verdicts":[
			{"status":"SUPPORTED","confidence":1.0},
			{"status":"UNSUPPORTED"}
		]}`,
		`The airport has 30 stands.`,
	}}
	v := newVerifier(p)

	resp := v.VerifyResponse(context.Background(),
		"The airport has 30 stands. Pier A is busy.",
		facts("The airport has 30 stands."),
		Options{ExtractStatements: true})

	if len(resp.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %+v", resp.Statements)
	}
	if resp.Statements[1].Status != StatusUnsupported {
		t.Errorf("second statement: %+v", resp.Statements[1])
	}
	if resp.Statements[1].Confidence != 0.2 {
		t.Errorf("UNSUPPORTED confidence mapping: %v", resp.Statements[1].Confidence)
	}

	// Specificity-weighted mean: (1.0*0.9 + 0.2*0.3) / 1.2 = 0.8.
	if diff := resp.Confidence - 0.8; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("weighted confidence = %v, want 0.8", resp.Confidence)
	}
	if resp.Verified {
		t.Error("unsupported statement must trigger correction")
	}
}

func TestExtractionParseFailureFallsBack(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		`not json at all`,
		`{"verdicts":[{"status":"SUPPORTED","confidence":1.0}]}`,
	}}
	v := newVerifier(p)

	resp := v.VerifyResponse(context.Background(),
		"The airport has 30 stands.",
		facts("The airport has 30 stands."),
		Options{ExtractStatements: true})

	if len(resp.Statements) != 1 {
		t.Fatalf("expected whole-text fallback statement, got %+v", resp.Statements)
	}
	if resp.Statements[0].Text != "The airport has 30 stands." {
		t.Errorf("fallback statement: %+v", resp.Statements[0])
	}
}

func TestPipelineErrorPreservesOriginal(t *testing.T) {
	p := &scriptedProvider{err: errors.New("backend down")}
	v := newVerifier(p)

	resp := v.VerifyResponse(context.Background(),
		"The airport has 25 stands.",
		facts("The airport has 30 stands."),
		Options{})

	if resp.Verified {
		t.Error("errored pipeline must not verify")
	}
	if resp.Ran {
		t.Error("errored pipeline must not report Ran")
	}
	if resp.CorrectedResponse != "The airport has 25 stands." {
		t.Errorf("original must survive pipeline errors: %q", resp.CorrectedResponse)
	}
	if len(resp.Statements) != 1 || resp.Statements[0].Status != StatusVerificationError {
		t.Errorf("statements should carry the error status: %+v", resp.Statements)
	}
	if resp.Statements[0].Confidence != 0 {
		t.Errorf("error-status confidence = %v, want 0", resp.Statements[0].Confidence)
	}
}

func TestVerdictCountMismatchIsError(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		`{"verdicts":[]}`,
	}}
	v := newVerifier(p)

	resp := v.VerifyResponse(context.Background(),
		"The airport has 25 stands.",
		facts("The airport has 30 stands."),
		Options{})
	if resp.Verified {
		t.Error("mismatched verdict count must fail safe")
	}
	if resp.CorrectedResponse != "The airport has 25 stands." {
		t.Errorf("original must be preserved: %q", resp.CorrectedResponse)
	}
}

func TestVerifyClaim(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		`{"verdicts":[{"status":"partially supported","sources":["handbook.md"],"explanation":"count matches, status unknown"}]}`,
	}}
	v := newVerifier(p)

	st, err := v.VerifyClaim(context.Background(),
		"There are 30 available stands.",
		facts("The airport has 30 stands."),
		Options{})
	if err != nil {
		t.Fatalf("VerifyClaim: %v", err)
	}
	if st.Status != StatusPartiallySupported {
		t.Errorf("status normalization: %q", st.Status)
	}
	if st.Confidence != 0.5 {
		t.Errorf("confidence mapping: %v", st.Confidence)
	}
}

func TestMetrics(t *testing.T) {
	p := &scriptedProvider{responses: []string{
		`{"verdicts":[{"status":"SUPPORTED","confidence":1.0}]}`,
		`{"verdicts":[{"status":"CONTRADICTED"}]}`,
		`corrected text`,
	}}
	v := newVerifier(p)
	ctx := context.Background()
	items := facts("The airport has 30 stands.")

	v.VerifyResponse(ctx, "The airport has 30 stands.", items, Options{})
	v.VerifyResponse(ctx, "The airport has 99 stands.", items, Options{})

	stats := v.Stats()
	if stats.TotalVerifications != 2 {
		t.Errorf("TotalVerifications = %d", stats.TotalVerifications)
	}
	if stats.TotalCorrections != 1 {
		t.Errorf("TotalCorrections = %d", stats.TotalCorrections)
	}
	if stats.CorrectionRate != 0.5 {
		t.Errorf("CorrectionRate = %v", stats.CorrectionRate)
	}
	if stats.AverageConfidence != 0.5 {
		t.Errorf("AverageConfidence = %v", stats.AverageConfidence)
	}
}
