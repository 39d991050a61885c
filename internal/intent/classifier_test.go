package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/zhaddad/aeromind/internal/llm"
)

type stubProvider struct {
	content string
	err     error
	calls   int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.content}, nil
}

func newClassifier(p *stubProvider) *Classifier {
	return NewClassifier(llm.NewService(p, "test-model"), 0)
}

func TestRuleClassification(t *testing.T) {
	p := &stubProvider{}
	c := newClassifier(p)

	cases := []struct {
		text  string
		label string
	}{
		{"status of stand A1", "stand.status"},
		{"show details for stand A1", "stand.details"},
		{"current capacity", "capacity.current"},
		{"maintenance status for pier B", "maintenance.status"},
		{"nearest stand to the fuel depot", "stand.nearest"},
		{"help", "help"},
		{"flight KL1234 today", "flight.lookup"},
	}

	for _, tc := range cases {
		it, err := c.Classify(context.Background(), tc.text)
		if err != nil {
			t.Fatalf("Classify(%q): %v", tc.text, err)
		}
		if it.Label != tc.label {
			t.Errorf("Classify(%q) = %s, want %s", tc.text, it.Label, tc.label)
		}
		if it.Method != MethodRules {
			t.Errorf("Classify(%q) method = %s, want rules", tc.text, it.Method)
		}
		if it.Confidence < DefaultConfidenceThreshold {
			t.Errorf("Classify(%q) confidence %v below threshold", tc.text, it.Confidence)
		}
	}

	if p.calls != 0 {
		t.Errorf("rule classification must not consult the LLM; %d calls made", p.calls)
	}
}

func TestRuleClassificationDeterministic(t *testing.T) {
	c := newClassifier(&stubProvider{})
	ctx := context.Background()

	first, err := c.Classify(ctx, "status of stand A1")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := c.Classify(ctx, "status of stand A1")
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if *again != *first {
			t.Fatalf("non-deterministic rule classification: %+v vs %+v", again, first)
		}
	}
}

func TestLLMFallback(t *testing.T) {
	p := &stubProvider{content: `{"intent":"capacity.current","confidence":0.92}`}
	c := newClassifier(p)

	it, err := c.Classify(context.Background(), "can we squeeze in more departures this afternoon")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if it.Label != "capacity.current" {
		t.Errorf("label = %s, want capacity.current", it.Label)
	}
	if it.Confidence != 0.92 {
		t.Errorf("confidence = %v, want 0.92", it.Confidence)
	}
	if it.Method != MethodLLM {
		t.Errorf("method = %s, want llm", it.Method)
	}
	if it.Category != CategoryOperational {
		t.Errorf("category = %s, want operational", it.Category)
	}
	if p.calls != 1 {
		t.Errorf("expected 1 LLM call, got %d", p.calls)
	}
}

func TestClassificationFailed(t *testing.T) {
	p := &stubProvider{err: errors.New("backend down")}
	c := newClassifier(p)

	_, err := c.Classify(context.Background(), "mumble mumble")
	if !errors.Is(err, ErrClassificationFailed) {
		t.Errorf("expected ErrClassificationFailed, got %v", err)
	}
}

func TestUnknownLLMIntentRejected(t *testing.T) {
	p := &stubProvider{content: `{"intent":"made.up","confidence":0.99}`}
	c := newClassifier(p)

	_, err := c.Classify(context.Background(), "mumble mumble")
	if !errors.Is(err, ErrClassificationFailed) {
		t.Errorf("expected ErrClassificationFailed for unknown label, got %v", err)
	}
}

func TestCategoryDerivation(t *testing.T) {
	cases := map[string]Category{
		"stand.details":      CategoryAsset,
		"airport.info":       CategoryReference,
		"aircraft.info":      CategoryReference,
		"maintenance.impact": CategoryMaintenance,
		"capacity.forecast":  CategoryOperational,
		"flight.lookup":      CategoryOperational,
		"help":               CategoryMeta,
		"navigate.to":        CategoryMeta,
	}
	for label, want := range cases {
		if got := CategoryOf(label); got != want {
			t.Errorf("CategoryOf(%s) = %s, want %s", label, got, want)
		}
	}
}
