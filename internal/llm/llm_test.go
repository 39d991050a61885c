package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	Err      error
	ProvName string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{`Here is the result: {"a":{"b":2}} hope that helps`, `{"a":{"b":2}}`},
		{`no json here`, `no json here`},
	}
	for _, c := range cases {
		if got := ExtractJSONObject(c.in); got != c.want {
			t.Errorf("ExtractJSONObject(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExtractJSONArray(t *testing.T) {
	in := "```json\n[{\"a\":1},{\"a\":2}]\n```"
	want := `[{"a":1},{"a":2}]`
	if got := ExtractJSONArray(in); got != want {
		t.Errorf("ExtractJSONArray = %q, want %q", got, want)
	}
}

func TestServiceProcessQuery(t *testing.T) {
	mock := NewMockProvider("test")
	mock.Response.Content = "  the answer  \n"
	svc := NewService(mock, "test-model")

	got, err := svc.ProcessQuery(context.Background(), "question", nil, "system prompt")
	if err != nil {
		t.Fatalf("ProcessQuery: %v", err)
	}
	if got != "the answer" {
		t.Errorf("expected trimmed answer, got %q", got)
	}

	req := mock.Calls[0]
	if req.Messages[0].Role != RoleSystem || req.Messages[0].Content != "system prompt" {
		t.Errorf("expected system message first, got %+v", req.Messages[0])
	}
	if req.Messages[len(req.Messages)-1].Content != "question" {
		t.Errorf("expected user question last")
	}
}

func TestServiceExtractParameters(t *testing.T) {
	mock := NewMockProvider("test")
	mock.Response.Content = `{"parameters":{"stand":"A1","terminal":"Terminal 1"},"confidence":0.9,"reasoning":"explicit mention"}`
	svc := NewService(mock, "test-model")

	ex, err := svc.ExtractParameters(context.Background(), "details for stand A1 in Terminal 1")
	if err != nil {
		t.Fatalf("ExtractParameters: %v", err)
	}
	if ex.Parameters["stand"] != "A1" {
		t.Errorf("expected stand A1, got %v", ex.Parameters["stand"])
	}
	if ex.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", ex.Confidence)
	}
	if !mock.Calls[0].JSONMode {
		t.Error("expected JSON mode request")
	}
}

func TestServiceProposeSteps(t *testing.T) {
	mock := NewMockProvider("test")
	mock.Response.Content = `{"steps":[{"step":1,"description":"Fetch stand data","type":"data_retrieval","parameters":{"dataSource":"stands"}}],"confidence":0.8}`
	svc := NewService(mock, "test-model")

	plan, err := svc.ProposeSteps(context.Background(), "how many stands are free?", "")
	if err != nil {
		t.Fatalf("ProposeSteps: %v", err)
	}
	if len(plan.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(plan.Steps))
	}
	if plan.Steps[0].Type != "data_retrieval" {
		t.Errorf("expected data_retrieval, got %s", plan.Steps[0].Type)
	}
}

func TestServiceErrorPropagates(t *testing.T) {
	mock := NewMockProvider("test")
	mock.Err = errors.New("backend down")
	svc := NewService(mock, "test-model")

	if _, err := svc.ProcessQuery(context.Background(), "q", nil, ""); err == nil {
		t.Fatal("expected error")
	}
	if _, err := svc.ExtractParameters(context.Background(), "q"); err == nil {
		t.Fatal("expected error")
	}
}

func TestRateLimiterAllowsBurstUpToRPM(t *testing.T) {
	mock := NewMockProvider("test")
	limited := NewRateLimitedProvider(mock, 5)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if _, err := limited.Complete(ctx, CompletionRequest{}); err != nil {
			t.Fatalf("Complete[%d]: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("burst of 5 within rpm budget took too long: %v", elapsed)
	}
	if mock.CallCount() != 5 {
		t.Errorf("expected 5 calls, got %d", mock.CallCount())
	}
}

func TestRateLimiterHonorsCancellation(t *testing.T) {
	mock := NewMockProvider("test")
	limited := NewRateLimitedProvider(mock, 1)

	// Exhaust the bucket.
	if _, err := limited.Complete(context.Background(), CompletionRequest{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if _, err := limited.Complete(ctx, CompletionRequest{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}
