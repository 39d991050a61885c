package memory

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(time.Hour) // sweep effectively disabled; tests drive it manually
	t.Cleanup(s.Close)
	return s
}

func TestSetGet(t *testing.T) {
	s := newTestStore(t)

	s.Set("sess-1", "k", "v", time.Minute)
	v, ok := s.Get("sess-1", "k")
	if !ok || v != "v" {
		t.Fatalf("expected v, got %v (ok=%v)", v, ok)
	}

	// Different session must not see the value.
	if _, ok := s.Get("sess-2", "k"); ok {
		t.Error("session isolation violated")
	}
}

func TestLastWriteWins(t *testing.T) {
	s := newTestStore(t)

	s.Set("sess", "k", "first", time.Minute)
	s.Set("sess", "k", "second", time.Minute)
	v, _ := s.Get("sess", "k")
	if v != "second" {
		t.Errorf("expected second, got %v", v)
	}
}

func TestExpiredEntriesInvisible(t *testing.T) {
	s := newTestStore(t)

	s.Set("sess", "k", "v", -time.Second) // already expired
	if _, ok := s.Get("sess", "k"); ok {
		t.Error("expired entry visible to read")
	}
	if s.Len() != 0 {
		t.Errorf("expected 0 live entries, got %d", s.Len())
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	s := newTestStore(t)

	s.Set("sess", "dead", "v", -time.Second)
	s.Set("sess", "alive", "v", time.Minute)
	s.Sweep()

	s.mu.RLock()
	total := len(s.entries)
	s.mu.RUnlock()
	if total != 1 {
		t.Errorf("expected 1 entry after sweep, got %d", total)
	}
	if _, ok := s.Get("sess", "alive"); !ok {
		t.Error("live entry removed by sweep")
	}
}

func TestStepResultKeys(t *testing.T) {
	s := newTestStore(t)

	s.StoreStepResult("sess", "q1", "step-1", 42)
	s.StoreStepResult("sess", "q1", "step-2", 43)
	s.StoreStepResult("sess", "q2", "step-1", 99)

	if v, _ := s.GetStepResult("sess", "q1", "step-1"); v != 42 {
		t.Errorf("q1/step-1: expected 42, got %v", v)
	}
	if v, _ := s.GetStepResult("sess", "q2", "step-1"); v != 99 {
		t.Errorf("q2/step-1: expected 99, got %v", v)
	}
}

func TestRetrievedKnowledgeRoundTrip(t *testing.T) {
	s := newTestStore(t)

	items := []string{"fact a", "fact b"}
	s.StoreRetrievedKnowledge("sess", "q1", items, "semantic", 0)

	got, ok := s.GetRetrievedKnowledge("sess", "q1")
	if !ok {
		t.Fatal("expected retrieved knowledge")
	}
	list, ok := got.([]string)
	if !ok || len(list) != 2 {
		t.Fatalf("unexpected value: %v", got)
	}
}

func TestFinalResultTTLLongerThanPlanTTL(t *testing.T) {
	if FinalResultTTL <= PlanTTL {
		t.Error("final results must outlive plans in working memory")
	}
	if SessionContextTTL != 30*time.Minute {
		t.Errorf("session context TTL changed: %v", SessionContextTTL)
	}
}
