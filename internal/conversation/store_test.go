package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/zhaddad/aeromind/internal/db"
	"github.com/zhaddad/aeromind/internal/domain"
)

type stubSummarizer struct {
	calls int
	err   error
}

func (s *stubSummarizer) SummarizeMessages(ctx context.Context, existing string, overflow []Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("%s +%d older messages", strings.TrimSpace(existing), len(overflow)), nil
}

func testStore(t *testing.T, summarizer Summarizer) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database, summarizer)
}

func TestGetOrCreateRoundTrip(t *testing.T) {
	s := testStore(t, nil)
	ctx := context.Background()

	created, err := s.GetOrCreate(ctx, "sess-1", "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if created.ID != "sess-1" || created.UserID != "user-1" {
		t.Fatalf("unexpected context: %+v", created)
	}

	loaded, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loaded == nil || loaded.ID != "sess-1" {
		t.Fatalf("context not persisted: %+v", loaded)
	}
	if loaded.ContextQuality != 0.5 {
		t.Errorf("default quality: got %v, want 0.5", loaded.ContextQuality)
	}
}

func TestGetUnknownSession(t *testing.T) {
	s := testStore(t, nil)
	c, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil for unknown session, got %+v", c)
	}
}

func TestAddMessagesAdvancesVersion(t *testing.T) {
	s := testStore(t, nil)
	ctx := context.Background()

	created, err := s.GetOrCreate(ctx, "sess-1", "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	afterUser, err := s.AddUserMessage(ctx, "sess-1", "status of stand A1", "stand.status")
	if err != nil {
		t.Fatalf("AddUserMessage: %v", err)
	}
	if !afterUser.LastUpdateTime.After(created.LastUpdateTime) {
		t.Error("lastUpdateTime did not advance")
	}

	afterAgent, err := s.AddAgentMessage(ctx, "sess-1", "Stand A1 is available.", "resp-1")
	if err != nil {
		t.Fatalf("AddAgentMessage: %v", err)
	}
	if len(afterAgent.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(afterAgent.Messages))
	}
	if afterAgent.Messages[0].Role != RoleUser || afterAgent.Messages[1].Role != RoleAgent {
		t.Errorf("unexpected roles: %+v", afterAgent.Messages)
	}
	if afterAgent.Messages[1].ResponseID != "resp-1" {
		t.Errorf("responseId not persisted: %+v", afterAgent.Messages[1])
	}
	if len(afterAgent.Intents) != 1 || afterAgent.Intents[0] != "stand.status" {
		t.Errorf("intent not recorded: %v", afterAgent.Intents)
	}
	if !afterAgent.LastUpdateTime.After(afterUser.LastUpdateTime) {
		t.Error("lastUpdateTime not monotonic across writes")
	}
}

func TestConcurrentAppendersAllLand(t *testing.T) {
	s := testStore(t, nil)
	ctx := context.Background()

	if _, err := s.GetOrCreate(ctx, "sess-1", "user-1"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.AddUserMessage(ctx, "sess-1", fmt.Sprintf("message %d", i), ""); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent append: %v", err)
	}

	c, err := s.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(c.Messages) != writers {
		t.Errorf("lost writes: got %d messages, want %d", len(c.Messages), writers)
	}
}

func TestMessageCapSummarizesOverflow(t *testing.T) {
	sum := &stubSummarizer{}
	s := testStore(t, sum)
	ctx := context.Background()

	if _, err := s.GetOrCreate(ctx, "sess-1", "user-1"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	var c *Context
	var err error
	for i := 0; i < MaxContextMessages+3; i++ {
		c, err = s.AddUserMessage(ctx, "sess-1", fmt.Sprintf("message %d", i), "")
		if err != nil {
			t.Fatalf("AddUserMessage %d: %v", i, err)
		}
	}

	if len(c.Messages) != MaxContextMessages {
		t.Fatalf("cap not enforced: %d messages", len(c.Messages))
	}
	if c.Messages[0].Content != "message 3" {
		t.Errorf("oldest messages not dropped: first is %q", c.Messages[0].Content)
	}
	if sum.calls == 0 {
		t.Error("summarizer never invoked")
	}
	if !strings.Contains(c.Summary, "older messages") {
		t.Errorf("summary not updated: %q", c.Summary)
	}
}

func TestSummarizerFailureStillTrims(t *testing.T) {
	sum := &stubSummarizer{err: fmt.Errorf("llm down")}
	s := testStore(t, sum)
	ctx := context.Background()

	if _, err := s.GetOrCreate(ctx, "sess-1", "user-1"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	var c *Context
	var err error
	for i := 0; i < MaxContextMessages+1; i++ {
		c, err = s.AddUserMessage(ctx, "sess-1", fmt.Sprintf("message %d", i), "")
		if err != nil {
			t.Fatalf("AddUserMessage: %v", err)
		}
	}
	if len(c.Messages) != MaxContextMessages {
		t.Errorf("cap must hold even when summarization fails: %d messages", len(c.Messages))
	}
	if c.Summary != "" {
		t.Errorf("summary should be unchanged on failure: %q", c.Summary)
	}
}

func TestMergeEntities(t *testing.T) {
	s := testStore(t, nil)
	ctx := context.Background()

	if _, err := s.GetOrCreate(ctx, "sess-1", "user-1"); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	c, err := s.MergeEntities(ctx, "sess-1", domain.EntityBag{
		"terminal": {Value: "Terminal 1"},
	})
	if err != nil {
		t.Fatalf("MergeEntities: %v", err)
	}
	if c.Entities["terminal"].Value != "Terminal 1" {
		t.Errorf("entity not merged: %+v", c.Entities)
	}

	// A later merge overrides the carried value.
	c, err = s.MergeEntities(ctx, "sess-1", domain.EntityBag{
		"terminal": {Value: "Terminal 2"},
	})
	if err != nil {
		t.Fatalf("MergeEntities: %v", err)
	}
	if c.Entities["terminal"].Value != "Terminal 2" {
		t.Errorf("entity not overridden: %+v", c.Entities)
	}
}

func TestUpdateUnknownSession(t *testing.T) {
	s := testStore(t, nil)
	if _, err := s.AddUserMessage(context.Background(), "ghost", "hello", ""); err == nil {
		t.Error("expected error for unknown session")
	}
}
