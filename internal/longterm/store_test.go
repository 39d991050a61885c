package longterm

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/zhaddad/aeromind/internal/db"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestSaveRecordDefaults(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := &Record{UserID: "u1", Content: "prefers metric units", Category: CategoryPreference}
	if err := s.SaveRecord(ctx, r); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if r.ID == "" {
		t.Error("ID not assigned")
	}
	if r.RetentionDays != RetentionConversationDefault {
		t.Errorf("RetentionDays = %d, want %d", r.RetentionDays, RetentionConversationDefault)
	}

	records, err := s.Records(ctx, "u1", CategoryPreference, 0)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 || records[0].Content != "prefers metric units" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestUpsertPreference(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.UpsertPreference(ctx, "u1", "units", "metric"); err != nil {
		t.Fatalf("UpsertPreference: %v", err)
	}
	if err := s.UpsertPreference(ctx, "u1", "units", "imperial"); err != nil {
		t.Fatalf("UpsertPreference: %v", err)
	}
	if err := s.UpsertPreference(ctx, "u1", "homeAirport", "AMS"); err != nil {
		t.Fatalf("UpsertPreference: %v", err)
	}

	records, err := s.Records(ctx, "u1", CategoryPreference, 0)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 preferences after upsert, got %d: %+v", len(records), records)
	}
	contents := map[string]bool{}
	for _, r := range records {
		contents[r.Content] = true
		if r.RetentionDays != RetentionPreference {
			t.Errorf("preference retention: got %d, want %d", r.RetentionDays, RetentionPreference)
		}
	}
	if !contents["units: imperial"] || !contents["homeAirport: AMS"] {
		t.Errorf("unexpected preference contents: %v", contents)
	}
	if contents["units: metric"] {
		t.Error("old preference value survived the upsert")
	}
}

func TestDecisionOutcome(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.RecordDecision(ctx, "u1", "sess-1", "Reassigned flight KL1001 to stand A3")
	if err != nil {
		t.Fatalf("RecordDecision: %v", err)
	}
	if err := s.UpdateDecisionOutcome(ctx, id, "turnaround on time"); err != nil {
		t.Fatalf("UpdateDecisionOutcome: %v", err)
	}

	records, err := s.Records(ctx, "u1", CategoryDecision, 0)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 || records[0].Outcome != "turnaround on time" {
		t.Fatalf("outcome not attached: %+v", records)
	}

	if err := s.UpdateDecisionOutcome(ctx, "ghost", "x"); err == nil {
		t.Error("expected error for unknown decision")
	}
}

func TestSnapshotSanitization(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	messages := make([]any, 25)
	for i := range messages {
		messages[i] = map[string]any{"content": i}
	}
	snapshot := map[string]any{
		"topicTags":     []string{"capacity", "maintenance"},
		"messages":      messages,
		"temporaryData": map[string]any{"scratch": true},
		"credentials":   "hunter2",
		"tokens":        []string{"abc"},
	}
	if err := s.SaveContextSnapshot(ctx, "u1", "sess-1", snapshot); err != nil {
		t.Fatalf("SaveContextSnapshot: %v", err)
	}

	records, err := s.Records(ctx, "u1", CategoryData, 0)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(records))
	}

	var stored map[string]any
	if err := json.Unmarshal([]byte(records[0].Content), &stored); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	for _, forbidden := range []string{"temporaryData", "credentials", "tokens"} {
		if _, ok := stored[forbidden]; ok {
			t.Errorf("blacklisted key %q persisted", forbidden)
		}
	}
	if got := len(stored["messages"].([]any)); got != snapshotHistoryLimit {
		t.Errorf("history not truncated: %d messages", got)
	}
}

func TestMaintenanceExpiresAndConsolidates(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	// Expired record: created well past its retention window.
	expired := &Record{
		UserID:        "u1",
		Content:       "old note",
		Category:      CategoryData,
		CreatedAt:     time.Now().UTC().AddDate(0, 0, -100),
		RetentionDays: RetentionConversationDefault,
	}
	if err := s.SaveRecord(ctx, expired); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	// Duplicate pair: consolidation keeps the newest.
	for _, created := range []time.Time{
		time.Now().UTC().Add(-2 * time.Hour),
		time.Now().UTC().Add(-1 * time.Hour),
	} {
		if err := s.SaveRecord(ctx, &Record{
			UserID:    "u1",
			Content:   "duplicate note",
			Category:  CategoryData,
			CreatedAt: created,
		}); err != nil {
			t.Fatalf("SaveRecord: %v", err)
		}
	}

	keeper := &Record{UserID: "u1", Content: "fresh note", Category: CategoryData}
	if err := s.SaveRecord(ctx, keeper); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	report, err := s.PerformMaintenance(ctx)
	if err != nil {
		t.Fatalf("PerformMaintenance: %v", err)
	}
	if report.Expired != 1 {
		t.Errorf("Expired = %d, want 1", report.Expired)
	}
	if report.Consolidated != 1 {
		t.Errorf("Consolidated = %d, want 1", report.Consolidated)
	}

	records, err := s.Records(ctx, "u1", CategoryData, 0)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 surviving records, got %d: %+v", len(records), records)
	}
}

func TestEnhanceContext(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.UpsertPreference(ctx, "u1", "units", "metric"); err != nil {
		t.Fatalf("UpsertPreference: %v", err)
	}
	for i := 0; i < 7; i++ {
		if _, err := s.RecordDecision(ctx, "u1", "sess-1", "decision"); err != nil {
			t.Fatalf("RecordDecision: %v", err)
		}
	}
	if err := s.SavePattern(ctx, "u1", "asks about Terminal 1 every morning", 6); err != nil {
		t.Fatalf("SavePattern: %v", err)
	}
	if err := s.SaveContextSnapshot(ctx, "u1", "sess-1", map[string]any{
		"topicTags": []string{"capacity", "stands"},
	}); err != nil {
		t.Fatalf("SaveContextSnapshot: %v", err)
	}

	enhanced, err := s.EnhanceContext(ctx, "u1")
	if err != nil {
		t.Fatalf("EnhanceContext: %v", err)
	}
	if len(enhanced.UserPreferences) != 1 {
		t.Errorf("preferences: %+v", enhanced.UserPreferences)
	}
	if len(enhanced.RecentDecisions) != recentDecisionLimit {
		t.Errorf("decisions: got %d, want %d", len(enhanced.RecentDecisions), recentDecisionLimit)
	}
	if len(enhanced.RelevantPatterns) != 1 {
		t.Errorf("patterns: %+v", enhanced.RelevantPatterns)
	}
	if len(enhanced.RecentTopics) != 2 {
		t.Errorf("topics: %v", enhanced.RecentTopics)
	}
}

func TestStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.UpsertPreference(ctx, "u1", "units", "metric"); err != nil {
		t.Fatalf("UpsertPreference: %v", err)
	}
	if _, err := s.RecordDecision(ctx, "u1", "", "d"); err != nil {
		t.Fatalf("RecordDecision: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[CategoryPreference] != 1 || stats[CategoryDecision] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}
}
