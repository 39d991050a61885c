package longterm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhaddad/aeromind/internal/db"
)

// Store persists long-term memory records in SQLite.
type Store struct {
	db *db.DB
}

// NewStore creates a store over the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// SaveRecord inserts a record. Zero CreatedAt is filled with now; zero
// RetentionDays falls back to the conversation default.
func (s *Store) SaveRecord(ctx context.Context, r *Record) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.RetentionDays <= 0 {
		r.RetentionDays = RetentionConversationDefault
	}
	if r.Importance <= 0 {
		r.Importance = 5
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_records (id, user_id, context_id, content, category, importance, outcome, created_at, retention_days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.ContextID, r.Content, r.Category, r.Importance, r.Outcome,
		r.CreatedAt.Format(time.RFC3339Nano), r.RetentionDays)
	if err != nil {
		return fmt.Errorf("saving %s record: %w", r.Category, err)
	}
	return nil
}

// UpsertPreference records a named user preference, replacing any earlier
// value for the same name.
func (s *Store) UpsertPreference(ctx context.Context, userID, name, value string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM memory_records
		WHERE user_id = ? AND category = ? AND content LIKE ?`,
		userID, CategoryPreference, name+": %"); err != nil {
		return fmt.Errorf("replacing preference %s: %w", name, err)
	}
	return s.SaveRecord(ctx, &Record{
		UserID:        userID,
		Content:       name + ": " + value,
		Category:      CategoryPreference,
		Importance:    7,
		RetentionDays: RetentionPreference,
	})
}

// RecordDecision appends a decision record and returns its ID so the
// outcome can be attached later.
func (s *Store) RecordDecision(ctx context.Context, userID, contextID, description string) (string, error) {
	r := &Record{
		UserID:        userID,
		ContextID:     contextID,
		Content:       description,
		Category:      CategoryDecision,
		Importance:    6,
		RetentionDays: RetentionInteraction,
	}
	if err := s.SaveRecord(ctx, r); err != nil {
		return "", err
	}
	return r.ID, nil
}

// UpdateDecisionOutcome attaches an outcome to an earlier decision.
func (s *Store) UpdateDecisionOutcome(ctx context.Context, recordID, outcome string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE memory_records SET outcome = ? WHERE id = ? AND category = ?`,
		outcome, recordID, CategoryDecision)
	if err != nil {
		return fmt.Errorf("updating decision outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("decision %s not found", recordID)
	}
	return nil
}

// SavePattern records an observed usage pattern.
func (s *Store) SavePattern(ctx context.Context, userID, description string, importance float64) error {
	return s.SaveRecord(ctx, &Record{
		UserID:        userID,
		Content:       description,
		Category:      CategoryPattern,
		Importance:    importance,
		RetentionDays: RetentionOrgDefault,
	})
}

// sanitizeBlacklist keys are stripped from context snapshots before they
// are persisted.
var sanitizeBlacklist = map[string]bool{
	"temporaryData": true,
	"credentials":   true,
	"tokens":        true,
}

// snapshotHistoryLimit truncates snapshot message histories.
const snapshotHistoryLimit = 10

// SaveContextSnapshot persists a sanitized copy of a conversation context
// snapshot: blacklisted keys are removed and the message history truncated
// to the most recent entries.
func (s *Store) SaveContextSnapshot(ctx context.Context, userID, contextID string, snapshot map[string]any) error {
	clean := Sanitize(snapshot)
	content, err := json.Marshal(clean)
	if err != nil {
		return fmt.Errorf("encoding context snapshot: %w", err)
	}
	return s.SaveRecord(ctx, &Record{
		UserID:        userID,
		ContextID:     contextID,
		Content:       string(content),
		Category:      CategoryData,
		Importance:    4,
		RetentionDays: RetentionConversationDefault,
	})
}

// Sanitize returns a copy of snapshot with blacklisted keys removed and
// the messages list truncated to the last entries.
func Sanitize(snapshot map[string]any) map[string]any {
	clean := make(map[string]any, len(snapshot))
	for k, v := range snapshot {
		if sanitizeBlacklist[k] {
			continue
		}
		clean[k] = v
	}
	if msgs, ok := clean["messages"].([]any); ok && len(msgs) > snapshotHistoryLimit {
		clean["messages"] = msgs[len(msgs)-snapshotHistoryLimit:]
	}
	return clean
}

// Records returns a user's records for a category, newest first.
func (s *Store) Records(ctx context.Context, userID, category string, limit int) ([]Record, error) {
	query := `
		SELECT id, user_id, context_id, content, category, importance, COALESCE(outcome, ''), created_at, retention_days
		FROM memory_records WHERE user_id = ? AND category = ?
		ORDER BY created_at DESC, id`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query, userID, category)
	if err != nil {
		return nil, fmt.Errorf("listing %s records: %w", category, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r       Record
			created string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.ContextID, &r.Content, &r.Category, &r.Importance, &r.Outcome, &created, &r.RetentionDays); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parsing record timestamp: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Stats summarizes stored records per category.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM memory_records GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		stats[category] = count
	}
	return stats, rows.Err()
}
