package longterm

import (
	"context"
	"fmt"
	"time"
)

// MaintenanceReport summarizes a maintenance pass.
type MaintenanceReport struct {
	Expired      int64 `json:"expired"`
	Consolidated int64 `json:"consolidated"`
}

// PerformMaintenance removes records past their retention period,
// consolidates duplicate entries (same user, category and content, keeping
// the newest) and rebuilds indexes.
func (s *Store) PerformMaintenance(ctx context.Context) (*MaintenanceReport, error) {
	report := &MaintenanceReport{}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM memory_records
		WHERE datetime(created_at, '+' || retention_days || ' days') < datetime(?)`, now)
	if err != nil {
		return nil, fmt.Errorf("expiring records: %w", err)
	}
	if report.Expired, err = res.RowsAffected(); err != nil {
		return nil, err
	}

	res, err = s.db.ExecContext(ctx, `
		DELETE FROM memory_records
		WHERE id NOT IN (
			SELECT id FROM memory_records m
			WHERE created_at = (
				SELECT MAX(created_at) FROM memory_records
				WHERE user_id = m.user_id AND category = m.category AND content = m.content
			)
			GROUP BY user_id, category, content
		)`)
	if err != nil {
		return nil, fmt.Errorf("consolidating records: %w", err)
	}
	if report.Consolidated, err = res.RowsAffected(); err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, `REINDEX`); err != nil {
		return nil, fmt.Errorf("rebuilding indexes: %w", err)
	}
	return report, nil
}
