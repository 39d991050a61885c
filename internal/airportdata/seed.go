package airportdata

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Seed populates the database with a small sample airport so the assistant
// is usable out of the box. Seeding is idempotent: an airport that already
// exists is left alone.
func (s *Store) Seed(ctx context.Context, airport string) error {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM airports WHERE code = ?`, airport).Scan(&count); err != nil {
		return fmt.Errorf("checking for existing airport: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO airports (code, name, timezone, terminals) VALUES (?, ?, ?, ?)`,
		airport, airport+" International", "UTC", 2); err != nil {
		return fmt.Errorf("seeding airport: %w", err)
	}

	stands := []struct {
		id, terminal, pier, status, size string
		contact                          int
		lat, lon                         float64
	}{
		{"A1", "Terminal 1", "A", "available", "C", 1, 52.3081, 4.7642},
		{"A2", "Terminal 1", "A", "occupied", "C", 1, 52.3083, 4.7645},
		{"A3", "Terminal 1", "A", "available", "D", 1, 52.3085, 4.7648},
		{"B1", "Terminal 1", "B", "maintenance", "C", 1, 52.3090, 4.7655},
		{"B2", "Terminal 1", "B", "available", "E", 1, 52.3092, 4.7658},
		{"C1", "Terminal 2", "C", "available", "C", 1, 52.3100, 4.7670},
		{"C2", "Terminal 2", "C", "occupied", "D", 1, 52.3102, 4.7673},
		{"R1", "Terminal 2", "", "available", "C", 0, 52.3120, 4.7700},
		{"R2", "Terminal 2", "", "closed", "C", 0, 52.3122, 4.7703},
	}
	for _, st := range stands {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stands (id, airport, terminal, pier, status, size_category, contact_stand, latitude, longitude)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			st.id, airport, st.terminal, st.pier, st.status, st.size, st.contact, st.lat, st.lon); err != nil {
			return fmt.Errorf("seeding stand %s: %w", st.id, err)
		}
	}

	now := time.Now().UTC()
	flights := []struct {
		number, origin, dest, stand, aircraft string
		offset                                time.Duration
	}{
		{"KL1001", "LHR", airport, "A2", "B738", 1 * time.Hour},
		{"KL1002", airport, "CDG", "C2", "A320", 2 * time.Hour},
		{"DL4410", "JFK", airport, "B2", "A333", 3 * time.Hour},
		{"LH2205", airport, "FRA", "", "A320", 4 * time.Hour},
	}
	for _, f := range flights {
		var standID any
		if f.stand != "" {
			standID = f.stand
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO flights (id, flight_number, airport, origin, destination, scheduled_time, stand_id, aircraft_type, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'scheduled')`,
			uuid.NewString(), f.number, airport, f.origin, f.dest, now.Add(f.offset), standID, f.aircraft); err != nil {
			return fmt.Errorf("seeding flight %s: %w", f.number, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO maintenance_orders (id, stand_id, description, status, start_time, end_time, capacity_impact)
		 VALUES (?, 'B1', 'Pavement repair', 'active', ?, ?, 0.1)`,
		uuid.NewString(), now.Add(-24*time.Hour), now.Add(48*time.Hour)); err != nil {
		return fmt.Errorf("seeding maintenance order: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO capacity_snapshots (id, airport, hourly_capacity, current_utilization, available_stands)
		 VALUES (?, ?, 38, 0.72, 5)`,
		uuid.NewString(), airport); err != nil {
		return fmt.Errorf("seeding capacity snapshot: %w", err)
	}

	return tx.Commit()
}
