// Package airportdata provides read access to operational airport data:
// airports, stands, flights, maintenance orders and capacity snapshots.
package airportdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/zhaddad/aeromind/internal/db"
)

// ErrUnknownSource is returned when a query names a data source outside the
// supported set.
var ErrUnknownSource = errors.New("unknown data source")

// Store answers structured queries against the operational database.
type Store struct {
	db *db.DB
}

// NewStore creates a store over the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// source describes a queryable table: its name, the columns callers may
// select or filter on, and a default ordering.
type source struct {
	table   string
	columns []string
	orderBy string
}

var sources = map[string]source{
	"airports": {
		table:   "airports",
		columns: []string{"code", "name", "timezone", "terminals"},
		orderBy: "code",
	},
	"stands": {
		table:   "stands",
		columns: []string{"id", "airport", "terminal", "pier", "status", "size_category", "contact_stand", "latitude", "longitude"},
		orderBy: "id",
	},
	"flights": {
		table:   "flights",
		columns: []string{"id", "flight_number", "airport", "origin", "destination", "scheduled_time", "stand_id", "aircraft_type", "status"},
		orderBy: "scheduled_time",
	},
	"maintenance": {
		table:   "maintenance_orders",
		columns: []string{"id", "stand_id", "description", "status", "start_time", "end_time", "capacity_impact"},
		orderBy: "start_time",
	},
	"capacity": {
		table:   "capacity_snapshots",
		columns: []string{"id", "airport", "captured_at", "hourly_capacity", "current_utilization", "available_stands"},
		orderBy: "captured_at DESC",
	},
}

// Sources lists the supported data source names.
func Sources() []string {
	return []string{"airports", "stands", "flights", "maintenance", "capacity"}
}

// Query runs a filtered select against a named data source. Filters are
// exact-match column=value pairs; unknown filter columns are ignored. An
// empty fields slice selects all columns. limit <= 0 means no limit.
func (s *Store) Query(ctx context.Context, dataSource string, filters map[string]any, limit int, fields []string) ([]map[string]any, error) {
	src, ok := sources[dataSource]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownSource, dataSource, strings.Join(Sources(), ", "))
	}

	cols := src.columns
	if len(fields) > 0 {
		cols = nil
		for _, f := range fields {
			if containsColumn(src.columns, f) {
				cols = append(cols, f)
			}
		}
		if len(cols) == 0 {
			cols = src.columns
		}
	}

	var (
		where []string
		args  []any
	)
	for col, val := range filters {
		if !containsColumn(src.columns, col) {
			continue
		}
		where = append(where, col+" = ?")
		args = append(args, val)
	}

	query := "SELECT " + strings.Join(cols, ", ") + " FROM " + src.table
	if len(where) > 0 {
		// Deterministic clause order keeps query plans and logs stable.
		sortStrings(where, &args)
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + src.orderBy
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", dataSource, err)
	}
	defer rows.Close()

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", dataSource, err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func containsColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

// sortStrings sorts where clauses and their args in lockstep. The clause
// slice is small so insertion sort is fine.
func sortStrings(clauses []string, args *[]any) {
	a := *args
	for i := 1; i < len(clauses); i++ {
		for j := i; j > 0 && clauses[j] < clauses[j-1]; j-- {
			clauses[j], clauses[j-1] = clauses[j-1], clauses[j]
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}

// Stand holds the subset of stand attributes used for entity inference.
type Stand struct {
	ID       string
	Airport  string
	Terminal string
	Pier     string
	Status   string
}

// StandInfo looks up a single stand by ID. Returns (nil, nil) when the stand
// does not exist.
func (s *Store) StandInfo(ctx context.Context, standID string) (*Stand, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, airport, terminal, pier, status FROM stands WHERE id = ?`, standID)

	var st Stand
	err := row.Scan(&st.ID, &st.Airport, &st.Terminal, &st.Pier, &st.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up stand %s: %w", standID, err)
	}
	return &st, nil
}
