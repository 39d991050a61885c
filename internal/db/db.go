package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB with aeromind-specific helpers.
type DB struct {
	*sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, path: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Each pooled connection would otherwise get its own private database.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{DB: sqlDB, path: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return d, nil
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	_, err := d.Exec(schema)
	return err
}

// schema contains the full database schema. New tables are added here.
const schema = `
CREATE TABLE IF NOT EXISTS memory_records (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    context_id TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    category TEXT NOT NULL CHECK(category IN ('PREFERENCE','DATA','CONSTRAINT','PATTERN','DECISION')),
    importance REAL NOT NULL DEFAULT 5 CHECK(importance >= 0 AND importance <= 10),
    outcome TEXT,
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    retention_days INTEGER NOT NULL DEFAULT 90
);

CREATE INDEX IF NOT EXISTS idx_memory_user ON memory_records(user_id);
CREATE INDEX IF NOT EXISTS idx_memory_category ON memory_records(user_id, category);
CREATE INDEX IF NOT EXISTS idx_memory_created ON memory_records(created_at);

CREATE TABLE IF NOT EXISTS conversation_contexts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL DEFAULT '',
    start_time DATETIME NOT NULL DEFAULT (datetime('now')),
    last_update_time DATETIME NOT NULL DEFAULT (datetime('now')),
    messages TEXT NOT NULL DEFAULT '[]',
    entities TEXT NOT NULL DEFAULT '{}',
    intents TEXT NOT NULL DEFAULT '[]',
    summary TEXT NOT NULL DEFAULT '',
    topic_tags TEXT NOT NULL DEFAULT '[]',
    context_quality REAL NOT NULL DEFAULT 0.5
);

CREATE INDEX IF NOT EXISTS idx_contexts_user ON conversation_contexts(user_id);
CREATE INDEX IF NOT EXISTS idx_contexts_updated ON conversation_contexts(last_update_time);

CREATE TABLE IF NOT EXISTS airports (
    code TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    timezone TEXT NOT NULL DEFAULT 'UTC',
    terminals INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS stands (
    id TEXT PRIMARY KEY,
    airport TEXT NOT NULL,
    terminal TEXT NOT NULL DEFAULT '',
    pier TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'available' CHECK(status IN ('available','occupied','maintenance','closed')),
    size_category TEXT NOT NULL DEFAULT 'C',
    contact_stand INTEGER NOT NULL DEFAULT 1,
    latitude REAL NOT NULL DEFAULT 0,
    longitude REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_stands_airport ON stands(airport);
CREATE INDEX IF NOT EXISTS idx_stands_terminal ON stands(airport, terminal);
CREATE INDEX IF NOT EXISTS idx_stands_status ON stands(status);

CREATE TABLE IF NOT EXISTS flights (
    id TEXT PRIMARY KEY,
    flight_number TEXT NOT NULL,
    airport TEXT NOT NULL,
    origin TEXT NOT NULL DEFAULT '',
    destination TEXT NOT NULL DEFAULT '',
    scheduled_time DATETIME NOT NULL,
    stand_id TEXT,
    aircraft_type TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'scheduled'
);

CREATE INDEX IF NOT EXISTS idx_flights_airport ON flights(airport);
CREATE INDEX IF NOT EXISTS idx_flights_schedule ON flights(scheduled_time);
CREATE INDEX IF NOT EXISTS idx_flights_stand ON flights(stand_id);

CREATE TABLE IF NOT EXISTS maintenance_orders (
    id TEXT PRIMARY KEY,
    stand_id TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'planned' CHECK(status IN ('planned','active','completed','cancelled')),
    start_time DATETIME NOT NULL,
    end_time DATETIME,
    capacity_impact REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_maintenance_stand ON maintenance_orders(stand_id);
CREATE INDEX IF NOT EXISTS idx_maintenance_status ON maintenance_orders(status);

CREATE TABLE IF NOT EXISTS capacity_snapshots (
    id TEXT PRIMARY KEY,
    airport TEXT NOT NULL,
    captured_at DATETIME NOT NULL DEFAULT (datetime('now')),
    hourly_capacity INTEGER NOT NULL,
    current_utilization REAL NOT NULL DEFAULT 0,
    available_stands INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_capacity_airport ON capacity_snapshots(airport, captured_at);
`
