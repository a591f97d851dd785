package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the durable booking store. It owns the persisted Booking and
// Challenge records; callers keep no copies beyond transient query results.
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dsn := path
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		// Immediate transactions take the write lock at BEGIN, so
		// concurrent check-then-write transactions queue on the busy
		// timeout instead of deadlocking on a lock upgrade.
		dsn = path + "?_txlock=immediate&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	var dbLogger zerolog.Logger
	if logger != nil {
		dbLogger = logger.With().Str("component", "database").Logger()
	}
	dbLogger.Info().Str("path", path).Msg("database initialized")

	return &DB{DB: db, logger: dbLogger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// The unique index on the natural key is the last line of defense
		// for the one-booking-per-slot invariant.
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            owner_id TEXT NOT NULL,
            owner_name TEXT NOT NULL,
            resource_id TEXT NOT NULL,
            date TEXT NOT NULL,
            slot TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            UNIQUE(resource_id, date, slot)
        )`,
		`CREATE TABLE IF NOT EXISTS challenges (
            id TEXT PRIMARY KEY,
            from_owner_id TEXT NOT NULL,
            from_owner_name TEXT NOT NULL,
            to_owner_id TEXT NOT NULL,
            to_owner_name TEXT NOT NULL,
            resource_id TEXT NOT NULL,
            date TEXT NOT NULL,
            slot TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            created_at DATETIME NOT NULL,
            resolved_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_owner ON bookings(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_resource_date ON bookings(resource_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_owner_resource_date ON bookings(owner_id, resource_id, date)`,

		`CREATE INDEX IF NOT EXISTS idx_challenges_to_owner ON challenges(to_owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_status ON challenges(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("execute %q: %w", query, err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
