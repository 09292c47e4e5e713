package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New creates and initializes a new SQLite database connection.
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the necessary tables if they don't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS boats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		boat_id TEXT NOT NULL UNIQUE,
		boat_name TEXT NOT NULL,
		owner_name TEXT NOT NULL,
		registration_number TEXT NOT NULL DEFAULT '',
		qr_code TEXT NOT NULL UNIQUE,
		qr_last_used DATETIME,
		last_latitude REAL,
		last_longitude REAL,
		last_seen_at DATETIME,
		total_entries INTEGER NOT NULL DEFAULT 0,
		suspicious_activity_count INTEGER NOT NULL DEFAULT 0,
		is_blacklisted INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS captures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		image_path TEXT NOT NULL,
		camera TEXT NOT NULL DEFAULT '',
		captured_at DATETIME NOT NULL,
		qr_detected INTEGER NOT NULL DEFAULT 0,
		qr_data TEXT,
		qr_valid INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		reviewed_at DATETIME,
		reviewed_by TEXT,
		notes TEXT
	);

	CREATE TABLE IF NOT EXISTS scan_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		boat_id INTEGER NOT NULL,
		capture_id INTEGER,
		scanned_at DATETIME NOT NULL,
		latitude REAL,
		longitude REAL,
		distance_from_previous_km REAL,
		minutes_since_previous REAL,
		speed_kmh REAL,
		is_suspicious INTEGER NOT NULL DEFAULT 0,
		suspicion_reason TEXT,
		FOREIGN KEY (boat_id) REFERENCES boats(id) ON DELETE CASCADE,
		FOREIGN KEY (capture_id) REFERENCES captures(id) ON DELETE SET NULL
	);

	CREATE INDEX IF NOT EXISTS idx_captures_status ON captures(status);
	CREATE INDEX IF NOT EXISTS idx_captures_captured_at ON captures(captured_at);
	CREATE INDEX IF NOT EXISTS idx_scan_logs_boat_time ON scan_logs(boat_id, scanned_at);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
