package sqlite

import (
	"database/sql"
	"fmt"

	"oceanguard/internal/model"
)

const scanLogColumns = `id, boat_id, capture_id, scanned_at, latitude, longitude,
	distance_from_previous_km, minutes_since_previous, speed_kmh, is_suspicious, suspicion_reason`

// ScanLogRepository implements repository.ScanLogRepository for SQLite.
type ScanLogRepository struct {
	db *DB
}

// NewScanLogRepository creates a new SQLite scan log repository.
func NewScanLogRepository(db *DB) *ScanLogRepository {
	return &ScanLogRepository{db: db}
}

// Insert appends a scan log entry.
func (r *ScanLogRepository) Insert(entry *model.ScanLogEntry) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	return insertScanLog(r.db.Conn(), entry)
}

func insertScanLog(ex execer, entry *model.ScanLogEntry) (int64, error) {
	var captureID sql.NullInt64
	if entry.CaptureID != nil {
		captureID = sql.NullInt64{Int64: *entry.CaptureID, Valid: true}
	}

	var lat, lon sql.NullFloat64
	if entry.Position != nil {
		lat = sql.NullFloat64{Float64: entry.Position.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: entry.Position.Longitude, Valid: true}
	}

	result, err := ex.Exec(`
		INSERT INTO scan_logs (boat_id, capture_id, scanned_at, latitude, longitude,
			distance_from_previous_km, minutes_since_previous, speed_kmh, is_suspicious, suspicion_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.BoatID, captureID, entry.ScannedAt.UTC(), lat, lon,
		nullFloat(entry.DistanceFromPreviousKm), nullFloat(entry.MinutesSincePrevious), nullFloat(entry.SpeedKmh),
		entry.IsSuspicious, entry.SuspicionReason)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan log: %w", err)
	}

	return result.LastInsertId()
}

// GetMostRecent returns the latest scan of a boat, or nil when it has none.
func (r *ScanLogRepository) GetMostRecent(boatID int64) (*model.ScanLogEntry, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	entry, err := scanLogEntry(r.db.Conn().QueryRow(`
		SELECT `+scanLogColumns+` FROM scan_logs
		WHERE boat_id = ?
		ORDER BY scanned_at DESC, id DESC
		LIMIT 1
	`, boatID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get most recent scan: %w", err)
	}
	return entry, nil
}

// GetMostRecentWithPosition returns the latest scan of a boat that carried a
// coordinate, or nil when there is none.
func (r *ScanLogRepository) GetMostRecentWithPosition(boatID int64) (*model.ScanLogEntry, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	entry, err := scanLogEntry(r.db.Conn().QueryRow(`
		SELECT `+scanLogColumns+` FROM scan_logs
		WHERE boat_id = ? AND latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY scanned_at DESC, id DESC
		LIMIT 1
	`, boatID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get most recent located scan: %w", err)
	}
	return entry, nil
}

// GetByBoat returns the scan history of a boat, newest first.
func (r *ScanLogRepository) GetByBoat(boatID int64, limit int) ([]model.ScanLogEntry, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT ` + scanLogColumns + ` FROM scan_logs WHERE boat_id = ? ORDER BY scanned_at DESC, id DESC`
	args := []interface{}{boatID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan logs: %w", err)
	}
	defer rows.Close()

	var entries []model.ScanLogEntry
	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scan log: %w", err)
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

func scanLogEntry(row rowScanner) (*model.ScanLogEntry, error) {
	var (
		entry                    model.ScanLogEntry
		captureID                sql.NullInt64
		lat, lon                 sql.NullFloat64
		distance, minutes, speed sql.NullFloat64
		reason                   sql.NullString
	)

	err := row.Scan(&entry.ID, &entry.BoatID, &captureID, &entry.ScannedAt, &lat, &lon,
		&distance, &minutes, &speed, &entry.IsSuspicious, &reason)
	if err != nil {
		return nil, err
	}

	if captureID.Valid {
		id := captureID.Int64
		entry.CaptureID = &id
	}
	if lat.Valid && lon.Valid {
		entry.Position = &model.Coordinate{Latitude: lat.Float64, Longitude: lon.Float64}
	}
	entry.DistanceFromPreviousKm = floatPtr(distance)
	entry.MinutesSincePrevious = floatPtr(minutes)
	entry.SpeedKmh = floatPtr(speed)
	entry.SuspicionReason = reason.String
	return &entry, nil
}
