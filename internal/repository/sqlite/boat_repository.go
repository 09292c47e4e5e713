package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"oceanguard/internal/model"
)

const boatColumns = `id, boat_id, boat_name, owner_name, registration_number, qr_code, qr_last_used,
	last_latitude, last_longitude, last_seen_at, total_entries, suspicious_activity_count,
	is_blacklisted, created_at`

// BoatRepository implements repository.BoatRepository for SQLite.
type BoatRepository struct {
	db *DB
}

// NewBoatRepository creates a new SQLite boat repository.
func NewBoatRepository(db *DB) *BoatRepository {
	return &BoatRepository{db: db}
}

// Insert adds a new registered boat.
func (r *BoatRepository) Insert(boat *model.RegisteredBoat) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO boats (boat_id, boat_name, owner_name, registration_number, qr_code, is_blacklisted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, boat.BoatID, boat.BoatName, boat.OwnerName, boat.RegistrationNumber, boat.QRCode, boat.IsBlacklisted, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert boat: %w", err)
	}

	return result.LastInsertId()
}

// Upsert inserts a boat or updates the registry fields of an existing boat_id.
// Counters and last-seen data are never touched.
func (r *BoatRepository) Upsert(boat *model.RegisteredBoat) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO boats (boat_id, boat_name, owner_name, registration_number, qr_code, is_blacklisted, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(boat_id) DO UPDATE SET
			boat_name = excluded.boat_name,
			owner_name = excluded.owner_name,
			registration_number = excluded.registration_number,
			qr_code = excluded.qr_code,
			is_blacklisted = excluded.is_blacklisted
	`, boat.BoatID, boat.BoatName, boat.OwnerName, boat.RegistrationNumber, boat.QRCode, boat.IsBlacklisted, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to upsert boat: %w", err)
	}

	var id int64
	if err := r.db.Conn().QueryRow(`SELECT id FROM boats WHERE boat_id = ?`, boat.BoatID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get boat id: %w", err)
	}
	return id, nil
}

// GetByID retrieves a boat by its row ID.
func (r *BoatRepository) GetByID(id int64) (*model.RegisteredBoat, error) {
	return r.getOne(`SELECT `+boatColumns+` FROM boats WHERE id = ?`, id)
}

// GetByBoatID retrieves a boat by its registry identifier.
func (r *BoatRepository) GetByBoatID(boatID string) (*model.RegisteredBoat, error) {
	return r.getOne(`SELECT `+boatColumns+` FROM boats WHERE boat_id = ?`, boatID)
}

// GetByQRCode resolves an identity token by exact match.
func (r *BoatRepository) GetByQRCode(qrCode string) (*model.RegisteredBoat, error) {
	return r.getOne(`SELECT `+boatColumns+` FROM boats WHERE qr_code = ?`, qrCode)
}

// GetAll returns every registered boat ordered by boat_id.
func (r *BoatRepository) GetAll() ([]model.RegisteredBoat, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT ` + boatColumns + ` FROM boats ORDER BY boat_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query boats: %w", err)
	}
	defer rows.Close()

	var boats []model.RegisteredBoat
	for rows.Next() {
		boat, err := scanBoat(rows)
		if err != nil {
			return nil, err
		}
		boats = append(boats, *boat)
	}

	return boats, rows.Err()
}

// RecordScan bumps the entry counters and updates the last-seen data of a boat.
// A nil position keeps the previous coordinate.
func (r *BoatRepository) RecordScan(id int64, at time.Time, position *model.Coordinate, suspicious bool) error {
	r.db.Lock()
	defer r.db.Unlock()

	return recordScan(r.db.Conn(), id, at, position, suspicious)
}

func recordScan(ex execer, id int64, at time.Time, position *model.Coordinate, suspicious bool) error {
	var lat, lon sql.NullFloat64
	if position != nil {
		lat = sql.NullFloat64{Float64: position.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: position.Longitude, Valid: true}
	}

	suspiciousInc := 0
	if suspicious {
		suspiciousInc = 1
	}

	result, err := ex.Exec(`
		UPDATE boats SET
			total_entries = total_entries + 1,
			suspicious_activity_count = suspicious_activity_count + ?,
			qr_last_used = ?,
			last_seen_at = ?,
			last_latitude = COALESCE(?, last_latitude),
			last_longitude = COALESCE(?, last_longitude)
		WHERE id = ?
	`, suspiciousInc, at.UTC(), at.UTC(), lat, lon, id)
	if err != nil {
		return fmt.Errorf("failed to update boat counters: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update boat counters: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("failed to update boat counters: boat %d not found", id)
	}
	return nil
}

// SetBlacklisted sets the administrative blacklist flag.
func (r *BoatRepository) SetBlacklisted(boatID string, blacklisted bool) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`UPDATE boats SET is_blacklisted = ? WHERE boat_id = ?`, blacklisted, boatID)
	if err != nil {
		return fmt.Errorf("failed to update blacklist flag: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update blacklist flag: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("boat %s not found", boatID)
	}
	return nil
}

func (r *BoatRepository) getOne(query string, arg interface{}) (*model.RegisteredBoat, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	boat, err := scanBoat(r.db.Conn().QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get boat: %w", err)
	}
	return boat, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBoat(row rowScanner) (*model.RegisteredBoat, error) {
	var (
		boat                   model.RegisteredBoat
		qrLastUsed, lastSeenAt sql.NullTime
		lastLat, lastLon       sql.NullFloat64
		createdAt              sql.NullTime
	)

	err := row.Scan(&boat.ID, &boat.BoatID, &boat.BoatName, &boat.OwnerName, &boat.RegistrationNumber,
		&boat.QRCode, &qrLastUsed, &lastLat, &lastLon, &lastSeenAt, &boat.TotalEntries,
		&boat.SuspiciousActivityCount, &boat.IsBlacklisted, &createdAt)
	if err != nil {
		return nil, err
	}

	boat.QRLastUsed = timePtr(qrLastUsed)
	boat.LastSeenAt = timePtr(lastSeenAt)
	boat.LastLatitude = floatPtr(lastLat)
	boat.LastLongitude = floatPtr(lastLon)
	if createdAt.Valid {
		boat.CreatedAt = createdAt.Time
	}
	return &boat, nil
}
