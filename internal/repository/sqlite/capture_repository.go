package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"oceanguard/internal/dto"
	"oceanguard/internal/model"
)

const captureColumns = `id, image_path, camera, captured_at, qr_detected, qr_data, qr_valid,
	status, reviewed_at, reviewed_by, notes`

// CaptureRepository implements repository.CaptureRepository for SQLite.
type CaptureRepository struct {
	db *DB
}

// NewCaptureRepository creates a new SQLite capture repository.
func NewCaptureRepository(db *DB) *CaptureRepository {
	return &CaptureRepository{db: db}
}

// Insert adds a new capture record.
func (r *CaptureRepository) Insert(c *model.CaptureRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	return insertCapture(r.db.Conn(), c)
}

func insertCapture(ex execer, c *model.CaptureRecord) (int64, error) {
	status := c.Status
	if status == "" {
		status = model.StatusPending
	}

	result, err := ex.Exec(`
		INSERT INTO captures (image_path, camera, captured_at, qr_detected, qr_data, qr_valid, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ImagePath, c.Camera, c.CapturedAt.UTC(), c.QRDetected, nullString(c.QRData), c.QRValid, status, nullString(c.Notes))
	if err != nil {
		return 0, fmt.Errorf("failed to insert capture: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a capture by its ID.
func (r *CaptureRepository) GetByID(id int64) (*model.CaptureRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	c, err := scanCapture(r.db.Conn().QueryRow(`SELECT `+captureColumns+` FROM captures WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get capture: %w", err)
	}
	return c, nil
}

// GetAll retrieves captures based on filter criteria, newest first.
func (r *CaptureRepository) GetAll(filter *dto.CaptureFilters) ([]model.CaptureRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildCaptureWhere(filter)
	query := `SELECT ` + captureColumns + ` FROM captures WHERE 1=1` + where + ` ORDER BY captured_at DESC, id DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	defer rows.Close()

	var captures []model.CaptureRecord
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		captures = append(captures, *c)
	}

	return captures, rows.Err()
}

// GetTotalCount returns the total count of captures matching the filter.
func (r *CaptureRepository) GetTotalCount(filter *dto.CaptureFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildCaptureWhere(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM captures WHERE 1=1`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count captures: %w", err)
	}
	return count, nil
}

// GetStatusCounts returns the number of captures per status plus a "total" key.
func (r *CaptureRepository) GetStatusCounts() (map[string]int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	counts := map[string]int{
		"total":              0,
		model.StatusPending:  0,
		model.StatusApproved: 0,
		model.StatusWarning:  0,
	}

	rows, err := r.db.Conn().Query(`SELECT status, COUNT(*) FROM captures GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
		counts["total"] += count
	}

	return counts, rows.Err()
}

// UpdateReview records a reviewer decision on a capture.
func (r *CaptureRepository) UpdateReview(id int64, status, reviewedBy, notes string, at time.Time) error {
	if !model.ValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}

	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		UPDATE captures SET status = ?, reviewed_by = ?, reviewed_at = ?, notes = COALESCE(?, notes)
		WHERE id = ?
	`, status, reviewedBy, at.UTC(), nullString(notes), id)
	if err != nil {
		return fmt.Errorf("failed to update capture: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update capture: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("capture %d not found", id)
	}
	return nil
}

// Delete removes a capture; linked scan logs keep their entry with a null capture.
func (r *CaptureRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`UPDATE scan_logs SET capture_id = NULL WHERE capture_id = ?`, id); err != nil {
		return fmt.Errorf("failed to unlink scan logs: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM captures WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete capture: %w", err)
	}
	return nil
}

func buildCaptureWhere(filter *dto.CaptureFilters) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	where := ""
	args := []interface{}{}

	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}

	if filter.Camera != "" {
		where += " AND camera = ?"
		args = append(args, filter.Camera)
	}

	if filter.QRData != "" {
		where += " AND qr_data = ?"
		args = append(args, filter.QRData)
	}

	if !filter.DateAfter.IsZero() {
		where += " AND captured_at >= ?"
		args = append(args, filter.DateAfter.UTC())
	}

	if !filter.DateBefore.IsZero() {
		where += " AND captured_at < ?"
		args = append(args, filter.DateBefore.UTC())
	}

	return where, args
}

func scanCapture(row rowScanner) (*model.CaptureRecord, error) {
	var (
		c                         model.CaptureRecord
		qrData, reviewedBy, notes sql.NullString
		reviewedAt                sql.NullTime
	)

	err := row.Scan(&c.ID, &c.ImagePath, &c.Camera, &c.CapturedAt, &c.QRDetected, &qrData, &c.QRValid,
		&c.Status, &reviewedAt, &reviewedBy, &notes)
	if err != nil {
		return nil, err
	}

	c.QRData = qrData.String
	c.ReviewedBy = reviewedBy.String
	c.Notes = notes.String
	c.ReviewedAt = timePtr(reviewedAt)
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
