package sqlite

import (
	"fmt"

	"oceanguard/internal/model"
)

// OutcomeRepository implements repository.OutcomeRepository for SQLite.
type OutcomeRepository struct {
	db *DB
}

// NewOutcomeRepository creates a new SQLite outcome repository.
func NewOutcomeRepository(db *DB) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

// Record saves capture and, when entry is not nil, appends entry linked to
// the capture and bumps the boat counters. Either everything is written or
// nothing is.
func (r *OutcomeRepository) Record(capture *model.CaptureRecord, entry *model.ScanLogEntry) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	captureID, err := insertCapture(tx, capture)
	if err != nil {
		return 0, err
	}

	var entryID int64
	if entry != nil {
		entry.CaptureID = &captureID
		if entryID, err = insertScanLog(tx, entry); err != nil {
			return 0, err
		}
		if err := recordScan(tx, entry.BoatID, entry.ScannedAt, entry.Position, entry.IsSuspicious); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit outcome: %w", err)
	}

	capture.ID = captureID
	if entry != nil {
		entry.ID = entryID
	}
	return captureID, nil
}
