package repository

import (
	"time"

	"oceanguard/internal/dto"
	"oceanguard/internal/model"
)

// BoatRepository defines the interface for registered boat operations.
type BoatRepository interface {
	// Create operations
	Insert(boat *model.RegisteredBoat) (int64, error)
	Upsert(boat *model.RegisteredBoat) (int64, error)

	// Read operations
	GetByID(id int64) (*model.RegisteredBoat, error)
	GetByBoatID(boatID string) (*model.RegisteredBoat, error)
	GetByQRCode(qrCode string) (*model.RegisteredBoat, error)
	GetAll() ([]model.RegisteredBoat, error)

	// Update operations
	RecordScan(id int64, at time.Time, position *model.Coordinate, suspicious bool) error
	SetBlacklisted(boatID string, blacklisted bool) error
}

// ScanLogRepository defines the interface for the append-only scan history.
type ScanLogRepository interface {
	// Create operations
	Insert(entry *model.ScanLogEntry) (int64, error)

	// Read operations
	GetMostRecent(boatID int64) (*model.ScanLogEntry, error)
	GetMostRecentWithPosition(boatID int64) (*model.ScanLogEntry, error)
	GetByBoat(boatID int64, limit int) ([]model.ScanLogEntry, error)
}

// CaptureRepository defines the interface for capture record operations.
type CaptureRepository interface {
	// Create operations
	Insert(capture *model.CaptureRecord) (int64, error)

	// Read operations
	GetByID(id int64) (*model.CaptureRecord, error)
	GetAll(filter *dto.CaptureFilters) ([]model.CaptureRecord, error)
	GetTotalCount(filter *dto.CaptureFilters) (int, error)
	GetStatusCounts() (map[string]int, error)

	// Update operations
	UpdateReview(id int64, status, reviewedBy, notes string, at time.Time) error

	// Delete operations
	Delete(id int64) error
}

// OutcomeRepository records a kept frame in one transaction: the capture and,
// for a resolved identity, its scan log entry and boat counter update.
type OutcomeRepository interface {
	Record(capture *model.CaptureRecord, entry *model.ScanLogEntry) (int64, error)
}
