package model

import "time"

// ScanLogEntry records one resolved identity scan. Entries are append-only.
type ScanLogEntry struct {
	ID                     int64       `json:"id"`
	BoatID                 int64       `json:"boat_id"`
	CaptureID              *int64      `json:"capture_id,omitempty"`
	ScannedAt              time.Time   `json:"scanned_at"`
	Position               *Coordinate `json:"position,omitempty"`
	DistanceFromPreviousKm *float64    `json:"distance_from_previous_km,omitempty"`
	MinutesSincePrevious   *float64    `json:"minutes_since_previous,omitempty"`
	SpeedKmh               *float64    `json:"speed_kmh,omitempty"`
	IsSuspicious           bool        `json:"is_suspicious"`
	SuspicionReason        string      `json:"suspicion_reason,omitempty"`
}
