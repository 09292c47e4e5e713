package model

import "time"

// RegisteredBoat is a vessel known to the registry. QRCode is unique.
type RegisteredBoat struct {
	ID                      int64      `json:"id" yaml:"-"`
	BoatID                  string     `json:"boat_id" yaml:"boat_id"`
	BoatName                string     `json:"boat_name" yaml:"boat_name"`
	OwnerName               string     `json:"owner_name" yaml:"owner_name"`
	RegistrationNumber      string     `json:"registration_number" yaml:"registration_number"`
	QRCode                  string     `json:"qr_code" yaml:"qr_code"`
	QRLastUsed              *time.Time `json:"qr_last_used,omitempty" yaml:"-"`
	LastLatitude            *float64   `json:"last_latitude,omitempty" yaml:"-"`
	LastLongitude           *float64   `json:"last_longitude,omitempty" yaml:"-"`
	LastSeenAt              *time.Time `json:"last_seen_at,omitempty" yaml:"-"`
	TotalEntries            int        `json:"total_entries" yaml:"-"`
	SuspiciousActivityCount int        `json:"suspicious_activity_count" yaml:"-"`
	IsBlacklisted           bool       `json:"is_blacklisted" yaml:"is_blacklisted"`
	CreatedAt               time.Time  `json:"created_at" yaml:"-"`
}

// LastPosition returns the last known coordinate, or nil.
func (b *RegisteredBoat) LastPosition() *Coordinate {
	if b.LastLatitude == nil || b.LastLongitude == nil {
		return nil
	}
	return &Coordinate{Latitude: *b.LastLatitude, Longitude: *b.LastLongitude}
}
