package model

import "time"

// Capture statuses. Rejected frames are never stored.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusWarning  = "warning"
)

// CaptureRecord represents one stored frame and its authentication outcome.
type CaptureRecord struct {
	ID         int64      `json:"id"`
	ImagePath  string     `json:"image_path"`
	Camera     string     `json:"camera"`
	CapturedAt time.Time  `json:"captured_at"`
	QRDetected bool       `json:"qr_detected"`
	QRData     string     `json:"qr_data,omitempty"`
	QRValid    bool       `json:"qr_valid"`
	Status     string     `json:"status"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// ValidStatus reports whether s is a status a capture may hold.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusWarning:
		return true
	}
	return false
}
