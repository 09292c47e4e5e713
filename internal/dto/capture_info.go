package dto

import (
	"encoding/json"
	"time"

	"oceanguard/internal/model"
)

// CaptureInfo is the gallery view of a stored capture.
type CaptureInfo struct {
	ID         int64      `json:"id"`
	Camera     string     `json:"camera"`
	Date       time.Time  `json:"date"`
	TimeOfDay  time.Time  `json:"timeOfDay"`
	QRDetected bool       `json:"qrDetected"`
	QRData     string     `json:"qrData,omitempty"`
	QRValid    bool       `json:"qrValid"`
	Status     string     `json:"status"`
	ReviewedBy string     `json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// NewCaptureInfo builds the gallery view of a capture record.
func NewCaptureInfo(c model.CaptureRecord) CaptureInfo {
	return CaptureInfo{
		ID:         c.ID,
		Camera:     c.Camera,
		Date:       c.CapturedAt,
		TimeOfDay:  c.CapturedAt,
		QRDetected: c.QRDetected,
		QRData:     c.QRData,
		QRValid:    c.QRValid,
		Status:     c.Status,
		ReviewedBy: c.ReviewedBy,
		ReviewedAt: c.ReviewedAt,
		Notes:      c.Notes,
	}
}

// MarshalJSON customizes JSON output for CaptureInfo to format date and time-of-day.
func (c CaptureInfo) MarshalJSON() ([]byte, error) {
	type Alias CaptureInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      c.Date.Format("02-01-2006"),
		TimeOfDay: c.TimeOfDay.Format("15:04:05"),
		Alias:     (Alias)(c),
	})
}
