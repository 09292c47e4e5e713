package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"oceanguard/internal/model"
)

func TestCaptureInfo_MarshalJSON(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	info := NewCaptureInfo(model.CaptureRecord{
		ID:         7,
		Camera:     "harbour",
		CapturedAt: at,
		QRDetected: true,
		QRData:     "OG-0001",
		QRValid:    true,
		Status:     model.StatusPending,
	})

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded["date"] != "09-03-2024" {
		t.Errorf("Expected date 09-03-2024, got %v", decoded["date"])
	}
	if decoded["timeOfDay"] != "14:05:07" {
		t.Errorf("Expected time 14:05:07, got %v", decoded["timeOfDay"])
	}
	if decoded["qrData"] != "OG-0001" || decoded["status"] != model.StatusPending {
		t.Errorf("Unexpected payload %s", data)
	}
	if strings.Contains(string(data), "reviewedAt") {
		t.Errorf("Expected unreviewed capture to omit reviewedAt, got %s", data)
	}
}

func TestCaptureFilters_Empty(t *testing.T) {
	filter := &CaptureFilters{}

	if filter.Status != "" || filter.Camera != "" || filter.QRData != "" {
		t.Error("Expected empty filters")
	}
	if !filter.DateAfter.IsZero() || !filter.DateBefore.IsZero() {
		t.Error("Expected zero date bounds")
	}
}
