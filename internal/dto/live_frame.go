package dto

import "time"

// LiveFrame describes a frame held in the live cache.
type LiveFrame struct {
	Name       string    `json:"name"`
	ReceivedAt time.Time `json:"received_at"`
	Size       int64     `json:"size"`
}
