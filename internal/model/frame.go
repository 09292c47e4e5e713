package model

import "time"

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Frame is a single captured image handed to the pipeline.
type Frame struct {
	ID         string
	Camera     string
	Data       []byte
	ReceivedAt time.Time
	Position   *Coordinate
}
