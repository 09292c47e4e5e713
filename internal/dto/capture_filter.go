// CaptureFilters describe user-provided filters to narrow the capture list.
package dto

import "time"

type CaptureFilters struct {
	Status     string
	Camera     string
	QRData     string
	DateAfter  time.Time
	DateBefore time.Time
	Limit      int
	Offset     int
}
