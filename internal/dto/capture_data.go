// CapturesData is a paginated response payload for the review gallery.
package dto

type CapturesData struct {
	Captures    []CaptureInfo  `json:"captures"`
	Counts      map[string]int `json:"counts"`
	Length      int            `json:"length"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Limit       int            `json:"pageSize"`
}
