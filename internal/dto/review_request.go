package dto

// ReviewRequest is the body of a reviewer status update.
type ReviewRequest struct {
	Status     string `json:"status"`
	ReviewedBy string `json:"reviewed_by"`
	Notes      string `json:"notes"`
}
