package dto

// FrameResponse is returned to a camera after a frame upload.
type FrameResponse struct {
	FrameID   string `json:"frame_id"`
	Status    string `json:"status"`
	CaptureID int64  `json:"capture_id,omitempty"`
	Note      string `json:"note"`
}
