package ai

// MotionDetector gates continuous camera streams before authentication.
type MotionDetector interface {
	DetectMotion(imageBytes []byte, cameraID string) (bool, error)
}

// AlwaysMotion treats every frame as moving.
type AlwaysMotion struct{}

func (AlwaysMotion) DetectMotion(imageBytes []byte, cameraID string) (bool, error) {
	return true, nil
}
