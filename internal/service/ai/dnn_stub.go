//go:build nogocv

package ai

import (
	"errors"

	"oceanguard/internal/dto"
	"oceanguard/internal/logger"
)

// DNNBackend is unavailable without OpenCV.
type DNNBackend struct{}

// NewDNNBackend always fails in builds without OpenCV.
func NewDNNBackend(modelPath, configPath string, logger *logger.Logger) (*DNNBackend, error) {
	return nil, errors.New("built without OpenCV support")
}

func (b *DNNBackend) DetectObjects(imageBytes []byte) ([]dto.DetectionResult, error) {
	return nil, errors.New("built without OpenCV support")
}

func (b *DNNBackend) Close() error { return nil }

// NewMotionDetector falls back to treating every frame as moving.
func NewMotionDetector(threshold int, logger *logger.Logger) MotionDetector {
	return AlwaysMotion{}
}
