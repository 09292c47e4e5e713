//go:build !nogocv

package ai

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"oceanguard/internal/dto"
	"oceanguard/internal/logger"
)

const (
	// DefaultMotionThreshold is used when no positive threshold is configured.
	DefaultMotionThreshold = 10000
	// MinBackendConfidence drops raw detections too weak to be worth matching.
	MinBackendConfidence = 0.1
)

// DNNBackend runs an SSD MobileNet COCO network through OpenCV.
type DNNBackend struct {
	net        gocv.Net
	modelPath  string
	configPath string
	logger     *logger.Logger
	mu         sync.Mutex
}

// NewDNNBackend loads the network and sets backend/target preferences.
func NewDNNBackend(modelPath, configPath string, logger *logger.Logger) (*DNNBackend, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	logger.Info("Detection network initialized successfully")
	return &DNNBackend{
		net:        net,
		modelPath:  modelPath,
		configPath: configPath,
		logger:     logger,
	}, nil
}

// DetectObjects runs the DNN on the image and returns detections above MinBackendConfidence.
func (b *DNNBackend) DetectObjects(imageBytes []byte) ([]dto.DetectionResult, error) {
	mat, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	// Blob parameters fit the SSD COCO network input.
	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(300, 300), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	// gocv.Net is not safe for concurrent Forward calls.
	b.mu.Lock()
	b.net.SetInput(blob, "")
	output := b.net.Forward("")
	b.mu.Unlock()
	defer output.Close()

	var results []dto.DetectionResult

	// Rows are [batch_id, class_id, confidence, x1, y1, x2, y2].
	outputReshaped := output.Reshape(1, output.Total()/7)
	defer outputReshaped.Close()
	for i := 0; i < outputReshaped.Rows(); i++ {
		confidence := outputReshaped.GetFloatAt(i, 2)
		if confidence < MinBackendConfidence {
			continue
		}

		classID := int(outputReshaped.GetFloatAt(i, 1))
		x := int(outputReshaped.GetFloatAt(i, 3) * float32(mat.Cols()))
		y := int(outputReshaped.GetFloatAt(i, 4) * float32(mat.Rows()))
		width := int(outputReshaped.GetFloatAt(i, 5)*float32(mat.Cols())) - x
		height := int(outputReshaped.GetFloatAt(i, 6)*float32(mat.Rows())) - y

		results = append(results, dto.DetectionResult{
			Label:      ClassLabel(classID),
			Confidence: float64(confidence),
			X:          x,
			Y:          y,
			Width:      width,
			Height:     height,
		})
	}

	return results, nil
}

// Close releases the network.
func (b *DNNBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.net.Close()
}

// cameraState holds motion detection state for a single camera.
type cameraState struct {
	previousMat gocv.Mat
	hasPrevious bool
	mutex       sync.Mutex
}

// FrameDiffMotion detects movement between consecutive frames of a camera.
type FrameDiffMotion struct {
	cameraStates map[string]*cameraState
	statesMutex  sync.RWMutex
	threshold    int
	logger       *logger.Logger
}

// NewMotionDetector creates a frame-difference motion detector.
func NewMotionDetector(threshold int, logger *logger.Logger) MotionDetector {
	if threshold <= 0 {
		threshold = DefaultMotionThreshold
	}
	return &FrameDiffMotion{
		cameraStates: make(map[string]*cameraState),
		threshold:    threshold,
		logger:       logger,
	}
}

// DetectMotion computes frame differences to detect movement above the threshold.
// The first frame of a camera only primes the state.
func (s *FrameDiffMotion) DetectMotion(imageBytes []byte, cameraID string) (bool, error) {
	state := s.getCameraState(cameraID)
	state.mutex.Lock()
	defer state.mutex.Unlock()

	mat, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil {
		return false, fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return false, fmt.Errorf("decoded image is empty")
	}

	if !state.hasPrevious || state.previousMat.Rows() != mat.Rows() || state.previousMat.Cols() != mat.Cols() {
		if state.hasPrevious {
			state.previousMat.Close()
		}
		state.previousMat = mat.Clone()
		state.hasPrevious = true
		return false, nil
	}

	diff := gocv.NewMat()
	defer diff.Close()
	if err := gocv.AbsDiff(state.previousMat, mat, &diff); err != nil {
		return false, fmt.Errorf("failed to compute absolute difference: %v", err)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(diff, &gray, gocv.ColorBGRToGray); err != nil {
		return false, fmt.Errorf("failed to convert image to grayscale: %v", err)
	}

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(gray, &thresh, 30, 255, gocv.ThresholdBinary)

	nonZeroPixels := gocv.CountNonZero(thresh)

	state.previousMat.Close()
	state.previousMat = mat.Clone()

	return nonZeroPixels > s.threshold, nil
}

// getCameraState returns the per-camera state, creating it when absent.
func (s *FrameDiffMotion) getCameraState(cameraID string) *cameraState {
	s.statesMutex.RLock()
	state, exists := s.cameraStates[cameraID]
	s.statesMutex.RUnlock()

	if exists {
		return state
	}

	s.statesMutex.Lock()
	defer s.statesMutex.Unlock()
	// Double-check (may have been created by another goroutine)
	if state, exists := s.cameraStates[cameraID]; exists {
		return state
	}

	state = &cameraState{}
	s.cameraStates[cameraID] = state
	s.logger.Info("Created motion detection state for camera: %s", cameraID)

	return state
}
