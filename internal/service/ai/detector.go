package ai

import (
	"fmt"
	"io"
	"strings"

	"oceanguard/internal/config"
	"oceanguard/internal/dto"
	"oceanguard/internal/logger"
)

// Labels reported by the fail-open paths.
const (
	LabelUnknown = "unknown"
	LabelError   = "error"
)

// Verdict is the detector's answer for one frame.
type Verdict struct {
	IsTarget   bool    `json:"is_target"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label,omitempty"`
}

// Backend runs a model over an encoded frame.
type Backend interface {
	DetectObjects(imageBytes []byte) ([]dto.DetectionResult, error)
}

// ObjectDetector decides whether a frame shows one of the target classes.
// It fails open: a disabled detector or a backend fault reports a target so
// the frame goes to a human instead of being dropped.
type ObjectDetector struct {
	backend   Backend
	targets   map[string]bool
	threshold float64
	logger    *logger.Logger
}

// NewObjectDetector creates a detector. A nil backend means disabled.
func NewObjectDetector(backend Backend, targetLabels []string, threshold float64, logger *logger.Logger) *ObjectDetector {
	targets := make(map[string]bool, len(targetLabels))
	for _, label := range targetLabels {
		targets[strings.ToLower(strings.TrimSpace(label))] = true
	}

	return &ObjectDetector{
		backend:   backend,
		targets:   targets,
		threshold: threshold,
		logger:    logger,
	}
}

// NewObjectDetectorFromConfig loads the DNN backend when ML is enabled.
func NewObjectDetectorFromConfig(cfg *config.Config, logger *logger.Logger) *ObjectDetector {
	if !cfg.MLEnabled {
		logger.Info("ML detector disabled by configuration - failing open")
		return NewObjectDetector(nil, cfg.MLTargetLabels, cfg.MLConfidence, logger)
	}

	backend, err := NewDNNBackend(cfg.ModelPath, cfg.ConfigPath, logger)
	if err != nil {
		logger.Warning("Could not initialize detection network: %v - failing open", err)
		return NewObjectDetector(nil, cfg.MLTargetLabels, cfg.MLConfidence, logger)
	}

	return NewObjectDetector(backend, cfg.MLTargetLabels, cfg.MLConfidence, logger)
}

// Enabled reports whether a backend is wired in.
func (d *ObjectDetector) Enabled() bool {
	return d.backend != nil
}

// Detect runs the backend and returns the first qualifying target.
func (d *ObjectDetector) Detect(imageBytes []byte) (verdict Verdict) {
	if d.backend == nil {
		return Verdict{IsTarget: true, Confidence: 1.0, Label: LabelUnknown}
	}

	defer func() {
		if r := recover(); r != nil {
			if d.logger != nil {
				d.logger.Error("Detection backend panicked: %v", r)
			}
			verdict = Verdict{IsTarget: true, Confidence: 0.0, Label: LabelError}
		}
	}()

	detections, err := d.backend.DetectObjects(imageBytes)
	if err != nil {
		if d.logger != nil {
			d.logger.Error("Object detection failed: %v", err)
		}
		return Verdict{IsTarget: true, Confidence: 0.0, Label: LabelError}
	}

	return d.pickTarget(detections)
}

// pickTarget returns the first detection matching a target label at or above
// the threshold.
func (d *ObjectDetector) pickTarget(detections []dto.DetectionResult) Verdict {
	for _, det := range detections {
		if !d.targets[strings.ToLower(det.Label)] {
			continue
		}
		if det.Confidence >= d.threshold {
			return Verdict{IsTarget: true, Confidence: det.Confidence, Label: det.Label}
		}
		if d.logger != nil {
			d.logger.Info("Detected %s below threshold (%.2f < %.2f)", det.Label, det.Confidence, d.threshold)
		}
	}
	return Verdict{IsTarget: false, Confidence: 0.0}
}

// Close releases the backend when it holds native resources.
func (d *ObjectDetector) Close() error {
	if closer, ok := d.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (v Verdict) String() string {
	if v.Label == "" {
		return fmt.Sprintf("target=%t confidence=%.2f", v.IsTarget, v.Confidence)
	}
	return fmt.Sprintf("target=%t label=%s confidence=%.2f", v.IsTarget, v.Label, v.Confidence)
}
