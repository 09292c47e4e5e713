package decision

import (
	"fmt"
	"time"

	"oceanguard/internal/logger"
	"oceanguard/internal/model"
	"oceanguard/internal/repository"
	"oceanguard/internal/service/ai"
	"oceanguard/internal/service/color"
	"oceanguard/internal/service/events"
	"oceanguard/internal/service/qr"
	"oceanguard/internal/service/storage"
	"oceanguard/internal/service/validator"
)

// QRExtractor finds an identity token in a frame.
type QRExtractor interface {
	Extract(data []byte) qr.Result
}

// IdentityValidator checks a token against the registry and scan history.
type IdentityValidator interface {
	Begin(token string, position *model.Coordinate, now time.Time) (*validator.Scan, error)
}

// ColorClassifier reports hull colour bands found in a frame.
type ColorClassifier interface {
	Classify(data []byte) []color.Match
}

// ObjectDetector reports whether a frame shows a target object.
type ObjectDetector interface {
	Detect(data []byte) ai.Verdict
}

// FrameStore persists images of kept frames.
type FrameStore interface {
	PersistImage(data []byte, name string) (string, error)
	Remove(path string) error
}

// LiveCache keeps recent frames for monitoring.
type LiveCache interface {
	Admit(data []byte, name string, at time.Time)
}

// Stages are the detectors the engine consults. Color may be nil when the
// colour fallback is not deployed.
type Stages struct {
	QR        QRExtractor
	Validator IdentityValidator
	Color     ColorClassifier
	Detector  ObjectDetector
}

// Engine runs a frame through every stage and records the outcome.
type Engine struct {
	stages   Stages
	outcomes repository.OutcomeRepository
	store    FrameStore
	live     LiveCache
	emitter  events.Emitter
	logger   *logger.Logger
}

// NewEngine creates a decision engine. A nil emitter discards events.
func NewEngine(stages Stages, outcomes repository.OutcomeRepository, store FrameStore, live LiveCache, emitter events.Emitter, logger *logger.Logger) *Engine {
	if emitter == nil {
		emitter = events.Nop{}
	}

	return &Engine{
		stages:   stages,
		outcomes: outcomes,
		store:    store,
		live:     live,
		emitter:  emitter,
		logger:   logger,
	}
}

// AuthenticateFrame decides the fate of one frame. Kept frames are stored
// and returned as a capture record; rejected frames return nil. Only
// persistence failures are reported as errors. Stage events are emitted
// once the frame is decided and the boat is released.
func (e *Engine) AuthenticateFrame(frame *model.Frame) (*model.CaptureRecord, error) {
	var batch []events.Event
	defer func() {
		for _, event := range batch {
			e.emitter.Emit(event)
		}
	}()
	emit := func(stage, outcome string, data map[string]interface{}) {
		batch = append(batch, newEvent(frame, stage, outcome, data))
	}

	name := storage.FrameName(frame.Camera, frame.ID, frame.ReceivedAt)

	if e.live != nil {
		e.live.Admit(frame.Data, name, frame.ReceivedAt)
		emit(events.StageLiveCache, "admitted", map[string]interface{}{"name": name})
	}

	var (
		signals Signals
		scan    *validator.Scan
	)

	result := e.stages.QR.Extract(frame.Data)
	if result.Found {
		emit(events.StageQR, "found", map[string]interface{}{"token": result.Token, "backend": result.Backend})
	} else {
		emit(events.StageQR, "none", nil)
	}

	if result.Found {
		var err error
		scan, err = e.stages.Validator.Begin(result.Token, frame.Position, frame.ReceivedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to validate identity: %w", err)
		}
		// No-op once released.
		defer scan.Abort()

		signals.Identity = true
		signals.Token = result.Token
		signals.Valid = scan.Valid
		signals.Suspicious = scan.Suspicious
		signals.Reason = scan.Reason
		if scan.Boat != nil {
			signals.BoatID = scan.Boat.BoatID
			signals.BoatName = scan.Boat.BoatName
		}
		emit(events.StageValidate, validateOutcome(scan.Verdict), map[string]interface{}{
			"token":  result.Token,
			"reason": scan.Reason,
		})
	} else {
		signals.Colors = e.classify(frame, emit)
		if len(signals.Colors) == 0 {
			verdict := e.stages.Detector.Detect(frame.Data)
			signals.ML = &verdict
			emit(events.StageML, verdict.String(), map[string]interface{}{
				"is_target":  verdict.IsTarget,
				"confidence": verdict.Confidence,
				"label":      verdict.Label,
			})
		}
	}

	decision := Decide(signals)
	emit(events.StageDecision, decision.Status, map[string]interface{}{"note": decision.Note})

	if decision.Rejected() {
		e.logger.Info("Frame %s from %s rejected: %s", frame.ID, frame.Camera, decision.Note)
		return nil, nil
	}

	imagePath, err := e.store.PersistImage(frame.Data, name)
	if err != nil {
		return nil, fmt.Errorf("failed to persist frame: %w", err)
	}

	capture := &model.CaptureRecord{
		ImagePath:  imagePath,
		Camera:     frame.Camera,
		CapturedAt: frame.ReceivedAt,
		QRDetected: signals.Identity,
		QRData:     signals.Token,
		QRValid:    signals.Identity && signals.Valid && !signals.Suspicious,
		Status:     decision.Status,
		Notes:      decision.Note,
	}

	var entry *model.ScanLogEntry
	if scan != nil {
		entry = scan.Entry()
	}

	id, err := e.outcomes.Record(capture, entry)
	if err != nil {
		if rmErr := e.store.Remove(imagePath); rmErr != nil {
			e.logger.Error("Failed to remove image of unrecorded frame %s: %v", frame.ID, rmErr)
		}
		return nil, fmt.Errorf("failed to record outcome: %w", err)
	}
	if scan != nil {
		scan.Done()
	}

	e.logger.Info("Frame %s from %s stored as capture %d (%s): %s", frame.ID, frame.Camera, id, decision.Status, decision.Note)
	return capture, nil
}

// classify runs the colour stage when it is deployed.
func (e *Engine) classify(frame *model.Frame, emit func(stage, outcome string, data map[string]interface{})) []color.Match {
	if e.stages.Color == nil {
		return nil
	}

	matches := e.stages.Color.Classify(frame.Data)
	if len(matches) == 0 {
		emit(events.StageColor, "none", nil)
		return nil
	}

	emit(events.StageColor, matches[0].Label, map[string]interface{}{"matches": matches})
	return matches
}

func newEvent(frame *model.Frame, stage, outcome string, data map[string]interface{}) events.Event {
	return events.Event{
		Stage:     stage,
		FrameID:   frame.ID,
		Camera:    frame.Camera,
		Timestamp: frame.ReceivedAt,
		Outcome:   outcome,
		Data:      data,
	}
}

func validateOutcome(v validator.Verdict) string {
	switch {
	case !v.Valid:
		return v.Reason
	case v.Suspicious:
		return "suspicious"
	default:
		return "valid"
	}
}
