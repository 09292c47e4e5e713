package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"oceanguard/internal/logger"
)

// Pipeline stages that report events.
const (
	StageLiveCache = "livecache"
	StageQR        = "qr"
	StageValidate  = "validate"
	StageColor     = "color"
	StageML        = "ml"
	StageDecision  = "decision"
)

// Payload encodings.
const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

// Event reports the outcome of one pipeline stage for one frame.
type Event struct {
	Stage     string                 `json:"stage" msgpack:"stage"`
	FrameID   string                 `json:"frame_id" msgpack:"frame_id"`
	Camera    string                 `json:"camera,omitempty" msgpack:"camera,omitempty"`
	Timestamp time.Time              `json:"timestamp" msgpack:"timestamp"`
	Outcome   string                 `json:"outcome" msgpack:"outcome"`
	Data      map[string]interface{} `json:"data,omitempty" msgpack:"data,omitempty"`
}

// Encode serializes the event with the given encoding.
func (e Event) Encode(encoding string) ([]byte, error) {
	switch encoding {
	case "", EncodingJSON:
		return json.Marshal(e)
	case EncodingMsgpack:
		return msgpack.Marshal(e)
	default:
		return nil, fmt.Errorf("unknown encoding: %s", encoding)
	}
}

// Emitter receives stage events. Implementations must not block the
// pipeline for long and never fail it.
type Emitter interface {
	Emit(event Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(Event) {}

// Multi fans an event out to several emitters.
type Multi []Emitter

func (m Multi) Emit(event Event) {
	for _, e := range m {
		e.Emit(event)
	}
}

// LogEmitter writes events to the info log.
type LogEmitter struct {
	logger *logger.Logger
}

// NewLogEmitter creates an emitter that logs every event.
func NewLogEmitter(logger *logger.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(event Event) {
	if len(event.Data) == 0 {
		e.logger.Info("[%s] frame=%s camera=%s outcome=%s", event.Stage, event.FrameID, event.Camera, event.Outcome)
		return
	}
	e.logger.Info("[%s] frame=%s camera=%s outcome=%s data=%v", event.Stage, event.FrameID, event.Camera, event.Outcome, event.Data)
}

// Broadcaster pushes raw messages to connected monitors.
type Broadcaster interface {
	Broadcast(message []byte, camera string)
}

// BroadcastEmitter forwards decision events to live monitors as JSON.
type BroadcastEmitter struct {
	hub    Broadcaster
	stages map[string]bool
	logger *logger.Logger
}

// NewBroadcastEmitter forwards events of the given stages, or every stage
// when none are given.
func NewBroadcastEmitter(hub Broadcaster, logger *logger.Logger, stages ...string) *BroadcastEmitter {
	filter := make(map[string]bool, len(stages))
	for _, s := range stages {
		filter[s] = true
	}
	return &BroadcastEmitter{hub: hub, stages: filter, logger: logger}
}

func (e *BroadcastEmitter) Emit(event Event) {
	if len(e.stages) > 0 && !e.stages[event.Stage] {
		return
	}

	payload, err := event.Encode(EncodingJSON)
	if err != nil {
		e.logger.Error("Failed to encode event for monitors: %v", err)
		return
	}
	e.hub.Broadcast(payload, event.Camera)
}
