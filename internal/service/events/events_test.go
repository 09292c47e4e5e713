package events

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"oceanguard/internal/config"
	"oceanguard/internal/logger"
)

func testLogger(t *testing.T) (*logger.Logger, string) {
	t.Helper()
	dir := t.TempDir()
	l := logger.NewLogger(&config.Config{LogDirectory: dir})
	t.Cleanup(func() { l.Close() })
	return l, dir
}

type recorder struct {
	events []Event
}

func (r *recorder) Emit(event Event) { r.events = append(r.events, event) }

type fakeHub struct {
	messages [][]byte
	cameras  []string
}

func (h *fakeHub) Broadcast(message []byte, camera string) {
	h.messages = append(h.messages, message)
	h.cameras = append(h.cameras, camera)
}

func sampleEvent() Event {
	return Event{
		Stage:     StageDecision,
		FrameID:   "frame-1",
		Camera:    "dock",
		Timestamp: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
		Outcome:   "pending",
		Data:      map[string]interface{}{"note": "registered boat"},
	}
}

func TestEncode(t *testing.T) {
	ev := sampleEvent()

	data, err := ev.Encode(EncodingJSON)
	if err != nil {
		t.Fatalf("JSON encode failed: %v", err)
	}
	var fromJSON map[string]interface{}
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if fromJSON["stage"] != StageDecision || fromJSON["frame_id"] != "frame-1" {
		t.Errorf("Unexpected JSON payload: %s", data)
	}

	data, err = ev.Encode(EncodingMsgpack)
	if err != nil {
		t.Fatalf("msgpack encode failed: %v", err)
	}
	var fromMsgpack Event
	if err := msgpack.Unmarshal(data, &fromMsgpack); err != nil {
		t.Fatalf("Invalid msgpack: %v", err)
	}
	if fromMsgpack.Outcome != "pending" || !fromMsgpack.Timestamp.Equal(ev.Timestamp) {
		t.Errorf("Unexpected msgpack payload: %+v", fromMsgpack)
	}

	if _, err := ev.Encode("xml"); err == nil {
		t.Error("Expected error for unknown encoding")
	}
}

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi{a, b, Nop{}}.Emit(sampleEvent())

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("Expected every emitter to receive the event, got %d and %d", len(a.events), len(b.events))
	}
}

func TestLogEmitter(t *testing.T) {
	l, dir := testLogger(t)
	NewLogEmitter(l).Emit(sampleEvent())

	data, err := os.ReadFile(filepath.Join(dir, logger.InfoFile))
	if err != nil {
		t.Fatalf("Failed to read info log: %v", err)
	}
	if !strings.Contains(string(data), "[decision] frame=frame-1") {
		t.Errorf("Expected event in info log, got %q", data)
	}
}

func TestBroadcastEmitter_FiltersStages(t *testing.T) {
	l, _ := testLogger(t)
	hub := &fakeHub{}
	e := NewBroadcastEmitter(hub, l, StageDecision)

	qr := sampleEvent()
	qr.Stage = StageQR
	e.Emit(qr)
	e.Emit(sampleEvent())

	if len(hub.messages) != 1 {
		t.Fatalf("Expected 1 broadcast, got %d", len(hub.messages))
	}
	if hub.cameras[0] != "dock" {
		t.Errorf("Expected camera dock, got %s", hub.cameras[0])
	}
	if !strings.Contains(string(hub.messages[0]), `"outcome":"pending"`) {
		t.Errorf("Unexpected broadcast payload %s", hub.messages[0])
	}
}

func TestMQTTEmitter_NotConnected(t *testing.T) {
	l, _ := testLogger(t)
	e := NewMQTTEmitter(&config.Config{
		MQTTBroker:   "localhost:1883",
		MQTTTopic:    "oceanguard/events/",
		MQTTEncoding: EncodingJSON,
		MQTTClientID: "test",
	}, l)

	if err := e.Publish(sampleEvent()); err == nil {
		t.Error("Expected error when publishing without a connection")
	}
	e.Emit(sampleEvent())

	stats := e.Stats()
	if stats.Connected {
		t.Error("Emitter should not report a connection")
	}
	if stats.Errors != 2 {
		t.Errorf("Expected 2 errors, got %d", stats.Errors)
	}
	if topic := e.Topic(StageML); topic != "oceanguard/events/ml" {
		t.Errorf("Unexpected topic %s", topic)
	}
	if e.broker != "tcp://localhost:1883" {
		t.Errorf("Expected tcp scheme to be added, got %s", e.broker)
	}
}
