package service

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"oceanguard/internal/config"
	"oceanguard/internal/logger"
	"oceanguard/internal/model"
	"oceanguard/internal/service/ai"
)

// Authenticator decides the fate of one frame.
type Authenticator interface {
	AuthenticateFrame(frame *model.Frame) (*model.CaptureRecord, error)
}

// Broadcaster pushes raw messages to live monitors.
type Broadcaster interface {
	Broadcast(message []byte, camera string)
}

// Manager is the ingestion boundary: uploads are authenticated synchronously,
// camera streams are sampled, motion gated and authenticated by a worker pool.
type Manager struct {
	engine Authenticator
	motion ai.MotionDetector
	hub    Broadcaster
	logger *logger.Logger

	processingQueue chan *model.Frame
	frameCounters   map[string]int
	processEveryNth int
	numWorkers      int

	frameCounterMu sync.Mutex
	queueMu        sync.RWMutex
	stopped        bool
	wg             sync.WaitGroup
	now            func() time.Time
}

// NewManager creates a manager and starts its workers.
func NewManager(engine Authenticator, motion ai.MotionDetector, hub Broadcaster, config *config.Config, logger *logger.Logger) *Manager {
	if motion == nil {
		motion = ai.AlwaysMotion{}
	}

	numWorkers := config.ProcessingWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}
	everyNth := config.ProcessingInterval
	if everyNth <= 0 {
		everyNth = 1
	}

	manager := &Manager{
		engine:          engine,
		motion:          motion,
		hub:             hub,
		numWorkers:      numWorkers,
		processingQueue: make(chan *model.Frame, 100),
		frameCounters:   make(map[string]int),
		processEveryNth: everyNth,
		logger:          logger,
		now:             time.Now,
	}

	for i := 0; i < manager.numWorkers; i++ {
		manager.wg.Add(1)
		go manager.processingWorker(i)
	}

	manager.logger.Info("Manager started - %d workers, authenticating every %d camera frame(s)", manager.numWorkers, manager.processEveryNth)
	return manager
}

// NewFrame stamps raw bytes with an ID and arrival time.
func (m *Manager) NewFrame(data []byte, camera string, position *model.Coordinate) *model.Frame {
	return &model.Frame{
		ID:         uuid.NewString(),
		Camera:     camera,
		Data:       data,
		ReceivedAt: m.now().UTC(),
		Position:   position,
	}
}

// Authenticate runs an uploaded frame through the pipeline and waits for
// the outcome. A nil capture means the frame was rejected.
func (m *Manager) Authenticate(frame *model.Frame) (*model.CaptureRecord, error) {
	capture, err := m.engine.AuthenticateFrame(frame)
	if err != nil {
		m.logger.Error("Failed to authenticate frame %s from %s: %v", frame.ID, frame.Camera, err)
		return nil, err
	}
	return capture, nil
}

// HandleCameraImage forwards a streamed camera frame to monitors and queues
// every Nth moving frame for authentication.
func (m *Manager) HandleCameraImage(image []byte, camera string) {
	m.SendToViewers(image, camera)

	m.frameCounterMu.Lock()
	m.frameCounters[camera]++
	frameCount := m.frameCounters[camera]
	if frameCount >= m.processEveryNth {
		m.frameCounters[camera] = 0
	}
	m.frameCounterMu.Unlock()

	if frameCount < m.processEveryNth {
		return
	}

	motionDetected, err := m.motion.DetectMotion(image, camera)
	if err != nil {
		m.logger.Error("Error detecting motion: %v", err)
		return
	}
	if !motionDetected {
		return
	}

	m.queueMu.RLock()
	defer m.queueMu.RUnlock()
	if m.stopped {
		return
	}

	frame := m.NewFrame(image, camera, nil)
	select {
	case m.processingQueue <- frame:
		m.logger.Info("Camera %s: frame %s queued for authentication", camera, frame.ID)
	default:
		m.logger.Warning("Processing queue full for camera %s - skipping frame", camera)
	}
}

// SendToViewers broadcasts a raw frame to live monitors.
func (m *Manager) SendToViewers(image []byte, camera string) {
	if m.hub == nil {
		return
	}

	encoded := base64.StdEncoding.EncodeToString(image)
	msg := fmt.Sprintf(`{"type":"frame","camera":%q,"image":"%s"}`, camera, encoded)

	m.hub.Broadcast([]byte(msg), camera)
}

// processingWorker authenticates queued camera frames.
func (m *Manager) processingWorker(workerID int) {
	defer m.wg.Done()

	m.logger.Info("Processing worker %d started", workerID)

	for frame := range m.processingQueue {
		m.Authenticate(frame)
	}

	m.logger.Info("Processing worker %d stopped", workerID)
}

// Stop drains the queue and waits for all workers.
func (m *Manager) Stop() {
	m.queueMu.Lock()
	if m.stopped {
		m.queueMu.Unlock()
		return
	}
	m.stopped = true
	close(m.processingQueue)
	m.queueMu.Unlock()

	m.wg.Wait()
	m.logger.Info("All processing workers stopped")
}
