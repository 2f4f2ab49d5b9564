package service

import (
	"encoding/base64"
	"sync"

	"partcounter/internal/logger"
	"partcounter/internal/model"
	"partcounter/internal/service/counting"
	"partcounter/internal/service/metrics"
	"partcounter/internal/service/overlay"
	"partcounter/internal/service/websocket"
)

// CameraFrame is a JPEG frame waiting for the counting-line overlay.
type CameraFrame struct {
	Image  []byte
	Camera string
}

// Result is what one tracker frame produced.
type Result struct {
	Crossings []model.Crossing `json:"crossings"`
	Counts    map[string]int   `json:"counts"`
}

// FramePayload is the viewer payload of an overlaid camera frame.
type FramePayload struct {
	Image string `json:"image"`
}

// Manager hosts a single counting session. The counter is not safe for
// concurrent use, so every call into it goes through counterMu.
type Manager struct {
	counter  *counting.Counter
	hub      *websocket.HubService
	metrics  *metrics.Metrics
	logger   *logger.Logger
	drawLine func(img []byte, linePosition float64, counts map[string]int) ([]byte, error)

	counterMu sync.Mutex

	frameQueue chan CameraFrame
	queueMu    sync.RWMutex
	stopped    bool
	numWorkers int
	wg         sync.WaitGroup
}

// NewManager creates a manager around counter and starts numWorkers overlay workers.
func NewManager(counter *counting.Counter, hub *websocket.HubService, m *metrics.Metrics, logger *logger.Logger, queueSize, numWorkers int) *Manager {
	if numWorkers < 1 {
		numWorkers = 1
	}
	manager := &Manager{
		counter:    counter,
		hub:        hub,
		metrics:    m,
		logger:     logger,
		drawLine:   overlay.DrawCountingLine,
		frameQueue: make(chan CameraFrame, queueSize),
		numWorkers: numWorkers,
	}

	for i := 0; i < manager.numWorkers; i++ {
		manager.wg.Add(1)
		go manager.overlayWorker(i)
	}

	manager.logger.Info("Manager started - counting line at %v", counter.Detector().LinePosition())
	return manager
}

// ProcessDetections runs one tracker frame through the counter and pushes any
// newly counted crossings to viewers.
func (m *Manager) ProcessDetections(frame model.Frame) Result {
	m.counterMu.Lock()
	crossings := m.counter.UpdateCounts(frame.Detections)
	counts := m.counter.GetCounts()
	tracked := m.counter.Detector().TrackCount()
	var lines []string
	for _, c := range crossings {
		line, _ := m.counter.Classify(c.ClassName)
		lines = append(lines, line)
	}
	m.counterMu.Unlock()

	m.metrics.FramesProcessed.Inc()
	m.metrics.DetectionsSeen.Add(float64(len(frame.Detections)))
	m.metrics.TrackedPositions.Set(float64(tracked))

	if len(crossings) > 0 {
		for i, c := range crossings {
			m.metrics.CrossingsCounted.WithLabelValues(lines[i], string(c.Direction)).Inc()
			m.logger.Info("Counted track %d (%s) moving %s on line %q", c.TrackID, c.ClassName, c.Direction, lines[i])
		}
		m.hub.BroadcastMessage(websocket.Message{Type: websocket.MessageCrossings, Camera: frame.Camera, Payload: crossings})
		m.hub.BroadcastMessage(websocket.Message{Type: websocket.MessageCounts, Payload: counts})
	}

	return Result{Crossings: crossings, Counts: counts}
}

// Counts returns a snapshot of the current tallies.
func (m *Manager) Counts() map[string]int {
	m.counterMu.Lock()
	defer m.counterMu.Unlock()
	return m.counter.GetCounts()
}

// Reset starts a new counting session.
func (m *Manager) Reset() map[string]int {
	m.counterMu.Lock()
	m.counter.Reset()
	counts := m.counter.GetCounts()
	m.counterMu.Unlock()

	m.metrics.SessionResets.Inc()
	m.metrics.TrackedPositions.Set(0)
	m.logger.Info("Counting session reset")
	m.hub.BroadcastMessage(websocket.Message{Type: websocket.MessageReset, Payload: counts})
	return counts
}

// LinePosition returns the configured counting line position.
func (m *Manager) LinePosition() float64 {
	return m.counter.Detector().LinePosition()
}

// HandleCameraImage queues a camera frame for the overlay. Frames are dropped
// when the queue is full.
func (m *Manager) HandleCameraImage(image []byte, camera string) {
	m.metrics.CameraFrames.WithLabelValues(camera).Inc()

	m.queueMu.RLock()
	defer m.queueMu.RUnlock()
	if m.stopped {
		return
	}

	select {
	case m.frameQueue <- CameraFrame{Image: image, Camera: camera}:
	default:
		m.metrics.CameraDropped.Inc()
		m.logger.Warning("Overlay queue full for camera %s - dropping frame", camera)
	}
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.hub
}

// overlayWorker draws the counting line on queued frames and sends them to viewers.
func (m *Manager) overlayWorker(workerID int) {
	defer m.wg.Done()

	for frame := range m.frameQueue {
		m.sendFrame(frame)
	}

	m.logger.Info("Overlay worker %d stopped", workerID)
}

func (m *Manager) sendFrame(frame CameraFrame) {
	img, err := m.drawLine(frame.Image, m.LinePosition(), m.Counts())
	if err != nil {
		m.logger.Error("Failed to draw counting line for camera %s: %v", frame.Camera, err)
		img = frame.Image
	}

	m.hub.BroadcastMessage(websocket.Message{
		Type:    websocket.MessageFrame,
		Camera:  frame.Camera,
		Payload: FramePayload{Image: base64.StdEncoding.EncodeToString(img)},
	})
}

// Stop drains the overlay queue and waits for the workers.
func (m *Manager) Stop() {
	m.queueMu.Lock()
	if m.stopped {
		m.queueMu.Unlock()
		return
	}
	m.stopped = true
	close(m.frameQueue)
	m.queueMu.Unlock()

	m.wg.Wait()
	m.logger.Info("All overlay workers stopped")
}
