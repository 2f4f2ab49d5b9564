package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partcounter/internal/logger"
	"partcounter/internal/model"
	"partcounter/internal/service/counting"
	"partcounter/internal/service/metrics"
	"partcounter/internal/service/websocket"
)

type batchRecorder struct {
	mu      sync.Mutex
	batches [][]model.Crossing
}

func (r *batchRecorder) RecordCrossings(crossings []model.Crossing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, crossings)
}

func newTestManager(t *testing.T, rec counting.Recorder) (*Manager, *metrics.Metrics) {
	t.Helper()
	l := logger.New(t.TempDir())
	t.Cleanup(func() { l.Close() })

	m := metrics.New()
	hub := websocket.NewHubService(1024, l)
	counter := counting.NewCounter(counting.NewDetector(0.5), rec, nil)
	mgr := NewManager(counter, hub, m, l, 4, 1)
	t.Cleanup(mgr.Stop)
	return mgr, m
}

func frame(dets ...model.Detection) model.Frame {
	return model.Frame{Camera: "cam1", Detections: dets}
}

func TestManager_ProcessDetections(t *testing.T) {
	rec := &batchRecorder{}
	mgr, m := newTestManager(t, rec)

	first := mgr.ProcessDetections(frame(model.NewDetection(1, "HingeLine1", 0.2, 0.1, 0.4, 0.3)))
	assert.Empty(t, first.Crossings)
	assert.Equal(t, map[string]int{"line1": 0, "line2": 0}, first.Counts)

	second := mgr.ProcessDetections(frame(model.NewDetection(1, "HingeLine1", 0.5, 0.1, 0.7, 0.3)))
	require.Len(t, second.Crossings, 1)
	assert.Equal(t, model.DirectionRight, second.Crossings[0].Direction)
	assert.Equal(t, 1, second.Counts["line1"])

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CrossingsCounted.WithLabelValues("line1", "right")))
	assert.Len(t, rec.batches, 1)
}

func TestManager_ResetStartsNewSession(t *testing.T) {
	mgr, m := newTestManager(t, nil)
	mgr.ProcessDetections(frame(model.NewDetection(1, "HingeLine2", 0.6, 0, 0.8, 0.1)))
	mgr.ProcessDetections(frame(model.NewDetection(1, "HingeLine2", 0.2, 0, 0.4, 0.1)))
	require.Equal(t, 1, mgr.Counts()["line2"])

	counts := mgr.Reset()

	assert.Equal(t, map[string]int{"line1": 0, "line2": 0}, counts)
	assert.Equal(t, counts, mgr.Counts())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionResets))
}

func TestManager_SerializesConcurrentProducers(t *testing.T) {
	rec := &batchRecorder{}
	mgr, _ := newTestManager(t, rec)

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				id := worker*100 + i
				mgr.ProcessDetections(frame(model.NewDetection(id, "PLine1", 0.1, 0, 0.3, 0.1)))
				mgr.ProcessDetections(frame(model.NewDetection(id, "PLine1", 0.6, 0, 0.8, 0.1)))
			}
		}(worker)
	}
	wg.Wait()

	assert.Equal(t, 200, mgr.Counts()["line1"])
	total := 0
	for _, b := range rec.batches {
		total += len(b)
	}
	assert.Equal(t, 200, total)
}

func TestManager_CameraFramesGetOverlay(t *testing.T) {
	mgr, _ := newTestManager(t, nil)

	var mu sync.Mutex
	var positions []float64
	mgr.drawLine = func(img []byte, linePosition float64, counts map[string]int) ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		positions = append(positions, linePosition)
		if string(img) == "bad" {
			return nil, errors.New("decode failed")
		}
		return img, nil
	}

	mgr.HandleCameraImage([]byte("jpeg"), "cam1")
	mgr.HandleCameraImage([]byte("bad"), "cam1")
	mgr.Stop()

	assert.Equal(t, []float64{0.5, 0.5}, positions)

	assert.NotPanics(t, func() { mgr.HandleCameraImage([]byte("late"), "cam1") })
	mgr.Stop()
}
