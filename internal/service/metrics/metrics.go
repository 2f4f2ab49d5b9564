package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the counting pipeline.
type Metrics struct {
	registry *prometheus.Registry

	FramesProcessed  prometheus.Counter
	DetectionsSeen   prometheus.Counter
	CrossingsCounted *prometheus.CounterVec
	RecorderFailures *prometheus.CounterVec
	CameraFrames     *prometheus.CounterVec
	CameraDropped    prometheus.Counter
	SessionResets    prometheus.Counter
	TrackedPositions prometheus.Gauge
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FramesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "partcounter",
			Name:      "tracker_frames_total",
			Help:      "Tracker frames processed by the counter.",
		}),
		DetectionsSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "partcounter",
			Name:      "detections_total",
			Help:      "Detections received from the tracker, valid or not.",
		}),
		CrossingsCounted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "partcounter",
			Name:      "crossings_counted_total",
			Help:      "Crossings accepted by the exactly-once gate.",
		}, []string{"line", "direction"}),
		RecorderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "partcounter",
			Name:      "recorder_failures_total",
			Help:      "Failed writes to a crossing store.",
		}, []string{"store"}),
		CameraFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "partcounter",
			Name:      "camera_frames_total",
			Help:      "Camera frames received for the live view.",
		}, []string{"camera"}),
		CameraDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "partcounter",
			Name:      "camera_frames_dropped_total",
			Help:      "Camera frames dropped because the overlay queue was full.",
		}),
		SessionResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "partcounter",
			Name:      "session_resets_total",
			Help:      "Counting sessions reset.",
		}),
		TrackedPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "partcounter",
			Name:      "tracked_positions",
			Help:      "Track positions remembered by the crossing detector.",
		}),
	}

	m.registry.MustRegister(
		m.FramesProcessed,
		m.DetectionsSeen,
		m.CrossingsCounted,
		m.RecorderFailures,
		m.CameraFrames,
		m.CameraDropped,
		m.SessionResets,
		m.TrackedPositions,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
