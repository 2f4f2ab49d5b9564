package counting

import (
	"maps"
	"strings"

	"partcounter/internal/model"
)

// Recorder receives every newly counted batch of crossings, in order.
// It must handle its own failures; the counter never rolls back.
type Recorder interface {
	RecordCrossings(crossings []model.Crossing)
}

// LineMarker maps a substring of a class name to a logical line.
type LineMarker struct {
	Marker string
	Line   string
}

// LineMarkers is an ordered marker table.
type LineMarkers []LineMarker

// DefaultLineMarkers classifies "...Line1..." into line1 and "...Line2..." into line2.
var DefaultLineMarkers = LineMarkers{
	{Marker: "Line1", Line: "line1"},
	{Marker: "Line2", Line: "line2"},
}

// Classify returns the logical line for a class name. The first matching marker wins.
func (lm LineMarkers) Classify(className string) (string, bool) {
	for _, m := range lm {
		if strings.Contains(className, m.Marker) {
			return m.Line, true
		}
	}
	return "", false
}

// Counter applies exactly-once semantics on top of a Detector: each track id
// contributes at most one tally increment until Reset.
//
// Counter does no locking. Callers must serialize access to an instance.
type Counter struct {
	detector   *Detector
	recorder   Recorder
	markers    LineMarkers
	countedIDs map[int]struct{}
	counts     map[string]int
}

// NewCounter creates a counter around detector. recorder may be nil. When
// markers is empty DefaultLineMarkers is used.
func NewCounter(detector *Detector, recorder Recorder, markers LineMarkers) *Counter {
	if len(markers) == 0 {
		markers = DefaultLineMarkers
	}
	c := &Counter{
		detector:   detector,
		recorder:   recorder,
		markers:    markers,
		countedIDs: make(map[int]struct{}),
	}
	c.counts = c.zeroCounts()
	return c
}

// Detector returns the detector owned by this counter.
func (c *Counter) Detector() *Detector {
	return c.detector
}

// UpdateCounts processes one frame of detections and returns the crossings that
// were counted for the first time. The same batch is forwarded to the recorder.
func (c *Counter) UpdateCounts(detections []model.Detection) []model.Crossing {
	crossings := c.detector.DetectCrossings(detections)

	var accepted []model.Crossing
	for _, crossing := range crossings {
		if _, counted := c.countedIDs[crossing.TrackID]; counted {
			continue
		}
		if line, ok := c.Classify(crossing.ClassName); ok {
			c.counts[line]++
		}
		c.countedIDs[crossing.TrackID] = struct{}{}
		accepted = append(accepted, crossing)
	}

	if len(accepted) > 0 && c.recorder != nil {
		c.recorder.RecordCrossings(accepted)
	}

	return accepted
}

// Classify returns the logical line for a class name using the counter's markers.
func (c *Counter) Classify(className string) (string, bool) {
	return c.markers.Classify(className)
}

// GetCounts returns a copy of the per-line tallies.
func (c *Counter) GetCounts() map[string]int {
	return maps.Clone(c.counts)
}

// CountedTracks returns how many distinct track ids have been counted this session.
func (c *Counter) CountedTracks() int {
	return len(c.countedIDs)
}

// Reset starts a new counting session.
func (c *Counter) Reset() {
	clear(c.countedIDs)
	c.counts = c.zeroCounts()
	c.detector.Reset()
}

func (c *Counter) zeroCounts() map[string]int {
	counts := make(map[string]int, len(c.markers))
	for _, m := range c.markers {
		counts[m.Line] = 0
	}
	return counts
}
