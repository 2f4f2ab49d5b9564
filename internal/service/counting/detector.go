package counting

import "partcounter/internal/model"

// DefaultLinePosition places the counting line in the middle of a normalized frame.
const DefaultLinePosition = 0.5

// Detector turns per-frame detections into crossing events by comparing each
// track's current center with the one it had on its previous sighting.
//
// The position memory is never evicted; entries only go away on Reset.
type Detector struct {
	linePosition      float64
	previousPositions map[int]model.Point
}

// NewDetector creates a detector for a vertical line at linePosition. The unit
// must match the unit of the detection boxes (normalized or pixels).
func NewDetector(linePosition float64) *Detector {
	return &Detector{
		linePosition:      linePosition,
		previousPositions: make(map[int]model.Point),
	}
}

// LinePosition returns the x coordinate of the counting line.
func (d *Detector) LinePosition() float64 {
	return d.linePosition
}

// TrackCount returns how many track positions are currently remembered.
func (d *Detector) TrackCount() int {
	return len(d.previousPositions)
}

// DetectCrossings returns the crossings produced by this batch, in detection order.
// Invalid detections are skipped.
func (d *Detector) DetectCrossings(detections []model.Detection) []model.Crossing {
	var crossings []model.Crossing

	for _, detection := range detections {
		if !detection.Valid() {
			continue
		}

		trackID := *detection.TrackID
		current := detection.Center()

		if previous, seen := d.previousPositions[trackID]; seen && d.hasCrossedLine(previous, current) {
			direction := model.DirectionLeft
			if current.X > previous.X {
				direction = model.DirectionRight
			}
			crossings = append(crossings, model.Crossing{
				TrackID:   trackID,
				ClassName: *detection.ClassName,
				Direction: direction,
				Position:  current,
			})
		}

		d.previousPositions[trackID] = current
	}

	return crossings
}

// hasCrossedLine treats reaching the line from either side as a crossing.
// Two samples that both sit exactly on the line do not cross.
func (d *Detector) hasCrossedLine(previous, current model.Point) bool {
	line := d.linePosition
	return (previous.X < line && current.X >= line) ||
		(previous.X > line && current.X <= line)
}

// Reset forgets every remembered track position.
func (d *Detector) Reset() {
	clear(d.previousPositions)
}
