package model

// Point is a 2-D position in the tracker's coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Direction of travel across the counting line.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Crossing is emitted once when a track's center moves across (or onto) the counting line.
type Crossing struct {
	TrackID   int       `json:"track_id"`
	ClassName string    `json:"class_name"`
	Direction Direction `json:"direction"`
	Position  Point     `json:"position"`
}
