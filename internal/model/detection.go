package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Detection is one tracked object reported by the upstream tracker for a single frame.
// Any field may be missing; see Valid.
type Detection struct {
	TrackID   *int      `json:"track_id,omitempty"`
	Box       []float64 `json:"box,omitempty"`
	ClassName *string   `json:"class_name,omitempty"`
}

// UnmarshalJSON accepts the box under either "box" or "bounding_box", and an
// integral float as track id.
func (d *Detection) UnmarshalJSON(data []byte) error {
	var aux struct {
		TrackID     *float64  `json:"track_id"`
		Box         []float64 `json:"box"`
		BoundingBox []float64 `json:"bounding_box"`
		ClassName   *string   `json:"class_name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*d = Detection{Box: aux.Box, ClassName: aux.ClassName}
	if d.Box == nil {
		d.Box = aux.BoundingBox
	}
	if aux.TrackID != nil {
		v := *aux.TrackID
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return fmt.Errorf("track_id %v is not an integer", v)
		}
		id := int(v)
		d.TrackID = &id
	}
	return nil
}

// Valid reports whether the detection carries a track id, a four-coordinate box and a class name.
func (d Detection) Valid() bool {
	return d.TrackID != nil && len(d.Box) == 4 && d.ClassName != nil && *d.ClassName != ""
}

// Center returns the midpoint of the bounding box. Only meaningful when Valid.
func (d Detection) Center() Point {
	return Point{
		X: (d.Box[0] + d.Box[2]) / 2,
		Y: (d.Box[1] + d.Box[3]) / 2,
	}
}

// NewDetection builds a fully populated detection.
func NewDetection(trackID int, className string, x1, y1, x2, y2 float64) Detection {
	return Detection{
		TrackID:   &trackID,
		Box:       []float64{x1, y1, x2, y2},
		ClassName: &className,
	}
}

// Frame is a single tracker message: the detections seen on one video frame.
type Frame struct {
	Camera     string      `json:"camera,omitempty"`
	Detections []Detection `json:"detections"`
	// Dropped counts detections that could not be decoded.
	Dropped int `json:"-"`
}

// UnmarshalJSON accepts either {"detections": [...]} or a bare array of
// detections. Elements that fail to decode are dropped one by one so the
// rest of the frame survives.
func (f *Frame) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		*f = Frame{}
	} else {
		var aux struct {
			Camera     string            `json:"camera"`
			Detections []json.RawMessage `json:"detections"`
		}
		if err := json.Unmarshal(data, &aux); err != nil {
			return err
		}
		*f = Frame{Camera: aux.Camera}
		raw = aux.Detections
	}

	for _, elem := range raw {
		var d Detection
		if err := json.Unmarshal(elem, &d); err != nil {
			f.Dropped++
			continue
		}
		f.Detections = append(f.Detections, d)
	}
	return nil
}
