package model

import "time"

const (
	// DayLayout is the date format used in persisted crossing records.
	DayLayout = "2006-01-02"
	// TimeLayout is the time-of-day format used in persisted crossing records.
	TimeLayout = "15:04:05"
)

// PartInfo is the BOM metadata resolved for a class name.
type PartInfo struct {
	Program     string `json:"program"`
	PartNumber  string `json:"part_number"`
	Description string `json:"description"`
}

// CrossingRecord is a persisted crossing.
type CrossingRecord struct {
	ID          int64     `json:"id"`
	ClassName   string    `json:"class_name"`
	Program     string    `json:"program"`
	PartNumber  string    `json:"part_number"`
	Description string    `json:"description"`
	Line        string    `json:"line"`
	Direction   Direction `json:"direction"`
	TrackID     int       `json:"track_id"`
	Day         string    `json:"day"`
	Time        string    `json:"time"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// CrossingFilter contains filtering options for querying crossing records.
type CrossingFilter struct {
	Line      string
	ClassName string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}
