package repository

import (
	"partcounter/internal/model"
)

// CrossingRepository defines the interface for persisted crossing records.
type CrossingRepository interface {
	// Create operations
	InsertBatch(records []model.CrossingRecord) error

	// Read operations
	GetAll(filter *model.CrossingFilter) ([]model.CrossingRecord, error)
	GetTotalCount(filter *model.CrossingFilter) (int, error)
	CountByLine(filter *model.CrossingFilter) (map[string]int, error)

	// Delete operations
	DeleteAll() error
}
