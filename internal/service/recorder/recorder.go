package recorder

import (
	"time"

	"partcounter/internal/logger"
	"partcounter/internal/model"
	"partcounter/internal/service/metrics"
)

// PartLookup resolves a class name to its BOM metadata.
type PartLookup interface {
	Lookup(className string) model.PartInfo
}

// LineClassifier maps a class name to its logical line.
type LineClassifier interface {
	Classify(className string) (string, bool)
}

// Store persists a batch of crossing records in order.
type Store interface {
	Save(records []model.CrossingRecord) error
}

// StoreFunc adapts a function to Store.
type StoreFunc func(records []model.CrossingRecord) error

func (f StoreFunc) Save(records []model.CrossingRecord) error {
	return f(records)
}

type namedStore struct {
	name  string
	store Store
}

// CrossingRecorder turns counted crossings into records and replicates them to
// every configured store. Store failures are logged and never reported back to
// the counter.
type CrossingRecorder struct {
	parts    PartLookup
	lines    LineClassifier
	stores   []namedStore
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	lastErrs map[string]error
}

// NewCrossingRecorder creates a recorder. metrics may be nil.
func NewCrossingRecorder(parts PartLookup, lines LineClassifier, logger *logger.Logger, m *metrics.Metrics) *CrossingRecorder {
	return &CrossingRecorder{
		parts:    parts,
		lines:    lines,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
		lastErrs: make(map[string]error),
	}
}

// AddStore registers a store under name. Stores are written in registration order.
func (r *CrossingRecorder) AddStore(name string, store Store) {
	r.stores = append(r.stores, namedStore{name: name, store: store})
}

// RecordCrossings implements counting.Recorder.
func (r *CrossingRecorder) RecordCrossings(crossings []model.Crossing) {
	if len(crossings) == 0 {
		return
	}

	records := r.BuildRecords(crossings)
	for _, s := range r.stores {
		err := s.store.Save(records)
		r.lastErrs[s.name] = err
		if err != nil {
			r.logger.Error("Error recording %d crossing(s) to %s: %v", len(records), s.name, err)
			if r.metrics != nil {
				r.metrics.RecorderFailures.WithLabelValues(s.name).Inc()
			}
			continue
		}
		r.logger.Info("Recorded %d crossing(s) to %s", len(records), s.name)
	}
}

// BuildRecords resolves part metadata and stamps the wall-clock time of recording.
func (r *CrossingRecorder) BuildRecords(crossings []model.Crossing) []model.CrossingRecord {
	records := make([]model.CrossingRecord, 0, len(crossings))
	for _, c := range crossings {
		part := r.parts.Lookup(c.ClassName)
		now := r.now()
		line, _ := r.lines.Classify(c.ClassName)

		records = append(records, model.CrossingRecord{
			ClassName:   c.ClassName,
			Program:     part.Program,
			PartNumber:  part.PartNumber,
			Description: part.Description,
			Line:        line,
			Direction:   c.Direction,
			TrackID:     c.TrackID,
			Day:         now.Format(model.DayLayout),
			Time:        now.Format(model.TimeLayout),
			RecordedAt:  now,
		})
	}
	return records
}

// LastError returns the result of the most recent write to the named store.
func (r *CrossingRecorder) LastError(name string) error {
	return r.lastErrs[name]
}
