package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partcounter/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func record(trackID int, className, line string, at time.Time) model.CrossingRecord {
	return model.CrossingRecord{
		ClassName:   className,
		Program:     "P1",
		PartNumber:  "PN-" + className,
		Description: "desc " + className,
		Line:        line,
		Direction:   model.DirectionRight,
		TrackID:     trackID,
		Day:         at.Format(model.DayLayout),
		Time:        at.Format(model.TimeLayout),
		RecordedAt:  at,
	}
}

func TestDatabase_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data", "crossings.db")

	db, err := New(dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestCrossingRepository_InsertAndGetAll(t *testing.T) {
	repo := NewCrossingRepository(newTestDB(t))
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.InsertBatch([]model.CrossingRecord{
		record(1, "HingeLine1", "line1", base),
		record(2, "HingeLine2", "line2", base.Add(time.Second)),
		record(3, "Stray", "", base.Add(2*time.Second)),
	}))

	records, err := repo.GetAll(&model.CrossingFilter{})
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Newest first.
	assert.Equal(t, 3, records[0].TrackID)
	assert.Equal(t, 1, records[2].TrackID)
	assert.Equal(t, "PN-HingeLine1", records[2].PartNumber)
	assert.Equal(t, model.DirectionRight, records[2].Direction)
	assert.Equal(t, "2025-03-10", records[2].Day)
	assert.Equal(t, "08:00:00", records[2].Time)
	assert.True(t, base.Equal(records[2].RecordedAt))
}

func TestCrossingRepository_EmptyBatch(t *testing.T) {
	repo := NewCrossingRepository(newTestDB(t))
	require.NoError(t, repo.InsertBatch(nil))

	count, err := repo.GetTotalCount(nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCrossingRepository_Filters(t *testing.T) {
	repo := NewCrossingRepository(newTestDB(t))
	day1 := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	require.NoError(t, repo.InsertBatch([]model.CrossingRecord{
		record(1, "ALine1", "line1", day1),
		record(2, "ALine1", "line1", day2),
		record(3, "BLine2", "line2", day2),
		record(4, "Stray", "", day2),
	}))

	tests := []struct {
		name   string
		filter model.CrossingFilter
		want   int
	}{
		{"all", model.CrossingFilter{}, 4},
		{"by line", model.CrossingFilter{Line: "line1"}, 2},
		{"by class", model.CrossingFilter{ClassName: "BLine2"}, 1},
		{"from day2", model.CrossingFilter{StartDate: day2}, 3},
		{"until day1", model.CrossingFilter{EndDate: day1}, 1},
		{"line and day", model.CrossingFilter{Line: "line1", StartDate: day2, EndDate: day2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := repo.GetTotalCount(&tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, count)

			records, err := repo.GetAll(&tt.filter)
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestCrossingRepository_Pagination(t *testing.T) {
	repo := NewCrossingRepository(newTestDB(t))
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	var batch []model.CrossingRecord
	for i := 0; i < 5; i++ {
		batch = append(batch, record(i, "PLine1", "line1", base.Add(time.Duration(i)*time.Second)))
	}
	require.NoError(t, repo.InsertBatch(batch))

	page, err := repo.GetAll(&model.CrossingFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 2, page[0].TrackID)
	assert.Equal(t, 1, page[1].TrackID)

	total, err := repo.GetTotalCount(&model.CrossingFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
}

func TestCrossingRepository_CountByLineAndDeleteAll(t *testing.T) {
	repo := NewCrossingRepository(newTestDB(t))
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.InsertBatch([]model.CrossingRecord{
		record(1, "ALine1", "line1", now),
		record(2, "ALine1", "line1", now),
		record(3, "BLine2", "line2", now),
		record(4, "Stray", "", now),
	}))

	counts, err := repo.CountByLine(nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"line1": 2, "line2": 1}, counts)

	counts, err = repo.CountByLine(&model.CrossingFilter{ClassName: "BLine2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"line2": 1}, counts)

	require.NoError(t, repo.DeleteAll())
	total, err := repo.GetTotalCount(nil)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCrossingRepository_ConcurrentInserts(t *testing.T) {
	repo := NewCrossingRepository(newTestDB(t))
	now := time.Now()

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			done <- repo.InsertBatch([]model.CrossingRecord{record(idx, "PLine1", "line1", now)})
		}(i)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-done)
	}

	total, err := repo.GetTotalCount(nil)
	require.NoError(t, err)
	assert.Equal(t, 10, total)
}
