package sqlite

import (
	"fmt"
	"strings"

	"partcounter/internal/model"
)

// CrossingRepository implements repository.CrossingRepository for SQLite.
type CrossingRepository struct {
	db *DB
}

// NewCrossingRepository creates a new SQLite crossing repository.
func NewCrossingRepository(db *DB) *CrossingRepository {
	return &CrossingRepository{db: db}
}

// InsertBatch appends records in a single transaction, preserving their order.
func (r *CrossingRepository) InsertBatch(records []model.CrossingRecord) error {
	if len(records) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO crossings (class_name, program, part_number, description, line, direction, track_id, day, time, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(rec.ClassName, rec.Program, rec.PartNumber, rec.Description, rec.Line,
			string(rec.Direction), rec.TrackID, rec.Day, rec.Time, rec.RecordedAt); err != nil {
			return fmt.Errorf("failed to insert crossing: %w", err)
		}
	}

	return tx.Commit()
}

// GetAll retrieves crossing records matching filter, newest first.
func (r *CrossingRepository) GetAll(filter *model.CrossingFilter) ([]model.CrossingRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)
	query := `
		SELECT id, class_name, program, part_number, description, line, direction, track_id, day, time, recorded_at
		FROM crossings` + where + " ORDER BY recorded_at DESC, id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query crossings: %w", err)
	}
	defer rows.Close()

	var records []model.CrossingRecord
	for rows.Next() {
		var rec model.CrossingRecord
		var direction string
		if err := rows.Scan(&rec.ID, &rec.ClassName, &rec.Program, &rec.PartNumber, &rec.Description, &rec.Line,
			&direction, &rec.TrackID, &rec.Day, &rec.Time, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan crossing: %w", err)
		}
		rec.Direction = model.Direction(direction)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetTotalCount returns how many records match filter, ignoring Limit and Offset.
func (r *CrossingRepository) GetTotalCount(filter *model.CrossingFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM crossings`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count crossings: %w", err)
	}
	return count, nil
}

// CountByLine returns the number of matching records per line. Records without a line are skipped.
func (r *CrossingRepository) CountByLine(filter *model.CrossingFilter) (map[string]int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)
	if where == "" {
		where = " WHERE line != ''"
	} else {
		where += " AND line != ''"
	}

	rows, err := r.db.Conn().Query(`SELECT line, COUNT(*) FROM crossings`+where+` GROUP BY line`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count crossings per line: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var line string
		var count int
		if err := rows.Scan(&line, &count); err != nil {
			return nil, fmt.Errorf("failed to scan line count: %w", err)
		}
		counts[line] = count
	}
	return counts, rows.Err()
}

// DeleteAll removes every crossing record.
func (r *CrossingRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM crossings`); err != nil {
		return fmt.Errorf("failed to delete crossings: %w", err)
	}
	return nil
}

func buildWhere(filter *model.CrossingFilter) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	var conds []string
	var args []interface{}

	if filter.Line != "" {
		conds = append(conds, "line = ?")
		args = append(args, filter.Line)
	}
	if filter.ClassName != "" {
		conds = append(conds, "class_name = ?")
		args = append(args, filter.ClassName)
	}
	if !filter.StartDate.IsZero() {
		conds = append(conds, "day >= ?")
		args = append(args, filter.StartDate.Format(model.DayLayout))
	}
	if !filter.EndDate.IsZero() {
		conds = append(conds, "day <= ?")
		args = append(args, filter.EndDate.Format(model.DayLayout))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
