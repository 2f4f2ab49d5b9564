package report

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"partcounter/internal/logger"
	"partcounter/internal/model"
)

// Headers is the header row of the crossing report.
var Headers = []interface{}{"Class Name", "Program", "Part Number", "Part Description", "Day", "Time"}

// Report appends crossing records to an XLSX workbook, newest row first,
// directly under the header row.
type Report struct {
	path   string
	mu     sync.Mutex
	logger *logger.Logger
	now    func() time.Time
}

// NewReport creates the report and makes sure the workbook exists.
func NewReport(path string, logger *logger.Logger) (*Report, error) {
	r := &Report{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
	if err := r.EnsureFile(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the workbook location.
func (r *Report) Path() string {
	return r.path
}

// EnsureFile creates the workbook with a header row if it does not exist.
func (r *Report) EnsureFile() error {
	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat report %s: %w", r.path, err)
	}
	return r.create()
}

func (r *Report) create() error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(f.GetSheetName(0), "A1", &Headers); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	if err := f.SaveAs(r.path); err != nil {
		return fmt.Errorf("failed to create report %s: %w", r.path, err)
	}
	r.logger.Info("Created crossing report %s", r.path)
	return nil
}

// Append writes records into the workbook and saves it once. A workbook that
// can not be opened is moved aside and recreated with a fresh header before
// the records are written.
func (r *Report) Append(records []model.CrossingRecord) error {
	if len(records) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.EnsureFile(); err != nil {
		return err
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		r.logger.Warning("Crossing report %s is unreadable, recreating it: %v", r.path, err)
		if f, err = r.recreate(); err != nil {
			return err
		}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	for _, rec := range records {
		if err := f.InsertRows(sheet, 2, 1); err != nil {
			return fmt.Errorf("failed to insert report row: %w", err)
		}
		row := []interface{}{rec.ClassName, rec.Program, rec.PartNumber, rec.Description, rec.Day, rec.Time}
		if err := f.SetSheetRow(sheet, "A2", &row); err != nil {
			return fmt.Errorf("failed to write report row: %w", err)
		}
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("failed to save report %s: %w", r.path, err)
	}
	return nil
}

// Rows returns every row of the report including the header.
func (r *Report) Rows() ([][]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report %s: %w", r.path, err)
	}
	defer f.Close()

	return f.GetRows(f.GetSheetName(0))
}

func (r *Report) recreate() (*excelize.File, error) {
	backup := fmt.Sprintf("%s.corrupt-%s", r.path, r.now().Format("20060102-150405"))
	if err := os.Rename(r.path, backup); err != nil {
		return nil, fmt.Errorf("failed to move corrupted report aside: %w", err)
	}
	r.logger.Warning("Moved corrupted report to %s", backup)

	if err := r.create(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen recreated report: %w", err)
	}
	return f, nil
}
