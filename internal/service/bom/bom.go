package bom

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"partcounter/internal/logger"
	"partcounter/internal/model"
)

// Unknown is used for program and part number when a class name is not in the BOM.
const Unknown = "Unknown"

// Reader resolves class names to part metadata from a bill-of-materials workbook.
//
// The first sheet is read. The first row is a header naming the columns
// "Class Name", "Program", "Part Number" and "Description" (any order). When
// a header is not recognized the columns are taken positionally in that order.
type Reader struct {
	path   string
	parts  map[string]model.PartInfo
	mu     sync.RWMutex
	logger *logger.Logger
}

// NewReader creates a reader and loads path. A missing or unreadable BOM is
// logged and every lookup falls back to Unknown.
func NewReader(path string, logger *logger.Logger) *Reader {
	r := &Reader{
		path:   path,
		parts:  make(map[string]model.PartInfo),
		logger: logger,
	}
	if err := r.Reload(); err != nil {
		logger.Warning("BOM not loaded, part lookups will resolve to %s: %v", Unknown, err)
	}
	return r
}

// Lookup returns the part metadata for className.
func (r *Reader) Lookup(className string) model.PartInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if info, ok := r.parts[className]; ok {
		return info
	}
	return model.PartInfo{
		Program:     Unknown,
		PartNumber:  Unknown,
		Description: className,
	}
}

// Len returns the number of parts currently loaded.
func (r *Reader) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.parts)
}

// Reload re-reads the BOM workbook. The previous table is kept on error.
func (r *Reader) Reload() error {
	if r.path == "" {
		return fmt.Errorf("no BOM path configured")
	}
	if _, err := os.Stat(r.path); err != nil {
		return fmt.Errorf("BOM file: %w", err)
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return fmt.Errorf("failed to open BOM %s: %w", r.path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read BOM sheet %q: %w", sheet, err)
	}

	parts := parseRows(rows)

	r.mu.Lock()
	r.parts = parts
	r.mu.Unlock()

	r.logger.Info("Loaded %d parts from BOM %s", len(parts), r.path)
	return nil
}

type columns struct {
	className, program, partNumber, description int
}

func parseRows(rows [][]string) map[string]model.PartInfo {
	parts := make(map[string]model.PartInfo)
	if len(rows) == 0 {
		return parts
	}

	cols := headerColumns(rows[0])
	for _, row := range rows[1:] {
		name := cell(row, cols.className)
		if name == "" {
			continue
		}
		parts[name] = model.PartInfo{
			Program:     cell(row, cols.program),
			PartNumber:  cell(row, cols.partNumber),
			Description: cell(row, cols.description),
		}
	}
	return parts
}

func headerColumns(header []string) columns {
	cols := columns{className: 0, program: 1, partNumber: 2, description: 3}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "class name", "class", "class_name":
			cols.className = i
		case "program":
			cols.program = i
		case "part number", "part_number", "part no", "pn":
			cols.partNumber = i
		case "description", "part description":
			cols.description = i
		}
	}
	return cols
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
