package handler

import (
	"net/http"

	"partcounter/internal/logger"
)

// PartTable is a reloadable part lookup table.
type PartTable interface {
	Reload() error
	Len() int
}

// ReloadBOMHandler handles POST /api/bom/reload. New crossings use the reloaded
// table; on failure the previous table stays in use.
func ReloadBOMHandler(parts PartTable, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := parts.Reload(); err != nil {
			logger.Error("BOM reload failed: %v", err)
			writeJSON(w, logger, http.StatusInternalServerError, map[string]interface{}{
				"error": err.Error(),
				"parts": parts.Len(),
			})
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]int{"parts": parts.Len()})
	}
}
