package handler

import (
	"net/http"

	"partcounter/internal/logger"
	"partcounter/internal/service"
)

// CountsResponse is returned by the counts endpoints.
type CountsResponse struct {
	Counts       map[string]int `json:"counts"`
	LinePosition float64        `json:"line_position"`
}

// CountsHandler handles GET /api/counts.
func CountsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, logger, http.StatusOK, CountsResponse{
			Counts:       manager.Counts(),
			LinePosition: manager.LinePosition(),
		})
	}
}

// ResetCountsHandler handles POST /api/counts/reset and starts a new session.
func ResetCountsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, logger, http.StatusOK, CountsResponse{
			Counts:       manager.Reset(),
			LinePosition: manager.LinePosition(),
		})
	}
}
