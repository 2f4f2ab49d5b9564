package handler

import (
	"net/http"
	"strconv"
	"time"

	"partcounter/internal/logger"
	"partcounter/internal/model"
	"partcounter/internal/repository"
)

// CrossingsData is a paginated list of persisted crossings.
type CrossingsData struct {
	Crossings   []model.CrossingRecord `json:"crossings"`
	PerLine     map[string]int         `json:"perLine"`
	Length      int                    `json:"length"`
	TotalPages  int                    `json:"totalPages"`
	CurrentPage int                    `json:"currentPage"`
	Limit       int                    `json:"pageSize"`
}

// CrossingsHandler serves /api/crossings. GET lists persisted crossings with
// line, class, dateAfter, dateBefore, page and limit query parameters; DELETE
// clears the crossing history.
func CrossingsHandler(crossingRepo repository.CrossingRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listCrossings(w, r, crossingRepo, logger)
		case http.MethodDelete:
			if err := crossingRepo.DeleteAll(); err != nil {
				logger.Error("Error deleting crossings: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			logger.Warning("Crossing history deleted by %s", r.RemoteAddr)
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func listCrossings(w http.ResponseWriter, r *http.Request, crossingRepo repository.CrossingRepository, logger *logger.Logger) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	limit := atoiDefault(q.Get("limit"), 50)

	filter := &model.CrossingFilter{
		Line:      q.Get("line"),
		ClassName: q.Get("class"),
		StartDate: parseDate(q.Get("dateAfter")),
		EndDate:   parseDate(q.Get("dateBefore")),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}

	crossings, err := crossingRepo.GetAll(filter)
	if err != nil {
		logger.Error("Error querying crossings from database: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	totalCount, err := crossingRepo.GetTotalCount(filter)
	if err != nil {
		logger.Error("Error counting crossings: %v", err)
		totalCount = len(crossings)
	}

	perLine, err := crossingRepo.CountByLine(filter)
	if err != nil {
		logger.Error("Error counting crossings per line: %v", err)
		perLine = map[string]int{}
	}

	if crossings == nil {
		crossings = []model.CrossingRecord{}
	}

	writeJSON(w, logger, http.StatusOK, CrossingsData{
		Crossings:   crossings,
		PerLine:     perLine,
		Length:      totalCount,
		TotalPages:  (totalCount + limit - 1) / limit,
		CurrentPage: page,
		Limit:       limit,
	})
}

// atoiDefault parses a positive integer, returning def otherwise.
func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}

// parseDate parses YYYY-MM-DD, returning the zero time when empty or invalid.
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(model.DayLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
