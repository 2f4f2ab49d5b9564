package route

import (
	"net/http"
	"os"
	"path/filepath"

	"partcounter/internal/config"
	"partcounter/internal/handler"
	"partcounter/internal/logger"
	"partcounter/internal/middleware"
	"partcounter/internal/repository"
	"partcounter/internal/service"
	"partcounter/internal/service/metrics"
)

// StaticDir holds the web UI.
var StaticDir = "static"

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join(StaticDir, filepath.Clean("/"+path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving, API endpoints,
// and wraps the mux with the authentication middleware.
func SetupRoutes(manager *service.Manager, cfg *config.Config, logger *logger.Logger,
	crossingRepo repository.CrossingRepository, parts handler.PartTable, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(StaticDir))))

	// Tracker ingest
	mux.HandleFunc("/api/detections", handler.DetectionsHandler(manager, logger))
	mux.HandleFunc("/api/tracker", handler.TrackerWebsocketHandler(manager, logger))

	// Counting session
	mux.HandleFunc("/api/counts", handler.CountsHandler(manager, logger))
	mux.HandleFunc("/api/counts/reset", handler.ResetCountsHandler(manager, logger))
	mux.HandleFunc("/api/crossings", handler.CrossingsHandler(crossingRepo, logger))
	mux.HandleFunc("/api/bom/reload", handler.ReloadBOMHandler(parts, logger))

	// Live view
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(manager, logger))

	mux.Handle("/metrics", m.Handler())

	// Log endpoints
	for _, name := range []string{"info", "warning", "error"} {
		file := name + ".log"
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(logger, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(logger, file))
	}

	// Auth endpoints
	mux.HandleFunc("/auth/login", handler.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /settings -> /static/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	return middleware.AuthMiddleware(mux)
}
