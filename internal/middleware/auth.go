package middleware

import (
	"net/http"
	"strings"
)

// publicPaths are reachable without logging in: the login page and the
// machine-facing ingest and metrics endpoints.
var publicPaths = map[string]bool{
	"/login":          true,
	"/auth/login":     true,
	"/api/detections": true,
	"/api/tracker":    true,
	"/metrics":        true,
}

// AuthMiddleware checks that the user is logged in (cookie 'authenticated=true').
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] ||
			strings.HasPrefix(r.URL.Path, "/static/css/") ||
			strings.HasPrefix(r.URL.Path, "/static/js/") {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie("authenticated")
		if err != nil || cookie.Value != "true" {
			// API callers get a 401, browsers a redirect to the login page.
			if strings.HasPrefix(r.URL.Path, "/api/") ||
				r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
