// server.go - HTTP surface and middleware chain.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// handler builds the full HTTP handler:
// requestID -> logging -> security headers -> CORS -> throttle -> gzip -> mux.
func (s *Service) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "File Upload Server is running",
		})
	})

	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleUploadPage(w, r)
		case http.MethodPost:
			s.handleUpload(w, r)
		default:
			w.Header().Set("Allow", "GET, POST")
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})

	mux.HandleFunc("/files", s.handleListFiles)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	var h http.Handler = mux
	h = compressionMiddleware(h)
	if s.throttle != nil {
		h = s.throttle.middleware(h)
	}
	h = corsMiddleware(s.cfg.AllowedOrigins)(h)
	h = securityHeadersMiddleware(h)
	h = loggingMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}
