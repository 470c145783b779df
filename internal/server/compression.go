// compression.go - HTTP compression middleware.
//
// Gzips text responses (JSON, the upload page) for clients that accept it.
// Upload bodies and the Prometheus endpoint are left alone.
package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

// compressionResponseWriter wraps http.ResponseWriter to compress responses.
type compressionResponseWriter struct {
	http.ResponseWriter
	writer io.Writer
}

func (crw *compressionResponseWriter) Write(b []byte) (int, error) {
	return crw.writer.Write(b)
}

// compressionMiddleware returns middleware that gzips HTTP responses.
func compressionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !acceptsGzip(r) || shouldSkipCompression(r) {
			next.ServeHTTP(w, r)
			return
		}

		gz := gzip.NewWriter(w)
		defer gz.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length") // length changes with compression

		next.ServeHTTP(&compressionResponseWriter{ResponseWriter: w, writer: gz}, r)
	})
}

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}

func shouldSkipCompression(r *http.Request) bool {
	// promhttp negotiates its own encoding.
	if r.URL.Path == "/metrics" {
		return true
	}
	// Upload responses are tiny; the request body is the big part.
	if r.URL.Path == "/upload" && r.Method == http.MethodPost {
		return true
	}
	return false
}
