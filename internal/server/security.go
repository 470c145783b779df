// security.go - Response security headers.
package server

import "net/http"

// securityHeadersMiddleware adds baseline security headers to all responses.
// Framing must stay allowed: the dashboard embeds GET /upload in an iframe
// from another origin.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Don't leak URLs
		w.Header().Set("Referrer-Policy", "no-referrer")

		// 'unsafe-inline' is needed by the embedded upload page's script
		// and styles; frame-ancestors stays open for the dashboard iframe.
		csp := "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"connect-src 'self'; " +
			"frame-ancestors *"
		w.Header().Set("Content-Security-Policy", csp)

		// Disable unused browser features
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		next.ServeHTTP(w, r)
	})
}
