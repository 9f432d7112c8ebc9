package http

import (
	"net/http"
	"strings"
)

// apiCSP locks everything down: the API returns JSON only, nothing it
// serves should load subresources or be embeddable.
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

// swaggerCSP relaxes the policy for the Swagger UI, which renders inline
// scripts, inline styles, and data-URI images.
const swaggerCSP = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"

// SecurityHeaders sets response headers for a JSON API
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if strings.HasPrefix(r.URL.Path, "/swagger/") {
			h.Set("Content-Security-Policy", swaggerCSP)
		} else {
			h.Set("Content-Security-Policy", apiCSP)
		}

		next.ServeHTTP(w, r)
	})
}
