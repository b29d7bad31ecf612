package middleware

import (
	"net/http"

	"imageproxy/config"
)

// CORSMiddleware sets the cross-origin headers on every response and
// short-circuits browser preflight requests. Exactly one caller origin is
// trusted; the allowed origin is never a wildcard.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", config.AppConfig.Settings.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
