package middleware

import (
	"net/http"
	"strings"

	"imageproxy/config"
)

// APIKeyAuthMiddleware protects API routes with a bearer API key. When no key
// is configured the gate is disabled and every request passes through, so the
// browser frontend can call the proxy without credentials.
func APIKeyAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := config.AppConfig.APIKeys.ImageProxy
		if apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			http.Error(w, "Invalid Authorization header format. Expected 'Bearer <api_key>'", http.StatusUnauthorized)
			return
		}

		if parts[1] != apiKey {
			http.Error(w, "Invalid API Key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
