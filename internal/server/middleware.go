// internal/server/middleware.go
package server

import (
	"net/http"

	"kyc-verifier/internal/common/errors"
	"kyc-verifier/internal/common/logger"
)

// RequireAPIKey guards the API tree with a shared X-API-Key header. An
// unconfigured key is a server fault, not an open door.
func RequireAPIKey(apiKey string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				log.Error("api key authentication is not configured", nil)
				writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
					"error": "API authentication is not configured on the server",
				})
				return
			}
			if r.Header.Get("X-API-Key") != apiKey {
				log.Warn("rejected request with missing or invalid api key", map[string]interface{}{
					"path": r.URL.Path,
				})
				writeError(w, errors.NewAuthenticationError("invalid or missing API key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
