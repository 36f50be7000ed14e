package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/applyforge/applyforge/internal/domain"
)

// AuthMiddleware handles API key authentication. The key is a single
// shared secret from configuration; there is no per-client identity.
type AuthMiddleware struct {
	header  string
	apiKey  string
	devMode bool
}

// AuthMiddlewareOption is a functional option for AuthMiddleware
type AuthMiddlewareOption func(*AuthMiddleware)

// WithHeader overrides the header the key is read from
func WithHeader(header string) AuthMiddlewareOption {
	return func(m *AuthMiddleware) {
		m.header = header
	}
}

// WithDevMode enables development mode
func WithDevMode(enabled bool) AuthMiddlewareOption {
	return func(m *AuthMiddleware) {
		m.devMode = enabled
	}
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(apiKey string, opts ...AuthMiddlewareOption) *AuthMiddleware {
	m := &AuthMiddleware{
		header: "X-API-Key",
		apiKey: apiKey,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// writeUnauthorized writes the auth-failure response, built from the
// domain error so code and status stay consistent with the handlers.
func writeUnauthorized(w http.ResponseWriter, message string) {
	appErr := domain.ErrUnauthorized(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error": map[string]string{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

// Handler returns the middleware handler
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth for health checks and public endpoints
		if m.isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		// No key configured: open access in dev, closed anywhere else.
		if m.apiKey == "" {
			if m.devMode {
				next.ServeHTTP(w, r)
				return
			}
			writeUnauthorized(w, "API key required")
			return
		}

		apiKey := m.extractAPIKey(r)
		if apiKey == "" {
			writeUnauthorized(w, "API key required")
			return
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(m.apiKey)) != 1 {
			writeUnauthorized(w, "API key not recognized")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isPublicPath checks if the path should skip authentication
func (m *AuthMiddleware) isPublicPath(path string) bool {
	publicPaths := []string{
		"/health",
		"/ready",
		"/metrics",
	}
	for _, p := range publicPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// extractAPIKey extracts the API key from request headers
func (m *AuthMiddleware) extractAPIKey(r *http.Request) string {
	apiKey := r.Header.Get(m.header)
	if apiKey != "" {
		return apiKey
	}

	// Try Authorization header with Bearer token
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	return ""
}
