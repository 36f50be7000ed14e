package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware_Handler(t *testing.T) {
	const configuredKey = "af_abcdefghij123456"

	tests := []struct {
		name       string
		path       string
		configKey  string
		apiKey     string
		authHeader string
		devMode    bool
		wantStatus int
	}{
		{
			name:       "health endpoint bypasses auth",
			path:       "/health",
			configKey:  configuredKey,
			wantStatus: http.StatusOK,
		},
		{
			name:       "ready endpoint bypasses auth",
			path:       "/ready",
			configKey:  configuredKey,
			wantStatus: http.StatusOK,
		},
		{
			name:       "metrics endpoint bypasses auth",
			path:       "/metrics",
			configKey:  configuredKey,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing API key returns 401",
			path:       "/api/v1/fill",
			configKey:  configuredKey,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid API key in X-API-Key header",
			path:       "/api/v1/fill",
			configKey:  configuredKey,
			apiKey:     configuredKey,
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid API key in Authorization header",
			path:       "/api/v1/fill",
			configKey:  configuredKey,
			authHeader: "Bearer " + configuredKey,
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong API key returns 401",
			path:       "/api/v1/fill",
			configKey:  configuredKey,
			apiKey:     "af_totallydifferent",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no key configured in dev mode allows access",
			path:       "/api/v1/fill",
			devMode:    true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "no key configured outside dev mode denies access",
			path:       "/api/v1/fill",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			middleware := NewAuthMiddleware(tt.configKey, WithDevMode(tt.devMode))

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rr := httptest.NewRecorder()
			middleware.Handler(handler).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestAuthMiddleware_CustomHeader(t *testing.T) {
	middleware := NewAuthMiddleware("secret", WithHeader("X-Custom-Key"))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/v1/fill", nil)
	req.Header.Set("X-Custom-Key", "secret")

	rr := httptest.NewRecorder()
	middleware.Handler(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	// The default header must not be honored once overridden.
	req2 := httptest.NewRequest("GET", "/api/v1/fill", nil)
	req2.Header.Set("X-API-Key", "secret")

	rr2 := httptest.NewRecorder()
	middleware.Handler(handler).ServeHTTP(rr2, req2)

	if rr2.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr2.Code, http.StatusUnauthorized)
	}
}

func TestExtractAPIKey(t *testing.T) {
	m := NewAuthMiddleware("secret")

	tests := []struct {
		name       string
		apiKey     string
		authHeader string
		wantKey    string
	}{
		{
			name:    "X-API-Key header",
			apiKey:  "af_abcdef",
			wantKey: "af_abcdef",
		},
		{
			name:       "Bearer token in Authorization header",
			authHeader: "Bearer af_ghijkl",
			wantKey:    "af_ghijkl",
		},
		{
			name:       "X-API-Key takes precedence over Authorization",
			apiKey:     "af_abcdef",
			authHeader: "Bearer af_ghijkl",
			wantKey:    "af_abcdef",
		},
		{
			name:    "no API key",
			wantKey: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			got := m.extractAPIKey(req)
			if got != tt.wantKey {
				t.Errorf("extractAPIKey() = %q, want %q", got, tt.wantKey)
			}
		})
	}
}

func TestIsPublicPath(t *testing.T) {
	m := NewAuthMiddleware("secret")

	tests := []struct {
		path   string
		public bool
	}{
		{"/health", true},
		{"/ready", true},
		{"/metrics", true},
		{"/api/v1/fill", false},
		{"/api/v1/questions", false},
		{"/healthcheck", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := m.isPublicPath(tt.path)
			if got != tt.public {
				t.Errorf("isPublicPath(%q) = %v, want %v", tt.path, got, tt.public)
			}
		})
	}
}
