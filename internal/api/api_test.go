package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/applyforge/applyforge/pkg/httputil"
)

// setupTestRouter builds a router without a browser or escalation
// backend. Request decoding, auth, and the health surface are all
// exercisable before any dependency is touched.
func setupTestRouter(apiKey string, development bool) *Router {
	return NewRouter(RouterConfig{
		Logger:      zap.NewNop(),
		APIKey:      apiKey,
		Development: development,
	})
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestRouter("", true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp httputil.Response
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, "applyforge-api", data["service"])
}

func TestReadyEndpoint_NoBrowser(t *testing.T) {
	router := setupTestRouter("", true)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	// Without a launched browser the service is not ready.
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp httputil.Response
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.False(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "not ready", data["status"])

	checks := data["checks"].(map[string]interface{})
	assert.Equal(t, "not configured", checks["browser"])
	assert.Equal(t, "not configured", checks["redis"])
	assert.Equal(t, "not configured", checks["escalation"])
}

func TestFillEndpoint_RequiresAuth(t *testing.T) {
	router := setupTestRouter("af_secret", false)

	body := `{"url": "https://jobs.example.com/apply", "profile": {"first_name": "Ada"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/fill", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFillEndpoint_RejectsBadRequest(t *testing.T) {
	router := setupTestRouter("", true)

	tests := []struct {
		name string
		body string
	}{
		{
			name: "not JSON",
			body: "not json at all",
		},
		{
			name: "missing url",
			body: `{"profile": {"first_name": "Ada"}}`,
		},
		{
			name: "missing profile",
			body: `{"url": "https://jobs.example.com/apply"}`,
		},
		{
			name: "unknown field",
			body: `{"url": "https://jobs.example.com/apply", "profile": {}, "bogus": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/fill", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp httputil.Response
			err := json.Unmarshal(rec.Body.Bytes(), &resp)
			require.NoError(t, err)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		})
	}
}

func TestQuestionsEndpoint_RejectsBadRequest(t *testing.T) {
	router := setupTestRouter("", true)

	body := `{"url": "", "profile": {}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/questions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFillEndpoint_MethodNotAllowed(t *testing.T) {
	router := setupTestRouter("", true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fill", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	router := setupTestRouter("", true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
