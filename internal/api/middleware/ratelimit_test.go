package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	middleware := NewRateLimitMiddleware(1, 1, false)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Without the limiter active every request passes.
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("GET", "/api/v1/fill", nil)
		rr := httptest.NewRecorder()
		middleware.Handler(handler).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, rr.Code, http.StatusOK)
		}
	}
}

func TestRateLimitMiddleware_BurstExhaustion(t *testing.T) {
	middleware := NewRateLimitMiddleware(60, 3, true)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// The burst allows the first three requests through.
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/v1/fill", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		middleware.Handler(handler).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, rr.Code, http.StatusOK)
		}
		if limit := rr.Header().Get("X-RateLimit-Limit"); limit != "60" {
			t.Errorf("X-RateLimit-Limit = %s, want 60", limit)
		}
	}

	// The fourth exceeds the burst.
	req := httptest.NewRequest("GET", "/api/v1/fill", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	middleware.Handler(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
	if retry := rr.Header().Get("Retry-After"); retry != "60" {
		t.Errorf("Retry-After = %s, want 60", retry)
	}
}

func TestRateLimitMiddleware_PerClientIsolation(t *testing.T) {
	middleware := NewRateLimitMiddleware(60, 1, true)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(forwardedFor string) int {
		req := httptest.NewRequest("GET", "/api/v1/fill", nil)
		req.Header.Set("X-Forwarded-For", forwardedFor)
		rr := httptest.NewRecorder()
		middleware.Handler(handler).ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send("10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first client: status = %d, want %d", code, http.StatusOK)
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("first client second request: status = %d, want %d", code, http.StatusTooManyRequests)
	}

	// A different client has its own bucket.
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Fatalf("second client: status = %d, want %d", code, http.StatusOK)
	}
}

func TestRateLimitMiddleware_HealthExempt(t *testing.T) {
	middleware := NewRateLimitMiddleware(60, 1, true)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		middleware.Handler(handler).ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("health request %d: status = %d, want %d", i+1, rr.Code, http.StatusOK)
		}
	}
}

func TestGetRateLimitKey(t *testing.T) {
	m := NewRateLimitMiddleware(60, 1, true)

	tests := []struct {
		name         string
		forwardedFor string
		realIP       string
		remoteAddr   string
		want         string
	}{
		{
			name:         "X-Forwarded-For preferred",
			forwardedFor: "1.2.3.4",
			realIP:       "5.6.7.8",
			remoteAddr:   "9.9.9.9:1234",
			want:         "ip:1.2.3.4",
		},
		{
			name:       "X-Real-IP fallback",
			realIP:     "5.6.7.8",
			remoteAddr: "9.9.9.9:1234",
			want:       "ip:5.6.7.8",
		},
		{
			name:       "RemoteAddr fallback",
			remoteAddr: "9.9.9.9:1234",
			want:       "ip:9.9.9.9:1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.forwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.forwardedFor)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			req.RemoteAddr = tt.remoteAddr

			if got := m.getRateLimitKey(req); got != tt.want {
				t.Errorf("getRateLimitKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
