package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/applyforge/applyforge/internal/api/handlers"
	"github.com/applyforge/applyforge/internal/api/middleware"
	"github.com/applyforge/applyforge/internal/browser"
	"github.com/applyforge/applyforge/internal/escalation"
	"github.com/applyforge/applyforge/internal/observability"
	"github.com/applyforge/applyforge/internal/storage"
	"github.com/applyforge/applyforge/pkg/httputil"
)

// Router holds the HTTP router and its dependencies
type Router struct {
	chi.Router
	logger *zap.Logger
}

// RouterConfig contains configuration for the router
type RouterConfig struct {
	Runner      *browser.Runner
	Escalation  *escalation.Router
	Cache       *escalation.AnswerCache
	Audit       *storage.AuditStore
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	APIKey      string
	EnableCORS  bool
	RateLimit   int
	Burst       int
	Development bool
}

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Base middleware stack. A fill pass drives a real browser, so the
	// request timeout is generous.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware(cfg.Logger).Handler)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Handler)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.HTTPMiddleware)
	}
	r.Use(chimw.Timeout(5 * time.Minute))

	// CORS configuration
	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	if cfg.RateLimit > 0 {
		r.Use(middleware.NewRateLimitMiddleware(cfg.RateLimit, cfg.Burst, true).Handler)
	}

	// Health and metrics endpoints (no auth required)
	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(cfg.Runner, cfg.Cache, cfg.Escalation))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(cfg.APIKey, middleware.WithDevMode(cfg.Development)).Handler)

		fillHandler := handlers.NewFillHandler(cfg.Runner, cfg.Escalation, cfg.Cache, cfg.Audit, cfg.Metrics, cfg.Logger)

		r.Post("/fill", fillHandler.Fill)
		r.Post("/questions", fillHandler.Questions)
		r.Get("/passes/{passID}/artifacts", fillHandler.Artifacts)
		r.Delete("/answers", fillHandler.InvalidateAnswers)
	})

	return &Router{
		Router: r,
		logger: cfg.Logger,
	}
}

// healthHandler returns basic health status
func healthHandler(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "applyforge-api",
	})
}

// readyHandler checks if all dependencies are ready
func readyHandler(runner *browser.Runner, cache *escalation.AnswerCache, esc *escalation.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]string)
		allHealthy := true

		if runner != nil {
			checks["browser"] = "healthy"
		} else {
			checks["browser"] = "not configured"
			allHealthy = false
		}

		if cache != nil {
			if err := cache.Health(r.Context()); err != nil {
				checks["redis"] = "unhealthy: " + err.Error()
				allHealthy = false
			} else {
				checks["redis"] = "healthy"
			}
		} else {
			checks["redis"] = "not configured"
		}

		if esc != nil && esc.Enabled() {
			checks["escalation"] = "healthy"
		} else {
			checks["escalation"] = "not configured"
		}

		status := http.StatusOK
		statusText := "ready"
		if !allHealthy {
			status = http.StatusServiceUnavailable
			statusText = "not ready"
		}

		httputil.JSON(w, status, map[string]any{
			"status": statusText,
			"checks": checks,
		})
	}
}
