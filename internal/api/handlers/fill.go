package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/applyforge/applyforge/internal/browser"
	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/escalation"
	"github.com/applyforge/applyforge/internal/fill"
	"github.com/applyforge/applyforge/internal/observability"
	"github.com/applyforge/applyforge/internal/storage"
	"github.com/applyforge/applyforge/pkg/httputil"
)

// FillHandler runs fill passes over live pages
type FillHandler struct {
	runner  *browser.Runner
	router  *escalation.Router
	cache   *escalation.AnswerCache
	audit   *storage.AuditStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewFillHandler creates a new fill handler
func NewFillHandler(runner *browser.Runner, router *escalation.Router, cache *escalation.AnswerCache, audit *storage.AuditStore, metrics *observability.Metrics, logger *zap.Logger) *FillHandler {
	return &FillHandler{
		runner:  runner,
		router:  router,
		cache:   cache,
		audit:   audit,
		metrics: metrics,
		logger:  logger,
	}
}

// routerFor picks the escalation router for one request: a per-request
// credential builds a dedicated client, otherwise the process-wide
// router is used.
func (h *FillHandler) routerFor(opts fill.Options) *escalation.Router {
	if opts.EscalationAPIKey == "" {
		return h.router
	}
	cfg := escalation.DefaultClientConfig()
	cfg.APIKey = opts.EscalationAPIKey
	if opts.EscalationModel != "" {
		cfg.Model = opts.EscalationModel
	}
	client, err := escalation.NewClient(cfg)
	if err != nil {
		h.logger.Warn("per-request escalation client rejected, using default", zap.Error(err))
		return h.router
	}
	return escalation.NewRouter(client, h.cache, h.logger)
}

// FillRequest is the request body for both pass endpoints
type FillRequest struct {
	URL     string          `json:"url"`
	Profile *domain.Profile `json:"profile"`
	Options fill.Options    `json:"options"`
}

func (req *FillRequest) validate() error {
	if req.URL == "" {
		return domain.ErrValidation("url is required")
	}
	u, err := url.Parse(req.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return domain.ErrValidation("url must be absolute")
	}
	if req.Profile == nil {
		return domain.ErrValidation("profile is required")
	}
	return nil
}

// Fill handles POST /api/v1/fill. The response body is the pass result
// in its wire format: a success summary, a redirect object, or an error
// object. The pass ran either way, so the status is always 200; only
// request decoding failures map to 4xx.
func (h *FillHandler) Fill(w http.ResponseWriter, r *http.Request) {
	var req FillRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if err := req.validate(); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	start := time.Now()

	page, cleanup, err := h.runner.OpenPage(req.URL)
	if err != nil {
		h.logger.Error("Failed to open page", zap.String("url", req.URL), zap.Error(err))
		writeResult(w, domain.Failed(domain.ErrBrowserFailed("opening page", err)))
		return
	}
	defer cleanup()

	session, err := fill.NewSession(page, req.Profile, h.routerFor(req.Options), h.audit, h.metrics, h.logger, req.Options)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	w.Header().Set("X-Pass-ID", session.ID().String())

	result := session.Run(r.Context())

	h.logger.Info("Fill pass finished",
		zap.String("pass_id", session.ID().String()),
		zap.String("kind", string(result.Kind)),
		zap.Duration("duration", time.Since(start)),
	)

	writeResult(w, result)
}

// QuestionsResponse is the response body for the question-collection
// endpoint
type QuestionsResponse struct {
	PassID    string              `json:"pass_id"`
	Questions []domain.AIQuestion `json:"questions"`
}

// Questions handles POST /api/v1/questions. It collects the fields
// that would escalate to the answering model without filling anything,
// so a caller can resolve them out of band and re-run the fill with
// answer overrides.
func (h *FillHandler) Questions(w http.ResponseWriter, r *http.Request) {
	var req FillRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	if err := req.validate(); err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}

	page, cleanup, err := h.runner.OpenPage(req.URL)
	if err != nil {
		h.logger.Error("Failed to open page", zap.String("url", req.URL), zap.Error(err))
		writeResult(w, domain.Failed(domain.ErrBrowserFailed("opening page", err)))
		return
	}
	defer cleanup()

	session, err := fill.NewSession(page, req.Profile, h.routerFor(req.Options), h.audit, h.metrics, h.logger, req.Options)
	if err != nil {
		httputil.ErrorFromDomain(w, err)
		return
	}
	w.Header().Set("X-Pass-ID", session.ID().String())

	questions, err := session.CollectQuestions(r.Context())
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) && appErr.Code == domain.ErrCodeRedirect {
			if u, ok := appErr.Metadata["url"].(string); ok {
				writeResult(w, domain.Redirected(u))
				return
			}
		}
		httputil.ErrorFromDomain(w, err)
		return
	}

	if questions == nil {
		questions = []domain.AIQuestion{}
	}

	httputil.JSON(w, http.StatusOK, QuestionsResponse{
		PassID:    session.ID().String(),
		Questions: questions,
	})
}

// Artifact is one stored pass artifact with a time-limited download
// link
type Artifact struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ArtifactsResponse is the response body for artifact listing
type ArtifactsResponse struct {
	PassID    string     `json:"pass_id"`
	Artifacts []Artifact `json:"artifacts"`
}

// Artifacts handles GET /api/v1/passes/{passID}/artifacts. It lists
// the audit objects stored for a pass and presigns a download link for
// each.
func (h *FillHandler) Artifacts(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		httputil.ErrorFromDomain(w, domain.NewError(domain.ErrCodeInternal, "audit storage not configured", http.StatusServiceUnavailable))
		return
	}

	passID, err := uuid.Parse(chi.URLParam(r, "passID"))
	if err != nil {
		httputil.ErrorFromDomain(w, domain.ErrValidation("pass id must be a UUID"))
		return
	}

	keys, err := h.audit.ListPassArtifacts(r.Context(), passID)
	if err != nil {
		h.logger.Error("Artifact listing failed", zap.String("pass_id", passID.String()), zap.Error(err))
		httputil.ErrorFromDomain(w, domain.ErrInternal("listing artifacts").WithCause(err))
		return
	}

	artifacts := make([]Artifact, 0, len(keys))
	for _, key := range keys {
		url, err := h.audit.GetPresignedURL(r.Context(), key)
		if err != nil {
			h.logger.Warn("Presigning artifact failed", zap.String("key", key), zap.Error(err))
			continue
		}
		artifacts = append(artifacts, Artifact{Key: key, URL: url})
	}

	httputil.JSON(w, http.StatusOK, ArtifactsResponse{
		PassID:    passID.String(),
		Artifacts: artifacts,
	})
}

// InvalidateAnswers handles DELETE /api/v1/answers. Callers hit it
// after changing an applicant profile so stale cached answers are not
// replayed into new passes.
func (h *FillHandler) InvalidateAnswers(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("Answer cache invalidation failed", zap.Error(err))
		httputil.ErrorFromDomain(w, domain.ErrInternal("invalidating answer cache").WithCause(err))
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// writeResult writes the pass result in the bridge wire format,
// unwrapped
func writeResult(w http.ResponseWriter, result domain.PassResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}
