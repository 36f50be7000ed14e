// Package fill is the orchestrator: it sequences collection,
// classification, the standard/education/custom handlers, and AI
// escalation over one live page, and aggregates the pass summary.
package fill

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/applyforge/applyforge/internal/collector"
	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/engine"
	"github.com/applyforge/applyforge/internal/escalation"
	"github.com/applyforge/applyforge/internal/match"
	"github.com/applyforge/applyforge/internal/observability"
	"github.com/applyforge/applyforge/internal/siteprofile"
	"github.com/applyforge/applyforge/internal/storage"
)

// Options is the per-pass options bag accepted by the bridge.
type Options struct {
	// Site selects the site-profile parameterization; empty means
	// "generic".
	Site string `json:"site,omitempty"`

	// AnswerOverrides are pre-resolved escalation answers, used by
	// two-phase flows: collect questions, answer them externally, then
	// fill with the answers supplied here. Overrides are consulted
	// before the answering model.
	AnswerOverrides []domain.AIAnswer `json:"answer_overrides,omitempty"`

	// EscalationAPIKey lets the caller supply its own answering-model
	// credential for this pass. Empty means the process-wide client.
	EscalationAPIKey string `json:"escalation_api_key,omitempty"`

	// EscalationModel overrides the answering model for this pass.
	// Only honored together with EscalationAPIKey.
	EscalationModel string `json:"escalation_model,omitempty"`
}

// Session is the per-pass context object: everything a single fill
// pass needs, constructed fresh for each pass. Sessions hold no global
// state; independent sessions over different pages are safe to run
// concurrently.
type Session struct {
	id      uuid.UUID
	page    playwright.Page
	sp      *siteprofile.Profile
	profile *domain.Profile

	registry *match.Registry
	eduReg   *match.Registry
	defs     []Definition

	eng       *engine.Engine
	collector *collector.Collector
	router    *escalation.Router

	overrides []domain.AIAnswer

	// Escalation transcript for the audit trail, appended as the
	// custom handler resolves questions.
	escQuestions []domain.AIQuestion
	escAnswers   []domain.AIAnswer

	// Page as it looked before the first commit, captured only when
	// auditing is on.
	initialShot []byte

	audit   *storage.AuditStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewSession builds the session for one pass over one page.
func NewSession(page playwright.Page, profile *domain.Profile, router *escalation.Router, audit *storage.AuditStore, metrics *observability.Metrics, logger *zap.Logger, opts Options) (*Session, error) {
	if page == nil {
		return nil, fmt.Errorf("page is required")
	}
	if profile == nil {
		return nil, fmt.Errorf("profile is required")
	}
	sp, err := siteprofile.Lookup(opts.Site)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.GetMetrics()
	}

	id := uuid.New()
	logger = logger.With(zap.String("pass_id", id.String()), zap.String("site", sp.Name))

	registry := match.NewRegistry(sp)
	eng := engine.New(page, sp, engine.DefaultDelays(), logger)

	return &Session{
		id:        id,
		page:      page,
		sp:        sp,
		profile:   profile,
		registry:  registry,
		eduReg:    match.NewEducationRegistry(),
		defs:      DefaultDefinitions(),
		eng:       eng,
		collector: collector.New(page, sp, registry, eng, logger),
		router:    router,
		overrides: opts.AnswerOverrides,
		audit:     audit,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// ID returns the pass identity.
func (s *Session) ID() uuid.UUID {
	return s.id
}
