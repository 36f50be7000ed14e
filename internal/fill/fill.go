package fill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/applyforge/applyforge/internal/collector"
	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/engine"
	"github.com/applyforge/applyforge/internal/match"
	"github.com/applyforge/applyforge/internal/storage"
)

// Run executes one complete fill pass and returns its discriminated
// result. Per-field failures are counted, never raised; the only early
// exits are the structural redirect signal and a collection failure.
func (s *Session) Run(ctx context.Context) domain.PassResult {
	start := time.Now()

	if url, ok := s.collector.DetectRedirect(); ok {
		s.logger.Info("pass redirected", zap.String("url", url))
		s.metrics.RecordPass(s.sp.Name, "redirect", 0, time.Since(start))
		return domain.Redirected(url)
	}

	s.captureInitial()

	fields, err := s.collector.Collect(ctx)
	if err != nil {
		s.metrics.RecordPass(s.sp.Name, "error", 0, time.Since(start))
		return domain.Failed(domain.ErrCollectionFailed("reading form controls", err))
	}

	standard, education, custom := partition(fields)

	var summary domain.Summary

	stdSummary, rerouted := s.fillStandard(ctx, standard)
	summary.Add(stdSummary)

	eduSummary, eduRerouted := s.fillEducation(ctx, education)
	summary.Add(eduSummary)

	custom = append(custom, rerouted...)
	custom = append(custom, eduRerouted...)
	summary.Add(s.fillCustom(ctx, custom))

	s.logger.Info("pass complete",
		zap.Int("filled", summary.Filled),
		zap.Int("total", summary.Total),
		zap.Int("unmatched", summary.Unmatched),
		zap.Int("ai_handled", summary.AIQuestionsHandled),
		zap.Duration("elapsed", time.Since(start)),
	)
	s.metrics.RecordPass(s.sp.Name, "completed", len(fields), time.Since(start))
	s.recordAudit(ctx, summary)

	return domain.Completed(summary)
}

// CollectQuestions runs collection and resolution without committing
// any value, returning the questions a fill pass would escalate. Used
// to pre-fetch answers before a real pass.
func (s *Session) CollectQuestions(ctx context.Context) ([]domain.AIQuestion, error) {
	if url, ok := s.collector.DetectRedirect(); ok {
		return nil, domain.ErrRedirect(url)
	}

	fields, err := s.collector.Collect(ctx)
	if err != nil {
		return nil, domain.ErrCollectionFailed("reading form controls", err)
	}

	var questions []domain.AIQuestion
	for _, f := range fields {
		if s.resolvesLocally(f) {
			continue
		}
		questions = append(questions, buildQuestion(f))
	}
	return questions, nil
}

// resolvesLocally reports whether a field would be filled without
// escalation: a matcher value that validates, a pre-written profile
// answer, or a preset definition.
func (s *Session) resolvesLocally(f *collector.FormField) bool {
	switch f.Bucket {
	case domain.BucketStandard:
		value, ok := s.resolveStandard(f)
		return ok && s.validates(f, value)
	case domain.BucketEducation:
		value, ok := s.resolveEducation(f)
		return ok && s.validates(f, value)
	default:
		if answer := s.profile.AnswerFor(f.Label); answer != "" && s.validates(f, answer) {
			return true
		}
		_, ok := ResolveDefinition(s.defs, f.Label, f.Type)
		return ok
	}
}

// partition splits collected fields by bucket, preserving document
// order within each bucket.
func partition(fields []*collector.FormField) (standard, education, custom []*collector.FormField) {
	for _, f := range fields {
		switch f.Bucket {
		case domain.BucketStandard:
			standard = append(standard, f)
		case domain.BucketEducation:
			education = append(education, f)
		default:
			custom = append(custom, f)
		}
	}
	return standard, education, custom
}

func buildQuestion(f *collector.FormField) domain.AIQuestion {
	return domain.AIQuestion{
		ID:       f.ID,
		Type:     f.Type,
		Label:    f.Label,
		Required: f.Required,
		Options:  f.Options,
	}
}

// validates reports whether a target can be committed into a field
// without speculation: text fields take anything, select-like fields
// need the target confirmed in the option set (index tokens are
// confirmed at commit time, and an undiscovered option set defers
// validation to the live menu).
func (s *Session) validates(f *collector.FormField, target string) bool {
	if !f.Type.SelectLike() || len(f.Options) == 0 {
		return true
	}
	if _, ok := match.ParseIndexToken(target); ok {
		return true
	}
	if match.ParseIndexList(target) != nil {
		return true
	}
	if f.Type == domain.FieldTypeVirtualMulti {
		for _, item := range match.SplitMulti(target) {
			if match.ValidateTarget(f.Options, item) {
				return true
			}
		}
		return false
	}
	return match.ValidateTarget(f.Options, target)
}

// apply commits a target into a field through the protocol its type
// demands.
func (s *Session) apply(f *collector.FormField, target string) error {
	var err error
	switch f.Type {
	case domain.FieldTypeText, domain.FieldTypeTextarea:
		err = s.eng.FillText(f.Element, target)
	case domain.FieldTypeNativeSelect:
		_, err = s.eng.SelectNative(f.Element, target)
	case domain.FieldTypeVirtual:
		_, err = s.eng.SelectVirtualSingle(f.Element, target)
	case domain.FieldTypeVirtualMulti:
		_, err = s.eng.SelectVirtualMulti(f.Element, target)
	case domain.FieldTypeCheckbox:
		if len(f.Group) > 0 {
			err = s.eng.ApplyCheckboxGroup(f.GroupElements(), target)
		} else {
			err = s.eng.ToggleCheckbox(f.Element, target)
		}
	case domain.FieldTypeRadio:
		buttons, labels := f.GroupElements(), f.Options
		if len(buttons) == 0 {
			// Nameless lone radio: no group was assembled, commit the
			// control itself.
			buttons, labels = []playwright.Locator{f.Element}, []string{f.Label}
		}
		err = s.eng.SelectRadio(buttons, labels, target)
	default:
		err = fmt.Errorf("no protocol for field type %q", f.Type)
	}

	if err != nil {
		// Stamp the field identity onto engine-level outcomes so logs
		// and counters can name the field.
		var fe *domain.FieldError
		if errors.As(err, &fe) {
			fe.FieldID, fe.Label = f.ID, f.Label
		} else {
			err = domain.UnmatchedField(f.ID, f.Label, err)
		}
		s.metrics.RecordFieldFailure(s.sp.Name, failureCause(err))
	}
	return err
}

// failureCause maps a per-field error onto its metrics label.
func failureCause(err error) string {
	switch {
	case engine.IsMenuTimeout(err):
		return "menu_timeout"
	case errors.Is(err, domain.ErrOptionNotValid):
		return "option_validation"
	default:
		return "apply_failed"
	}
}

// captureInitial grabs the page as it looked before any value was
// committed. Only taken when auditing is on; the bytes are held until
// recordAudit persists them next to the final shot.
func (s *Session) captureInitial() {
	if s.audit == nil {
		return
	}
	png, err := s.page.Screenshot()
	if err != nil {
		s.logger.Debug("initial screenshot failed", zap.Error(err))
		return
	}
	s.initialShot = png
}

// recordAudit persists the pass artifacts. Best effort; audit failures
// never affect the pass result.
func (s *Session) recordAudit(ctx context.Context, summary domain.Summary) {
	if s.audit == nil {
		return
	}
	if len(s.initialShot) > 0 {
		if err := s.audit.SaveScreenshot(ctx, s.id, storage.StageInitial, s.initialShot); err != nil {
			s.logger.Warn("audit screenshot failed", zap.Error(err))
		}
	}
	png, err := s.page.Screenshot()
	if err == nil {
		if err := s.audit.SaveScreenshot(ctx, s.id, storage.StageFinal, png); err != nil {
			s.logger.Warn("audit screenshot failed", zap.Error(err))
		}
	}
	if err := s.audit.SaveSummary(ctx, s.id, s.sp.Name, summary); err != nil {
		s.logger.Warn("audit summary failed", zap.Error(err))
	}
	if len(s.escQuestions) > 0 {
		if err := s.audit.SaveTranscript(ctx, s.id, s.escQuestions, s.escAnswers); err != nil {
			s.logger.Warn("audit transcript failed", zap.Error(err))
		}
	}
}
