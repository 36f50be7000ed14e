package fill

import (
	"context"

	"go.uber.org/zap"

	"github.com/applyforge/applyforge/internal/collector"
	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/match"
)

// fillCustom handles everything the standard and education handlers
// did not commit: pre-written profile answers first, then the static
// preset table, then one batched escalation round trip for whatever
// remains. Escalation failure degrades to an empty answer set; the
// affected fields count as unmatched.
func (s *Session) fillCustom(ctx context.Context, fields []*collector.FormField) domain.Summary {
	var summary domain.Summary
	pending := make(map[string]*collector.FormField)
	var questions []domain.AIQuestion

	for _, f := range fields {
		if ctx.Err() != nil {
			break
		}
		summary.Total++

		if answer := s.profile.AnswerFor(f.Label); answer != "" && s.validates(f, answer) {
			s.commitCustom(f, answer, &summary, false)
			continue
		}

		if def, ok := ResolveDefinition(s.defs, f.Label, f.Type); ok {
			s.commitCustom(f, def.Target(), &summary, false)
			continue
		}

		questions = append(questions, buildQuestion(f))
		pending[f.ID] = f
	}

	if len(pending) == 0 {
		return summary
	}

	answers := s.resolveAnswers(ctx, questions)
	s.escQuestions = append(s.escQuestions, questions...)
	s.escAnswers = append(s.escAnswers, answers...)
	for _, a := range answers {
		f, ok := pending[a.QuestionID]
		if !ok {
			continue
		}
		delete(pending, a.QuestionID)
		s.commitCustom(f, renderAnswer(a), &summary, true)
	}

	// Fields that received no answer.
	for _, f := range pending {
		s.logger.Debug("field left unmatched", zap.String("field", f.ID), zap.String("label", f.Label))
		summary.Unmatched++
		s.metrics.RecordField(s.sp.Name, string(domain.BucketCustom), "unmatched")
	}
	return summary
}

// commitCustom applies a target and folds the outcome into the summary.
func (s *Session) commitCustom(f *collector.FormField, target string, summary *domain.Summary, fromAI bool) {
	if err := s.apply(f, target); err != nil {
		s.logger.Warn("custom fill failed",
			zap.String("field", f.ID),
			zap.String("label", f.Label),
			zap.Error(err),
		)
		summary.Unmatched++
		s.metrics.RecordField(s.sp.Name, string(domain.BucketCustom), "unmatched")
		return
	}
	summary.Filled++
	if fromAI {
		summary.AIQuestionsHandled++
	}
	s.metrics.RecordField(s.sp.Name, string(domain.BucketCustom), "filled")
}

// resolveAnswers satisfies questions from the pre-supplied overrides
// first, escalating only the remainder. An escalation failure degrades
// to the override answers alone.
func (s *Session) resolveAnswers(ctx context.Context, questions []domain.AIQuestion) []domain.AIAnswer {
	var answers []domain.AIAnswer
	var remaining []domain.AIQuestion

	for _, q := range questions {
		if a, ok := overrideFor(s.overrides, q); ok {
			answers = append(answers, a)
			continue
		}
		remaining = append(remaining, q)
	}

	if len(remaining) == 0 || !s.router.Enabled() {
		return answers
	}

	routed, err := s.router.Route(ctx, s.profile, remaining)
	if err != nil {
		s.logger.Warn("escalation degraded to no answers", zap.Error(err))
	}
	return append(answers, routed...)
}

// overrideFor finds a pre-supplied answer for a question, joined by
// field identity with a normalized-label fallback.
func overrideFor(overrides []domain.AIAnswer, q domain.AIQuestion) (domain.AIAnswer, bool) {
	for _, a := range overrides {
		if a.QuestionID == q.ID {
			a.QuestionID = q.ID
			return a, true
		}
	}
	want := match.Normalize(q.Label)
	if want == "" {
		return domain.AIAnswer{}, false
	}
	for _, a := range overrides {
		if match.Normalize(a.QuestionID) == want {
			a.QuestionID = q.ID
			return a, true
		}
	}
	return domain.AIAnswer{}, false
}

// renderAnswer turns an answer into an engine target: index selections
// become index tokens, free text passes through.
func renderAnswer(a domain.AIAnswer) string {
	if !a.HasSelection() {
		return a.Answer
	}
	if len(a.SelectedIndices) > 0 {
		return match.IndexListToken(a.SelectedIndices)
	}
	return match.IndexToken(*a.SelectedIndex)
}
