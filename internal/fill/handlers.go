package fill

import (
	"context"

	"go.uber.org/zap"

	"github.com/applyforge/applyforge/internal/collector"
	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/match"
)

// fillStandard fills fields the standard registry claimed. Fields whose
// value fails option validation, or that resolve to no value at all,
// are rerouted to the custom/AI path instead of being dropped; rerouted
// fields are not counted here.
func (s *Session) fillStandard(ctx context.Context, fields []*collector.FormField) (domain.Summary, []*collector.FormField) {
	var summary domain.Summary
	var rerouted []*collector.FormField

	for _, f := range fields {
		if ctx.Err() != nil {
			break
		}

		value, ok := s.resolveStandard(f)
		if !ok {
			rerouted = append(rerouted, f)
			continue
		}
		if !s.validates(f, value) {
			s.logger.Debug("standard value failed validation, rerouting",
				zap.String("field", f.ID),
				zap.String("key", string(f.MatcherKey)),
			)
			s.metrics.RecordFieldFailure(s.sp.Name, "validation")
			rerouted = append(rerouted, f)
			continue
		}

		summary.Total++
		if err := s.apply(f, value); err != nil {
			s.logger.Warn("standard fill failed",
				zap.String("field", f.ID),
				zap.String("label", f.Label),
				zap.Error(err),
			)
			summary.Unmatched++
			s.metrics.RecordField(s.sp.Name, string(domain.BucketStandard), "unmatched")
			continue
		}
		summary.Filled++
		s.metrics.RecordField(s.sp.Name, string(domain.BucketStandard), "filled")
	}
	return summary, rerouted
}

// resolveStandard resolves the profile value for a registry-claimed
// field, including the dial-code special case.
func (s *Session) resolveStandard(f *collector.FormField) (string, bool) {
	matcher, ok := s.registry.Lookup(f.MatcherKey)
	if !ok {
		return "", false
	}

	// A phone-adjacent country-code control carries dial codes, not
	// location countries; resolve it by dial-code lookup over the
	// options rather than fuzzy text matching.
	if f.MatcherKey == match.KeyPhoneCountry && f.Type.SelectLike() && len(f.Options) > 0 {
		if target, ok := s.resolveDialCode(f); ok {
			return target, true
		}
	}

	value := matcher.Extract(s.profile)
	if value == "" {
		return "", false
	}
	return value, true
}

// resolveDialCode maps the profile dial code onto an option index.
func (s *Session) resolveDialCode(f *collector.FormField) (string, bool) {
	dial := s.profile.PhoneCountry
	if dial == "" {
		return "", false
	}
	options := make([]match.Option, len(f.Options))
	for i, text := range f.Options {
		options[i] = match.Option{Text: text}
	}
	idx, ok := match.DialCodeOptionIndex(options, dial)
	if !ok {
		return "", false
	}
	return match.IndexToken(idx), true
}

// fillEducation fills fields pre-classified as education blocks using
// the narrower education registry. Fields the education patterns do not
// claim are rerouted to the custom/AI path.
func (s *Session) fillEducation(ctx context.Context, fields []*collector.FormField) (domain.Summary, []*collector.FormField) {
	var summary domain.Summary
	var rerouted []*collector.FormField

	for _, f := range fields {
		if ctx.Err() != nil {
			break
		}

		value, ok := s.resolveEducation(f)
		if !ok || !s.validates(f, value) {
			rerouted = append(rerouted, f)
			continue
		}

		summary.Total++
		if err := s.apply(f, value); err != nil {
			s.logger.Warn("education fill failed",
				zap.String("field", f.ID),
				zap.String("label", f.Label),
				zap.Error(err),
			)
			summary.Unmatched++
			s.metrics.RecordField(s.sp.Name, string(domain.BucketEducation), "unmatched")
			continue
		}
		summary.Filled++
		s.metrics.RecordField(s.sp.Name, string(domain.BucketEducation), "filled")
	}
	return summary, rerouted
}

func (s *Session) resolveEducation(f *collector.FormField) (string, bool) {
	matcher, ok := s.eduReg.Match(f.Label + " " + f.ID + " " + f.Name)
	if !ok {
		return "", false
	}
	value := matcher.Extract(s.profile)
	if value == "" {
		return "", false
	}
	return value, true
}
