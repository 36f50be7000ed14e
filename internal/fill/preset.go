package fill

import (
	"regexp"

	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/match"
)

// Definition is a static preset answer for a known compliance or
// demographic question, consulted before escalating to the answering
// model. A definition supplies exactly one of: a literal value, a
// single option index, or an index list.
type Definition struct {
	Patterns []*regexp.Regexp

	// Types restricts the definition to certain field types; empty
	// means any type.
	Types []domain.FieldType

	Literal string
	Index   *int
	Indices []int
}

// Matches reports whether the definition applies to a field.
func (d *Definition) Matches(label string, ft domain.FieldType) bool {
	if len(d.Types) > 0 {
		ok := false
		for _, t := range d.Types {
			if t == ft {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, p := range d.Patterns {
		if p.MatchString(label) {
			return true
		}
	}
	return false
}

// Target renders the definition's answer as an engine target value:
// the literal, or an index token the engine parses back.
func (d *Definition) Target() string {
	switch {
	case d.Index != nil:
		return match.IndexToken(*d.Index)
	case len(d.Indices) > 0:
		return match.IndexListToken(d.Indices)
	default:
		return d.Literal
	}
}

func drx(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

// DefaultDefinitions is the built-in preset table. Literal targets for
// select-like fields still run through the option-matching ladder, so
// "Decline to self identify" lands on whatever phrasing the page uses.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Patterns: drx(`gender`, `\bsex\b`),
			Literal:  "Decline to self identify",
		},
		{
			Patterns: drx(`race`, `ethnicit`),
			Literal:  "Decline to self identify",
		},
		{
			Patterns: drx(`veteran`),
			Literal:  "I am not a protected veteran",
		},
		{
			Patterns: drx(`disabilit`),
			Literal:  "I do not want to answer",
		},
		{
			Patterns: drx(`how.?did.?you.?hear`, `referral.?source`, `where.?did.?you.?find`),
			Literal:  "LinkedIn",
		},
		{
			Patterns: drx(`agree`, `acknowledg`, `consent`, `terms`, `privacy.?(policy|notice)`, `certif(y|ication)`),
			Types:    []domain.FieldType{domain.FieldTypeCheckbox},
			Literal:  "true",
		},
	}
}

// ResolveDefinition resolves a field against the preset table, first
// match wins.
func ResolveDefinition(defs []Definition, label string, ft domain.FieldType) (*Definition, bool) {
	for i := range defs {
		if defs[i].Matches(label, ft) {
			return &defs[i], true
		}
	}
	return nil, false
}
