package match

import "strings"

// Strategy names the matching rung that produced a hit, for logging.
type Strategy string

const (
	StrategyIndex          Strategy = "index"
	StrategyExactValue     Strategy = "exact-value"
	StrategyExactText      Strategy = "exact-text"
	StrategyTrimmedText    Strategy = "trimmed-text"
	StrategyValueContains  Strategy = "value-contains"
	StrategyTextContains   Strategy = "text-contains"
	StrategyTargetContains Strategy = "target-contains"
	StrategyStartsWith     Strategy = "starts-with"
	StrategyFuzzy          Strategy = "fuzzy"
)

// minTargetContainsLen guards the target-contains-text rung against
// trivially short option texts matching everything.
const minTargetContainsLen = 3

// MatchNativeOption resolves a target value against a native choice
// list's options. Strategies are tried in strict priority order; the
// first one that hits a selectable option wins. Returns the position in
// options, the winning strategy, and whether anything matched.
func MatchNativeOption(options []Option, target string) (int, Strategy, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return -1, "", false
	}
	lowTarget := strings.ToLower(target)

	rungs := []struct {
		strategy Strategy
		match    func(o Option) bool
	}{
		{StrategyExactValue, func(o Option) bool {
			return strings.EqualFold(o.Value, target)
		}},
		{StrategyExactText, func(o Option) bool {
			return strings.EqualFold(o.Text, target)
		}},
		{StrategyTrimmedText, func(o Option) bool {
			return strings.EqualFold(strings.TrimSpace(o.Text), target)
		}},
		{StrategyValueContains, func(o Option) bool {
			return o.Value != "" && strings.Contains(strings.ToLower(o.Value), lowTarget)
		}},
		{StrategyTextContains, func(o Option) bool {
			return o.Text != "" && strings.Contains(strings.ToLower(o.Text), lowTarget)
		}},
		{StrategyTargetContains, func(o Option) bool {
			text := strings.ToLower(strings.TrimSpace(o.Text))
			return len(text) >= minTargetContainsLen && strings.Contains(lowTarget, text)
		}},
		{StrategyFuzzy, func(o Option) bool {
			return fuzzyOption(o.Text, target) || fuzzyOption(o.Value, target)
		}},
	}

	for _, rung := range rungs {
		for i, o := range options {
			if !o.Selectable() {
				continue
			}
			if rung.match(o) {
				return i, rung.strategy, true
			}
		}
	}
	return -1, "", false
}

// MatchVirtualOption resolves a target value against the rendered
// option texts of a virtual dropdown. Virtual options carry no value
// attribute, so the ladder works on text only: exact, contains,
// starts-with, target-contains (length-guarded), then normalized fuzzy
// containment in either direction.
func MatchVirtualOption(options []Option, target string) (int, Strategy, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return -1, "", false
	}
	lowTarget := strings.ToLower(target)

	rungs := []struct {
		strategy Strategy
		match    func(o Option) bool
	}{
		{StrategyExactText, func(o Option) bool {
			return strings.EqualFold(strings.TrimSpace(o.Text), target)
		}},
		{StrategyTextContains, func(o Option) bool {
			return strings.Contains(strings.ToLower(o.Text), lowTarget)
		}},
		{StrategyStartsWith, func(o Option) bool {
			return strings.HasPrefix(strings.ToLower(strings.TrimSpace(o.Text)), lowTarget)
		}},
		{StrategyTargetContains, func(o Option) bool {
			text := strings.ToLower(strings.TrimSpace(o.Text))
			return len(text) >= minTargetContainsLen && strings.Contains(lowTarget, text)
		}},
		{StrategyFuzzy, func(o Option) bool {
			return fuzzyOption(o.Text, target)
		}},
	}

	for _, rung := range rungs {
		for i, o := range options {
			if !o.Selectable() {
				continue
			}
			if rung.match(o) {
				return i, rung.strategy, true
			}
		}
	}
	return -1, "", false
}

// fuzzyOption is the fuzzy rung's predicate: normalized containment in
// either direction, with the option-in-target direction length-guarded
// so a short option like "No" cannot claim an unrelated target. Short
// options still match when the normalized target starts with them,
// which keeps answers like "No, I am not" landing on "No".
func fuzzyOption(text, target string) bool {
	nopt, ntarget := Normalize(text), Normalize(target)
	if nopt == "" || ntarget == "" {
		return false
	}
	if strings.Contains(nopt, ntarget) {
		return true
	}
	if len(nopt) >= minTargetContainsLen {
		return strings.Contains(ntarget, nopt)
	}
	return strings.HasPrefix(ntarget, nopt)
}

// ValidateTarget reports whether a target value is positively present,
// case-insensitively, in a select-like field's option texts. A
// select-like field is committed only after this confirms.
func ValidateTarget(options []string, target string) bool {
	target = strings.TrimSpace(target)
	if target == "" {
		return false
	}
	for _, o := range options {
		if strings.EqualFold(strings.TrimSpace(o), target) {
			return true
		}
	}
	// A containment hit still validates: the engine's ladder will land
	// on the same option it confirms here.
	lowTarget := strings.ToLower(target)
	for _, o := range options {
		low := strings.ToLower(strings.TrimSpace(o))
		if low == "" {
			continue
		}
		if strings.Contains(low, lowTarget) || (len(low) >= minTargetContainsLen && strings.Contains(lowTarget, low)) {
			return true
		}
	}
	return false
}
