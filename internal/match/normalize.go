// Package match implements the text-matching core of the fill pipeline:
// the matcher registry mapping recognized field concepts to profile
// values, index-token parsing, and the option-matching strategy ladders
// used by the interaction engine.
package match

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Normalize reduces a string to lowercase alphanumerics. Two strings
// fuzzy-match when one normalized form contains the other.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// FuzzyContains reports whether a and b match after normalization, in
// either containment direction. Empty normalized forms never match.
func FuzzyContains(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// TruthyToken reports whether a value is a boolean-like affirmative
// token used to toggle checkboxes.
func TruthyToken(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "1", "on", "y", "checked":
		return true
	}
	return false
}

// SplitMulti splits a multi-select target into individual items: a JSON
// array when the value parses as one, otherwise a split on common
// separators. Items are trimmed; empties are dropped.
func SplitMulti(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if strings.HasPrefix(value, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(value), &arr); err == nil {
			return compact(arr)
		}
	}

	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || r == '\n'
	})
	return compact(parts)
}

func compact(items []string) []string {
	out := items[:0]
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
