package match

import "strings"

// Dial-code controls carry a different value space from location
// countries ("+44" / "GB +44" / "United Kingdom (+44)"), so the phone
// country key resolves through this dedicated lookup instead of the
// generic text ladder.

// DialCodeOptionIndex resolves a dial code (with or without the leading
// "+") to the position of the matching option. An option matches when
// its text or value contains the dial code as a standalone token, or
// when the code's digits appear suffixed to a "+" anywhere in it.
func DialCodeOptionIndex(options []Option, dial string) (int, bool) {
	digits := dialDigits(dial)
	if digits == "" {
		return -1, false
	}

	// Exact "+NN" token first so "+1" does not land on "+12".
	for i, o := range options {
		if !o.Selectable() {
			continue
		}
		if containsDialToken(o.Text, digits) || containsDialToken(o.Value, digits) {
			return i, true
		}
	}
	return -1, false
}

func dialDigits(dial string) string {
	var b strings.Builder
	for _, r := range dial {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// containsDialToken reports whether s contains "+<digits>" as a
// complete code, i.e. not followed by another digit.
func containsDialToken(s, digits string) bool {
	needle := "+" + digits
	for start := 0; ; {
		idx := strings.Index(s[start:], needle)
		if idx < 0 {
			return false
		}
		end := start + idx + len(needle)
		if end >= len(s) || s[end] < '0' || s[end] > '9' {
			return true
		}
		start = start + idx + 1
	}
}
