package match

import "strings"

// Option is one entry of a choice control's option set, decoupled from
// the DOM so matching stays testable without a browser.
type Option struct {
	Value    string
	Text     string
	Disabled bool
	Hidden   bool
}

// Selectable reports whether the option may be committed at all.
func (o Option) Selectable() bool {
	return !o.Disabled && !o.Hidden
}

// DisplayText returns the trimmed option text, falling back to value.
func (o Option) DisplayText() string {
	if t := strings.TrimSpace(o.Text); t != "" {
		return t
	}
	return strings.TrimSpace(o.Value)
}

// Indexable reports whether the option counts toward index resolution.
// Blank placeholders are selectable in the DOM sense but never appear
// in a published option list, so index tokens must skip them too.
func (o Option) Indexable() bool {
	return o.Selectable() && o.DisplayText() != ""
}

// ResolveIndex maps an index over indexable options to the position in
// the full option slice. Returns -1 when out of range.
func ResolveIndex(options []Option, n int) int {
	if n < 0 {
		return -1
	}
	seen := 0
	for i, o := range options {
		if !o.Indexable() {
			continue
		}
		if seen == n {
			return i
		}
		seen++
	}
	return -1
}

// FirstSelectable returns the position of the first indexable option,
// or -1.
func FirstSelectable(options []Option) int {
	return ResolveIndex(options, 0)
}
