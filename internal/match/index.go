package match

import (
	"strconv"
	"strings"
)

// ParseIndexToken parses an index token selecting the n-th visible,
// non-disabled option deterministically, bypassing text matching.
// Accepted forms: "#n", "index:n", "option-n". Returns the zero-based
// index and whether the value was an index token at all.
func ParseIndexToken(value string) (int, bool) {
	value = strings.TrimSpace(value)

	var digits string
	switch {
	case strings.HasPrefix(value, "#"):
		digits = value[1:]
	case strings.HasPrefix(strings.ToLower(value), "index:"):
		digits = value[len("index:"):]
	case strings.HasPrefix(strings.ToLower(value), "option-"):
		digits = value[len("option-"):]
	default:
		return 0, false
	}

	n, err := strconv.Atoi(strings.TrimSpace(digits))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ParseIndexList parses a comma-separated list of index tokens. Plain
// integers are accepted alongside tokenized forms. Returns nil when any
// element fails to parse.
func ParseIndexList(value string) []int {
	parts := strings.Split(value, ",")
	indices := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if n, ok := ParseIndexToken(part); ok {
			indices = append(indices, n)
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil
		}
		indices = append(indices, n)
	}
	if len(indices) == 0 {
		return nil
	}
	return indices
}

// IndexToken renders n as the canonical index token form.
func IndexToken(n int) string {
	return "#" + strconv.Itoa(n)
}

// IndexListToken renders a list of indices as a comma-separated token
// list.
func IndexListToken(indices []int) string {
	parts := make([]string, len(indices))
	for i, n := range indices {
		parts[i] = IndexToken(n)
	}
	return strings.Join(parts, ",")
}
