package collector

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/match"
)

// FormField is one logical fillable unit on the page. Checkbox and
// radio groups sharing a name collapse into a single FormField whose
// Group holds the individual controls.
type FormField struct {
	// ID is the stable identity of the field within one pass: the
	// element id, else its name, else a positional fallback.
	ID string

	Element playwright.Locator

	Label    string
	Name     string
	Type     domain.FieldType
	Required bool

	// Options holds option texts for select-like fields, discovered
	// natively or by momentarily opening the virtual menu. Group labels
	// for checkbox and radio groups.
	Options []string

	Bucket domain.Bucket

	// MatcherKey is set when the standard registry claimed the field.
	MatcherKey match.Key

	// Group holds the member controls of a merged checkbox or radio
	// group, parallel to Options.
	Group []GroupItem
}

// GroupItem is one control of a merged checkbox or radio group.
type GroupItem struct {
	Label   string
	Element playwright.Locator
}

// GroupElements returns the member locators in option order.
func (f *FormField) GroupElements() []playwright.Locator {
	els := make([]playwright.Locator, len(f.Group))
	for i, item := range f.Group {
		els[i] = item.Element
	}
	return els
}

// fieldID derives the stable per-pass identity for a field: element id
// wins, then name, then position.
func fieldID(id, name string, position int) string {
	if id != "" {
		return id
	}
	if name != "" {
		return name
	}
	return fmt.Sprintf("field-%d", position)
}
