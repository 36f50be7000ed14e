package engine

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/match"
)

const readSelectOptionsJS = `el => Array.from(el.options).map(o => ({
	value: o.value,
	text: o.textContent || '',
	disabled: o.disabled,
	hidden: o.hidden,
}))`

const commitSelectIndexJS = `(el, index) => {
	el.selectedIndex = index;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	el.dispatchEvent(new MouseEvent('click', { bubbles: true }));
	el.dispatchEvent(new FocusEvent('blur', { bubbles: true }));
}`

// ReadNativeOptions reads a native choice list's option set.
func (e *Engine) ReadNativeOptions(el playwright.Locator) ([]match.Option, error) {
	raw, err := el.Evaluate(readSelectOptionsJS, nil)
	if err != nil {
		return nil, fmt.Errorf("reading options: %w", err)
	}
	return decodeOptions(raw)
}

// SelectNative commits a target value into a native choice list. An
// empty target selects the first non-disabled option. Otherwise the
// strategy ladder runs and the first hit is committed through the
// native setter plus the change/input/click/blur sequence. Returns the
// committed option's display text.
func (e *Engine) SelectNative(el playwright.Locator, target string) (string, error) {
	options, err := e.ReadNativeOptions(el)
	if err != nil {
		return "", err
	}
	if len(options) == 0 {
		return "", fmt.Errorf("select has no options")
	}

	idx := -1
	if target == "" {
		idx = match.FirstSelectable(options)
		if idx < 0 {
			return "", fmt.Errorf("select has no selectable options")
		}
	} else if n, ok := match.ParseIndexToken(target); ok {
		idx = match.ResolveIndex(options, n)
		if idx < 0 {
			return "", fmt.Errorf("option index %d out of range", n)
		}
	} else {
		pos, strategy, ok := match.MatchNativeOption(options, target)
		if !ok {
			return "", domain.OptionValidationField("", "", target)
		}
		e.logger.Debug("native option matched",
			zap.String("target", target),
			zap.String("strategy", string(strategy)),
			zap.String("option", options[pos].DisplayText()),
		)
		idx = pos
	}

	if _, err := el.Evaluate(commitSelectIndexJS, idx); err != nil {
		return "", fmt.Errorf("committing selection: %w", err)
	}
	e.settle()
	return options[idx].DisplayText(), nil
}

// decodeOptions converts the JS evaluation result into match.Options.
func decodeOptions(raw any) ([]match.Option, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected options shape %T", raw)
	}
	options := make([]match.Option, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		options = append(options, match.Option{
			Value:    asString(m["value"]),
			Text:     asString(m["text"]),
			Disabled: asBool(m["disabled"]),
			Hidden:   asBool(m["hidden"]),
		})
	}
	return options, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
