// Package engine commits values into live form controls. It implements
// one interaction protocol per rendering technology: plain text, native
// choice lists, single virtual dropdowns, multi virtual dropdowns, and
// checkbox groups. All waiting is bounded; a control that never
// responds is a local failure reported to the caller, never a hang.
package engine

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/match"
	"github.com/applyforge/applyforge/internal/siteprofile"
)

// Delays tunes the settle waits between synthetic interactions. The
// host page re-renders asynchronously after every event we dispatch;
// these pauses let it catch up.
type Delays struct {
	// Settle is the pause after committing a value or clicking an
	// option, in milliseconds.
	Settle float64
	// MenuPollBase is the first menu-appearance poll delay; each of
	// the five attempts grows it toward MenuPollMax.
	MenuPollBase float64
	MenuPollMax  float64
}

// DefaultDelays returns the production timing profile.
func DefaultDelays() Delays {
	return Delays{
		Settle:       100,
		MenuPollBase: 50,
		MenuPollMax:  200,
	}
}

// menuPollAttempts bounds the menu-appearance retry ladder per anchor.
const menuPollAttempts = 5

// Engine drives synthetic interactions against one page. It is built
// per fill pass and holds no cross-pass state.
type Engine struct {
	page   playwright.Page
	sp     *siteprofile.Profile
	delays Delays
	logger *zap.Logger
}

// New creates an engine for one page.
func New(page playwright.Page, sp *siteprofile.Profile, delays Delays, logger *zap.Logger) *Engine {
	return &Engine{
		page:   page,
		sp:     sp,
		delays: delays,
		logger: logger,
	}
}

// settle pauses for the configured settle delay.
func (e *Engine) settle() {
	e.page.WaitForTimeout(e.delays.Settle)
}

// setNativeValue writes a value through the platform's native property
// setter, bypassing any framework control wrapper, then replays the
// event sequence a real keyboard entry would produce.
const setNativeValueJS = `(el, value) => {
	const proto = el.tagName === 'TEXTAREA'
		? window.HTMLTextAreaElement.prototype
		: window.HTMLInputElement.prototype;
	const desc = Object.getOwnPropertyDescriptor(proto, 'value');
	if (desc && desc.set) {
		desc.set.call(el, value);
	} else {
		el.value = value;
	}
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	el.dispatchEvent(new KeyboardEvent('keydown', { bubbles: true }));
	el.dispatchEvent(new KeyboardEvent('keyup', { bubbles: true }));
}`

// FillText commits a value into a text or textarea control. The value
// is assigned verbatim; no matching step.
func (e *Engine) FillText(el playwright.Locator, value string) error {
	if err := el.Focus(); err != nil {
		return fmt.Errorf("focusing control: %w", err)
	}
	if _, err := el.Evaluate(setNativeValueJS, value); err != nil {
		return fmt.Errorf("setting value: %w", err)
	}
	if err := el.Blur(); err != nil {
		return fmt.Errorf("blurring control: %w", err)
	}
	e.settle()
	return nil
}

// ToggleCheckbox applies a boolean-like token to a single checkbox via
// a simulated click, only clicking when the current state differs.
func (e *Engine) ToggleCheckbox(el playwright.Locator, value string) error {
	want := match.TruthyToken(value)
	checked, err := el.IsChecked()
	if err != nil {
		return fmt.Errorf("reading checkbox state: %w", err)
	}
	if checked == want {
		return nil
	}
	if err := el.Click(); err != nil {
		return fmt.Errorf("clicking checkbox: %w", err)
	}
	e.settle()
	return nil
}

// ApplyCheckboxGroup applies a value to a merged checkbox group. A
// truthy token toggles the first box on; an index-token list toggles
// each addressed box with a settle delay between clicks.
func (e *Engine) ApplyCheckboxGroup(boxes []playwright.Locator, value string) error {
	if len(boxes) == 0 {
		return fmt.Errorf("empty checkbox group")
	}

	if indices := match.ParseIndexList(value); indices != nil {
		for _, n := range indices {
			if n < 0 || n >= len(boxes) {
				return fmt.Errorf("checkbox index %d out of range [0,%d)", n, len(boxes))
			}
			checked, err := boxes[n].IsChecked()
			if err != nil {
				return fmt.Errorf("reading checkbox %d: %w", n, err)
			}
			if !checked {
				if err := boxes[n].Click(); err != nil {
					return fmt.Errorf("clicking checkbox %d: %w", n, err)
				}
			}
			e.settle()
		}
		return nil
	}

	if match.TruthyToken(value) {
		return e.ToggleCheckbox(boxes[0], "true")
	}
	return nil
}

// SelectRadio picks the radio in a group whose label matches the
// target, by index token or the virtual text ladder.
func (e *Engine) SelectRadio(buttons []playwright.Locator, labels []string, target string) error {
	if len(buttons) == 0 {
		return fmt.Errorf("empty radio group")
	}

	idx := -1
	if n, ok := match.ParseIndexToken(target); ok {
		if n < 0 || n >= len(buttons) {
			return fmt.Errorf("radio index %d out of range [0,%d)", n, len(buttons))
		}
		idx = n
	} else {
		options := make([]match.Option, len(labels))
		for i, l := range labels {
			options[i] = match.Option{Text: l}
		}
		pos, strategy, ok := match.MatchVirtualOption(options, target)
		if !ok {
			return domain.OptionValidationField("", "", target)
		}
		e.logger.Debug("radio matched", zap.String("target", target), zap.String("strategy", string(strategy)))
		idx = pos
	}

	if err := buttons[idx].Click(); err != nil {
		return fmt.Errorf("clicking radio %d: %w", idx, err)
	}
	e.settle()
	return nil
}
