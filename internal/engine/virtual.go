package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/match"
)

// Virtual dropdowns have no native semantics: the menu and its options
// are plain DOM nodes rendered on demand. The protocol here is open the
// menu with a realistic click sequence, find the rendered menu, match
// an option, and commit it with another realistic click sequence.

// IsMenuTimeout reports whether an error is the bounded menu-appearance
// wait being exhausted.
func IsMenuTimeout(err error) bool {
	return errors.Is(err, domain.ErrMenuTimeout)
}

// anchorCandidates returns the prioritized click targets for opening a
// virtual dropdown: the structurally-identified control wrapper, its
// container, the input itself, then up to three ancestor levels.
func (e *Engine) anchorCandidates(input playwright.Locator) []playwright.Locator {
	var anchors []playwright.Locator

	if e.sp.ControlWrapperSelector != "" {
		wrapper := e.page.Locator(e.sp.ControlWrapperSelector, playwright.PageLocatorOptions{Has: input})
		anchors = append(anchors, wrapper.Last())
	}
	if e.sp.ContainerSelector != "" {
		container := e.page.Locator(e.sp.ContainerSelector, playwright.PageLocatorOptions{Has: input})
		anchors = append(anchors, container.Last())
	}
	anchors = append(anchors,
		input,
		input.Locator("xpath=.."),
		input.Locator("xpath=../.."),
		input.Locator("xpath=../../.."),
	)
	return anchors
}

// OpenDropdown opens the virtual dropdown anchored at input and returns
// the rendered menu. Each candidate anchor gets the synthetic
// mousedown/mouseup/click sequence followed by a bounded poll for a
// menu with at least one visible option.
func (e *Engine) OpenDropdown(input playwright.Locator) (playwright.Locator, error) {
	// The menu may already be open (typing tends to open it).
	if menu, ok := e.findOpenMenu(input, input); ok {
		return menu, nil
	}

	step := (e.delays.MenuPollMax - e.delays.MenuPollBase) / float64(menuPollAttempts-1)

	for _, anchor := range e.anchorCandidates(input) {
		count, err := anchor.Count()
		if err != nil || count == 0 {
			continue
		}
		a := anchor.First()

		for _, ev := range []string{"mousedown", "mouseup", "click"} {
			if err := a.DispatchEvent(ev, nil); err != nil {
				break
			}
		}

		delay := e.delays.MenuPollBase
		for attempt := 0; attempt < menuPollAttempts; attempt++ {
			e.page.WaitForTimeout(delay)
			if menu, ok := e.findOpenMenu(a, input); ok {
				return menu, nil
			}
			delay += step
		}
	}
	return nil, domain.MenuTimeoutField("", "")
}

// CloseDropdown dismisses an open menu.
func (e *Engine) CloseDropdown() {
	if kb := e.page.Keyboard(); kb != nil {
		_ = kb.Press("Escape")
	}
	e.settle()
}

// findOpenMenu locates the rendered menu for a dropdown: first inside
// the field container using the configured selectors, then by
// resolving aria-controls/aria-owns on the anchor or its combobox
// ancestor, and finally — when several visible listbox-like elements
// remain — the one geometrically closest to the anchor.
func (e *Engine) findOpenMenu(anchor, input playwright.Locator) (playwright.Locator, bool) {
	if e.sp.ContainerSelector != "" {
		container := e.page.Locator(e.sp.ContainerSelector, playwright.PageLocatorOptions{Has: input}).Last()
		if n, err := container.Count(); err == nil && n > 0 {
			for _, sel := range e.sp.MenuSelectors {
				menu := container.Locator(sel).First()
				if e.menuIsOpen(menu) {
					return menu, true
				}
			}
		}
	}

	for _, owner := range []playwright.Locator{input, anchor} {
		for _, attr := range []string{"aria-controls", "aria-owns"} {
			if id, err := owner.GetAttribute(attr); err == nil && id != "" {
				menu := e.page.Locator("#" + strings.Fields(id)[0]).First()
				if e.menuIsOpen(menu) {
					return menu, true
				}
			}
		}
	}

	var best playwright.Locator
	bestDist := math.MaxFloat64
	anchorBox, _ := anchor.BoundingBox()

	for _, sel := range e.sp.MenuSelectors {
		candidates := e.page.Locator(sel)
		n, err := candidates.Count()
		if err != nil {
			continue
		}
		for i := 0; i < n; i++ {
			menu := candidates.Nth(i)
			if !e.menuIsOpen(menu) {
				continue
			}
			if anchorBox == nil {
				return menu, true
			}
			box, err := menu.BoundingBox()
			if err != nil || box == nil {
				continue
			}
			d := math.Hypot(box.X-anchorBox.X, box.Y-(anchorBox.Y+anchorBox.Height))
			if d < bestDist {
				bestDist = d
				best = menu
			}
		}
	}
	if best != nil {
		return best, true
	}
	return nil, false
}

// menuIsOpen reports whether a menu candidate is visible and renders at
// least one option.
func (e *Engine) menuIsOpen(menu playwright.Locator) bool {
	if n, err := menu.Count(); err != nil || n == 0 {
		return false
	}
	if visible, err := menu.IsVisible(); err != nil || !visible {
		return false
	}
	n, err := menu.Locator(e.sp.OptionSelector).Count()
	return err == nil && n > 0
}

// ReadMenuOptions reads the rendered options of an open menu, parallel
// slices of matchable records and their live nodes.
func (e *Engine) ReadMenuOptions(menu playwright.Locator) ([]match.Option, []playwright.Locator, error) {
	nodes := menu.Locator(e.sp.OptionSelector)
	count, err := nodes.Count()
	if err != nil {
		return nil, nil, fmt.Errorf("counting options: %w", err)
	}

	options := make([]match.Option, 0, count)
	locs := make([]playwright.Locator, 0, count)
	for i := 0; i < count; i++ {
		node := nodes.Nth(i)

		text, err := node.InnerText()
		if err != nil {
			text, _ = node.TextContent()
		}

		disabled := false
		if v, err := node.GetAttribute("aria-disabled"); err == nil && v == "true" {
			disabled = true
		} else if cls, err := node.GetAttribute("class"); err == nil && strings.Contains(strings.ToLower(cls), "disabled") {
			disabled = true
		}

		hidden := false
		if visible, err := node.IsVisible(); err == nil && !visible {
			hidden = true
		}

		options = append(options, match.Option{Text: strings.TrimSpace(text), Disabled: disabled, Hidden: hidden})
		locs = append(locs, node)
	}
	return options, locs, nil
}

// DiscoverOptions momentarily opens a virtual dropdown, reads the
// rendered option texts, and closes it again. Transient UI state is
// touched; form values are not.
func (e *Engine) DiscoverOptions(input playwright.Locator) ([]string, error) {
	menu, err := e.OpenDropdown(input)
	if err != nil {
		return nil, err
	}
	defer e.CloseDropdown()

	options, _, err := e.ReadMenuOptions(menu)
	if err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(options))
	for _, o := range options {
		if o.Indexable() {
			texts = append(texts, o.DisplayText())
		}
	}
	return texts, nil
}

// SelectVirtualSingle commits a target into a single virtual dropdown.
// An index token takes precedence over text matching. For text targets
// on families that tolerate it, the value is typed into the control
// first so the page's own filtering narrows the option list. Returns
// the committed option's display text.
func (e *Engine) SelectVirtualSingle(input playwright.Locator, target string) (string, error) {
	idxToken, isIndex := match.ParseIndexToken(target)

	if !isIndex && target != "" && e.sp.TypeToFilter {
		if err := input.Focus(); err == nil {
			_ = input.PressSequentially(target, playwright.LocatorPressSequentiallyOptions{
				Delay: playwright.Float(20),
			})
			e.settle()
		}
	}

	menu, err := e.OpenDropdown(input)
	if err != nil {
		return "", err
	}

	options, locs, err := e.ReadMenuOptions(menu)
	if err != nil {
		e.CloseDropdown()
		return "", err
	}
	if len(options) == 0 {
		e.CloseDropdown()
		return "", fmt.Errorf("menu rendered no options")
	}

	idx := -1
	if isIndex {
		idx = match.ResolveIndex(options, idxToken)
		if idx < 0 {
			e.CloseDropdown()
			return "", fmt.Errorf("option index %d out of range", idxToken)
		}
	} else {
		pos, strategy, ok := match.MatchVirtualOption(options, target)
		if !ok {
			e.CloseDropdown()
			return "", domain.OptionValidationField("", "", target)
		}
		e.logger.Debug("virtual option matched",
			zap.String("target", target),
			zap.String("strategy", string(strategy)),
			zap.String("option", options[pos].DisplayText()),
		)
		idx = pos
	}

	if err := e.clickOption(locs[idx]); err != nil {
		e.CloseDropdown()
		return "", err
	}
	return options[idx].DisplayText(), nil
}

// SelectVirtualMulti applies a multi-valued target to a multi virtual
// dropdown: the target splits into items (separators or a JSON array)
// and each is applied through the single-select protocol. When nothing
// matched at all, the first available option is selected as a default;
// these controls frequently require at least one value to pass
// client-side validation. Returns the committed option texts.
func (e *Engine) SelectVirtualMulti(input playwright.Locator, target string) ([]string, error) {
	items := match.SplitMulti(target)

	var committed []string
	for _, item := range items {
		text, err := e.SelectVirtualSingle(input, item)
		if err != nil {
			e.logger.Debug("multi-select item skipped",
				zap.String("item", item),
				zap.Error(err),
			)
			continue
		}
		committed = append(committed, text)
	}

	if len(committed) == 0 {
		text, err := e.SelectVirtualSingle(input, match.IndexToken(0))
		if err != nil {
			return nil, fmt.Errorf("no item matched and default selection failed: %w", err)
		}
		committed = append(committed, text)
	}
	return committed, nil
}

// clickOption commits an option node with a realistic hover, mousedown,
// mouseup, click sequence, preferring a nested selectable sub-node and
// retrying against a short list of DOM ancestors until the option
// reports itself selected or detaches from the document.
func (e *Engine) clickOption(option playwright.Locator) error {
	targets := []playwright.Locator{}

	if e.sp.OptionSelectableSelector != "" {
		sub := option.Locator(e.sp.OptionSelectableSelector).First()
		if n, err := sub.Count(); err == nil && n > 0 {
			targets = append(targets, sub)
		}
	}
	targets = append(targets,
		option,
		option.Locator("xpath=.."),
		option.Locator("xpath=../.."),
	)

	for _, target := range targets {
		_ = target.Hover()
		failed := false
		for _, ev := range []string{"mousedown", "mouseup", "click"} {
			if err := target.DispatchEvent(ev, nil); err != nil {
				failed = true
				break
			}
		}
		e.settle()
		if !failed && e.optionCommitted(option) {
			return nil
		}
	}
	return fmt.Errorf("option did not commit")
}

// optionCommitted reports whether an option landed: it reports itself
// selected, or it detached because the menu closed on selection.
func (e *Engine) optionCommitted(option playwright.Locator) bool {
	count, err := option.Count()
	if err != nil || count == 0 {
		return true
	}
	if visible, err := option.IsVisible(); err == nil && !visible {
		return true
	}
	if sel, err := option.GetAttribute("aria-selected"); err == nil && sel == "true" {
		return true
	}
	if cls, err := option.GetAttribute("class"); err == nil && strings.Contains(strings.ToLower(cls), "selected") {
		return true
	}
	return false
}
