// Package siteprofile defines the per-site-family parameterization of
// the fill pipeline: selector sets, structural markers, and quirks.
// Adding support for a new job-board family is a data addition here,
// not a code fork.
package siteprofile

import (
	"fmt"
	"strings"
)

// Profile describes how one target site family renders its application
// forms. Profiles are static for the process lifetime.
type Profile struct {
	Name string

	// FieldSelector matches every candidate form control on the page.
	FieldSelector string

	// DenylistPatterns are id/class/name substrings identifying
	// non-data controls (CAPTCHA widgets, honeypots) to skip.
	DenylistPatterns []string

	// VirtualMarkerSelector matches text-like inputs that are really
	// the anchor of a script-rendered dropdown.
	VirtualMarkerSelector string

	// MultiValueContainerSelector marks containers whose inner virtual
	// select accepts multiple values.
	MultiValueContainerSelector string

	// ControlWrapperSelector is the structurally-identified "control"
	// element that receives the open-menu click for virtual selects.
	ControlWrapperSelector string

	// ContainerSelector is the nearest field container; labels and
	// menus are searched inside it first.
	ContainerSelector string

	// MenuSelectors locate an open dropdown menu, tried in order.
	MenuSelectors []string

	// OptionSelector matches option nodes inside an open menu.
	OptionSelector string

	// OptionSelectableSelector matches a nested selectable sub-node of
	// an option, when the framework wraps the clickable target.
	OptionSelectableSelector string

	// EducationContainerClasses mark education blocks; fields inside
	// them are routed to the education handler regardless of key.
	EducationContainerClasses []string

	// CustomContainerClasses mark custom-question blocks.
	CustomContainerClasses []string

	// IframeHostPatterns identify cross-origin iframes belonging to a
	// different deployment of the same site family. Hitting one aborts
	// the pass with a redirect result.
	IframeHostPatterns []string

	// TypeToFilter enables typing the target into a single virtual
	// select before matching, letting the page's own filtering narrow
	// the option list. Some families re-render destructively on
	// keystrokes and need this off.
	TypeToFilter bool

	// MatcherHints maps a field-concept key to extra recognition
	// patterns this family uses for it, appended to the built-in set.
	MatcherHints map[string][]string
}

// registry of built-in site families, keyed by name.
var registry = map[string]*Profile{
	"greenhouse": {
		Name:          "greenhouse",
		FieldSelector: "input:not([type='hidden']):not([type='submit']):not([type='button']):not([type='file']), textarea, select",
		DenylistPatterns: []string{
			"captcha", "recaptcha", "hcaptcha", "g-recaptcha", "honeypot", "security_code",
		},
		VirtualMarkerSelector:       "input[role='combobox'], input.select__input, input[aria-autocomplete='list']",
		MultiValueContainerSelector: ".select--multi, [class*='multi-value'], [aria-multiselectable='true']",
		ControlWrapperSelector:      ".select__control, [class*='select__control']",
		ContainerSelector:           ".field, .application-field, [class*='input-wrapper']",
		MenuSelectors: []string{
			".select__menu", "[class*='select__menu']", "[role='listbox']",
		},
		OptionSelector:           ".select__option, [class*='select__option'], [role='option']",
		OptionSelectableSelector: "[class*='option-label'], span",
		EducationContainerClasses: []string{
			"education", "school-info", "education--fieldset",
		},
		CustomContainerClasses: []string{
			"custom-question", "demographic", "eeoc", "additional-information",
		},
		IframeHostPatterns: []string{
			"boards.greenhouse.io", "job-boards.greenhouse.io", "boards.eu.greenhouse.io",
		},
		TypeToFilter: true,
		MatcherHints: map[string][]string{
			"city": {`\blocation\b`},
		},
	},
	"lever": {
		Name:          "lever",
		FieldSelector: "input:not([type='hidden']):not([type='submit']):not([type='button']):not([type='file']), textarea, select",
		DenylistPatterns: []string{
			"captcha", "recaptcha", "hcaptcha", "challenge",
		},
		VirtualMarkerSelector:       "input[role='combobox'], [data-qa='dropdown'] input",
		MultiValueContainerSelector: "[data-qa*='multiselect'], [aria-multiselectable='true']",
		ControlWrapperSelector:      "[data-qa='dropdown'], .application-dropdown",
		ContainerSelector:           ".application-question, .application-field, li[class*='question']",
		MenuSelectors: []string{
			".dropdown-menu", "[role='listbox']", "ul[class*='options']",
		},
		OptionSelector:           "[role='option'], .dropdown-option, li[class*='option']",
		OptionSelectableSelector: "span",
		EducationContainerClasses: []string{
			"education", "application-education",
		},
		CustomContainerClasses: []string{
			"custom-question", "additional-info", "eeo", "demographic",
		},
		IframeHostPatterns: []string{
			"jobs.lever.co", "jobs.eu.lever.co",
		},
		TypeToFilter: true,
		MatcherHints: map[string][]string{
			"currentCompany": {`\borg\b`},
			"city":           {`\blocation\b`},
		},
	},
	"generic": {
		Name:          "generic",
		FieldSelector: "input:not([type='hidden']):not([type='submit']):not([type='button']):not([type='file']), textarea, select",
		DenylistPatterns: []string{
			"captcha", "recaptcha", "hcaptcha", "honeypot",
		},
		VirtualMarkerSelector:       "input[role='combobox'], input[aria-autocomplete='list'], input[aria-haspopup='listbox']",
		MultiValueContainerSelector: "[aria-multiselectable='true'], [class*='multi-select'], [class*='multiselect']",
		ControlWrapperSelector:      "[class*='select__control'], [class*='dropdown-toggle'], [class*='combobox']",
		ContainerSelector:           "[class*='field'], [class*='form-group'], [class*='question']",
		MenuSelectors: []string{
			"[role='listbox']", "[class*='select__menu']", "[class*='dropdown-menu']", "ul[class*='options']",
		},
		OptionSelector:           "[role='option'], [class*='select__option'], li[class*='option']",
		OptionSelectableSelector: "span",
		EducationContainerClasses: []string{
			"education", "school", "academic",
		},
		CustomContainerClasses: []string{
			"custom", "demographic", "eeo", "voluntary", "self-identification",
		},
		IframeHostPatterns: nil,
		TypeToFilter:       false,
	},
}

// Lookup returns the named site profile, or an error listing the known
// names. Empty name selects "generic".
func Lookup(name string) (*Profile, error) {
	if name == "" {
		name = "generic"
	}
	p, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown site profile %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names returns the registered profile names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// Denylisted reports whether an element's id/class/name identity string
// matches the profile's non-data-control denylist.
func (p *Profile) Denylisted(identity string) bool {
	identity = strings.ToLower(identity)
	for _, pattern := range p.DenylistPatterns {
		if strings.Contains(identity, pattern) {
			return true
		}
	}
	return false
}

// RedirectHost reports whether an iframe src host belongs to a
// different deployment of this site family.
func (p *Profile) RedirectHost(src string) bool {
	src = strings.ToLower(src)
	for _, pattern := range p.IframeHostPatterns {
		if strings.Contains(src, pattern) {
			return true
		}
	}
	return false
}

// ContainerClass classifies a container class attribute into a bucket
// hint: "education", "custom", or "".
func (p *Profile) ContainerClass(class string) string {
	class = strings.ToLower(class)
	for _, c := range p.EducationContainerClasses {
		if strings.Contains(class, c) {
			return "education"
		}
	}
	for _, c := range p.CustomContainerClasses {
		if strings.Contains(class, c) {
			return "custom"
		}
	}
	return ""
}
