package collector

import (
	"strings"

	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/siteprofile"
)

// fieldMetaJS extracts everything the collector needs from one control
// in a single page round trip: identity, control kind, the inferred
// label, and the ancestor class trail used for bucket classification.
// The label ladder: explicit label[for], aria-label, a label-like node
// in a nearby container, aria-describedby/labelledby text, placeholder,
// and finally the control's name.
const fieldMetaJS = `(el, args) => {
	const attr = (n) => el.getAttribute(n) || '';
	const meta = {
		tag: el.tagName.toLowerCase(),
		type: attr('type').toLowerCase(),
		id: el.id || '',
		name: attr('name'),
		className: typeof el.className === 'string' ? el.className : '',
		placeholder: attr('placeholder'),
		ariaLabel: attr('aria-label'),
		required: el.required === true || attr('aria-required') === 'true',
		virtual: !!(args.virtualSel && el.matches(args.virtualSel)),
		multi: attr('aria-multiselectable') === 'true'
			|| /\[\]$/.test(attr('name'))
			|| !!(args.multiSel && el.closest(args.multiSel)),
	};

	let label = '';
	if (el.id) {
		const l = document.querySelector('label[for="' + CSS.escape(el.id) + '"]');
		if (l) label = l.textContent;
	}
	if (!label.trim()) label = meta.ariaLabel;
	if (!label.trim()) {
		let node = el.parentElement;
		for (let depth = 0; node && depth < 4; depth++, node = node.parentElement) {
			const l = node.querySelector('label, legend, [class*="label"]');
			if (l && l.textContent.trim()) { label = l.textContent; break; }
		}
	}

	const refText = [];
	for (const name of ['aria-labelledby', 'aria-describedby']) {
		for (const id of attr(name).split(/\s+/).filter(Boolean)) {
			const n = document.getElementById(id);
			if (n && n.textContent.trim()) refText.push(n.textContent.trim());
		}
	}
	meta.describedBy = refText.join(' ').replace(/\s+/g, ' ');
	if (!label.trim()) label = meta.describedBy;
	if (!label.trim()) label = meta.placeholder;
	if (!label.trim()) label = meta.name;
	meta.label = label.replace(/\s+/g, ' ').replace(/[*✱]\s*$/, '').trim();

	const trail = [];
	let p = el.parentElement;
	for (let depth = 0; p && depth < 5; depth++, p = p.parentElement) {
		if (typeof p.className === 'string' && p.className) trail.push(p.className);
	}
	meta.containerClasses = trail.join(' ');
	return meta;
}`

// fieldMeta is the decoded per-element extraction result.
type fieldMeta struct {
	Tag              string
	Type             string
	ID               string
	Name             string
	ClassName        string
	Placeholder      string
	AriaLabel        string
	DescribedBy      string
	Label            string
	ContainerClasses string
	Required         bool
	Virtual          bool
	Multi            bool
}

func decodeFieldMeta(raw any) fieldMeta {
	m, ok := raw.(map[string]any)
	if !ok {
		return fieldMeta{}
	}
	str := func(k string) string {
		s, _ := m[k].(string)
		return s
	}
	boolean := func(k string) bool {
		b, _ := m[k].(bool)
		return b
	}
	return fieldMeta{
		Tag:              str("tag"),
		Type:             str("type"),
		ID:               str("id"),
		Name:             str("name"),
		ClassName:        str("className"),
		Placeholder:      str("placeholder"),
		AriaLabel:        str("ariaLabel"),
		DescribedBy:      str("describedBy"),
		Label:            str("label"),
		ContainerClasses: str("containerClasses"),
		Required:         boolean("required"),
		Virtual:          boolean("virtual"),
		Multi:            boolean("multi"),
	}
}

// identity is the haystack the denylist and the matcher registry scan.
func (m fieldMeta) identity() string {
	return strings.Join([]string{m.ID, m.Name, m.ClassName}, " ")
}

// matchHaystack is what the registry patterns run over: every text the
// page associates with the control, inferred label first, backed by id
// and name for label-less forms.
func (m fieldMeta) matchHaystack() string {
	return strings.Join([]string{m.Label, m.AriaLabel, m.Placeholder, m.DescribedBy, m.ID, m.Name}, " ")
}

// inferFieldType maps extracted metadata to an interaction protocol.
func inferFieldType(m fieldMeta) domain.FieldType {
	switch m.Tag {
	case "select":
		return domain.FieldTypeNativeSelect
	case "textarea":
		return domain.FieldTypeTextarea
	}
	switch m.Type {
	case "checkbox":
		return domain.FieldTypeCheckbox
	case "radio":
		return domain.FieldTypeRadio
	}
	if m.Virtual {
		if m.Multi {
			return domain.FieldTypeVirtualMulti
		}
		return domain.FieldTypeVirtual
	}
	return domain.FieldTypeText
}

// classifyBucket places a field in exactly one processing bucket.
// Container classes win over registry matches: a "First name" input
// inside an education block belongs to the education handler.
func classifyBucket(sp *siteprofile.Profile, m fieldMeta, matched bool) domain.Bucket {
	switch sp.ContainerClass(m.ContainerClasses) {
	case "education":
		return domain.BucketEducation
	case "custom":
		return domain.BucketCustom
	}
	if matched {
		return domain.BucketStandard
	}
	return domain.BucketCustom
}
