// Package collector walks a rendered application form and turns its
// controls into logical fields ready for matching and filling: label
// inference, control-kind detection, checkbox/radio group merging, and
// bucket classification.
package collector

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/applyforge/applyforge/internal/domain"
	"github.com/applyforge/applyforge/internal/engine"
	"github.com/applyforge/applyforge/internal/match"
	"github.com/applyforge/applyforge/internal/siteprofile"
)

type Collector struct {
	page     playwright.Page
	sp       *siteprofile.Profile
	registry *match.Registry
	eng      *engine.Engine
	logger   *zap.Logger
}

func New(page playwright.Page, sp *siteprofile.Profile, registry *match.Registry, eng *engine.Engine, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{page: page, sp: sp, registry: registry, eng: eng, logger: logger}
}

// rawField pairs an element with its extracted metadata before group
// merging.
type rawField struct {
	meta fieldMeta
	el   playwright.Locator
}

// Collect scans the page for fillable controls and returns the logical
// field list in document order. Denylisted controls are skipped;
// checkbox and radio controls sharing a name merge into one field.
func (c *Collector) Collect(ctx context.Context) ([]*FormField, error) {
	elements := c.page.Locator(c.sp.FieldSelector)
	count, err := elements.Count()
	if err != nil {
		return nil, fmt.Errorf("scanning form controls: %w", err)
	}

	args := map[string]any{
		"virtualSel": c.sp.VirtualMarkerSelector,
		"multiSel":   c.sp.MultiValueContainerSelector,
	}

	raw := make([]rawField, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		el := elements.Nth(i)

		if visible, err := el.IsVisible(); err != nil || !visible {
			// Virtual-select inputs are sometimes rendered 1x1 or
			// opacity:0 behind the styled control; those still matter.
			meta := c.extract(el, args)
			if !meta.Virtual {
				continue
			}
			raw = append(raw, rawField{meta: meta, el: el})
			continue
		}

		meta := c.extract(el, args)
		if c.sp.Denylisted(meta.identity()) {
			c.logger.Debug("skipping denylisted control", zap.String("identity", meta.identity()))
			continue
		}
		raw = append(raw, rawField{meta: meta, el: el})
	}

	fields := c.assemble(raw)
	c.discoverOptions(ctx, fields)

	c.logger.Info("form collected",
		zap.Int("controls", count),
		zap.Int("fields", len(fields)),
		zap.String("site", c.sp.Name),
	)
	return fields, nil
}

func (c *Collector) extract(el playwright.Locator, args map[string]any) fieldMeta {
	result, err := el.Evaluate(fieldMetaJS, args)
	if err != nil {
		c.logger.Debug("metadata extraction failed", zap.Error(err))
		return fieldMeta{}
	}
	return decodeFieldMeta(result)
}

// assemble converts raw controls to logical fields, merging checkbox
// and radio groups that share a name. The first member of a group
// contributes its position and container label; each member's own
// label becomes an option.
func (c *Collector) assemble(raw []rawField) []*FormField {
	var fields []*FormField
	groups := map[string]*FormField{}

	for i, r := range raw {
		ft := inferFieldType(r.meta)

		if (ft == domain.FieldTypeCheckbox || ft == domain.FieldTypeRadio) && r.meta.Name != "" {
			key := string(ft) + "\x00" + r.meta.Name
			if f, ok := groups[key]; ok {
				f.Group = append(f.Group, GroupItem{Label: r.meta.Label, Element: r.el})
				f.Options = append(f.Options, r.meta.Label)
				continue
			}
			f := c.newField(r, ft, i)
			f.Group = []GroupItem{{Label: r.meta.Label, Element: r.el}}
			f.Options = []string{r.meta.Label}
			groups[key] = f
			fields = append(fields, f)
			continue
		}

		fields = append(fields, c.newField(r, ft, i))
	}

	// A checkbox group with a single member is just a lone checkbox; its
	// own label is the field label and the group machinery is dropped.
	// A lone radio keeps its group so it still commits through the
	// radio protocol.
	for _, f := range fields {
		if f.Type == domain.FieldTypeCheckbox && len(f.Group) == 1 {
			f.Group = nil
			f.Options = nil
		}
	}
	return fields
}

func (c *Collector) newField(r rawField, ft domain.FieldType, position int) *FormField {
	matcher, matched := c.registry.Match(r.meta.matchHaystack())

	f := &FormField{
		ID:       fieldID(r.meta.ID, r.meta.Name, position),
		Element:  r.el,
		Label:    r.meta.Label,
		Name:     r.meta.Name,
		Type:     ft,
		Required: r.meta.Required,
		Bucket:   classifyBucket(c.sp, r.meta, matched),
	}
	if matched {
		f.MatcherKey = matcher.Key
	}
	return f
}

// discoverOptions fills Options for select-like fields: native selects
// read their option elements, virtual selects momentarily open their
// menu. Discovery failures leave Options empty rather than failing the
// pass; the field drops to the custom handler with no option set.
func (c *Collector) discoverOptions(ctx context.Context, fields []*FormField) {
	for _, f := range fields {
		if err := ctx.Err(); err != nil {
			return
		}
		switch f.Type {
		case domain.FieldTypeNativeSelect:
			opts, err := c.eng.ReadNativeOptions(f.Element)
			if err != nil {
				c.logger.Debug("native option read failed", zap.String("field", f.ID), zap.Error(err))
				continue
			}
			for _, o := range opts {
				if o.Indexable() {
					f.Options = append(f.Options, o.DisplayText())
				}
			}
		case domain.FieldTypeVirtual, domain.FieldTypeVirtualMulti:
			texts, err := c.eng.DiscoverOptions(f.Element)
			if err != nil {
				c.logger.Debug("virtual option discovery failed", zap.String("field", f.ID), zap.Error(err))
				continue
			}
			f.Options = texts
		}
	}
}

// DetectRedirect scans the page's iframes for a src belonging to a
// different deployment of the site family. A hit means the real form
// lives elsewhere and this pass should end with a redirect result
// carrying that URL.
func (c *Collector) DetectRedirect() (string, bool) {
	if len(c.sp.IframeHostPatterns) == 0 {
		return "", false
	}
	frames := c.page.Locator("iframe[src]")
	count, err := frames.Count()
	if err != nil {
		return "", false
	}
	for i := 0; i < count; i++ {
		src, err := frames.Nth(i).GetAttribute("src")
		if err != nil || src == "" {
			continue
		}
		if c.sp.RedirectHost(src) {
			return src, true
		}
	}
	return "", false
}
