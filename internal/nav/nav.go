package nav

import (
	"github.com/maht0rz/spartans-club-web/internal/i18n"
	"github.com/maht0rz/spartans-club-web/internal/sections"
)

// RenderedItem is a view model for templates.
type RenderedItem struct {
	ID       sections.ID
	Href     string
	Anchor   string
	LabelKey string
	Active   bool
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// LanguageLink points at the current section in another locale.
type LanguageLink struct {
	Locale  i18n.Locale
	Href    string
	Current bool
}

// Build renders one navigation item per registered section, marking active.
func Build(reg *sections.Registry, loc i18n.Locale, active sections.ID) []RenderedItem {
	if !reg.Has(active) {
		active = reg.First()
	}
	list := reg.Sections()
	items := make([]RenderedItem, 0, len(list))
	for _, sec := range list {
		items = append(items, RenderedItem{
			ID:       sec.ID,
			Href:     reg.Path(loc, sec.ID),
			Anchor:   sec.Anchor(),
			LabelKey: sec.LabelKey,
			Active:   sec.ID == active,
		})
	}
	return items
}

// Breadcrumbs builds Home plus, for any other section, that section.
func Breadcrumbs(reg *sections.Registry, loc i18n.Locale, active sections.ID) []Crumb {
	first := reg.First()
	home, _ := reg.Section(first)
	crumbs := []Crumb{{Href: reg.Path(loc, first), LabelKey: home.LabelKey, Active: active == first || !reg.Has(active)}}
	if active == first || !reg.Has(active) {
		return crumbs
	}
	sec, _ := reg.Section(active)
	return append(crumbs, Crumb{Href: reg.Path(loc, active), LabelKey: sec.LabelKey, Active: true})
}

// Languages returns a switch link per locale that keeps the active section.
func Languages(reg *sections.Registry, current i18n.Locale, active sections.ID) []LanguageLink {
	if !reg.Has(active) {
		active = reg.First()
	}
	out := make([]LanguageLink, 0, len(reg.Locales()))
	for _, l := range reg.Locales() {
		out = append(out, LanguageLink{Locale: l, Href: reg.Path(l, active), Current: l == current})
	}
	return out
}
