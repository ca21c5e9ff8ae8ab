// Package sections holds the fixed, ordered list of page sections and their
// localized URL slugs.
package sections

import (
	"errors"
	"fmt"
	"strings"

	"github.com/maht0rz/spartans-club-web/internal/i18n"
)

// ID identifies a section independently of locale. It doubles as the DOM anchor id.
type ID string

const (
	Top             ID = "top"
	WayOfLife       ID = "way-of-life"
	Sessions        ID = "sessions"
	Testimonials    ID = "testimonials"
	PrivateCoaching ID = "private-coaching"
	About           ID = "about"
	Gallery         ID = "gallery"
)

// Section binds an identifier to its anchor, nav label and per-locale slugs.
type Section struct {
	ID       ID
	LabelKey string
	Slugs    map[i18n.Locale]string
}

// Anchor is the DOM element id the section renders under.
func (s Section) Anchor() string { return string(s.ID) }

// ErrUnknownSection is returned for identifiers outside the registry.
var ErrUnknownSection = errors.New("sections: unknown section")

// Registry is an immutable bidirectional id <-> slug mapping.
type Registry struct {
	sections []Section
	index    map[ID]int
	bySlug   map[i18n.Locale]map[string]ID
	locales  []i18n.Locale
}

// Default returns the site's registry.
func Default() *Registry {
	r, err := NewRegistry(i18n.All, []Section{
		{ID: Top, LabelKey: "nav.home", Slugs: map[i18n.Locale]string{i18n.SK: "", i18n.EN: ""}},
		{ID: WayOfLife, LabelKey: "nav.wayoflife", Slugs: map[i18n.Locale]string{i18n.SK: "way-of-life", i18n.EN: "way-of-life"}},
		{ID: Sessions, LabelKey: "nav.sessions", Slugs: map[i18n.Locale]string{i18n.SK: "rozvrh", i18n.EN: "sessions"}},
		{ID: Testimonials, LabelKey: "nav.testimonials", Slugs: map[i18n.Locale]string{i18n.SK: "referencie", i18n.EN: "testimonials"}},
		{ID: PrivateCoaching, LabelKey: "nav.private", Slugs: map[i18n.Locale]string{i18n.SK: "private-coaching", i18n.EN: "private-coaching"}},
		{ID: About, LabelKey: "nav.about", Slugs: map[i18n.Locale]string{i18n.SK: "o-nas", i18n.EN: "about"}},
		{ID: Gallery, LabelKey: "nav.gallery", Slugs: map[i18n.Locale]string{i18n.SK: "galeria", i18n.EN: "gallery"}},
	})
	if err != nil {
		panic(err)
	}
	return r
}

// NewRegistry validates and indexes sections. The first section is the home section:
// its slug must be empty in every locale. All other slugs must be non-empty and unique
// within their locale.
func NewRegistry(locales []i18n.Locale, list []Section) (*Registry, error) {
	if len(list) == 0 {
		return nil, errors.New("sections: empty registry")
	}
	if len(locales) == 0 {
		return nil, errors.New("sections: no locales")
	}
	r := &Registry{
		sections: make([]Section, 0, len(list)),
		index:    make(map[ID]int, len(list)),
		bySlug:   make(map[i18n.Locale]map[string]ID, len(locales)),
		locales:  append([]i18n.Locale(nil), locales...),
	}
	for _, l := range locales {
		r.bySlug[l] = map[string]ID{}
	}
	for i, s := range list {
		if s.ID == "" {
			return nil, fmt.Errorf("sections: entry %d has no id", i)
		}
		if _, dup := r.index[s.ID]; dup {
			return nil, fmt.Errorf("sections: duplicate id %q", s.ID)
		}
		slugs := make(map[i18n.Locale]string, len(locales))
		for _, l := range locales {
			slug, ok := s.Slugs[l]
			if !ok {
				return nil, fmt.Errorf("sections: %q has no slug for %s", s.ID, l)
			}
			slug = strings.Trim(slug, "/")
			if i == 0 && slug != "" {
				return nil, fmt.Errorf("sections: home section %q must have an empty slug for %s", s.ID, l)
			}
			if i > 0 {
				if slug == "" {
					return nil, fmt.Errorf("sections: %q has an empty slug for %s", s.ID, l)
				}
				if other, dup := r.bySlug[l][slug]; dup {
					return nil, fmt.Errorf("sections: slug %q for %s used by %q and %q", slug, l, other, s.ID)
				}
			}
			r.bySlug[l][slug] = s.ID
			slugs[l] = slug
		}
		s.Slugs = slugs
		r.index[s.ID] = len(r.sections)
		r.sections = append(r.sections, s)
	}
	return r, nil
}

// Sections returns the sections in registry order.
func (r *Registry) Sections() []Section {
	return append([]Section(nil), r.sections...)
}

// IDs returns the identifiers in registry order.
func (r *Registry) IDs() []ID {
	out := make([]ID, len(r.sections))
	for i, s := range r.sections {
		out[i] = s.ID
	}
	return out
}

// Locales returns the locales the registry carries slugs for.
func (r *Registry) Locales() []i18n.Locale {
	return append([]i18n.Locale(nil), r.locales...)
}

// First is the home section.
func (r *Registry) First() ID { return r.sections[0].ID }

func (r *Registry) Has(id ID) bool {
	_, ok := r.index[id]
	return ok
}

// Index returns the registry position of id, or -1.
func (r *Registry) Index(id ID) int {
	if i, ok := r.index[id]; ok {
		return i
	}
	return -1
}

func (r *Registry) Section(id ID) (Section, error) {
	i, ok := r.index[id]
	if !ok {
		return Section{}, fmt.Errorf("%w: %q", ErrUnknownSection, id)
	}
	return r.sections[i], nil
}

// Slug returns the localized slug of id.
func (r *Registry) Slug(l i18n.Locale, id ID) (string, bool) {
	i, ok := r.index[id]
	if !ok {
		return "", false
	}
	slug, ok := r.sections[i].Slugs[l]
	return slug, ok
}

// Path returns "/{locale}" for the home section and "/{locale}/{slug}" otherwise.
// Unknown ids map to the locale root.
func (r *Registry) Path(l i18n.Locale, id ID) string {
	slug, _ := r.Slug(l, id)
	if slug == "" {
		return "/" + string(l)
	}
	return "/" + string(l) + "/" + slug
}

// Lookup maps a slug in locale l back to its section.
func (r *Registry) Lookup(l i18n.Locale, slug string) (ID, bool) {
	m, ok := r.bySlug[l]
	if !ok {
		return "", false
	}
	id, ok := m[strings.Trim(slug, "/")]
	return id, ok
}

// LookupAny tries every locale in registry order. Used to redirect a slug that belongs
// to the other language (e.g. /sk/sessions) to its canonical form.
func (r *Registry) LookupAny(slug string) (ID, bool) {
	for _, l := range r.locales {
		if id, ok := r.Lookup(l, slug); ok {
			return id, true
		}
	}
	return "", false
}

// ParsePath splits "/{locale}/{slug}" into its locale and section.
func (r *Registry) ParsePath(p string) (i18n.Locale, ID, bool) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	l, ok := i18n.ParseLocale(parts[0])
	if !ok {
		return "", "", false
	}
	switch len(parts) {
	case 1:
		return l, r.First(), true
	case 2:
		id, ok := r.Lookup(l, strings.ToLower(parts[1]))
		return l, id, ok
	}
	return l, "", false
}

// SwitchLocale rewrites a localized path into target, keeping the section. Paths that
// do not name a known section fall back to the target locale's home.
func (r *Registry) SwitchLocale(p string, target i18n.Locale) string {
	_, id, ok := r.ParsePath(p)
	if !ok {
		id = r.First()
	}
	return r.Path(target, id)
}
