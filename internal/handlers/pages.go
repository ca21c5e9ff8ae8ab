package handlers

import (
	"html/template"
	"time"

	"github.com/maht0rz/spartans-club-web/internal/consent"
	"github.com/maht0rz/spartans-club-web/internal/content"
	"github.com/maht0rz/spartans-club-web/internal/i18n"
	"github.com/maht0rz/spartans-club-web/internal/nav"
	"github.com/maht0rz/spartans-club-web/internal/sections"
	"github.com/maht0rz/spartans-club-web/internal/seo"
)

// PageData is the view model for the shared layout.
type PageData struct {
	Lang      i18n.Locale
	SEO       seo.Meta
	Analytics Analytics
	Client    ClientConfig
	// Status is the HTTP status the page is served with.
	Status int

	Path        string
	Section     sections.ID
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb
	Languages   []nav.LanguageLink
	// Paths maps section ids to their localized URLs.
	Paths map[string]string

	Site    *content.Site
	Gallery []string
	Consent consent.State
	Year    int

	bundle *i18n.Bundle
}

// NewPageData starts a view model bound to bundle for translations.
func NewPageData(bundle *i18n.Bundle, lang i18n.Locale, now time.Time) PageData {
	return PageData{Lang: lang, bundle: bundle, Year: now.Year(), Consent: consent.Unset}
}

// T translates key in the page language.
func (p PageData) T(key string) string {
	if p.bundle == nil {
		return key
	}
	return p.bundle.T(p.Lang, key)
}

// ShowConsentBanner reports whether the visitor has not decided yet.
func (p PageData) ShowConsentBanner() bool { return !p.Consent.Decided() }

// Text picks the page language from a localized content value.
func (p PageData) Text(t content.Text) string { return t.In(p.Lang) }

func (p PageData) List(t content.TextList) []string { return t.In(p.Lang) }

func (p PageData) HTML(h content.HTML) template.HTML { return h.In(p.Lang) }

// Href is the localized URL of a section, or the locale root for unknown ids.
func (p PageData) Href(id string) string {
	if h, ok := p.Paths[id]; ok {
		return h
	}
	return "/" + p.Lang.String()
}

// SectionPaths maps every section of reg to its URL in lang.
func SectionPaths(reg *sections.Registry, lang i18n.Locale) map[string]string {
	out := make(map[string]string, len(reg.IDs()))
	for _, id := range reg.IDs() {
		out[string(id)] = reg.Path(lang, id)
	}
	return out
}
