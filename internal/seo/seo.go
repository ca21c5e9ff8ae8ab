// Package seo builds per-page metadata: canonical and hreflang links, Open Graph and
// Twitter cards, and schema.org JSON-LD payloads.
package seo

import (
	"strings"

	"github.com/maht0rz/spartans-club-web/internal/i18n"
	"github.com/maht0rz/spartans-club-web/internal/sections"
)

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
	Locale      string
	// AltLocales are the og:locale:alternate values.
	AltLocales []string
}

type Twitter struct {
	Card  string
	Site  string
	Image string
}

// Alternate is one <link rel="alternate" hreflang> entry.
type Alternate struct {
	Hreflang string
	Href     string
}

type Meta struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	Keywords    string
	OG          OpenGraph
	Twitter     Twitter
	Alternates  []Alternate
	// JSONLD holds marshalled payloads, one <script type="application/ld+json"> each.
	JSONLD []string
}

// Page describes the page a Meta is built for.
type Page struct {
	BaseURL     string
	Locale      i18n.Locale
	Section     sections.ID
	Title       string
	Description string
	Image       string
	SiteName    string
}

// Absolute joins base and p without doubling slashes. Absolute p is returned as is.
func Absolute(base, p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	if p == "" {
		return strings.TrimRight(base, "/")
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}

// Alternates lists the section in every registry locale plus x-default, which points
// at the registry's first locale.
func Alternates(reg *sections.Registry, base string, id sections.ID) []Alternate {
	locales := reg.Locales()
	out := make([]Alternate, 0, len(locales)+1)
	for _, l := range locales {
		out = append(out, Alternate{Hreflang: l.String(), Href: Absolute(base, reg.Path(l, id))})
	}
	return append(out, Alternate{Hreflang: "x-default", Href: Absolute(base, reg.Path(locales[0], id))})
}

// Build fills canonical, alternates and the social cards for p. JSON-LD is left to
// the caller.
func Build(reg *sections.Registry, p Page) Meta {
	canonical := Absolute(p.BaseURL, reg.Path(p.Locale, p.Section))
	image := ""
	if p.Image != "" {
		image = Absolute(p.BaseURL, p.Image)
	}
	var alt []string
	for _, l := range reg.Locales() {
		if l != p.Locale {
			alt = append(alt, l.OGLocale())
		}
	}
	return Meta{
		Title:       p.Title,
		Description: p.Description,
		Canonical:   canonical,
		Robots:      "index,follow",
		OG: OpenGraph{
			Title:       p.Title,
			Description: p.Description,
			Image:       image,
			Type:        "website",
			URL:         canonical,
			SiteName:    p.SiteName,
			Locale:      p.Locale.OGLocale(),
			AltLocales:  alt,
		},
		Twitter:    Twitter{Card: "summary_large_image", Image: image},
		Alternates: Alternates(reg, p.BaseURL, p.Section),
	}
}
