// Package sitemap renders sitemap.xml, sitemap-images.xml and robots.txt for the
// localized section routes.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/maht0rz/spartans-club-web/internal/sections"
	"github.com/maht0rz/spartans-club-web/internal/seo"
)

const (
	nsSitemap = "http://www.sitemaps.org/schemas/sitemap/0.9"
	nsXHTML   = "http://www.w3.org/1999/xhtml"
	nsImage   = "http://www.google.com/schemas/sitemap-image/1.1"

	// CacheControl is sent with both sitemaps.
	CacheControl = "public, max-age=3600, s-maxage=3600, stale-while-revalidate=86400"
)

// ImageExts are the file extensions listed in the image sitemap.
var ImageExts = []string{".jpg", ".jpeg", ".png", ".webp", ".avif"}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	XHTML   string   `xml:"xmlns:xhtml,attr,omitempty"`
	Image   string   `xml:"xmlns:image,attr,omitempty"`
	URLs    []URL    `xml:"url"`
}

// URL is one <url> entry.
type URL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   string  `xml:"priority,omitempty"`
	Links      []Link  `xml:"xhtml:link"`
	Images     []Image `xml:"image:image"`
}

type Link struct {
	Rel      string `xml:"rel,attr"`
	Hreflang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

type Image struct {
	Loc string `xml:"image:loc"`
}

// Pages lists every locale × section route with hreflang alternates. The home section
// gets priority 1.0, the rest 0.7.
func Pages(reg *sections.Registry, base string, now time.Time) []URL {
	var out []URL
	lastmod := now.UTC().Format("2006-01-02")
	for _, l := range reg.Locales() {
		for _, id := range reg.IDs() {
			prio := "0.7"
			if id == reg.First() {
				prio = "1.0"
			}
			var links []Link
			for _, a := range seo.Alternates(reg, base, id) {
				links = append(links, Link{Rel: "alternate", Hreflang: a.Hreflang, Href: a.Href})
			}
			out = append(out, URL{
				Loc:        seo.Absolute(base, reg.Path(l, id)),
				LastMod:    lastmod,
				ChangeFreq: "weekly",
				Priority:   prio,
				Links:      links,
			})
		}
	}
	return out
}

// ImageSource maps a directory under the public root to the section its images
// appear in.
type ImageSource struct {
	Dir     string
	Section sections.ID
}

// DefaultImageSources are gallery photos and trainer portraits.
var DefaultImageSources = []ImageSource{
	{Dir: "gallery", Section: sections.Gallery},
	{Dir: "trainers", Section: sections.PrivateCoaching},
}

// ImageOptions configures Images.
type ImageOptions struct {
	// Public is the directory served at the site root.
	Public string
	// Hero is a public path attached to the home section, e.g. "/vincent.png".
	Hero    string
	Sources []ImageSource
}

// Images lists image files per source directory, each under its section's page in
// the registry's first locale. Missing directories are skipped. Output is sorted.
func Images(reg *sections.Registry, base string, opts ImageOptions) ([]URL, error) {
	srcs := opts.Sources
	if srcs == nil {
		srcs = DefaultImageSources
	}
	loc := reg.Locales()[0]
	var out []URL
	for _, src := range srcs {
		entries, err := os.ReadDir(filepath.Join(opts.Public, src.Dir))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("sitemap: list %s: %w", src.Dir, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Type().IsRegular() && isImage(e.Name()) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		page := seo.Absolute(base, reg.Path(loc, src.Section))
		for _, n := range names {
			out = append(out, URL{Loc: page, Images: []Image{{Loc: seo.Absolute(base, path.Join(src.Dir, n))}}})
		}
	}
	if opts.Hero != "" {
		out = append(out, URL{
			Loc:    seo.Absolute(base, reg.Path(loc, reg.First())),
			Images: []Image{{Loc: seo.Absolute(base, opts.Hero)}},
		})
	}
	return out, nil
}

func isImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ImageExts {
		if ext == e {
			return true
		}
	}
	return false
}

// Render writes the pages sitemap.
func Render(urls []URL) ([]byte, error) {
	return encode(urlset{Xmlns: nsSitemap, XHTML: nsXHTML, URLs: urls})
}

// RenderImages writes the image sitemap.
func RenderImages(urls []URL) ([]byte, error) {
	return encode(urlset{Xmlns: nsSitemap, Image: nsImage, URLs: urls})
}

func encode(set urlset) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, fmt.Errorf("sitemap: encode: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Robots allows everything and points at both sitemaps.
func Robots(base string) string {
	var b strings.Builder
	b.WriteString("User-agent: *\nAllow: /\n\n")
	b.WriteString("Sitemap: " + seo.Absolute(base, "/sitemap.xml") + "\n")
	b.WriteString("Sitemap: " + seo.Absolute(base, "/sitemap-images.xml") + "\n")
	return b.String()
}
