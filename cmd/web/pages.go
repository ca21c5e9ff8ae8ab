package main

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/maht0rz/spartans-club-web/internal/consent"
	"github.com/maht0rz/spartans-club-web/internal/content"
	"github.com/maht0rz/spartans-club-web/internal/handlers"
	"github.com/maht0rz/spartans-club-web/internal/i18n"
	mw "github.com/maht0rz/spartans-club-web/internal/middleware"
	"github.com/maht0rz/spartans-club-web/internal/nav"
	"github.com/maht0rz/spartans-club-web/internal/observability"
	"github.com/maht0rz/spartans-club-web/internal/sections"
	"github.com/maht0rz/spartans-club-web/internal/seo"
	"github.com/maht0rz/spartans-club-web/internal/sitemap"
)

// handlePage renders the single scrolling page with the requested section active.
// A slug that belongs to another locale, or differs only in case, is redirected to
// its canonical form.
func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "lang")
	loc, ok := i18n.ParseLocale(raw)
	if !ok || loc.String() != raw {
		s.handleNotFound(w, r)
		return
	}
	id := s.reg.First()
	if slug := chi.URLParam(r, "slug"); slug != "" {
		found, ok := s.reg.Lookup(loc, slug)
		if !ok {
			if other, ok := s.reg.LookupAny(strings.ToLower(slug)); ok {
				target := s.reg.Path(loc, other)
				if r.URL.RawQuery != "" {
					target += "?" + r.URL.RawQuery
				}
				http.Redirect(w, r, target, http.StatusMovedPermanently)
				return
			}
			s.handleNotFound(w, r)
			return
		}
		id = found
	}
	s.render(w, r, http.StatusOK, s.pageData(r, loc, id, http.StatusOK))
}

func (s *server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	loc := mw.Lang(r)
	data := s.pageData(r, loc, "", http.StatusNotFound)
	data.SEO.Title = data.T("notfound.title") + " | " + data.T("brand.name")
	data.SEO.Robots = "noindex"
	data.SEO.JSONLD = nil
	s.render(w, r, http.StatusNotFound, data)
}

func (s *server) pageData(r *http.Request, loc i18n.Locale, id sections.ID, status int) handlers.PageData {
	bundle := s.bundle.Load()
	data := handlers.NewPageData(bundle, loc, s.now())
	data.Status = status
	data.Path = r.URL.Path
	data.Section = id
	data.Consent = consent.FromRequest(r)
	data.Analytics = handlers.AnalyticsFromConfig(s.cfg.Analytics)

	ids := make([]string, 0, len(s.reg.IDs()))
	for _, sid := range s.reg.IDs() {
		ids = append(ids, string(sid))
	}
	data.Client = handlers.NewClientConfig(s.cfg.Client, loc.String(), ids, s.cfg.Analytics.Debug)

	active := id
	if active == "" {
		active = s.reg.First()
	}
	data.Nav = nav.Build(s.reg, loc, id)
	data.Breadcrumbs = nav.Breadcrumbs(s.reg, loc, active)
	data.Languages = nav.Languages(s.reg, loc, active)
	data.Paths = handlers.SectionPaths(s.reg, loc)

	site, err := s.content.Site(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).Error("content unavailable", zap.Error(err))
		site = &content.Site{}
	}
	data.Site = site
	data.Gallery = galleryImages(filepath.Join(s.cfg.Paths.Public, "gallery"))
	data.SEO = s.meta(data, active)
	return data
}

func (s *server) meta(data handlers.PageData, id sections.ID) seo.Meta {
	title := data.T("site.title")
	if id != s.reg.First() {
		sec, _ := s.reg.Section(id)
		title = data.T(sec.LabelKey) + " | " + data.T("brand.name")
	}
	site := data.Site
	m := seo.Build(s.reg, seo.Page{
		BaseURL:     s.cfg.Site.BaseURL,
		Locale:      data.Lang,
		Section:     id,
		Title:       title,
		Description: data.T("site.description"),
		Image:       site.Info.HeroImage,
		SiteName:    data.T("brand.name"),
	})
	m.Keywords = "muay thai, bratislava, kickbox, thai box, spartans club"

	base := s.cfg.Site.BaseURL
	var sameAs []string
	for _, so := range site.Info.Social {
		sameAs = append(sameAs, so.URL)
	}
	logo := ""
	if site.Info.Logo != "" {
		logo = seo.Absolute(base, site.Info.Logo)
	}
	m.JSONLD = append(m.JSONLD,
		seo.JSON(seo.SportsActivityLocation(seo.Place{
			Name:        data.T("brand.name"),
			Description: data.T("site.description"),
			URL:         m.Canonical,
			Image:       m.OG.Image,
			Logo:        logo,
			Phone:       site.Info.Phone,
			Email:       site.Info.Email,
			Street:      site.Info.Address.Street,
			City:        site.Info.Address.City,
			PostalCode:  site.Info.Address.PostalCode,
			Country:     site.Info.Address.Country,
			Lat:         site.Info.Geo.Lat,
			Lng:         site.Info.Geo.Lng,
			PriceRange:  site.Info.PriceRange,
			AreaServed:  "Bratislava",
			SameAs:      sameAs,
			Sport:       "Muay Thai",
		})),
		seo.JSON(seo.Organization(data.T("brand.name"), base, logo, sameAs)),
		seo.JSON(seo.WebSite(data.T("brand.name"), seo.Absolute(base, s.reg.Path(data.Lang, s.reg.First())), data.Lang.String())),
	)
	if len(site.FAQ) > 0 {
		qa := make([]seo.QA, 0, len(site.FAQ))
		for _, f := range site.FAQ {
			qa = append(qa, seo.QA{Question: f.Question.In(data.Lang), Answer: f.Answer.In(data.Lang)})
		}
		m.JSONLD = append(m.JSONLD, seo.JSON(seo.FAQPage(qa)))
	}
	crumbs := make([]seo.BreadcrumbItem, 0, len(data.Breadcrumbs))
	for _, c := range data.Breadcrumbs {
		crumbs = append(crumbs, seo.BreadcrumbItem{Name: data.T(c.LabelKey), Item: seo.Absolute(base, c.Href)})
	}
	m.JSONLD = append(m.JSONLD, seo.JSON(seo.BreadcrumbList(crumbs)))
	return m
}

// galleryImages lists public gallery files by name. A missing directory is empty.
func galleryImages(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(path.Ext(e.Name()))
		for _, allowed := range sitemap.ImageExts {
			if ext == allowed {
				out = append(out, "/gallery/"+e.Name())
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// handleRootFile serves single files that live directly in the public root, like
// the logo and favicon.
func (s *server) handleRootFile(w http.ResponseWriter, r *http.Request) {
	name := path.Base(chi.URLParam(r, "file"))
	p := filepath.Join(s.cfg.Paths.Public, name)
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		s.handleNotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, p)
}
