package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/maht0rz/spartans-club-web/internal/observability"
	"github.com/maht0rz/spartans-club-web/internal/sitemap"
)

func (s *server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	out, err := sitemap.Render(sitemap.Pages(s.reg, s.cfg.Site.BaseURL, s.now()))
	s.writeXML(w, r, out, err)
}

func (s *server) handleImageSitemap(w http.ResponseWriter, r *http.Request) {
	hero := ""
	if site, err := s.content.Site(r.Context()); err == nil {
		hero = site.Info.HeroImage
	}
	urls, err := sitemap.Images(s.reg, s.cfg.Site.BaseURL, sitemap.ImageOptions{Public: s.cfg.Paths.Public, Hero: hero})
	if err != nil {
		s.writeXML(w, r, nil, err)
		return
	}
	out, err := sitemap.RenderImages(urls)
	s.writeXML(w, r, out, err)
}

func (s *server) writeXML(w http.ResponseWriter, r *http.Request, body []byte, err error) {
	if err != nil {
		observability.FromContext(r.Context()).Error("sitemap failed", zap.Error(err))
		http.Error(w, "sitemap unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", sitemap.CacheControl)
	_, _ = w.Write(body)
}

func (s *server) handleRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(sitemap.Robots(s.cfg.Site.BaseURL)))
}
