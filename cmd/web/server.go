package main

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/maht0rz/spartans-club-web/internal/analytics"
	"github.com/maht0rz/spartans-club-web/internal/config"
	"github.com/maht0rz/spartans-club-web/internal/content"
	"github.com/maht0rz/spartans-club-web/internal/i18n"
	mw "github.com/maht0rz/spartans-club-web/internal/middleware"
	"github.com/maht0rz/spartans-club-web/internal/sections"
)

// server holds everything the handlers share. Templates and translations are swapped
// atomically when the dev watcher reloads them.
type server struct {
	cfg     config.Config
	logger  *zap.Logger
	reg     *sections.Registry
	content *content.Store
	relay   *analytics.Relay
	now     func() time.Time

	tmpl   atomic.Pointer[template.Template]
	bundle atomic.Pointer[i18n.Bundle]
}

func newServer(cfg config.Config, logger *zap.Logger) (*server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &server{
		cfg:     cfg,
		logger:  logger,
		reg:     sections.Default(),
		content: content.NewStore(cfg.Paths.Content, content.WithTTL(cfg.Paths.ContentTTL), content.WithLogger(logger)),
		relay:   analytics.NewRelay(newTransport(cfg.Analytics, logger), analytics.WithLogger(logger)),
		now:     time.Now,
	}
	if err := s.reloadLocales(); err != nil {
		return nil, err
	}
	if err := s.reloadTemplates(); err != nil {
		return nil, err
	}
	return s, nil
}

func newTransport(cfg config.AnalyticsConfig, logger *zap.Logger) analytics.Transport {
	if !cfg.Enabled() {
		return analytics.LogTransport{Logger: logger}
	}
	return analytics.MeasurementProtocol{
		MeasurementID: cfg.MeasurementID,
		APISecret:     cfg.APISecret,
		Endpoint:      cfg.Endpoint,
		Client:        &http.Client{Timeout: 5 * time.Second},
		Debug:         cfg.Debug,
	}
}

func (s *server) reloadLocales() error {
	b, err := i18n.Load(s.cfg.Paths.Locales, s.cfg.Site.DefaultLocale, i18n.All)
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	s.bundle.Store(b)
	return nil
}

func (s *server) reloadTemplates() error {
	t, err := parseTemplates(s.cfg.Paths.Templates, s.funcMap())
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	s.tmpl.Store(t)
	return nil
}

func (s *server) secureCookies() bool {
	return strings.HasPrefix(s.cfg.Site.BaseURL, "https://")
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(mw.LocaleRedirect(s.bundle.Load(), mw.LocaleOptions{Secure: s.secureCookies()}))
	r.Use(mw.VaryLocale)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/assets/*", mw.Assets(s.cfg.Paths.Public+"/assets", "/assets", s.logger))
	for _, dir := range []string{"gallery", "trainers"} {
		r.Handle("/"+dir+"/*", mw.Assets(s.cfg.Paths.Public+"/"+dir, "/"+dir, s.logger))
	}
	r.Get("/{file:[a-z0-9_-]+\\.[a-z0-9]+}", s.handleRootFile)

	r.Get("/sitemap.xml", s.handleSitemap)
	r.Get("/sitemap-images.xml", s.handleImageSitemap)
	r.Get("/robots.txt", s.handleRobots)

	r.Route("/api", func(r chi.Router) {
		r.Post("/consent", s.handleConsent)
		r.Post("/events", s.handleEvents)
	})

	r.Get("/{lang}", s.handlePage)
	r.Get("/{lang}/{slug}", s.handlePage)
	r.NotFound(s.handleNotFound)
	return r
}
