// Package content loads the club's editable site data (schedule, trainers, testimonials,
// FAQ) from YAML files and renders their markdown fields to sanitized HTML.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/maht0rz/spartans-club-web/internal/clock"
	"github.com/maht0rz/spartans-club-web/internal/i18n"
)

// ErrNotFound is returned when the content directory has no site.yaml.
var ErrNotFound = errors.New("content: not found")

const defaultTTL = 5 * time.Minute

// Text is a string translated per locale.
type Text map[i18n.Locale]string

// In returns the value for l, falling back to Slovak and then to any value.
func (t Text) In(l i18n.Locale) string {
	if v, ok := t[l]; ok && v != "" {
		return v
	}
	if v, ok := t[i18n.Default]; ok {
		return v
	}
	for _, v := range t {
		return v
	}
	return ""
}

// HTML is sanitized markup per locale.
type HTML map[i18n.Locale]template.HTML

// In returns the markup for l with the same fallback as Text.In.
func (h HTML) In(l i18n.Locale) template.HTML {
	if v, ok := h[l]; ok && v != "" {
		return v
	}
	return h[i18n.Default]
}

// TextList is a list of strings translated per locale.
type TextList map[i18n.Locale][]string

func (t TextList) In(l i18n.Locale) []string {
	if v, ok := t[l]; ok && len(v) > 0 {
		return v
	}
	return t[i18n.Default]
}

// Site is everything the page renders besides translations.
type Site struct {
	Info         Info
	Stats        []Stat
	Reasons      []Reason
	Sessions     []Session
	Trainers     []Trainer
	Testimonials []Testimonial
	FAQ          []FAQItem
	LoadedAt     time.Time
}

// Info is the club's contact and identity data.
type Info struct {
	Name        string   `yaml:"name"`
	Tagline     Text     `yaml:"tagline"`
	Phone       string   `yaml:"phone"`
	Email       string   `yaml:"email"`
	Address     Address  `yaml:"address"`
	Geo         Geo      `yaml:"geo"`
	HeroImage   string   `yaml:"hero_image"`
	Logo        string   `yaml:"logo"`
	Social      []Social `yaml:"social"`
	OpeningDays string   `yaml:"opening_days"`
	PriceRange  string   `yaml:"price_range"`
	Founded     int      `yaml:"founded"`
}

type Address struct {
	Street     string `yaml:"street"`
	City       string `yaml:"city"`
	PostalCode string `yaml:"postal_code"`
	Country    string `yaml:"country"`
}

type Geo struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

// Social is an outbound profile link; clicks are tracked as social_click.
type Social struct {
	Network string `yaml:"network"`
	URL     string `yaml:"url"`
}

// Stat is one counter in the hero strip.
type Stat struct {
	Key   string `yaml:"key"`
	Label Text   `yaml:"label"`
	Value string `yaml:"value"`
}

// Reason is a "way of life" card.
type Reason struct {
	Title Text `yaml:"title"`
	Body  Text `yaml:"body"`
}

// Session is a class on the schedule.
type Session struct {
	ID        string   `yaml:"id"`
	Title     Text     `yaml:"title"`
	Days      Text     `yaml:"days"`
	Time      string   `yaml:"time"`
	Badge     Text     `yaml:"badge"`
	Ribbon    Text     `yaml:"ribbon"`
	Reasons   TextList `yaml:"reasons"`
	Ideal     TextList `yaml:"ideal"`
	Month12   string   `yaml:"price_month12"`
	PerVisit  string   `yaml:"price_session"`
	Highlight bool     `yaml:"highlight"`
}

// Trainer is a coach offering private sessions.
type Trainer struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Role    Text   `yaml:"role"`
	Image   string `yaml:"image"`
	Phone   string `yaml:"phone"`
	Bio     Text   `yaml:"bio"`
	BioHTML HTML   `yaml:"-"`
}

type Testimonial struct {
	Author string   `yaml:"author"`
	Rating int      `yaml:"rating"`
	Tags   TextList `yaml:"tags"`
	Text   Text     `yaml:"text"`
}

// Stars returns the rating clamped to 0..5 as a slice for templates to range over.
func (t Testimonial) Stars() []bool {
	r := t.Rating
	if r < 0 {
		r = 0
	}
	if r > 5 {
		r = 5
	}
	out := make([]bool, 5)
	for i := 0; i < r; i++ {
		out[i] = true
	}
	return out
}

type FAQItem struct {
	Question   Text `yaml:"question"`
	Answer     Text `yaml:"answer"`
	AnswerHTML HTML `yaml:"-"`
}

type siteFile struct {
	Info  Info   `yaml:"info"`
	Stats []Stat `yaml:"stats"`
}

// Store loads content from dir and keeps it for the TTL.
type Store struct {
	dir    string
	ttl    time.Duration
	clock  clock.Clock
	logger *zap.Logger
	md     goldmark.Markdown
	policy *bluemonday.Policy

	mu      sync.RWMutex
	cached  *Site
	expires time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithTTL sets how long loaded content is served before re-reading the files.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithClock(c clock.Clock) Option { return func(s *Store) { s.clock = c } }

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		ttl:    defaultTTL,
		clock:  clock.Real(),
		logger: zap.NewNop(),
		md:     goldmark.New(goldmark.WithExtensions(extension.Typographer, extension.Linkify)),
		policy: newHTMLPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newHTMLPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Dir returns the content directory.
func (s *Store) Dir() string { return s.dir }

// Site returns the cached content, reloading it once the TTL has passed. A failed
// reload keeps serving the previous content.
func (s *Store) Site(ctx context.Context) (*Site, error) {
	now := s.clock.Now()
	s.mu.RLock()
	if s.cached != nil && now.Before(s.expires) {
		site := s.cached
		s.mu.RUnlock()
		return site, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && now.Before(s.expires) {
		return s.cached, nil
	}
	site, err := s.load(ctx)
	if err != nil {
		if s.cached != nil {
			s.logger.Warn("content: reload failed, serving stale content", zap.Error(err))
			s.expires = now.Add(s.ttl)
			return s.cached, nil
		}
		return nil, err
	}
	site.LoadedAt = now
	s.cached = site
	s.expires = now.Add(s.ttl)
	return site, nil
}

// Invalidate drops the cache so the next Site call reads the files.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// Load reads every content file without touching the cache.
func (s *Store) Load(ctx context.Context) (*Site, error) { return s.load(ctx) }

func (s *Store) load(ctx context.Context) (*Site, error) {
	var sf siteFile
	if err := s.readYAML("site.yaml", &sf, true); err != nil {
		return nil, err
	}
	site := &Site{Info: sf.Info, Stats: sf.Stats}

	var sessions struct {
		Sessions []Session `yaml:"sessions"`
	}
	var trainers struct {
		Trainers []Trainer `yaml:"trainers"`
	}
	var testimonials struct {
		Testimonials []Testimonial `yaml:"testimonials"`
	}
	var faq struct {
		FAQ []FAQItem `yaml:"faq"`
	}
	var reasons struct {
		Reasons []Reason `yaml:"reasons"`
	}
	for name, v := range map[string]any{
		"sessions.yaml":     &sessions,
		"trainers.yaml":     &trainers,
		"testimonials.yaml": &testimonials,
		"faq.yaml":          &faq,
		"reasons.yaml":      &reasons,
	} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.readYAML(name, v, false); err != nil {
			return nil, err
		}
	}
	site.Sessions = sessions.Sessions
	site.Trainers = trainers.Trainers
	site.Testimonials = testimonials.Testimonials
	site.FAQ = faq.FAQ
	site.Reasons = reasons.Reasons

	for i := range site.Trainers {
		h, err := s.renderText(site.Trainers[i].Bio)
		if err != nil {
			return nil, fmt.Errorf("content: trainer %s bio: %w", site.Trainers[i].ID, err)
		}
		site.Trainers[i].BioHTML = h
	}
	for i := range site.FAQ {
		h, err := s.renderText(site.FAQ[i].Answer)
		if err != nil {
			return nil, fmt.Errorf("content: faq %d answer: %w", i, err)
		}
		site.FAQ[i].AnswerHTML = h
	}
	return site, nil
}

func (s *Store) readYAML(name string, v any, required bool) error {
	raw, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if required {
				return fmt.Errorf("%w: %s", ErrNotFound, filepath.Join(s.dir, name))
			}
			return nil
		}
		return fmt.Errorf("content: read %s: %w", name, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("content: parse %s: %w", name, err)
	}
	return nil
}

func (s *Store) renderText(t Text) (HTML, error) {
	out := make(HTML, len(t))
	for l, src := range t {
		h, err := s.Markdown(src)
		if err != nil {
			return nil, err
		}
		out[l] = h
	}
	return out, nil
}

// Markdown renders src and strips anything outside the UGC policy.
func (s *Store) Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(strings.TrimSpace(src)), &buf); err != nil {
		return "", err
	}
	return template.HTML(strings.TrimSpace(s.policy.Sanitize(buf.String()))), nil
}

// Validate reports content that would render with gaps in one of locales.
func (site *Site) Validate(locales []i18n.Locale) error {
	var problems []string
	missing := func(where string, t Text) {
		for _, l := range locales {
			if strings.TrimSpace(t[l]) == "" {
				problems = append(problems, fmt.Sprintf("%s: missing %s", where, l))
			}
		}
	}
	if site.Info.Name == "" {
		problems = append(problems, "site.yaml: info.name is empty")
	}
	for i, s := range site.Sessions {
		if s.ID == "" {
			problems = append(problems, fmt.Sprintf("sessions.yaml[%d]: missing id", i))
		}
		missing(fmt.Sprintf("sessions.yaml[%s].title", s.ID), s.Title)
	}
	for _, tr := range site.Trainers {
		missing(fmt.Sprintf("trainers.yaml[%s].bio", tr.ID), tr.Bio)
	}
	for i, q := range site.FAQ {
		missing(fmt.Sprintf("faq.yaml[%d].question", i), q.Question)
		missing(fmt.Sprintf("faq.yaml[%d].answer", i), q.Answer)
	}
	for i, r := range site.Reasons {
		missing(fmt.Sprintf("reasons.yaml[%d].title", i), r.Title)
	}
	if len(problems) > 0 {
		return errors.New("content: " + strings.Join(problems, "; "))
	}
	return nil
}
