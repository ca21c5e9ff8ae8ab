// Package config loads runtime configuration for the web server from the environment
// and an optional .env file.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/maht0rz/spartans-club-web/internal/i18n"
)

const (
	envPrefix = "SPARTANS_WEB_"

	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultSiteURL      = "https://www.spartans.sk"
	defaultLogLevel     = "info"
	defaultCommitDelay  = 360 * time.Millisecond
	defaultConsentPoll  = 2 * time.Second
	defaultContentTTL   = 5 * time.Minute
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Paths     PathConfig
	Analytics AnalyticsConfig
	Client    ClientConfig
	LogLevel  string
	Dev       bool
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SiteConfig describes the public site.
type SiteConfig struct {
	// BaseURL is the canonical origin without a trailing slash.
	BaseURL       string
	DefaultLocale i18n.Locale
	Env           string
}

// PathConfig locates on-disk assets.
type PathConfig struct {
	Templates  string
	Public     string
	Locales    string
	Content    string
	ContentTTL time.Duration
}

// AnalyticsConfig holds GA4 settings. An empty measurement id or secret disables the
// Measurement Protocol relay and events are only logged.
type AnalyticsConfig struct {
	MeasurementID string
	APISecret     string
	Endpoint      string
	Debug         bool
}

// Enabled reports whether events can be relayed to GA4.
func (a AnalyticsConfig) Enabled() bool { return a.MeasurementID != "" && a.APISecret != "" }

// ClientConfig tunes the browser runtime.
type ClientConfig struct {
	CommitDelay         time.Duration
	ConsentPollInterval time.Duration
}

// ValidationError lists fields that could not be parsed.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env path. An empty path skips the file.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap injects explicit values that take precedence over the system environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv stops Load from reading os environment variables.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// Load assembles the configuration from defaults, the .env file, the environment and
// explicit overrides, in increasing precedence.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := options.envMap[key]; ok {
			return v, true
		}
		if options.useSystemEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		v, ok := dotEnv[key]
		return v, ok
	}

	l := &loader{lookup: lookup}
	cfg := Config{
		Server: ServerConfig{
			Addr:         l.addr(),
			ReadTimeout:  l.duration("READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: l.duration("WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  l.duration("IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Site: SiteConfig{
			BaseURL:       strings.TrimRight(l.str("SITE_URL", defaultSiteURL), "/"),
			DefaultLocale: l.locale("DEFAULT_LOCALE", i18n.Default),
			Env:           l.str("ENV", "dev"),
		},
		Paths: PathConfig{
			Templates:  l.str("TEMPLATES_DIR", "templates"),
			Public:     l.str("PUBLIC_DIR", "public"),
			Locales:    l.str("LOCALES_DIR", "locales"),
			Content:    l.str("CONTENT_DIR", "content"),
			ContentTTL: l.duration("CONTENT_TTL", defaultContentTTL),
		},
		Analytics: AnalyticsConfig{
			MeasurementID: l.str("GA_MEASUREMENT_ID", ""),
			APISecret:     l.str("GA_API_SECRET", ""),
			Endpoint:      l.str("GA_ENDPOINT", ""),
			Debug:         l.boolean("ANALYTICS_DEBUG", false),
		},
		Client: ClientConfig{
			CommitDelay:         l.duration("COMMIT_DELAY", defaultCommitDelay),
			ConsentPollInterval: l.duration("CONSENT_POLL_INTERVAL", defaultConsentPoll),
		},
		LogLevel: strings.ToLower(l.str("LOG_LEVEL", defaultLogLevel)),
		Dev:      l.boolean("DEV", false),
	}

	if u, err := url.Parse(cfg.Site.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		l.invalid("SITE_URL")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		l.invalid("LOG_LEVEL")
	}

	if len(l.bad) > 0 {
		return Config{}, &ValidationError{fields: l.bad}
	}
	return cfg, nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return values, nil
}

type loader struct {
	lookup func(string) (string, bool)
	bad    []string
}

func (l *loader) get(name string) (string, bool) {
	v, ok := l.lookup(envPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (l *loader) invalid(name string) { l.bad = append(l.bad, envPrefix+name) }

func (l *loader) str(name, def string) string {
	if v, ok := l.get(name); ok {
		return v
	}
	return def
}

// addr prefers an explicit ADDR, then the prefixed PORT, then the platform's PORT.
func (l *loader) addr() string {
	if v, ok := l.get("ADDR"); ok {
		return v
	}
	port := defaultPort
	if v, ok := l.get("PORT"); ok {
		port = v
	} else if v, ok := l.lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		port = strings.TrimSpace(v)
	}
	if _, err := strconv.Atoi(port); err != nil {
		l.invalid("PORT")
	}
	return ":" + port
}

func (l *loader) duration(name string, def time.Duration) time.Duration {
	v, ok := l.get(name)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		l.invalid(name)
		return def
	}
	return d
}

func (l *loader) boolean(name string, def bool) bool {
	v, ok := l.get(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.invalid(name)
		return def
	}
	return b
}

func (l *loader) locale(name string, def i18n.Locale) i18n.Locale {
	v, ok := l.get(name)
	if !ok {
		return def
	}
	loc, ok := i18n.ParseLocale(v)
	if !ok {
		l.invalid(name)
		return def
	}
	return loc
}
