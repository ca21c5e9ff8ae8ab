package handlers

import (
	"time"

	"github.com/maht0rz/spartans-club-web/internal/analytics"
	"github.com/maht0rz/spartans-club-web/internal/config"
)

// Analytics holds client instrumentation configuration surfaced to templates.
type Analytics struct {
	MeasurementID string // e.g. G-XXXXXXXXXX
	Debug         bool
}

// AnalyticsFromConfig builds Analytics from the loaded configuration.
func AnalyticsFromConfig(cfg config.AnalyticsConfig) Analytics {
	return Analytics{MeasurementID: cfg.MeasurementID, Debug: cfg.Debug}
}

// ClientConfig is serialised into the page for the browser runtime.
type ClientConfig struct {
	Locale         string   `json:"locale"`
	Sections       []string `json:"sections"`
	CommitDelayMS  int64    `json:"commitDelayMs"`
	ConsentPollMS  int64    `json:"consentPollMs"`
	Threshold      float64  `json:"threshold"`
	RootMargin     string   `json:"rootMargin"`
	EventsEndpoint string   `json:"eventsEndpoint"`
	// ConsentEndpoint receives banner decisions so the server can expire cookies
	// the page cannot touch.
	ConsentEndpoint string `json:"consentEndpoint"`
	Debug           bool   `json:"debug,omitempty"`
}

// NewClientConfig fills the browser runtime settings for one page.
func NewClientConfig(cfg config.ClientConfig, locale string, sectionIDs []string, debug bool) ClientConfig {
	return ClientConfig{
		Locale:          locale,
		Sections:        sectionIDs,
		CommitDelayMS:   cfg.CommitDelay.Milliseconds(),
		ConsentPollMS:   cfg.ConsentPollInterval.Milliseconds(),
		Threshold:       analytics.DefaultThreshold,
		RootMargin:      analytics.DefaultRootMargin,
		EventsEndpoint:  "/api/events",
		ConsentEndpoint: "/api/consent",
		Debug:           debug,
	}
}

// Durations converts the millisecond fields back for the runtime.
func (c ClientConfig) Durations() (commit, poll time.Duration) {
	return time.Duration(c.CommitDelayMS) * time.Millisecond, time.Duration(c.ConsentPollMS) * time.Millisecond
}
