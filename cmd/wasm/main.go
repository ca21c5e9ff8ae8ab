//go:build js && wasm

// Command wasm is the browser runtime. It keeps the navigation and URL in step with
// scrolling, applies the visitor's analytics consent and reports section views.
package main

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/maht0rz/spartans-club-web/internal/analytics"
	"github.com/maht0rz/spartans-club-web/internal/clock"
	"github.com/maht0rz/spartans-club-web/internal/consent"
	"github.com/maht0rz/spartans-club-web/internal/handlers"
	"github.com/maht0rz/spartans-club-web/internal/i18n"
	"github.com/maht0rz/spartans-club-web/internal/navsync"
	"github.com/maht0rz/spartans-club-web/internal/sections"
)

func main() {
	b := newBrowser(".site-header")
	cfg := readConfig(b)
	logger := zap.NewNop()
	if cfg.Debug {
		logger = newConsoleLogger()
	}

	reg := sections.Default()
	stored, _ := b.Get("lng")
	locale := i18n.Detect(b.Path(), stored, b.window.Get("navigator").Get("language").String())
	commitDelay, pollInterval := cfg.Durations()
	clk := clock.Real()

	activator := consent.NewActivator(b,
		consent.WithHost(b),
		consent.WithClock(clk),
		consent.WithPollInterval(pollInterval),
		consent.WithLogger(logger),
		consent.WithRecorder(consent.Beacon{URL: cfg.ConsentEndpoint, Post: b.sendBeacon}),
	)
	tracker := analytics.NewTracker(activator,
		analytics.Beacon{URL: cfg.EventsEndpoint, Post: b.sendBeacon},
		analytics.WithClock(clk), analytics.WithLogger(logger),
	)
	reporter := analytics.NewReporter(reg, b, b, tracker,
		analytics.WithThreshold(cfg.Threshold),
		analytics.WithRootMargin(cfg.RootMargin),
		analytics.WithClock(clk),
		analytics.WithLogger(logger),
	)
	syncer := navsync.New(reg, locale, navsync.Ports{Events: b, Geometry: b, History: b, Scroller: b, Frames: b},
		navsync.WithCommitDelay(commitDelay),
		navsync.WithClock(clk),
		navsync.WithLogger(logger),
	)

	ui := newUI(b, reg, syncer, activator, tracker)
	syncer.OnActiveChange(ui.highlight)
	syncer.OnCommit(func(c navsync.Commit) { reporter.HandlePathChange(c.Path) })
	activator.Subscribe(func(c consent.Change) {
		ui.showBanner(activator.BannerVisible())
		reporter.HandleConsent(c.To == consent.Granted)
	})

	activator.Mount(b)
	syncer.Mount()
	reporter.Mount()
	ui.mount()
	ui.showBanner(activator.BannerVisible())

	select {}
}

func readConfig(b *browser) handlers.ClientConfig {
	cfg := handlers.ClientConfig{
		CommitDelayMS:   navsync.DefaultCommitDelay.Milliseconds(),
		ConsentPollMS:   consent.DefaultPollInterval.Milliseconds(),
		Threshold:       analytics.DefaultThreshold,
		RootMargin:      analytics.DefaultRootMargin,
		EventsEndpoint:  "/api/events",
		ConsentEndpoint: "/api/consent",
	}
	el := b.document.Call("getElementById", "site-config")
	if el.IsNull() {
		return cfg
	}
	// a broken config block leaves the defaults in place
	_ = json.Unmarshal([]byte(el.Get("textContent").String()), &cfg)
	return cfg
}

func newConsoleLogger() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
