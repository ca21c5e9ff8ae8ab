package consent

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/maht0rz/spartans-club-web/internal/clock"
	"github.com/maht0rz/spartans-club-web/internal/dom"
	"github.com/maht0rz/spartans-club-web/internal/event"
)

// DefaultPollInterval is how often the cookie is re-read to pick up changes made by
// other tabs or devtools.
const DefaultPollInterval = 2 * time.Second

// Change is broadcast whenever the effective consent changes.
type Change struct {
	From State
	To   State
}

// Activator tracks consent on the client, shows or hides the banner and tells the
// rest of the page when analytics may run.
type Activator struct {
	jar    dom.CookieJar
	host   dom.Host
	clock  clock.Clock
	poll   time.Duration
	logger *zap.Logger
	record Recorder

	mu            sync.Mutex
	state         State
	bannerVisible bool
	mounted       bool
	closed        bool
	scope         dom.Scope

	bus event.Bus[Change]
}

type activatorOptions struct {
	host   dom.Host
	clock  clock.Clock
	poll   time.Duration
	logger *zap.Logger
	record Recorder
}

// ActivatorOption customises an Activator.
type ActivatorOption func(*activatorOptions)

// WithHost supplies the page host used to address domain cookies when erasing.
func WithHost(h dom.Host) ActivatorOption { return func(o *activatorOptions) { o.host = h } }

func WithClock(c clock.Clock) ActivatorOption { return func(o *activatorOptions) { o.clock = c } }

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) ActivatorOption {
	return func(o *activatorOptions) {
		if d > 0 {
			o.poll = d
		}
	}
}

// WithRecorder forwards every Accept and Decline to r. Changes picked up from the
// cookie are not forwarded.
func WithRecorder(r Recorder) ActivatorOption { return func(o *activatorOptions) { o.record = r } }

func WithLogger(l *zap.Logger) ActivatorOption {
	return func(o *activatorOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewActivator builds an Activator over the document cookie jar. It starts Unset
// until Mount reads the jar.
func NewActivator(jar dom.CookieJar, opts ...ActivatorOption) *Activator {
	o := activatorOptions{clock: clock.Real(), poll: DefaultPollInterval, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Activator{
		jar:    jar,
		host:   o.host,
		clock:  o.clock,
		poll:   o.poll,
		logger: o.logger,
		record: o.record,
		state:  Unset,
	}
}

// Mount reads the stored decision, clears tracking cookies unless consent is granted,
// and starts watching for external changes: a poll plus visibility/focus regain.
// target may be nil when no window events are available.
func (a *Activator) Mount(target dom.Target) {
	a.mu.Lock()
	if a.mounted || a.closed {
		a.mu.Unlock()
		return
	}
	a.mounted = true
	a.state = a.readLocked()
	a.bannerVisible = a.state == Unset
	if a.state != Granted {
		a.eraseLocked()
	}
	a.mu.Unlock()

	a.scope.Add(clock.Every(a.clock, a.poll, a.Sync))
	if target != nil {
		a.scope.Add(target.Listen(dom.VisibilityChange, a.Sync))
		a.scope.Add(target.Listen(dom.Focus, a.Sync))
	}
}

// Close stops polling and removes listeners.
func (a *Activator) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.scope.Close()
}

// Accept records a grant.
func (a *Activator) Accept() { a.decide(Granted) }

// Decline records a refusal and erases tracking cookies.
func (a *Activator) Decline() { a.decide(Denied) }

func (a *Activator) decide(s State) {
	a.mu.Lock()
	prev := a.state
	a.jar.Set(s.Cookie())
	a.apply(s)
	a.mu.Unlock()
	a.logger.Debug("consent: decision recorded", zap.String("state", s.String()))
	if a.record != nil {
		if err := a.record.Record(s); err != nil {
			a.logger.Warn("consent: forward decision failed", zap.String("state", s.String()), zap.Error(err))
		}
	}
	// explicit choices always notify, even when repeating the current answer
	a.bus.Publish(Change{From: prev, To: s})
}

// Sync re-reads the cookie and applies a change made elsewhere.
func (a *Activator) Sync() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	prev := a.state
	cur := a.readLocked()
	if cur == prev {
		a.mu.Unlock()
		return
	}
	a.apply(cur)
	a.mu.Unlock()
	a.logger.Debug("consent: external change", zap.String("from", prev.String()), zap.String("to", cur.String()))
	a.bus.Publish(Change{From: prev, To: cur})
}

// apply moves to s. Caller holds a.mu.
func (a *Activator) apply(s State) {
	a.state = s
	a.bannerVisible = s == Unset
	if s == Denied {
		a.eraseLocked()
	}
}

func (a *Activator) readLocked() State {
	v, ok := a.jar.Get(CookieName)
	if !ok {
		return Unset
	}
	return ParseState(v)
}

func (a *Activator) eraseLocked() {
	host := ""
	if a.host != nil {
		host = a.host.Hostname()
	}
	for _, c := range ExpiryCookies(a.jar.Names(), host) {
		a.jar.Set(c)
	}
}

// State returns the effective consent.
func (a *Activator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Granted reports whether metrics may be sent.
func (a *Activator) Granted() bool { return a.State() == Granted }

// BannerVisible reports whether the consent prompt should be shown.
func (a *Activator) BannerVisible() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bannerVisible
}

// Subscribe registers fn for consent changes.
func (a *Activator) Subscribe(fn func(Change)) (unsubscribe func()) {
	return a.bus.Subscribe(fn)
}
