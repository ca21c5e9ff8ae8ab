// Package navsync keeps the active navigation item and the browser URL in step with
// the section the visitor has scrolled to.
//
// Highlighting follows the scroll position on every animation frame; the URL is only
// rewritten once scrolling has been quiet for the commit delay.
package navsync

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/maht0rz/spartans-club-web/internal/clock"
	"github.com/maht0rz/spartans-club-web/internal/dom"
	"github.com/maht0rz/spartans-club-web/internal/event"
	"github.com/maht0rz/spartans-club-web/internal/i18n"
	"github.com/maht0rz/spartans-club-web/internal/sections"
)

// DefaultCommitDelay is the scroll quiet period before the URL is rewritten.
const DefaultCommitDelay = 360 * time.Millisecond

// Phase is the synchronizer's position in its idle -> scrolling -> committing cycle.
type Phase int

const (
	Idle Phase = iota
	Scrolling
	Committing
)

func (p Phase) String() string {
	switch p {
	case Scrolling:
		return "scrolling"
	case Committing:
		return "committing"
	default:
		return "idle"
	}
}

// TieBreak picks between sections at the same distance from the header.
type TieBreak int

const (
	// FirstWins keeps the earlier section in registry order.
	FirstWins TieBreak = iota
	// LastWins prefers the later section.
	LastWins
)

// State is a snapshot of the navigation state.
type State struct {
	Active            sections.ID
	Pending           sections.ID
	LastCommittedPath string
	Locale            i18n.Locale
	Phase             Phase
}

// Commit is published after the URL has been replaced.
type Commit struct {
	Section sections.ID
	Path    string
}

// Ports bundles the browser capabilities used by the synchronizer.
type Ports struct {
	Events   dom.Target
	Geometry dom.Geometry
	History  dom.History
	Scroller dom.Scroller
	Frames   dom.Frames
}

type options struct {
	delay    time.Duration
	tieBreak TieBreak
	clock    clock.Clock
	logger   *zap.Logger
}

// Option customises a Synchronizer.
type Option func(*options)

// WithCommitDelay overrides DefaultCommitDelay.
func WithCommitDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.delay = d
		}
	}
}

func WithTieBreak(tb TieBreak) Option { return func(o *options) { o.tieBreak = tb } }

func WithClock(c clock.Clock) Option { return func(o *options) { o.clock = c } }

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Synchronizer owns the NavigationState of one mounted page.
//
// Port methods are called with the internal lock held and must not call back into
// the Synchronizer. Subscribers are notified after the lock is released.
type Synchronizer struct {
	reg   *sections.Registry
	ports Ports
	opts  options

	mu            sync.Mutex
	locale        i18n.Locale
	active        sections.ID
	pending       sections.ID
	lastCommitted string
	phase         Phase
	cancelFrame   func()
	mounted       bool
	closed        bool

	commit *clock.Debouncer
	scope  dom.Scope

	activeBus event.Bus[sections.ID]
	commitBus event.Bus[Commit]
}

// New builds a synchronizer for a page rendered in locale.
func New(reg *sections.Registry, locale i18n.Locale, ports Ports, opts ...Option) *Synchronizer {
	o := options{delay: DefaultCommitDelay, tieBreak: FirstWins, clock: clock.Real(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Synchronizer{
		reg:     reg,
		ports:   ports,
		opts:    o,
		locale:  locale,
		active:  reg.First(),
		pending: reg.First(),
	}
	s.commit = clock.NewDebouncer(o.clock, o.delay, s.flushCommit)
	return s
}

// Mount attaches scroll and resize listeners and computes the initial active section.
func (s *Synchronizer) Mount() {
	s.mu.Lock()
	if s.mounted || s.closed {
		s.mu.Unlock()
		return
	}
	s.mounted = true
	if s.ports.History != nil {
		s.lastCommitted = s.ports.History.Path()
	}
	changed := s.computeLocked()
	active := s.active
	s.mu.Unlock()

	if s.ports.Events != nil {
		s.scope.Add(s.ports.Events.Listen(dom.Scroll, s.HandleScroll))
		s.scope.Add(s.ports.Events.Listen(dom.Resize, s.HandleResize))
	}
	if changed {
		s.activeBus.Publish(active)
	}
}

// Close releases listeners and cancels pending frame and commit work. Events that
// arrive afterwards are ignored.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.cancelFrame != nil {
		s.cancelFrame()
		s.cancelFrame = nil
	}
	s.phase = Idle
	s.mu.Unlock()
	s.commit.Cancel()
	s.scope.Close()
}

// HandleScroll schedules a nearest-section computation and restarts the commit delay.
func (s *Synchronizer) HandleScroll() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	inline := s.requestFrameLocked()
	s.phase = Scrolling
	s.mu.Unlock()
	if inline {
		s.onFrame()
	}
	s.commit.Schedule()
}

// HandleResize schedules a nearest-section computation only.
func (s *Synchronizer) HandleResize() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	inline := s.requestFrameLocked()
	s.mu.Unlock()
	if inline {
		s.onFrame()
	}
}

// requestFrameLocked coalesces computations into a single pending frame. Without a
// frame source the caller computes inline once the lock is released.
func (s *Synchronizer) requestFrameLocked() (inline bool) {
	if s.cancelFrame != nil {
		return false
	}
	if s.ports.Frames == nil {
		return true
	}
	s.cancelFrame = s.ports.Frames.RequestFrame(s.onFrame)
	return false
}

func (s *Synchronizer) onFrame() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.cancelFrame = nil
	changed := s.computeLocked()
	active := s.active
	s.mu.Unlock()
	if changed {
		s.activeBus.Publish(active)
	}
}

// computeLocked refreshes pending and, when it moved, active. It reports whether the
// active section changed.
func (s *Synchronizer) computeLocked() bool {
	s.pending = s.nearestLocked()
	if s.pending == s.active {
		return false
	}
	s.active = s.pending
	return true
}

// Nearest returns the section whose anchor top is closest to the bottom of the fixed
// header. Calls with an unchanged layout return the same section.
func (s *Synchronizer) Nearest() sections.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nearestLocked()
}

func (s *Synchronizer) nearestLocked() sections.ID {
	return Nearest(s.reg, s.ports.Geometry, s.opts.tieBreak)
}

// Nearest computes the section closest to the header for the given geometry. Sections
// without a mounted anchor are skipped; with no anchors at all it returns the first
// registry entry.
func Nearest(reg *sections.Registry, g dom.Geometry, tb TieBreak) sections.ID {
	nearest := reg.First()
	if g == nil {
		return nearest
	}
	header := g.HeaderHeight()
	best := math.Inf(1)
	for _, sec := range reg.Sections() {
		top, ok := g.ElementTop(sec.Anchor())
		if !ok {
			continue
		}
		dist := math.Abs(top - header)
		if dist < best || (tb == LastWins && dist == best) {
			best = dist
			nearest = sec.ID
		}
	}
	return nearest
}

// flushCommit runs when scrolling has been quiet for the commit delay.
func (s *Synchronizer) flushCommit() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	changed := false
	if s.cancelFrame != nil {
		// the last scroll's frame has not run yet; use the layout as it is now
		s.cancelFrame()
		s.cancelFrame = nil
		changed = s.computeLocked()
	}
	s.phase = Committing
	c, ok := s.commitLocked(s.pending)
	s.phase = Idle
	active := s.active
	s.mu.Unlock()

	if changed {
		s.activeBus.Publish(active)
	}
	if ok {
		s.commitBus.Publish(c)
	}
}

// commitLocked replaces history with id's path when it differs from the current one.
func (s *Synchronizer) commitLocked(id sections.ID) (Commit, bool) {
	path := s.reg.Path(s.locale, id)
	if s.ports.History == nil || s.ports.History.Path() == path {
		return Commit{}, false
	}
	s.ports.History.ReplacePath(path)
	s.lastCommitted = path
	s.opts.logger.Debug("navsync: committed path", zap.String("section", string(id)), zap.String("path", path))
	return Commit{Section: id, Path: path}, true
}

// Navigate handles a click on a nav link: the item is highlighted at once and the URL
// is written immediately instead of waiting for scrolling to settle. The home section
// also scrolls smoothly to the top.
func (s *Synchronizer) Navigate(id sections.ID) {
	if !s.reg.Has(id) {
		return
	}
	s.commit.Cancel()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	changed := s.active != id
	s.active = id
	s.pending = id
	if id == s.reg.First() && s.ports.Scroller != nil {
		s.ports.Scroller.ScrollToTop()
	}
	c, ok := s.commitLocked(id)
	s.phase = Idle
	s.mu.Unlock()

	if changed {
		s.activeBus.Publish(id)
	}
	if ok {
		s.commitBus.Publish(c)
	}
}

// SetLocale switches the page language. The active section is kept and the URL moves
// to the same section's slug in the new locale. It returns the new path.
func (s *Synchronizer) SetLocale(l i18n.Locale) string {
	s.mu.Lock()
	if s.closed {
		path := s.reg.Path(l, s.active)
		s.mu.Unlock()
		return path
	}
	s.locale = l
	c, ok := s.commitLocked(s.active)
	path := s.reg.Path(l, s.active)
	s.mu.Unlock()
	if ok {
		s.commitBus.Publish(c)
	}
	return path
}

// Active returns the highlighted section.
func (s *Synchronizer) Active() sections.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Snapshot returns the current navigation state.
func (s *Synchronizer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Active:            s.active,
		Pending:           s.pending,
		LastCommittedPath: s.lastCommitted,
		Locale:            s.locale,
		Phase:             s.phase,
	}
}

// OnActiveChange subscribes to highlight changes.
func (s *Synchronizer) OnActiveChange(fn func(sections.ID)) (unsubscribe func()) {
	return s.activeBus.Subscribe(fn)
}

// OnCommit subscribes to URL rewrites.
func (s *Synchronizer) OnCommit(fn func(Commit)) (unsubscribe func()) {
	return s.commitBus.Subscribe(fn)
}
