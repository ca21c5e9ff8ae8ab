package analytics

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/maht0rz/spartans-club-web/internal/dom"
	"github.com/maht0rz/spartans-club-web/internal/sections"
)

const (
	// DefaultThreshold is the visible share of a section that counts as a view.
	DefaultThreshold = 0.3
	// DefaultRootMargin trims the bottom tenth of the viewport.
	DefaultRootMargin = "0px 0px -10% 0px"
)

// Reporter emits one section_view per section per page load.
type Reporter struct {
	reg      *sections.Registry
	observer dom.Observer
	history  dom.History
	tracker  *Tracker
	opts     options

	mu         sync.Mutex
	seen       map[sections.ID]bool
	disconnect func()
	path       string
	granted    bool
	mounted    bool
	closed     bool
}

func NewReporter(reg *sections.Registry, observer dom.Observer, history dom.History, tracker *Tracker, opts ...Option) *Reporter {
	return &Reporter{
		reg:      reg,
		observer: observer,
		history:  history,
		tracker:  tracker,
		opts:     buildOptions(opts),
		seen:     map[sections.ID]bool{},
	}
}

// Mount starts observing every registered anchor.
func (r *Reporter) Mount() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mounted || r.closed {
		return
	}
	r.mounted = true
	r.granted = r.tracker.Enabled()
	if r.history != nil {
		r.path = r.history.Path()
	}
	r.observeLocked()
}

// Close disconnects the observer.
func (r *Reporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.disconnect != nil {
		r.disconnect()
		r.disconnect = nil
	}
}

// Rearm forgets every reported section and observes the anchors again.
func (r *Reporter) Rearm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.mounted || r.closed {
		return
	}
	r.rearmLocked()
}

func (r *Reporter) rearmLocked() {
	if r.disconnect != nil {
		r.disconnect()
		r.disconnect = nil
	}
	r.seen = map[sections.ID]bool{}
	r.observeLocked()
}

// HandlePathChange re-arms when the logical route moved, for example after a section
// commit or a locale switch.
func (r *Reporter) HandlePathChange(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.mounted || r.closed || path == r.path {
		return
	}
	r.path = path
	r.rearmLocked()
}

// HandleConsent re-arms when consent moves from not granted to granted, so sections
// already on screen are reported.
func (r *Reporter) HandleConsent(granted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	was := r.granted
	r.granted = granted
	if !r.mounted || r.closed || was || !granted {
		return
	}
	r.rearmLocked()
}

// Seen reports whether id was already reported during this load.
func (r *Reporter) Seen(id sections.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[id]
}

func (r *Reporter) observeLocked() {
	if r.observer == nil {
		return
	}
	ids := make([]string, 0, len(r.reg.IDs()))
	for _, sec := range r.reg.Sections() {
		ids = append(ids, sec.Anchor())
	}
	r.disconnect = r.observer.Observe(ids, dom.ObserveOptions{
		Threshold:  r.opts.threshold,
		RootMargin: r.opts.margin,
	}, r.onIntersect)
}

func (r *Reporter) onIntersect(in dom.Intersection) {
	if !in.IsIntersecting || in.Ratio < r.opts.threshold {
		return
	}
	id := sections.ID(in.ID)
	r.mu.Lock()
	if r.closed || !r.reg.Has(id) || r.seen[id] {
		r.mu.Unlock()
		return
	}
	// a crossing without consent is not a view; the grant re-arms the observer
	if !r.tracker.Enabled() {
		r.mu.Unlock()
		return
	}
	r.seen[id] = true
	path := r.path
	if r.history != nil {
		path = r.history.Path()
	}
	r.mu.Unlock()

	if !r.tracker.Emit(context.Background(), SectionView, Props{"section_id": string(id), "path": path}) {
		r.opts.logger.Debug("analytics: section view not delivered", zap.String("section", string(id)))
	}
}
