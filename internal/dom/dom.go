// Package dom declares the browser capabilities the client-side core depends on.
// cmd/wasm implements them over syscall/js; domtest implements them in memory.
package dom

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// EventType names a window/document event.
type EventType string

const (
	Scroll           EventType = "scroll"
	Resize           EventType = "resize"
	VisibilityChange EventType = "visibilitychange"
	Focus            EventType = "focus"
)

// Target registers event listeners. The returned release func removes the listener.
type Target interface {
	Listen(t EventType, fn func()) (release func())
}

// Geometry reads layout.
type Geometry interface {
	// HeaderHeight is the rendered height of the fixed header.
	HeaderHeight() float64
	// ElementTop returns the top edge of the element with the given id relative to the
	// viewport. ok is false when the element is not in the document.
	ElementTop(id string) (top float64, ok bool)
}

// History exposes the current path and in-place history replacement.
type History interface {
	Path() string
	// ReplacePath swaps the current entry without navigation, reload or scroll jump.
	ReplacePath(path string)
}

// Scroller performs programmatic scrolling.
type Scroller interface {
	ScrollToTop()
}

// Frames schedules work for the next animation frame.
type Frames interface {
	RequestFrame(fn func()) (cancel func())
}

// ObserveOptions mirrors IntersectionObserver options.
type ObserveOptions struct {
	Threshold  float64
	RootMargin string
}

// Intersection reports how much of the element with ID is visible.
type Intersection struct {
	ID             string
	Ratio          float64
	IsIntersecting bool
}

// Observer watches element visibility.
type Observer interface {
	Observe(ids []string, opts ObserveOptions, fn func(Intersection)) (disconnect func())
}

// CookieJar is the document cookie store.
type CookieJar interface {
	Get(name string) (string, bool)
	Names() []string
	// Set writes c; an expired c deletes the cookie.
	Set(c *http.Cookie)
}

// Host returns the page hostname, used to address domain-scoped cookies.
type Host interface {
	Hostname() string
}

// Scope collects release funcs and runs them in reverse order on Close.
type Scope struct {
	mu       sync.Mutex
	releases []func()
	closed   bool
}

// Add registers release. If the scope is already closed, release runs immediately.
func (s *Scope) Add(release func()) {
	if release == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		release()
		return
	}
	s.releases = append(s.releases, release)
	s.mu.Unlock()
}

// Close releases everything acquired so far. Safe to call more than once.
func (s *Scope) Close() {
	s.mu.Lock()
	rs := s.releases
	s.releases = nil
	s.closed = true
	s.mu.Unlock()
	for i := len(rs) - 1; i >= 0; i-- {
		rs[i]()
	}
}

// Closed reports whether Close was called.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ParseCookies reads a document.cookie string. Malformed pairs are skipped and the
// first occurrence of a name wins, as in the browser's most-specific-path order.
func ParseCookies(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		if _, dup := out[name]; dup {
			continue
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		out[name] = value
	}
	return out
}
