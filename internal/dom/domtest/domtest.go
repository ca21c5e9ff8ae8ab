// Package domtest provides an in-memory browser window for exercising client-side logic.
package domtest

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/maht0rz/spartans-club-web/internal/dom"
)

// Window implements every dom port. Tests move the page by editing element tops and
// dispatching events by hand.
type Window struct {
	mu sync.Mutex

	Header  float64
	tops    map[string]float64
	path    string
	history []string

	ScrolledToTop int

	nextListener int
	listeners    map[dom.EventType]map[int]func()

	nextFrame int
	frames    map[int]func()

	observers map[int]*observer
	nextObs   int

	cookies map[string]string
	host    string
}

type observer struct {
	ids  map[string]bool
	opts dom.ObserveOptions
	fn   func(dom.Intersection)
}

var (
	_ dom.Target    = (*Window)(nil)
	_ dom.Geometry  = (*Window)(nil)
	_ dom.History   = (*Window)(nil)
	_ dom.Scroller  = (*Window)(nil)
	_ dom.Frames    = (*Window)(nil)
	_ dom.Observer  = (*Window)(nil)
	_ dom.CookieJar = (*Window)(nil)
	_ dom.Host      = (*Window)(nil)
)

// NewWindow returns a window showing path with no elements.
func NewWindow(path string) *Window {
	return &Window{
		tops:      map[string]float64{},
		path:      path,
		listeners: map[dom.EventType]map[int]func(){},
		frames:    map[int]func(){},
		observers: map[int]*observer{},
		cookies:   map[string]string{},
		host:      "www.spartans.sk",
	}
}

// SetTop places (or moves) the element id.
func (w *Window) SetTop(id string, top float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tops[id] = top
}

// Remove unmounts the element id.
func (w *Window) Remove(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.tops, id)
}

// ScrollBy shifts every element by -dy and dispatches a scroll event.
func (w *Window) ScrollBy(dy float64) {
	w.mu.Lock()
	for id, top := range w.tops {
		w.tops[id] = top - dy
	}
	w.mu.Unlock()
	w.Dispatch(dom.Scroll)
}

func (w *Window) Listen(t dom.EventType, fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextListener++
	id := w.nextListener
	if w.listeners[t] == nil {
		w.listeners[t] = map[int]func(){}
	}
	w.listeners[t][id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.listeners[t], id)
	}
}

// Listeners counts registered listeners of type t.
func (w *Window) Listeners(t dom.EventType) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.listeners[t])
}

// Dispatch calls every listener of type t.
func (w *Window) Dispatch(t dom.EventType) {
	w.mu.Lock()
	ids := make([]int, 0, len(w.listeners[t]))
	for id := range w.listeners[t] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, w.listeners[t][id])
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (w *Window) HeaderHeight() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Header
}

func (w *Window) ElementTop(id string) (float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	top, ok := w.tops[id]
	return top, ok
}

func (w *Window) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

func (w *Window) ReplacePath(p string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.path = p
	w.history = append(w.history, p)
}

// Replacements lists every path passed to ReplacePath.
func (w *Window) Replacements() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.history...)
}

func (w *Window) ScrollToTop() {
	w.mu.Lock()
	w.ScrolledToTop++
	w.mu.Unlock()
}

func (w *Window) RequestFrame(fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextFrame++
	id := w.nextFrame
	w.frames[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.frames, id)
	}
}

// PendingFrames counts queued frame callbacks.
func (w *Window) PendingFrames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.frames)
}

// Flush runs queued frame callbacks, as the browser does before painting.
func (w *Window) Flush() {
	w.mu.Lock()
	ids := make([]int, 0, len(w.frames))
	for id := range w.frames {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, w.frames[id])
		delete(w.frames, id)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (w *Window) Observe(ids []string, opts dom.ObserveOptions, fn func(dom.Intersection)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextObs++
	id := w.nextObs
	o := &observer{ids: map[string]bool{}, opts: opts, fn: fn}
	for _, el := range ids {
		// like the browser, only mounted elements can be observed
		if _, ok := w.tops[el]; ok {
			o.ids[el] = true
		}
	}
	w.observers[id] = o
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.observers, id)
	}
}

// Observers counts connected observers.
func (w *Window) Observers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.observers)
}

// LastObserveOptions returns the options of the most recently connected observer.
func (w *Window) LastObserveOptions() (dom.ObserveOptions, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	best := 0
	for id := range w.observers {
		if id > best {
			best = id
		}
	}
	if best == 0 {
		return dom.ObserveOptions{}, false
	}
	return w.observers[best].opts, true
}

// Intersect reports ratio for element id to every observer watching it.
func (w *Window) Intersect(id string, ratio float64) {
	w.mu.Lock()
	var fns []func(dom.Intersection)
	keys := make([]int, 0, len(w.observers))
	for k := range w.observers {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		o := w.observers[k]
		if o.ids[id] {
			fns = append(fns, o.fn)
		}
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn(dom.Intersection{ID: id, Ratio: ratio, IsIntersecting: ratio > 0})
	}
}

func (w *Window) Get(name string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	v, ok := w.cookies[name]
	return v, ok
}

func (w *Window) Names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.cookies))
	for k := range w.cookies {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (w *Window) Set(c *http.Cookie) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
		delete(w.cookies, c.Name)
		return
	}
	w.cookies[c.Name] = c.Value
}

// SetCookie writes a cookie directly, as another tab or devtools would.
func (w *Window) SetCookie(name, value string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cookies[name] = value
}

func (w *Window) Hostname() string { return w.host }
