//go:build js && wasm

package main

import (
	"net/http"
	"sync"
	"syscall/js"

	"github.com/maht0rz/spartans-club-web/internal/dom"
)

// browser implements the dom ports over the real window and document.
type browser struct {
	window   js.Value
	document js.Value
	header   string
}

var (
	_ dom.Target    = (*browser)(nil)
	_ dom.Geometry  = (*browser)(nil)
	_ dom.History   = (*browser)(nil)
	_ dom.Scroller  = (*browser)(nil)
	_ dom.Frames    = (*browser)(nil)
	_ dom.Observer  = (*browser)(nil)
	_ dom.CookieJar = (*browser)(nil)
	_ dom.Host      = (*browser)(nil)
)

func newBrowser(headerSelector string) *browser {
	w := js.Global()
	return &browser{window: w, document: w.Get("document"), header: headerSelector}
}

// Listen attaches to document for visibilitychange and to window otherwise.
func (b *browser) Listen(t dom.EventType, fn func()) func() {
	target := b.window
	if t == dom.VisibilityChange {
		target = b.document
	}
	opts := map[string]any{"passive": true}
	cb := js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		return nil
	})
	target.Call("addEventListener", string(t), cb, opts)
	return func() {
		target.Call("removeEventListener", string(t), cb, opts)
		cb.Release()
	}
}

func (b *browser) HeaderHeight() float64 {
	el := b.document.Call("querySelector", b.header)
	if el.IsNull() {
		return 0
	}
	return el.Call("getBoundingClientRect").Get("height").Float()
}

func (b *browser) ElementTop(id string) (float64, bool) {
	el := b.document.Call("getElementById", id)
	if el.IsNull() {
		return 0, false
	}
	return el.Call("getBoundingClientRect").Get("top").Float(), true
}

func (b *browser) Path() string {
	return b.window.Get("location").Get("pathname").String()
}

// ReplacePath keeps the query string and fragment of the current entry.
func (b *browser) ReplacePath(path string) {
	loc := b.window.Get("location")
	url := path + loc.Get("search").String() + loc.Get("hash").String()
	hist := b.window.Get("history")
	hist.Call("replaceState", hist.Get("state"), "", url)
}

func (b *browser) ScrollToTop() {
	b.window.Call("scrollTo", map[string]any{"top": 0, "behavior": "smooth"})
}

// RequestFrame releases the callback after it runs or when the frame is cancelled,
// whichever comes first.
func (b *browser) RequestFrame(fn func()) func() {
	var (
		cb   js.Func
		once sync.Once
	)
	release := func() { once.Do(cb.Release) }
	cb = js.FuncOf(func(js.Value, []js.Value) any {
		release()
		fn()
		return nil
	})
	id := b.window.Call("requestAnimationFrame", cb)
	return func() {
		b.window.Call("cancelAnimationFrame", id)
		release()
	}
}

func (b *browser) Observe(ids []string, opts dom.ObserveOptions, fn func(dom.Intersection)) func() {
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		entries := args[0]
		for i := 0; i < entries.Length(); i++ {
			e := entries.Index(i)
			fn(dom.Intersection{
				ID:             e.Get("target").Get("id").String(),
				Ratio:          e.Get("intersectionRatio").Float(),
				IsIntersecting: e.Get("isIntersecting").Bool(),
			})
		}
		return nil
	})
	ctor := b.window.Get("IntersectionObserver")
	if ctor.IsUndefined() {
		cb.Release()
		return func() {}
	}
	obs := ctor.New(cb, map[string]any{"threshold": opts.Threshold, "rootMargin": opts.RootMargin})
	for _, id := range ids {
		if el := b.document.Call("getElementById", id); !el.IsNull() {
			obs.Call("observe", el)
		}
	}
	return func() {
		obs.Call("disconnect")
		cb.Release()
	}
}

func (b *browser) cookies() map[string]string {
	return dom.ParseCookies(b.document.Get("cookie").String())
}

func (b *browser) Get(name string) (string, bool) {
	v, ok := b.cookies()[name]
	return v, ok
}

func (b *browser) Names() []string {
	m := b.cookies()
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func (b *browser) Set(c *http.Cookie) {
	b.document.Set("cookie", c.String())
}

func (b *browser) Hostname() string {
	return b.window.Get("location").Get("hostname").String()
}

// sendBeacon posts body without waiting for a reply, falling back to a keepalive fetch.
func (b *browser) sendBeacon(url string, body []byte) bool {
	blobParts := js.Global().Get("Array").New(string(body))
	blob := js.Global().Get("Blob").New(blobParts, map[string]any{"type": "application/json"})
	nav := b.window.Get("navigator")
	if fn := nav.Get("sendBeacon"); fn.Truthy() {
		return nav.Call("sendBeacon", url, blob).Bool()
	}
	b.window.Call("fetch", url, map[string]any{
		"method":      "POST",
		"body":        blob,
		"keepalive":   true,
		"credentials": "same-origin",
	})
	return true
}
