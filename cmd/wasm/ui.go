//go:build js && wasm

package main

import (
	"context"
	"syscall/js"

	"github.com/maht0rz/spartans-club-web/internal/analytics"
	"github.com/maht0rz/spartans-club-web/internal/consent"
	"github.com/maht0rz/spartans-club-web/internal/i18n"
	"github.com/maht0rz/spartans-club-web/internal/navsync"
	"github.com/maht0rz/spartans-club-web/internal/sections"
)

// ui binds the server-rendered markup to the client core: nav highlighting, in-page
// navigation, the consent banner and click tracking.
type ui struct {
	b         *browser
	reg       *sections.Registry
	sync      *navsync.Synchronizer
	activator *consent.Activator
	tracker   *analytics.Tracker
	onClick   js.Func
}

func newUI(b *browser, reg *sections.Registry, s *navsync.Synchronizer, a *consent.Activator, t *analytics.Tracker) *ui {
	return &ui{b: b, reg: reg, sync: s, activator: a, tracker: t}
}

func (u *ui) mount() {
	u.onClick = js.FuncOf(func(_ js.Value, args []js.Value) any {
		u.click(args[0])
		return nil
	})
	u.b.document.Call("addEventListener", "click", u.onClick)
	u.highlight(u.sync.Active())
}

func (u *ui) click(ev js.Value) {
	target := ev.Get("target")
	if target.IsNull() || target.IsUndefined() || target.Get("closest").IsUndefined() {
		return
	}
	if btn := target.Call("closest", "[data-consent]"); !btn.IsNull() {
		ev.Call("preventDefault")
		if consent.ParseState(btn.Get("dataset").Get("consent").String()) == consent.Granted {
			u.activator.Accept()
		} else {
			u.activator.Decline()
		}
		return
	}
	if el := target.Call("closest", "[data-track]"); !el.IsNull() {
		u.track(el)
	}
	if link := target.Call("closest", "a[data-locale-link]"); !link.IsNull() {
		l, ok := i18n.ParseLocale(link.Get("dataset").Get("localeLink").String())
		if !ok {
			return
		}
		// the server-rendered href points at the section active at render time
		ev.Call("preventDefault")
		js.Global().Get("location").Call("assign", u.sync.SetLocale(l))
		return
	}
	if link := target.Call("closest", "a[data-section-link]"); !link.IsNull() {
		id := sections.ID(link.Get("dataset").Get("sectionLink").String())
		if !u.reg.Has(id) {
			return
		}
		anchor := u.b.document.Call("getElementById", string(id))
		if anchor.IsNull() {
			return
		}
		ev.Call("preventDefault")
		if id != u.reg.First() {
			anchor.Call("scrollIntoView", map[string]any{"behavior": "smooth", "block": "start"})
		}
		u.sync.Navigate(id)
	}
}

func (u *ui) track(el js.Value) {
	ds := el.Get("dataset")
	name, err := analytics.ParseName(ds.Get("track").String())
	if err != nil {
		return
	}
	props := analytics.Props{"path": u.b.Path()}
	if v := ds.Get("cta"); v.Truthy() {
		props["cta"] = v.String()
	}
	if v := ds.Get("network"); v.Truthy() {
		props["network"] = v.String()
	}
	u.tracker.Emit(context.Background(), name, props)
}

func (u *ui) highlight(active sections.ID) {
	links := u.b.document.Call("querySelectorAll", ".nav a[data-section-link]")
	for i := 0; i < links.Length(); i++ {
		a := links.Index(i)
		on := a.Get("dataset").Get("sectionLink").String() == string(active)
		a.Get("classList").Call("toggle", "active", on)
		if on {
			a.Call("setAttribute", "aria-current", "page")
		} else {
			a.Call("removeAttribute", "aria-current")
		}
	}
}

func (u *ui) showBanner(visible bool) {
	el := u.b.document.Call("getElementById", "consent-banner")
	if el.IsNull() {
		return
	}
	el.Set("hidden", !visible)
}
