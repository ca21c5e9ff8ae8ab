package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/maht0rz/spartans-club-web/internal/i18n"
)

const (
	// LocaleCookie remembers the visitor's language.
	LocaleCookie = "lng"
	// LocaleCookieMaxAge is one year.
	LocaleCookieMaxAge = 365 * 24 * time.Hour
)

// DefaultPassthrough lists path prefixes that never get locale handling.
var DefaultPassthrough = []string{"/assets/", "/api", "/_", "/sitemap", "/robots.txt", "/healthz", "/favicon"}

// LocaleOptions configures LocaleRedirect.
type LocaleOptions struct {
	// Passthrough overrides DefaultPassthrough.
	Passthrough []string
	// Secure marks the cookie Secure.
	Secure bool
}

// LocaleRedirect makes the first path segment the source of truth for the language.
// A locale-prefixed request stores the locale and refreshes the cookie; a prefix in
// the wrong case is moved permanently to its lowercase form. Any other
// page request is redirected to the same path under the resolved locale: the cookie
// if valid, then Accept-Language, then the bundle fallback. Assets, API routes,
// sitemaps and paths with a file extension pass through untouched.
func LocaleRedirect(bundle *i18n.Bundle, opts LocaleOptions) func(http.Handler) http.Handler {
	pass := opts.Passthrough
	if pass == nil {
		pass = DefaultPassthrough
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxKeyLocaleFB, bundle.Fallback())
			r = r.WithContext(ctx)

			p := r.URL.Path
			if isPassthrough(p, pass) {
				next.ServeHTTP(w, r)
				return
			}

			if loc, seg, ok := pathLocale(bundle, p); ok {
				setLocaleCookie(w, loc, opts.Secure)
				if seg != loc.String() {
					// /EN/sessions -> /en/sessions
					target := "/" + loc.String() + strings.TrimPrefix(strings.TrimPrefix(p, "/"), seg)
					if r.URL.RawQuery != "" {
						target += "?" + r.URL.RawQuery
					}
					http.Redirect(w, r, target, http.StatusMovedPermanently)
					return
				}
				w.Header().Set("Content-Language", loc.String())
				next.ServeHTTP(w, r.WithContext(WithLocale(ctx, loc)))
				return
			}

			loc := ResolveLocale(bundle, r)
			setLocaleCookie(w, loc, opts.Secure)
			target := "/" + loc.String()
			if p != "" && p != "/" {
				target += "/" + strings.TrimLeft(p, "/")
			}
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusTemporaryRedirect)
		})
	}
}

// ResolveLocale picks the language for a request without a locale prefix.
func ResolveLocale(bundle *i18n.Bundle, r *http.Request) i18n.Locale {
	if c, err := r.Cookie(LocaleCookie); err == nil {
		if loc, ok := i18n.ParseLocale(c.Value); ok && bundle.IsSupported(loc) {
			return loc
		}
	}
	return bundle.Resolve(r.Header.Get("Accept-Language"))
}

// Lang returns the locale stored by LocaleRedirect, else the bundle fallback, else sk.
func Lang(r *http.Request) i18n.Locale {
	if loc, ok := LocaleFromContext(r.Context()); ok {
		return loc
	}
	if fb, ok := r.Context().Value(ctxKeyLocaleFB).(i18n.Locale); ok && fb != "" {
		return fb
	}
	return i18n.Default
}

// pathLocale reads the locale from the first path segment in any case. It also
// returns the raw segment so callers can spot a non-canonical spelling.
func pathLocale(bundle *i18n.Bundle, p string) (i18n.Locale, string, bool) {
	seg := strings.TrimPrefix(p, "/")
	if i := strings.IndexByte(seg, '/'); i != -1 {
		seg = seg[:i]
	}
	loc, ok := i18n.ParseLocale(seg)
	if !ok || strings.TrimSpace(seg) != seg || !bundle.IsSupported(loc) {
		return "", "", false
	}
	return loc, seg, true
}

func isPassthrough(p string, prefixes []string) bool {
	for _, pre := range prefixes {
		if strings.HasPrefix(p, pre) {
			return true
		}
	}
	// any dot counts as a file extension, including in a directory segment
	return strings.Contains(p, ".")
}

func setLocaleCookie(w http.ResponseWriter, loc i18n.Locale, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     LocaleCookie,
		Value:    loc.String(),
		Path:     "/",
		MaxAge:   int(LocaleCookieMaxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
}
