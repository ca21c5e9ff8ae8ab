// Package consent models the visitor's analytics consent and the cookies that carry it.
package consent

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// State is the visitor's analytics decision.
type State string

const (
	Unset   State = "unset"
	Granted State = "granted"
	Denied  State = "denied"
)

const (
	// CookieName stores the consent decision.
	CookieName = "ga_consent"
	// ClientIDCookie holds the pseudonymous id used when relaying events.
	ClientIDCookie = "sc_cid"
	// MaxAge is how long a decision is remembered.
	MaxAge = 365 * 24 * time.Hour
)

// ParseState maps a cookie value to a State. Anything unexpected is Unset.
func ParseState(v string) State {
	switch State(strings.TrimSpace(v)) {
	case Granted:
		return Granted
	case Denied:
		return Denied
	}
	return Unset
}

func (s State) String() string { return string(s) }

// Decided reports whether the visitor has answered the banner.
func (s State) Decided() bool { return s == Granted || s == Denied }

// Cookie returns the cookie that persists s. Unset yields an expiring cookie.
func (s State) Cookie() *http.Cookie {
	if !s.Decided() {
		return &http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1}
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    string(s),
		Path:     "/",
		MaxAge:   int(MaxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest reads the consent cookie of r.
func FromRequest(r *http.Request) State {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Unset
	}
	return ParseState(c.Value)
}

// IsAnalyticsCookie reports whether name is a tracking cookie that must not survive
// an opt-out: Google Analytics / Ads identifiers and our own relay client id.
func IsAnalyticsCookie(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch {
	case lower == "_ga", lower == "_gid", lower == "_gat", lower == ClientIDCookie:
		return true
	case strings.HasPrefix(lower, "_ga_"),
		strings.HasPrefix(lower, "_gat_"),
		strings.HasPrefix(lower, "_gac_"),
		strings.HasPrefix(lower, "_gcl_"):
		return true
	}
	return false
}

// ExpiryCookies returns deletion cookies for every analytics cookie in names. Each
// name is expired host-only, for the exact host and for the registrable domain with
// a leading dot, since trackers set them with any of those scopes.
func ExpiryCookies(names []string, host string) []*http.Cookie {
	host = stripPort(host)
	domains := cookieDomains(host)
	var out []*http.Cookie
	seen := map[string]bool{}
	for _, n := range names {
		if !IsAnalyticsCookie(n) || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, expired(n, ""))
		for _, d := range domains {
			out = append(out, expired(n, d))
		}
	}
	return out
}

func expired(name, domain string) *http.Cookie {
	return &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    "/",
		Domain:  domain,
		Expires: time.Unix(0, 0).UTC(),
		MaxAge:  -1,
	}
}

func cookieDomains(host string) []string {
	if host == "" || host == "localhost" || strings.Count(host, ".") == 0 || isIP(host) {
		return nil
	}
	domains := []string{host}
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		domains = append(domains, "."+etld1)
	} else {
		domains = append(domains, "."+host)
	}
	return domains
}

func stripPort(host string) string {
	if strings.HasPrefix(host, "[") {
		return host
	}
	if i := strings.LastIndexByte(host, ':'); i != -1 && strings.Count(host, ":") == 1 {
		return host[:i]
	}
	return host
}

func isIP(host string) bool {
	if strings.Contains(host, ":") {
		return true
	}
	for _, r := range host {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
