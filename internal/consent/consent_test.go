package consent

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maht0rz/spartans-club-web/internal/clock/clocktest"
	"github.com/maht0rz/spartans-club-web/internal/dom"
	"github.com/maht0rz/spartans-club-web/internal/dom/domtest"
)

func TestParseState(t *testing.T) {
	assert.Equal(t, Granted, ParseState("granted"))
	assert.Equal(t, Denied, ParseState("denied"))
	assert.Equal(t, Unset, ParseState(""))
	assert.Equal(t, Unset, ParseState("GRANTED;"))
	assert.Equal(t, Unset, ParseState("yes"))
}

func TestStateCookie(t *testing.T) {
	c := Granted.Cookie()
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "granted", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 31536000, c.MaxAge)
	assert.Equal(t, -1, Unset.Cookie().MaxAge)
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, Unset, FromRequest(r))
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "denied"})
	assert.Equal(t, Denied, FromRequest(r))
}

func TestIsAnalyticsCookie(t *testing.T) {
	for _, n := range []string{"_ga", "_ga_ABC123", "_gid", "_gat", "_gat_UA-1", "_gac_x", "_gcl_au", "sc_cid", "_GA"} {
		assert.True(t, IsAnalyticsCookie(n), n)
	}
	for _, n := range []string{"lng", "ga_consent", "_gads", "session", "_gax"} {
		assert.False(t, IsAnalyticsCookie(n), n)
	}
}

func TestExpiryCookiesCoverDomains(t *testing.T) {
	cs := ExpiryCookies([]string{"_ga", "lng", "_ga", "_gid"}, "www.spartans.sk:8443")
	require.Len(t, cs, 6)
	var domains []string
	for _, c := range cs[:3] {
		assert.Equal(t, "_ga", c.Name)
		assert.Equal(t, -1, c.MaxAge)
		domains = append(domains, c.Domain)
	}
	assert.Equal(t, []string{"", "www.spartans.sk", ".spartans.sk"}, domains)

	local := ExpiryCookies([]string{"_ga"}, "localhost")
	require.Len(t, local, 1)
	assert.Empty(t, local[0].Domain)
}

func newActivator(t *testing.T, win *domtest.Window) (*Activator, *clocktest.Clock) {
	t.Helper()
	c := clocktest.New()
	a := NewActivator(win, WithHost(win), WithClock(c))
	t.Cleanup(a.Close)
	return a, c
}

func TestActivatorStartsUnsetWithBanner(t *testing.T) {
	win := domtest.NewWindow("/sk")
	win.SetCookie("_ga", "GA1.1.1")
	a, _ := newActivator(t, win)
	a.Mount(win)

	assert.Equal(t, Unset, a.State())
	assert.True(t, a.BannerVisible())
	assert.False(t, a.Granted())
	_, ok := win.Get("_ga")
	assert.False(t, ok, "tracking cookies are cleared until consent is granted")
}

func TestAcceptGrantsAndBroadcasts(t *testing.T) {
	win := domtest.NewWindow("/sk")
	a, _ := newActivator(t, win)
	a.Mount(win)
	var changes []Change
	a.Subscribe(func(c Change) { changes = append(changes, c) })

	a.Accept()

	assert.True(t, a.Granted())
	assert.False(t, a.BannerVisible())
	v, _ := win.Get(CookieName)
	assert.Equal(t, "granted", v)
	assert.Equal(t, []Change{{From: Unset, To: Granted}}, changes)
}

func TestDeclineErasesAnalyticsCookiesButKeepsDecision(t *testing.T) {
	win := domtest.NewWindow("/en")
	win.SetCookie(CookieName, "granted")
	win.SetCookie("_ga", "GA1.1.1")
	win.SetCookie("_gcl_au", "1.1")
	win.SetCookie("lng", "en")
	a, _ := newActivator(t, win)
	a.Mount(win)
	require.True(t, a.Granted())
	_, ok := win.Get("_ga")
	require.True(t, ok, "granted visitors keep their cookies")

	a.Decline()

	assert.Equal(t, Denied, a.State())
	assert.False(t, a.BannerVisible())
	assert.Equal(t, []string{CookieName, "lng"}, win.Names())
	v, _ := win.Get(CookieName)
	assert.Equal(t, "denied", v)
}

type recordedDecisions []State

func (r *recordedDecisions) Record(s State) error {
	*r = append(*r, s)
	return nil
}

func TestDecisionsAreForwardedToRecorder(t *testing.T) {
	win := domtest.NewWindow("/en")
	win.SetCookie(CookieName, "granted")
	win.SetCookie("_ga", "GA1.1.1")
	var rec recordedDecisions
	c := clocktest.New()
	a := NewActivator(win, WithHost(win), WithClock(c), WithRecorder(&rec))
	t.Cleanup(a.Close)
	a.Mount(win)
	require.Empty(t, rec, "reading the stored decision is not a new decision")

	a.Decline()
	a.Accept()
	assert.Equal(t, recordedDecisions{Denied, Granted}, rec)

	win.SetCookie(CookieName, "denied")
	c.Advance(DefaultPollInterval)
	require.Equal(t, Denied, a.State())
	assert.Len(t, rec, 2, "changes made elsewhere were already stored there")
}

func TestBeaconRecord(t *testing.T) {
	var gotURL string
	var gotBody []byte
	b := Beacon{URL: "/api/consent", Post: func(url string, body []byte) bool {
		gotURL, gotBody = url, body
		return true
	}}
	require.NoError(t, b.Record(Denied))
	assert.Equal(t, "/api/consent", gotURL)
	assert.JSONEq(t, `{"state":"denied"}`, string(gotBody))

	b.Post = func(string, []byte) bool { return false }
	assert.Error(t, b.Record(Granted))
	assert.Error(t, Beacon{URL: "/api/consent"}.Record(Granted))
}

func TestSyncPicksUpExternalChangeOnPoll(t *testing.T) {
	win := domtest.NewWindow("/sk")
	a, c := newActivator(t, win)
	a.Mount(win)
	var changes []Change
	a.Subscribe(func(ch Change) { changes = append(changes, ch) })

	win.SetCookie(CookieName, "granted")
	c.Advance(time.Second)
	assert.False(t, a.Granted(), "not before the poll interval")

	c.Advance(time.Second)
	assert.True(t, a.Granted())
	assert.False(t, a.BannerVisible())

	c.Advance(10 * time.Second)
	assert.Len(t, changes, 1, "unchanged cookie must not rebroadcast")
}

func TestSyncOnFocusAndVisibility(t *testing.T) {
	win := domtest.NewWindow("/sk")
	win.SetCookie(CookieName, "granted")
	a, _ := newActivator(t, win)
	a.Mount(win)

	win.SetCookie(CookieName, "denied")
	win.SetCookie("_gid", "x")
	win.Dispatch(dom.Focus)
	assert.Equal(t, Denied, a.State())
	_, ok := win.Get("_gid")
	assert.False(t, ok)

	win.SetCookie(CookieName, "garbage")
	win.Dispatch(dom.VisibilityChange)
	assert.Equal(t, Unset, a.State())
	assert.True(t, a.BannerVisible())
}

func TestCloseStopsPollingAndListeners(t *testing.T) {
	win := domtest.NewWindow("/sk")
	a, c := newActivator(t, win)
	a.Mount(win)
	require.Equal(t, 1, win.Listeners(dom.Focus))
	a.Close()

	assert.Zero(t, win.Listeners(dom.Focus))
	assert.Zero(t, win.Listeners(dom.VisibilityChange))
	win.SetCookie(CookieName, "granted")
	c.Advance(time.Minute)
	assert.Equal(t, Unset, a.State())
	assert.Zero(t, c.Pending())
}
