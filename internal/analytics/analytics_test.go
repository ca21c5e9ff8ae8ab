package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/maht0rz/spartans-club-web/internal/clock/clocktest"
	"github.com/maht0rz/spartans-club-web/internal/consent"
	"github.com/maht0rz/spartans-club-web/internal/dom/domtest"
	"github.com/maht0rz/spartans-club-web/internal/sections"
)

type switchConsent struct {
	mu      sync.Mutex
	granted bool
}

func (c *switchConsent) Granted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.granted
}

func (c *switchConsent) set(v bool) {
	c.mu.Lock()
	c.granted = v
	c.mu.Unlock()
}

type recordingTransport struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (t *recordingTransport) Send(_ context.Context, ev Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.events = append(t.events, ev)
	return nil
}

func (t *recordingTransport) sent() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

func TestParseName(t *testing.T) {
	for _, n := range []string{"section_view", "cta_click", "social_click"} {
		got, err := ParseName(n)
		require.NoError(t, err)
		assert.Equal(t, Name(n), got)
	}
	_, err := ParseName("page_view")
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestPropsValidate(t *testing.T) {
	ok := Props{"section_id": "sessions", "scrolled": true, "depth": 0.5, "count": 3, "note": nil}
	assert.NoError(t, ok.Validate())

	assert.ErrorIs(t, Props{"nested": map[string]any{"a": 1}}.Validate(), ErrInvalidEvent)
	assert.ErrorIs(t, Props{"list": []string{"a"}}.Validate(), ErrInvalidEvent)
	assert.ErrorIs(t, Props{"": "x"}.Validate(), ErrInvalidEvent)
}

func TestNewEventStampsULID(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	ev, err := NewEvent(CTAClick, Props{"cta": "book"}, now)
	require.NoError(t, err)
	assert.Len(t, ev.ID, 26)
	assert.Equal(t, now, ev.Time)

	other, err := NewEvent(CTAClick, nil, now)
	require.NoError(t, err)
	assert.NotEqual(t, ev.ID, other.ID)
	assert.NotNil(t, other.Props)
}

func TestTrackerIsSilentWithoutConsent(t *testing.T) {
	c := &switchConsent{}
	tr := &recordingTransport{}
	tracker := NewTracker(c, tr, WithClock(clocktest.New()))

	assert.False(t, tracker.Emit(context.Background(), CTAClick, Props{"cta": "book"}))
	assert.Empty(t, tr.sent(), "not queued")

	c.set(true)
	assert.True(t, tracker.Emit(context.Background(), SocialClick, Props{"network": "instagram"}))
	require.Len(t, tr.sent(), 1, "earlier events are not replayed")
	assert.Equal(t, SocialClick, tr.sent()[0].Name)
}

func TestTrackerLogsTransportFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tr := &recordingTransport{err: errors.New("offline")}
	tracker := NewTracker(&switchConsent{granted: true}, tr, WithLogger(zap.New(core)))

	assert.False(t, tracker.Emit(context.Background(), CTAClick, nil))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "analytics: send failed", logs.All()[0].Message)
}

type reporterFixture struct {
	win      *domtest.Window
	consent  *switchConsent
	tr       *recordingTransport
	reporter *Reporter
}

func newReporterFixture(t *testing.T, granted bool) *reporterFixture {
	t.Helper()
	win := domtest.NewWindow("/sk")
	for _, id := range sections.Default().IDs() {
		win.SetTop(string(id), 0)
	}
	c := &switchConsent{granted: granted}
	tr := &recordingTransport{}
	tracker := NewTracker(c, tr, WithClock(clocktest.New()))
	r := NewReporter(sections.Default(), win, win, tracker)
	t.Cleanup(r.Close)
	r.Mount()
	return &reporterFixture{win: win, consent: c, tr: tr, reporter: r}
}

func TestReporterObservesWithThresholdAndMargin(t *testing.T) {
	f := newReporterFixture(t, true)
	opts, ok := f.win.LastObserveOptions()
	require.True(t, ok)
	assert.Equal(t, 0.3, opts.Threshold)
	assert.Equal(t, "0px 0px -10% 0px", opts.RootMargin)
}

func TestReporterReportsEachSectionOnce(t *testing.T) {
	f := newReporterFixture(t, true)

	f.win.Intersect("sessions", 0.1)
	assert.Empty(t, f.tr.sent(), "below threshold")

	f.win.Intersect("sessions", 0.45)
	f.win.Intersect("sessions", 0)
	f.win.Intersect("sessions", 0.9)

	sent := f.tr.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, SectionView, sent[0].Name)
	assert.Equal(t, Props{"section_id": "sessions", "path": "/sk"}, sent[0].Props)
	assert.True(t, f.reporter.Seen(sections.Sessions))
}

func TestReporterRearmsOnPathChange(t *testing.T) {
	f := newReporterFixture(t, true)
	f.win.Intersect("about", 1)

	f.reporter.HandlePathChange("/sk")
	f.win.Intersect("about", 1)
	assert.Len(t, f.tr.sent(), 1, "same path keeps the seen set")

	f.win.ReplacePath("/sk/o-nas")
	f.reporter.HandlePathChange("/sk/o-nas")
	assert.False(t, f.reporter.Seen(sections.About))
	assert.Equal(t, 1, f.win.Observers(), "old observer disconnected")

	f.win.Intersect("about", 1)
	sent := f.tr.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "/sk/o-nas", sent[1].Props["path"])
}

func TestReporterWaitsForConsentThenReportsOnNextCrossing(t *testing.T) {
	f := newReporterFixture(t, false)

	f.win.Intersect("gallery", 1)
	assert.Empty(t, f.tr.sent())
	assert.False(t, f.reporter.Seen(sections.Gallery))

	f.consent.set(true)
	f.reporter.HandleConsent(true)
	f.win.Intersect("gallery", 1)
	require.Len(t, f.tr.sent(), 1)

	// granted -> granted is not a transition
	f.reporter.HandleConsent(true)
	assert.True(t, f.reporter.Seen(sections.Gallery))
}

func TestReporterWiredToActivator(t *testing.T) {
	win := domtest.NewWindow("/en")
	win.SetTop("top", 0)
	act := consent.NewActivator(win, consent.WithHost(win), consent.WithClock(clocktest.New()))
	t.Cleanup(act.Close)
	act.Mount(win)

	tr := &recordingTransport{}
	r := NewReporter(sections.Default(), win, win, NewTracker(act, tr))
	t.Cleanup(r.Close)
	r.Mount()
	act.Subscribe(func(c consent.Change) { r.HandleConsent(c.To == consent.Granted) })

	win.Intersect("top", 1)
	assert.Empty(t, tr.sent())

	act.Accept()
	win.Intersect("top", 1)
	require.Len(t, tr.sent(), 1)

	act.Decline()
	win.Intersect("top", 0)
	win.Intersect("top", 1)
	assert.Len(t, tr.sent(), 1)
}

func TestReporterCloseDisconnects(t *testing.T) {
	f := newReporterFixture(t, true)
	f.reporter.Close()
	assert.Zero(t, f.win.Observers())
	f.reporter.Rearm()
	assert.Zero(t, f.win.Observers())
}

func TestMeasurementProtocolSend(t *testing.T) {
	var got mpPayload
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		assert.Equal(t, "/mp/collect", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	mp := MeasurementProtocol{MeasurementID: "G-TEST", APISecret: "s3cret", Endpoint: srv.URL + "/mp/collect", Client: srv.Client()}
	ev, err := NewEvent(SectionView, Props{"section_id": "sessions"}, time.Unix(1700000000, 0))
	require.NoError(t, err)
	ev.ClientID = "cid-1"

	require.NoError(t, mp.Send(context.Background(), ev))
	assert.Equal(t, "api_secret=s3cret&measurement_id=G-TEST", query)
	assert.Equal(t, "cid-1", got.ClientID)
	require.Len(t, got.Events, 1)
	assert.Equal(t, "section_view", got.Events[0].Name)
	assert.Equal(t, "sessions", got.Events[0].Params["section_id"])
	assert.Equal(t, ev.ID, got.Events[0].Params["event_id"])
}

func TestMeasurementProtocolErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	ev := Event{ID: "x", Name: CTAClick, ClientID: "c"}
	assert.Error(t, MeasurementProtocol{}.Send(context.Background(), ev))
	mp := MeasurementProtocol{MeasurementID: "G", APISecret: "s", Endpoint: srv.URL + "/mp/collect", Client: srv.Client()}
	assert.ErrorContains(t, mp.Send(context.Background(), ev), "400")
	assert.Error(t, mp.Send(context.Background(), Event{ID: "y", Name: CTAClick}))
}

func TestMeasurementProtocolDebugEndpoint(t *testing.T) {
	mp := MeasurementProtocol{MeasurementID: "G", APISecret: "s", Debug: true}
	assert.Contains(t, mp.url(), "https://www.google-analytics.com/debug/mp/collect?")
}

func TestLogTransport(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ev := Event{ID: "01J", Name: CTAClick, Props: Props{"cta": "book"}}
	require.NoError(t, LogTransport{Logger: zap.New(core)}.Send(context.Background(), ev))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "book", logs.All()[0].ContextMap()["prop.cta"])
}

func TestRelayForward(t *testing.T) {
	tr := &recordingTransport{}
	relay := NewRelay(tr, WithMeter(noop.NewMeterProvider().Meter("test")), WithClock(clocktest.New()))
	ctx := context.Background()

	_, err := relay.Forward(ctx, Incoming{Consent: consent.Unset, Name: "cta_click"})
	assert.ErrorIs(t, err, ErrNotConsented)
	_, err = relay.Forward(ctx, Incoming{Consent: consent.Denied, Name: "cta_click"})
	assert.ErrorIs(t, err, ErrNotConsented)
	_, err = relay.Forward(ctx, Incoming{Consent: consent.Granted, Name: "purchase"})
	assert.ErrorIs(t, err, ErrInvalidEvent)
	assert.Empty(t, tr.sent())

	ev, err := relay.Forward(ctx, Incoming{Consent: consent.Granted, ClientID: "cid", Name: "cta_click", Props: Props{"cta": "trial"}})
	require.NoError(t, err)
	assert.Equal(t, "cid", ev.ClientID)
	assert.Equal(t, []Event{ev}, tr.sent())

	tr.err = errors.New("boom")
	_, err = relay.Forward(ctx, Incoming{Consent: consent.Granted, ClientID: "cid", Name: "cta_click"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotConsented)
}

func TestBeaconSend(t *testing.T) {
	var gotURL string
	var gotBody []byte
	b := Beacon{URL: "/api/events", Post: func(url string, body []byte) bool {
		gotURL, gotBody = url, body
		return true
	}}
	ev, err := NewEvent(CTAClick, Props{"cta": "hero_phone"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, b.Send(context.Background(), ev))
	assert.Equal(t, "/api/events", gotURL)
	assert.JSONEq(t, `{"name":"cta_click","props":{"cta":"hero_phone"}}`, string(gotBody))

	b.Post = func(string, []byte) bool { return false }
	assert.Error(t, b.Send(context.Background(), ev))
	assert.Error(t, Beacon{}.Send(context.Background(), ev))
}
