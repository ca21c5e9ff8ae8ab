package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultMeasurementEndpoint is the GA4 Measurement Protocol collection URL.
const DefaultMeasurementEndpoint = "https://www.google-analytics.com/mp/collect"

// LogTransport writes events to a logger. Used when no GA credentials are configured.
type LogTransport struct {
	Logger *zap.Logger
}

func (t LogTransport) Send(_ context.Context, ev Event) error {
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fields := []zap.Field{
		zap.String("event_id", ev.ID),
		zap.String("event", string(ev.Name)),
		zap.String("client_id", ev.ClientID),
	}
	for _, k := range ev.Props.Keys() {
		fields = append(fields, zap.Any("prop."+k, ev.Props[k]))
	}
	logger.Info("analytics event", fields...)
	return nil
}

// MeasurementProtocol forwards events to GA4 from the server.
type MeasurementProtocol struct {
	MeasurementID string
	APISecret     string
	Endpoint      string
	Client        *http.Client
	// Debug sends to the validation endpoint instead of collecting.
	Debug bool
}

type mpPayload struct {
	ClientID        string    `json:"client_id"`
	TimestampMicros int64     `json:"timestamp_micros,omitempty"`
	Events          []mpEvent `json:"events"`
}

type mpEvent struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// Send posts ev. A non-2xx reply is an error; nothing is retried.
func (m MeasurementProtocol) Send(ctx context.Context, ev Event) error {
	if m.MeasurementID == "" || m.APISecret == "" {
		return fmt.Errorf("analytics: measurement protocol is not configured")
	}
	if ev.ClientID == "" {
		return fmt.Errorf("analytics: event %s has no client id", ev.ID)
	}
	params := make(map[string]any, len(ev.Props)+1)
	for k, v := range ev.Props {
		params[k] = v
	}
	params["event_id"] = ev.ID
	payload := mpPayload{
		ClientID: ev.ClientID,
		Events:   []mpEvent{{Name: string(ev.Name), Params: params}},
	}
	if !ev.Time.IsZero() {
		payload.TimestampMicros = ev.Time.UnixMicro()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("analytics: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("analytics: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := m.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("analytics: post event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("analytics: measurement protocol replied %s", resp.Status)
	}
	return nil
}

func (m MeasurementProtocol) url() string {
	endpoint := m.Endpoint
	if endpoint == "" {
		endpoint = DefaultMeasurementEndpoint
	}
	if m.Debug && !strings.Contains(endpoint, "/debug/") {
		endpoint = strings.Replace(endpoint, "/mp/collect", "/debug/mp/collect", 1)
	}
	q := url.Values{}
	q.Set("measurement_id", m.MeasurementID)
	q.Set("api_secret", m.APISecret)
	return endpoint + "?" + q.Encode()
}

// BeaconPayload is the body the browser posts to the events relay.
type BeaconPayload struct {
	Name  string `json:"name"`
	Props Props  `json:"props,omitempty"`
}

// Beacon hands events to a fire-and-forget poster, e.g. navigator.sendBeacon. The
// server relay assigns ids and client ids; only name and props travel.
type Beacon struct {
	URL  string
	Post func(url string, body []byte) bool
}

func (b Beacon) Send(_ context.Context, ev Event) error {
	if b.Post == nil {
		return fmt.Errorf("analytics: beacon has no poster")
	}
	body, err := json.Marshal(BeaconPayload{Name: string(ev.Name), Props: ev.Props})
	if err != nil {
		return fmt.Errorf("analytics: encode beacon: %w", err)
	}
	if !b.Post(b.URL, body) {
		return fmt.Errorf("analytics: beacon for %s was not queued", ev.Name)
	}
	return nil
}
