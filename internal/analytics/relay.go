package analytics

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/maht0rz/spartans-club-web/internal/clock"
	"github.com/maht0rz/spartans-club-web/internal/consent"
)

const metricNamespace = "github.com/maht0rz/spartans-club-web/analytics"

// ErrNotConsented is returned by Relay.Forward for visitors without a grant.
var ErrNotConsented = errors.New("analytics: consent not granted")

// Incoming is an event posted by the browser.
type Incoming struct {
	Consent  consent.State
	ClientID string
	Name     string
	Props    Props
}

// Relay accepts browser events on the server and forwards them to a Transport.
type Relay struct {
	transport Transport
	clock     clock.Clock
	logger    *zap.Logger

	accepted   metric.Int64Counter
	suppressed metric.Int64Counter
}

func NewRelay(transport Transport, opts ...Option) *Relay {
	o := buildOptions(opts)
	meter := o.meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(metricNamespace)
	}
	r := &Relay{transport: transport, clock: o.clock, logger: o.logger}

	var err error
	r.accepted, err = meter.Int64Counter(
		"analytics.events.accepted",
		metric.WithDescription("Events forwarded to the analytics transport"),
	)
	if err != nil {
		o.logger.Warn("analytics: unable to register accepted metric", zap.Error(err))
	}
	r.suppressed, err = meter.Int64Counter(
		"analytics.events.suppressed",
		metric.WithDescription("Events dropped before forwarding"),
	)
	if err != nil {
		o.logger.Warn("analytics: unable to register suppressed metric", zap.Error(err))
	}
	return r
}

// Forward validates in and hands it to the transport. Visitors without a grant get
// ErrNotConsented and nothing is sent. Invalid input wraps ErrInvalidEvent.
func (r *Relay) Forward(ctx context.Context, in Incoming) (Event, error) {
	if in.Consent != consent.Granted {
		r.count(ctx, r.suppressed, in.Name, "consent")
		return Event{}, ErrNotConsented
	}
	name, err := ParseName(in.Name)
	if err != nil {
		r.count(ctx, r.suppressed, in.Name, "invalid")
		return Event{}, err
	}
	ev, err := NewEvent(name, in.Props, r.clock.Now())
	if err != nil {
		r.count(ctx, r.suppressed, in.Name, "invalid")
		return Event{}, err
	}
	ev.ClientID = in.ClientID

	if err := r.transport.Send(ctx, ev); err != nil {
		r.count(ctx, r.suppressed, in.Name, "transport")
		r.logger.Warn("analytics: relay send failed",
			zap.String("event_id", ev.ID),
			zap.String("event", string(ev.Name)),
			zap.Error(err),
		)
		return ev, fmt.Errorf("analytics: forward %s: %w", ev.ID, err)
	}
	r.count(ctx, r.accepted, in.Name, "")
	return ev, nil
}

func (r *Relay) count(ctx context.Context, c metric.Int64Counter, name, reason string) {
	if c == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("event", name)}
	if reason != "" {
		attrs = append(attrs, attribute.String("reason", reason))
	}
	c.Add(ctx, 1, metric.WithAttributes(attrs...))
}
