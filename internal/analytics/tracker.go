package analytics

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/maht0rz/spartans-club-web/internal/clock"
)

// ConsentSource answers whether metrics may be sent right now.
type ConsentSource interface {
	Granted() bool
}

// Transport delivers an event. Implementations do not retry.
type Transport interface {
	Send(ctx context.Context, ev Event) error
}

type options struct {
	clock     clock.Clock
	logger    *zap.Logger
	meter     metric.Meter
	threshold float64
	margin    string
}

// Option customises a Tracker, Reporter or Relay.
type Option func(*options)

func WithClock(c clock.Clock) Option { return func(o *options) { o.clock = c } }

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMeter sets the meter used by Relay counters. Defaults to the global provider.
func WithMeter(m metric.Meter) Option { return func(o *options) { o.meter = m } }

// WithThreshold overrides the Reporter's visible ratio.
func WithThreshold(ratio float64) Option {
	return func(o *options) {
		if ratio > 0 && ratio <= 1 {
			o.threshold = ratio
		}
	}
}

// WithRootMargin overrides the Reporter's observer root margin.
func WithRootMargin(margin string) Option { return func(o *options) { o.margin = margin } }

func buildOptions(opts []Option) options {
	o := options{
		clock:     clock.Real(),
		logger:    zap.NewNop(),
		threshold: DefaultThreshold,
		margin:    DefaultRootMargin,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Tracker is the single client-side entry point for metrics.
type Tracker struct {
	consent   ConsentSource
	transport Transport
	clock     clock.Clock
	logger    *zap.Logger
}

func NewTracker(consent ConsentSource, transport Transport, opts ...Option) *Tracker {
	o := buildOptions(opts)
	return &Tracker{consent: consent, transport: transport, clock: o.clock, logger: o.logger}
}

// Enabled reports whether Emit would hand events to the transport.
func (t *Tracker) Enabled() bool {
	return t != nil && t.consent != nil && t.transport != nil && t.consent.Granted()
}

// Emit sends an event when consent is granted. Without consent it does nothing: the
// event is neither queued nor retried. It reports whether the event was handed over.
func (t *Tracker) Emit(ctx context.Context, name Name, props Props) bool {
	if !t.Enabled() {
		return false
	}
	ev, err := NewEvent(name, props, t.clock.Now())
	if err != nil {
		t.logger.Debug("analytics: dropping invalid event", zap.Error(err))
		return false
	}
	if err := t.transport.Send(ctx, ev); err != nil {
		t.logger.Warn("analytics: send failed", zap.String("event", string(name)), zap.Error(err))
		return false
	}
	return true
}
