package middleware

import (
	"context"

	"github.com/maht0rz/spartans-club-web/internal/i18n"
)

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyRequestID ctxKey = "req_id"
	ctxKeyLocale    ctxKey = "locale"
	ctxKeyLocaleFB  ctxKey = "locale_fallback"
)

// WithRequestID stores request id in context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestID gets request id from context
func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyRequestID).(string)
	return v, ok
}

// WithLocale stores the resolved locale in context
func WithLocale(ctx context.Context, l i18n.Locale) context.Context {
	return context.WithValue(ctx, ctxKeyLocale, l)
}

// LocaleFromContext returns the locale resolved for this request, if any
func LocaleFromContext(ctx context.Context) (i18n.Locale, bool) {
	v, ok := ctx.Value(ctxKeyLocale).(i18n.Locale)
	return v, ok
}
