package clock

import (
	"context"
	"time"
)

type key string

var asOfKey key = "as_of"

// WithAsOf pins the time reported by SystemClock for the lifetime of ctx.
func WithAsOf(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, asOfKey, t.UTC())
}

// AsOfFromContext returns the pinned time, if present.
func AsOfFromContext(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(asOfKey).(time.Time)
	return t, ok
}

type SystemClock struct{}

func (SystemClock) Now(ctx context.Context) time.Time {
	if t, ok := AsOfFromContext(ctx); ok {
		return t
	}
	return time.Now().UTC()
}
