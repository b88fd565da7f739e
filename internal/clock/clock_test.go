package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClockHonoursAsOf(t *testing.T) {
	pinned := time.Date(2024, 3, 15, 9, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	ctx := WithAsOf(context.Background(), pinned)

	assert.True(t, New().Now(ctx).Equal(pinned))
	assert.Equal(t, time.UTC, New().Now(ctx).Location())
}

func TestSystemClockDefaultsToNow(t *testing.T) {
	before := time.Now().UTC()
	got := SystemClock{}.Now(context.Background())
	assert.False(t, got.Before(before))
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, at, Fixed(at).Now(context.Background()))
}
