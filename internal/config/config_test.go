package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "seatbill", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 0.05, cfg.Billing.DefaultSegmentPrice)
	assert.Equal(t, 5.0, cfg.Billing.UsageOnlySegmentPrice)
	assert.Equal(t, 4, cfg.Billing.BatchConcurrency)
	assert.Equal(t, 10*time.Minute, cfg.Billing.BatchLockTTL)
	assert.Equal(t, 730, cfg.Audit.RetentionDays)
	assert.Equal(t, time.Hour, cfg.Audit.PruneInterval)
	assert.Equal(t, "http", cfg.Observability.OTLPProtocol)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SEATBILL_APP_ENV", "development")
	t.Setenv("SEATBILL_DATABASE_DRIVER", "postgres")
	t.Setenv("SEATBILL_REDIS_ENABLED", "true")
	t.Setenv("SEATBILL_BILLING_DEFAULT_SEGMENT_PRICE", "0.07")
	t.Setenv("SEATBILL_BILLING_BATCH_CONCURRENCY", "8")
	t.Setenv("SEATBILL_BILLING_BATCH_LOCK_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 0.07, cfg.Billing.DefaultSegmentPrice)
	assert.Equal(t, 8, cfg.Billing.BatchConcurrency)
	assert.Equal(t, 90*time.Second, cfg.Billing.BatchLockTTL)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SEATBILL_DATABASE_DRIVER", "oracle")

	_, err := Load()
	assert.Error(t, err)
}
