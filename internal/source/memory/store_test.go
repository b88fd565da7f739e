package memory

import (
	"context"
	"errors"
	"testing"

	billingcycledomain "github.com/railzwaylabs/seatbill/internal/billingcycle/domain"
	pricingdomain "github.com/railzwaylabs/seatbill/internal/pricing/domain"
	recondomain "github.com/railzwaylabs/seatbill/internal/reconciliation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreReturnsCopies(t *testing.T) {
	store := NewStore()
	store.SetRoster("acme", recondomain.RosterUser{Email: "a@acme.test"})

	first, err := store.FetchRoster(context.Background(), "acme")
	require.NoError(t, err)
	first[0].Email = "changed"

	second, err := store.FetchRoster(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "a@acme.test", second[0].Email)
}

func TestStoreUsageIsPerPeriod(t *testing.T) {
	store := NewStore()
	store.SetUsage("acme", "2024-03", pricingdomain.SegmentUsage{Name: "EMEA", Count: 3})

	march, err := billingcycledomain.ParsePeriod("2024-03")
	require.NoError(t, err)
	april, err := billingcycledomain.ParsePeriod("2024-04")
	require.NoError(t, err)

	got, err := store.FetchUsage(context.Background(), "acme", march)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = store.FetchUsage(context.Background(), "acme", april)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStoreErr(t *testing.T) {
	store := NewStore()
	store.Err = errors.New("upstream down")

	_, err := store.FetchTestIdentities(context.Background(), "acme")
	assert.EqualError(t, err, "upstream down")
}
