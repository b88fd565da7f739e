package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/railzwaylabs/seatbill/internal/clock"
	"github.com/railzwaylabs/seatbill/internal/contract/domain"
	"github.com/railzwaylabs/seatbill/internal/contract/repository"
	pricingdomain "github.com/railzwaylabs/seatbill/internal/pricing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Contract{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.Fixed(testNow),
		Repo:  repository.Provide(),
	}), db
}

func ptr[T any](v T) *T { return &v }

func TestGetReturnsDefaultWhenMissing(t *testing.T) {
	svc, _ := newTestService(t)

	c, err := svc.Get(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", c.CustomerID)
	assert.Equal(t, pricingdomain.AgreementSimple, c.AgreementType)
	assert.True(t, c.SegmentEnabled)
	assert.Nil(t, c.SegmentPrice)
	assert.Zero(t, c.ID)
}

func TestGetRejectsBlankCustomer(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)
}

func TestUpsertCreatesThenMerges(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Upsert(ctx, domain.UpsertRequest{
		CustomerID:    "acme",
		CustomerName:  ptr("Acme Corp"),
		AgreementType: ptr(pricingdomain.AgreementComplex),
		PricingRanges: &[]pricingdomain.PricingRange{
			{Min: 0, Max: 10, FixedPrice: 500},
			{Min: 11, Max: 50, FixedPrice: 1500},
		},
		SegmentPrice: ptr(0.10),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	assert.Equal(t, testNow, created.CreatedAt)

	updated, err := svc.Upsert(ctx, domain.UpsertRequest{
		CustomerID:     "acme",
		SegmentEnabled: ptr(false),
		TestIdentities: &[]string{" qa@acme.test ", "bot@acme.test"},
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	stored, err := svc.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", stored.CustomerName)
	assert.Equal(t, pricingdomain.AgreementComplex, stored.AgreementType)
	assert.Len(t, stored.PricingRanges, 2)
	assert.False(t, stored.SegmentEnabled)
	require.NotNil(t, stored.SegmentPrice)
	assert.InDelta(t, 0.10, *stored.SegmentPrice, 1e-9)
	assert.Equal(t, []string{"qa@acme.test", "bot@acme.test"}, []string(stored.TestIdentities))
}

func TestUpsertClearSegmentPrice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, domain.UpsertRequest{CustomerID: "acme", SegmentPrice: ptr(0.2)})
	require.NoError(t, err)

	_, err = svc.Upsert(ctx, domain.UpsertRequest{CustomerID: "acme", ClearSegmentPrice: true})
	require.NoError(t, err)

	stored, err := svc.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Nil(t, stored.SegmentPrice)
	assert.Nil(t, stored.Config().SegmentPrice)
}

func TestUpsertRejectsOverlappingRanges(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.Upsert(context.Background(), domain.UpsertRequest{
		CustomerID:    "acme",
		AgreementType: ptr(pricingdomain.AgreementComplex),
		PricingRanges: &[]pricingdomain.PricingRange{
			{Min: 0, Max: 10, FixedPrice: 500},
			{Min: 10, Max: 20, FixedPrice: 900},
		},
	})
	require.ErrorIs(t, err, domain.ErrInvalidContract)

	var count int64
	require.NoError(t, db.Model(&domain.Contract{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpsertRejectsInvalidFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, domain.UpsertRequest{CustomerID: "acme", UserRate: ptr(-1.0)})
	assert.ErrorIs(t, err, domain.ErrInvalidContract)

	_, err = svc.Upsert(ctx, domain.UpsertRequest{CustomerID: "acme", AgreementType: ptr(pricingdomain.AgreementType("Tiered"))})
	assert.ErrorIs(t, err, domain.ErrInvalidContract)

	_, err = svc.Upsert(ctx, domain.UpsertRequest{CustomerID: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)
}

func TestListOrdersByCustomer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, id := range []string{"zeta", "acme", "mid"} {
		_, err := svc.Upsert(ctx, domain.UpsertRequest{CustomerID: id, UserRate: ptr(10.0)})
		require.NoError(t, err)
	}

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "acme", items[0].CustomerID)
	assert.Equal(t, "mid", items[1].CustomerID)
	assert.Equal(t, "zeta", items[2].CustomerID)
}
