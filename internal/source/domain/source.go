package domain

import (
	"context"
	"errors"

	billingcycledomain "github.com/railzwaylabs/seatbill/internal/billingcycle/domain"
	pricingdomain "github.com/railzwaylabs/seatbill/internal/pricing/domain"
	recondomain "github.com/railzwaylabs/seatbill/internal/reconciliation/domain"
)

var (
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrMalformedSource = errors.New("malformed_source")
)

type LifecycleSource interface {
	FetchLifecycle(ctx context.Context, customerID string, period billingcycledomain.Period) ([]recondomain.LifecycleUser, error)
}

type RosterSource interface {
	FetchRoster(ctx context.Context, customerID string) ([]recondomain.RosterUser, error)
}

type UsageSource interface {
	FetchUsage(ctx context.Context, customerID string, period billingcycledomain.Period) ([]pricingdomain.SegmentUsage, error)
}

type TestIdentitySource interface {
	FetchTestIdentities(ctx context.Context, customerID string) ([]string, error)
}

// Sources bundles the upstream systems a run reads from.
type Sources struct {
	Lifecycle      LifecycleSource
	Roster         RosterSource
	Usage          UsageSource
	TestIdentities TestIdentitySource
}
