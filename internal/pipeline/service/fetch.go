package service

import (
	"context"
	"fmt"

	billingcycledomain "github.com/railzwaylabs/seatbill/internal/billingcycle/domain"
	pricingdomain "github.com/railzwaylabs/seatbill/internal/pricing/domain"
	recondomain "github.com/railzwaylabs/seatbill/internal/reconciliation/domain"
	"golang.org/x/sync/errgroup"
)

type upstreamData struct {
	lifecycle      []recondomain.LifecycleUser
	roster         []recondomain.RosterUser
	usage          []pricingdomain.SegmentUsage
	testIdentities []string
}

// fetch reads the four upstream datasets concurrently; the first failure cancels the rest.
func (s *Service) fetch(ctx context.Context, customerID string, period billingcycledomain.Period) (*upstreamData, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.fetch")
	defer span.End()

	var data upstreamData
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.sources.Lifecycle.FetchLifecycle(gctx, customerID, period)
		if err != nil {
			return fmt.Errorf("fetch lifecycle: %w", err)
		}
		data.lifecycle = users
		return nil
	})
	g.Go(func() error {
		users, err := s.sources.Roster.FetchRoster(gctx, customerID)
		if err != nil {
			return fmt.Errorf("fetch roster: %w", err)
		}
		data.roster = users
		return nil
	})
	g.Go(func() error {
		usage, err := s.sources.Usage.FetchUsage(gctx, customerID, period)
		if err != nil {
			return fmt.Errorf("fetch usage: %w", err)
		}
		data.usage = usage
		return nil
	})
	g.Go(func() error {
		ids, err := s.sources.TestIdentities.FetchTestIdentities(gctx, customerID)
		if err != nil {
			return fmt.Errorf("fetch test identities: %w", err)
		}
		data.testIdentities = ids
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &data, nil
}
