package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	auditdomain "github.com/railzwaylabs/seatbill/internal/audit/domain"
	billingcycledomain "github.com/railzwaylabs/seatbill/internal/billingcycle/domain"
	"github.com/railzwaylabs/seatbill/internal/lock"
	"github.com/railzwaylabs/seatbill/internal/pipeline/domain"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (s *Service) RunBatch(ctx context.Context, req domain.BatchRequest) (*domain.BatchSummary, error) {
	period, err := billingcycledomain.ParsePeriod(s.periodToken(ctx, req.Period))
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "pipeline.batch", trace.WithAttributes(
		attribute.String("period", period.Token),
	))
	defer span.End()

	lease, err := s.locker.Acquire(ctx, "batch:"+period.Token, s.lockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, fmt.Errorf("%w: %s", domain.ErrBatchInProgress, period.Token)
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("failed to release batch lock", zap.String("period", period.Token), zap.Error(err))
		}
	}()

	ids, err := s.batchCustomers(ctx, req.CustomerIDs)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("customers", len(ids)))

	items := make([]domain.BatchItem, len(ids))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			out, err := s.execute(ctx, domain.RunRequest{
				CustomerID: id,
				Period:     period.Token,
				Actor:      req.Actor,
			}, auditdomain.ActionBatch)
			items[i] = toBatchItem(id, out, err)
			return nil
		})
	}
	_ = g.Wait()

	summary := &domain.BatchSummary{Period: period.Token, Items: items}
	grand := decimal.Zero
	for _, item := range items {
		if item.Error != "" {
			summary.Failed++
			s.metrics.BatchItems.WithLabelValues("failed").Inc()
			continue
		}
		s.metrics.BatchItems.WithLabelValues("succeeded").Inc()
		grand = grand.Add(decimal.NewFromFloat(item.Total))
	}
	summary.GrandTotal = grand.InexactFloat64()

	s.log.Info("batch summary completed",
		zap.String("period", period.Token),
		zap.Int("customers", len(items)),
		zap.Int("failed", summary.Failed),
		zap.Float64("grand_total", summary.GrandTotal),
	)
	return summary, nil
}

// batchCustomers de-duplicates the requested ids, preserving order. No ids
// means every stored contract.
func (s *Service) batchCustomers(ctx context.Context, requested []string) ([]string, error) {
	seen := make(map[string]struct{}, len(requested))
	ids := make([]string, 0, len(requested))
	for _, id := range requested {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) > 0 {
		return ids, nil
	}

	contracts, err := s.contracts.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range contracts {
		ids = append(ids, c.CustomerID)
	}
	return ids, nil
}

func toBatchItem(customerID string, out *domain.Outcome, err error) domain.BatchItem {
	if err != nil {
		return domain.BatchItem{
			CustomerID: customerID,
			Name:       customerID,
			Error:      err.Error(),
		}
	}

	priced := out.Priced
	rec := priced.Reconciliation
	return domain.BatchItem{
		CustomerID:     out.CustomerID,
		Name:           out.CustomerName,
		TotalUsers:     rec.Summary.TotalActive,
		ProratedUsers:  rec.Summary.TotalNew + rec.Summary.TotalDeactivated,
		Segments:       priced.TotalSegments,
		UserRate:       roundCents(rec.UserRate),
		ProratedAmount: roundCents(rec.ProratedCharge()),
		SegmentCost:    roundCents(priced.SegmentCost),
		Total:          roundCents(priced.GrandTotal),
		Mismatches:     rec.Summary.TotalMismatches,
		HasWarnings:    priced.HasWarnings(),
	}
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
