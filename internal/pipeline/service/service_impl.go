package service

import (
	"context"
	"errors"
	"strings"
	"time"

	auditdomain "github.com/railzwaylabs/seatbill/internal/audit/domain"
	billingcycledomain "github.com/railzwaylabs/seatbill/internal/billingcycle/domain"
	"github.com/railzwaylabs/seatbill/internal/clock"
	"github.com/railzwaylabs/seatbill/internal/config"
	contractdomain "github.com/railzwaylabs/seatbill/internal/contract/domain"
	"github.com/railzwaylabs/seatbill/internal/lock"
	"github.com/railzwaylabs/seatbill/internal/observability"
	"github.com/railzwaylabs/seatbill/internal/pipeline/domain"
	pricingdomain "github.com/railzwaylabs/seatbill/internal/pricing/domain"
	recondomain "github.com/railzwaylabs/seatbill/internal/reconciliation/domain"
	sourcedomain "github.com/railzwaylabs/seatbill/internal/source/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const tracerName = "github.com/railzwaylabs/seatbill/internal/pipeline"

type Params struct {
	fx.In

	Log        *zap.Logger
	Config     config.Config
	Clock      clock.Clock
	Contracts  contractdomain.Service
	Sources    sourcedomain.Sources
	Reconciler recondomain.Service
	Pricing    pricingdomain.Service
	Audit      auditdomain.Service
	Locker     lock.Locker
	Metrics    *observability.Metrics
	Tracer     trace.TracerProvider
}

type Service struct {
	log         *zap.Logger
	clock       clock.Clock
	contracts   contractdomain.Service
	sources     sourcedomain.Sources
	reconciler  recondomain.Service
	pricing     pricingdomain.Service
	audit       auditdomain.Service
	locker      lock.Locker
	metrics     *observability.Metrics
	tracer      trace.Tracer
	concurrency int
	lockTTL     time.Duration
}

func New(p Params) domain.Service {
	concurrency := p.Config.Billing.BatchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	lockTTL := p.Config.Billing.BatchLockTTL
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &Service{
		log:         p.Log.Named("pipeline.service"),
		clock:       p.Clock,
		contracts:   p.Contracts,
		sources:     p.Sources,
		reconciler:  p.Reconciler,
		pricing:     p.Pricing,
		audit:       p.Audit,
		locker:      p.Locker,
		metrics:     p.Metrics,
		tracer:      p.Tracer.Tracer(tracerName),
		concurrency: concurrency,
		lockTTL:     lockTTL,
	}
}

func (s *Service) Run(ctx context.Context, req domain.RunRequest) (*domain.Outcome, error) {
	return s.execute(ctx, req, auditdomain.ActionReconcile)
}

// execute runs one customer and records the attempt in metrics, traces and the run log.
func (s *Service) execute(ctx context.Context, req domain.RunRequest, action auditdomain.Action) (*domain.Outcome, error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	ctx, span := s.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("customer_id", req.CustomerID),
		attribute.String("action", string(action)),
	))
	defer span.End()

	start := time.Now()
	out, err := s.run(ctx, req)
	s.metrics.RunDuration.WithLabelValues(string(action)).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.Runs.WithLabelValues(string(action), "failed").Inc()
		s.log.Warn("run failed",
			zap.String("customer_id", req.CustomerID),
			zap.String("period", req.Period),
			zap.Error(err),
		)
		if req.CustomerID != "" && !errors.Is(err, billingcycledomain.ErrMalformedPeriod) {
			s.record(ctx, &auditdomain.RunLog{
				CustomerID: req.CustomerID,
				Period:     s.recordedPeriod(ctx, req.Period),
				Action:     action,
				Actor:      req.Actor,
				Status:     auditdomain.StatusFailed,
				Error:      err.Error(),
			})
		}
		return nil, err
	}

	s.observe(out, action)
	span.SetAttributes(
		attribute.String("period", out.Period),
		attribute.Float64("grand_total", out.Priced.GrandTotal),
		attribute.Bool("gap_free", out.IsGapFree),
	)

	summary := out.Priced.Reconciliation.Summary
	s.record(ctx, &auditdomain.RunLog{
		CustomerID:   out.CustomerID,
		CustomerName: out.CustomerName,
		Period:       out.Period,
		Action:       action,
		Actor:        req.Actor,
		Status:       auditdomain.StatusSucceeded,
		TotalUsers:   summary.TotalActive,
		TotalCharge:  out.Priced.TotalCharge,
		SegmentCost:  out.Priced.SegmentCost,
		GrandTotal:   out.Priced.GrandTotal,
		Mismatches:   summary.TotalMismatches,
	})
	return out, nil
}

func (s *Service) run(ctx context.Context, req domain.RunRequest) (*domain.Outcome, error) {
	if req.CustomerID == "" {
		return nil, contractdomain.ErrInvalidCustomer
	}
	period, err := billingcycledomain.ParsePeriod(s.periodToken(ctx, req.Period))
	if err != nil {
		return nil, err
	}

	contract, err := s.contracts.Get(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	cfg := contract.Config()
	if req.UserRate != nil {
		cfg.UserRate = *req.UserRate
	}

	var priced *pricingdomain.PricedResult
	if cfg.UsageOnly {
		usage, err := s.sources.Usage.FetchUsage(ctx, req.CustomerID, period)
		if err != nil {
			return nil, err
		}
		priced = s.pricing.ApplyUsageOnly(cfg, period, usage)
	} else {
		data, err := s.fetch(ctx, req.CustomerID, period)
		if err != nil {
			return nil, err
		}
		rec, err := s.reconciler.Reconcile(recondomain.Input{
			Lifecycle:      data.lifecycle,
			Roster:         data.roster,
			Period:         period.Token,
			UserRate:       cfg.UserRate,
			TestIdentities: append(data.testIdentities, contract.TestIdentities...),
		})
		if err != nil {
			return nil, err
		}
		priced = s.pricing.Apply(cfg, *rec, data.usage)
	}

	return &domain.Outcome{
		CustomerID:   contract.CustomerID,
		CustomerName: contract.DisplayName(),
		Period:       period.Token,
		Contract:     *contract,
		Priced:       priced,
		IsGapFree:    priced.Reconciliation.IsGapFree(),
	}, nil
}

func (s *Service) periodToken(ctx context.Context, token string) string {
	if token = strings.TrimSpace(token); token != "" {
		return token
	}
	return s.clock.Now(ctx).Format("2006-01")
}

// recordedPeriod returns the canonical YYYY-MM token when the period parses.
func (s *Service) recordedPeriod(ctx context.Context, token string) string {
	token = s.periodToken(ctx, token)
	if period, err := billingcycledomain.ParsePeriod(token); err == nil {
		return period.Token
	}
	return token
}

// record writes the run log. A failed write is logged and does not fail the run.
func (s *Service) record(ctx context.Context, entry *auditdomain.RunLog) {
	if err := s.audit.Record(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Error("failed to record run log", zap.String("customer_id", entry.CustomerID), zap.Error(err))
	}
}

func (s *Service) observe(out *domain.Outcome, action auditdomain.Action) {
	s.metrics.Runs.WithLabelValues(string(action), "succeeded").Inc()
	for _, m := range out.Priced.Reconciliation.Mismatches {
		s.metrics.Mismatches.WithLabelValues(string(m.Source)).Inc()
	}
	s.metrics.BilledTotal.WithLabelValues("users").Add(out.Priced.TotalCharge)
	s.metrics.BilledTotal.WithLabelValues("segments").Add(out.Priced.SegmentCost)
	for _, n := range out.Priced.Notes {
		if n.Level == pricingdomain.NoteWarning {
			s.metrics.PricingWarning.WithLabelValues(string(n.Code)).Inc()
		}
	}
}
