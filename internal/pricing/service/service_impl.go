package service

import (
	"fmt"

	billingcycledomain "github.com/railzwaylabs/seatbill/internal/billingcycle/domain"
	pricingdomain "github.com/railzwaylabs/seatbill/internal/pricing/domain"
	recondomain "github.com/railzwaylabs/seatbill/internal/reconciliation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log      *zap.Logger
	defaults pricingdomain.Defaults
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Defaults pricingdomain.Defaults `optional:"true"`
}

func New(p Params) pricingdomain.Service {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	defaults := p.Defaults
	if defaults.SegmentPrice <= 0 {
		defaults.SegmentPrice = pricingdomain.DefaultSegmentPrice
	}
	if defaults.UsageOnlySegmentPrice <= 0 {
		defaults.UsageOnlySegmentPrice = pricingdomain.DefaultUsageOnlySegmentPrice
	}
	return &Service{
		log:      log.Named("pricing.service"),
		defaults: defaults,
	}
}

func (s *Service) Apply(cfg pricingdomain.ContractConfig, rec recondomain.Result, usage []pricingdomain.SegmentUsage) *pricingdomain.PricedResult {
	out := &pricingdomain.PricedResult{
		Reconciliation: rec.Clone(),
		SegmentUsage:   gateSegments(cfg.SegmentEnabled, usage),
		Notes:          []pricingdomain.Note{},
	}

	summary := &out.Reconciliation.Summary
	totalActive := summary.TotalActive

	if cfg.AgreementType == pricingdomain.AgreementComplex {
		zeroCharges(out.Reconciliation.Normal)
		zeroCharges(out.Reconciliation.New)
		zeroCharges(out.Reconciliation.Deactivated)
		zeroCharges(out.Reconciliation.Secondary)
		summary.TotalCharge = 0

		switch match, ok := matchRange(cfg.PricingRanges, totalActive); {
		case len(cfg.PricingRanges) == 0:
			out.Notes = append(out.Notes, pricingdomain.Note{
				Level:   pricingdomain.NoteWarning,
				Code:    pricingdomain.NoteNoPricingRanges,
				Message: "Agreement is Complex but no pricing ranges are defined",
			})
		case ok:
			summary.TotalCharge = match.FixedPrice
			applied := match
			out.AppliedRange = &applied
			out.Notes = append(out.Notes, pricingdomain.Note{
				Level:   pricingdomain.NoteInfo,
				Code:    pricingdomain.NoteFixedRangeApplied,
				Message: fmt.Sprintf("Fixed pricing range applied (%d-%d users: $%.2f)", match.Min, match.Max, match.FixedPrice),
			})
		default:
			out.Notes = append(out.Notes, pricingdomain.Note{
				Level:   pricingdomain.NoteWarning,
				Code:    pricingdomain.NoteNoPricingTierMatched,
				Message: fmt.Sprintf("No pricing range found for %d users", totalActive),
			})
			s.log.Warn("no pricing range matched", zap.Int("total_active", totalActive))
		}
	} else if cfg.MinMonthlyAmount > 0 && totalActive <= cfg.MinUsers {
		summary.TotalCharge = cfg.MinMonthlyAmount
		out.MinimumApplied = true
		out.Notes = append(out.Notes, pricingdomain.Note{
			Level:   pricingdomain.NoteInfo,
			Code:    pricingdomain.NoteMinimumApplied,
			Message: fmt.Sprintf("Minimum monthly charge applied (%.2f for <= %d users)", cfg.MinMonthlyAmount, cfg.MinUsers),
		})
	}

	s.priceSegments(out, cfg, s.defaults.SegmentPrice)
	return out
}

// ApplyUsageOnly prices a usage-only contract: no per-user fees, segments only.
func (s *Service) ApplyUsageOnly(cfg pricingdomain.ContractConfig, period billingcycledomain.Period, usage []pricingdomain.SegmentUsage) *pricingdomain.PricedResult {
	out := &pricingdomain.PricedResult{
		Reconciliation: recondomain.NewResult(period, 0),
		SegmentUsage:   append([]pricingdomain.SegmentUsage{}, usage...),
		Notes: []pricingdomain.Note{{
			Level:   pricingdomain.NoteInfo,
			Code:    pricingdomain.NoteUsageOnly,
			Message: "Usage-only contract, no per-user fees",
		}},
	}
	s.priceSegments(out, cfg, s.defaults.UsageOnlySegmentPrice)
	return out
}

func (s *Service) priceSegments(out *pricingdomain.PricedResult, cfg pricingdomain.ContractConfig, fallback float64) {
	var total int64
	for _, u := range out.SegmentUsage {
		total += u.Count
	}

	price := fallback
	if cfg.SegmentPrice != nil {
		price = *cfg.SegmentPrice
	}

	out.TotalSegments = total
	out.SegmentPrice = price
	out.SegmentCost = float64(total) * price
	out.TotalCharge = out.Reconciliation.Summary.TotalCharge
	out.GrandTotal = out.TotalCharge + out.SegmentCost
}

func gateSegments(enabled bool, usage []pricingdomain.SegmentUsage) []pricingdomain.SegmentUsage {
	if !enabled {
		return []pricingdomain.SegmentUsage{{Name: pricingdomain.DisabledSegmentName, Count: 0}}
	}
	return append([]pricingdomain.SegmentUsage{}, usage...)
}

func zeroCharges(users []recondomain.BilledUser) {
	for i := range users {
		users[i].Charge = 0
	}
}
