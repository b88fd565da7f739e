package domain

import (
	billingcycledomain "github.com/railzwaylabs/seatbill/internal/billingcycle/domain"
	recondomain "github.com/railzwaylabs/seatbill/internal/reconciliation/domain"
)

type Service interface {
	Apply(cfg ContractConfig, rec recondomain.Result, usage []SegmentUsage) *PricedResult
	ApplyUsageOnly(cfg ContractConfig, period billingcycledomain.Period, usage []SegmentUsage) *PricedResult
}
