// Package domain defines contract pricing terms and the priced reconciliation.
package domain

import (
	"errors"

	recondomain "github.com/railzwaylabs/seatbill/internal/reconciliation/domain"
)

type AgreementType string

const (
	AgreementSimple  AgreementType = "Simple"
	AgreementComplex AgreementType = "Complex"
)

const (
	// DefaultSegmentPrice applies when a contract leaves SegmentPrice unset.
	DefaultSegmentPrice = 0.05
	// DefaultUsageOnlySegmentPrice applies to usage-only contracts without a SegmentPrice.
	DefaultUsageOnlySegmentPrice = 5.00

	DisabledSegmentName  = "Segments (Disabled)"
	UsageOnlySegmentName = "Secondary Program Usage"
)

var (
	ErrInvalidRange      = errors.New("invalid_pricing_range")
	ErrOverlappingRanges = errors.New("overlapping_pricing_ranges")
)

// PricingRange is an inclusive user-count bracket with a flat fee.
type PricingRange struct {
	Min        int     `json:"min" validate:"gte=0"`
	Max        int     `json:"max" validate:"gte=0"`
	FixedPrice float64 `json:"fixed_price" validate:"gte=0"`
}

// ContractConfig holds one customer's billing terms. It is read only to the engine.
type ContractConfig struct {
	AgreementType    AgreementType  `json:"agreement_type"`
	UserRate         float64        `json:"user_rate"`
	MinUsers         int            `json:"min_users"`
	MinMonthlyAmount float64        `json:"min_monthly_amount"`
	PricingRanges    []PricingRange `json:"pricing_ranges"`
	SegmentEnabled   bool           `json:"segment_enabled"`
	// SegmentPrice is nil when the contract does not name a unit price.
	SegmentPrice *float64 `json:"segment_price,omitempty"`
	UsageOnly    bool     `json:"usage_only"`
}

// SegmentUsage is one billable usage line for the period.
type SegmentUsage struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type NoteLevel string

const (
	NoteInfo    NoteLevel = "info"
	NoteWarning NoteLevel = "warning"
)

type NoteCode string

const (
	NoteFixedRangeApplied    NoteCode = "fixed_range_applied"
	NoteNoPricingTierMatched NoteCode = "no_pricing_tier_matched"
	NoteNoPricingRanges      NoteCode = "no_pricing_ranges"
	NoteMinimumApplied       NoteCode = "minimum_applied"
	NoteUsageOnly            NoteCode = "usage_only"
)

type Note struct {
	Level   NoteLevel `json:"level"`
	Code    NoteCode  `json:"code"`
	Message string    `json:"message"`
}

// PricedResult is a reconciliation with contract rules applied. Reconciliation
// is a copy; the engine's input is never modified.
type PricedResult struct {
	Reconciliation recondomain.Result `json:"reconciliation"`
	SegmentUsage   []SegmentUsage     `json:"segment_usage"`
	TotalSegments  int64              `json:"total_segments"`
	SegmentPrice   float64            `json:"segment_price"`
	SegmentCost    float64            `json:"segment_cost"`
	TotalCharge    float64            `json:"total_charge"`
	GrandTotal     float64            `json:"grand_total"`
	AppliedRange   *PricingRange      `json:"applied_range,omitempty"`
	MinimumApplied bool               `json:"minimum_applied"`
	Notes          []Note             `json:"notes"`
}

// HasWarnings reports whether any note needs operator attention before invoicing.
func (p PricedResult) HasWarnings() bool {
	for _, n := range p.Notes {
		if n.Level == NoteWarning {
			return true
		}
	}
	return false
}

// Defaults are the configured fallbacks for contracts that omit a unit price.
type Defaults struct {
	SegmentPrice          float64
	UsageOnlySegmentPrice float64
}
