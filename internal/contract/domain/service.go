package domain

import (
	"context"
	"errors"

	pricingdomain "github.com/railzwaylabs/seatbill/internal/pricing/domain"
)

// UpsertRequest updates only the fields that are set.
type UpsertRequest struct {
	CustomerID        string                        `json:"customer_id" validate:"required,max=128"`
	CustomerName      *string                       `json:"customer_name,omitempty" validate:"omitempty,max=256"`
	AgreementType     *pricingdomain.AgreementType  `json:"agreement_type,omitempty" validate:"omitempty,oneof=Simple Complex"`
	UserRate          *float64                      `json:"user_rate,omitempty" validate:"omitempty,gte=0"`
	MinUsers          *int                          `json:"min_users,omitempty" validate:"omitempty,gte=0"`
	MinMonthlyAmount  *float64                      `json:"min_monthly_amount,omitempty" validate:"omitempty,gte=0"`
	PricingRanges     *[]pricingdomain.PricingRange `json:"pricing_ranges,omitempty" validate:"omitempty,dive"`
	SegmentEnabled    *bool                         `json:"segment_enabled,omitempty"`
	SegmentPrice      *float64                      `json:"segment_price,omitempty" validate:"omitempty,gte=0"`
	ClearSegmentPrice bool                          `json:"clear_segment_price,omitempty"`
	UsageOnly         *bool                         `json:"usage_only,omitempty"`
	TestIdentities    *[]string                     `json:"test_identities,omitempty" validate:"omitempty,dive,required"`
}

type Service interface {
	// Get returns the stored contract, or the default terms when none is stored.
	Get(ctx context.Context, customerID string) (*Contract, error)
	Upsert(ctx context.Context, req UpsertRequest) (*Contract, error)
	List(ctx context.Context) ([]Contract, error)
}

var (
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrInvalidContract = errors.New("invalid_contract")
)
