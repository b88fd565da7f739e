// Package domain contains per-customer contract configuration.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	pricingdomain "github.com/railzwaylabs/seatbill/internal/pricing/domain"
	"gorm.io/datatypes"
)

// Contract is the stored billing configuration of one customer.
type Contract struct {
	ID               snowflake.ID                                    `gorm:"primaryKey" json:"id"`
	CustomerID       string                                          `gorm:"type:varchar(128);not null;uniqueIndex" json:"customer_id"`
	CustomerName     string                                          `gorm:"type:text" json:"customer_name"`
	AgreementType    pricingdomain.AgreementType                     `gorm:"type:varchar(32);not null" json:"agreement_type"`
	UserRate         float64                                         `gorm:"not null;default:0" json:"user_rate"`
	MinUsers         int                                             `gorm:"not null;default:0" json:"min_users"`
	MinMonthlyAmount float64                                         `gorm:"not null;default:0" json:"min_monthly_amount"`
	PricingRanges    datatypes.JSONSlice[pricingdomain.PricingRange] `json:"pricing_ranges"`
	SegmentEnabled   bool                                            `gorm:"not null" json:"segment_enabled"`
	SegmentPrice     *float64                                        `json:"segment_price,omitempty"`
	UsageOnly        bool                                            `gorm:"not null;default:false" json:"usage_only"`
	TestIdentities   datatypes.JSONSlice[string]                     `json:"test_identities"`
	CreatedAt        time.Time                                       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time                                       `gorm:"not null" json:"updated_at"`
}

func (Contract) TableName() string { return "contracts" }

// Config returns the pricing terms the engine consumes.
func (c Contract) Config() pricingdomain.ContractConfig {
	cfg := pricingdomain.ContractConfig{
		AgreementType:    c.AgreementType,
		UserRate:         c.UserRate,
		MinUsers:         c.MinUsers,
		MinMonthlyAmount: c.MinMonthlyAmount,
		PricingRanges:    append([]pricingdomain.PricingRange(nil), c.PricingRanges...),
		SegmentEnabled:   c.SegmentEnabled,
		UsageOnly:        c.UsageOnly,
	}
	if c.SegmentPrice != nil {
		price := *c.SegmentPrice
		cfg.SegmentPrice = &price
	}
	return cfg
}

// DisplayName falls back to the customer id when no name is stored.
func (c Contract) DisplayName() string {
	if name := strings.TrimSpace(c.CustomerName); name != "" {
		return name
	}
	return c.CustomerID
}

// Default returns the terms applied to a customer with no stored contract.
func Default(customerID string) Contract {
	return Contract{
		CustomerID:     customerID,
		AgreementType:  pricingdomain.AgreementSimple,
		SegmentEnabled: true,
	}
}
