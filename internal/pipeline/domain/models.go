package domain

import (
	"context"
	"errors"

	contractdomain "github.com/railzwaylabs/seatbill/internal/contract/domain"
	pricingdomain "github.com/railzwaylabs/seatbill/internal/pricing/domain"
)

var ErrBatchInProgress = errors.New("batch_in_progress")

type RunRequest struct {
	CustomerID string `json:"customer_id"`
	// Period is a YYYY-MM token; empty means the current month.
	Period string `json:"period"`
	Actor  string `json:"actor"`
	// UserRate overrides the contract rate for this run only.
	UserRate *float64 `json:"user_rate,omitempty"`
}

type Outcome struct {
	CustomerID   string                      `json:"customer_id"`
	CustomerName string                      `json:"customer_name"`
	Period       string                      `json:"period"`
	Contract     contractdomain.Contract     `json:"contract"`
	Priced       *pricingdomain.PricedResult `json:"priced"`
	IsGapFree    bool                        `json:"is_gap_free"`
}

type BatchRequest struct {
	// CustomerIDs to summarize; empty means every stored contract.
	CustomerIDs []string `json:"customer_ids"`
	Period      string   `json:"period"`
	Actor       string   `json:"actor"`
}

// BatchItem is one customer's line in a batch summary. Amounts are rounded to cents.
type BatchItem struct {
	CustomerID     string  `json:"customer_id"`
	Name           string  `json:"name"`
	TotalUsers     int     `json:"total_users"`
	ProratedUsers  int     `json:"prorated_users"`
	Segments       int64   `json:"segments"`
	UserRate       float64 `json:"user_rate"`
	ProratedAmount float64 `json:"prorated_amount"`
	SegmentCost    float64 `json:"segment_cost"`
	Total          float64 `json:"total"`
	Mismatches     int     `json:"mismatches"`
	HasWarnings    bool    `json:"has_warnings"`
	Error          string  `json:"error,omitempty"`
}

type BatchSummary struct {
	Period     string      `json:"period"`
	GrandTotal float64     `json:"grand_total"`
	Failed     int         `json:"failed"`
	Items      []BatchItem `json:"items"`
}

type Service interface {
	Run(ctx context.Context, req RunRequest) (*Outcome, error)
	RunBatch(ctx context.Context, req BatchRequest) (*BatchSummary, error)
}
