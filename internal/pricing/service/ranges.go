package service

import (
	"fmt"
	"sort"

	pricingdomain "github.com/railzwaylabs/seatbill/internal/pricing/domain"
)

// ValidateRanges rejects inverted, negative or overlapping brackets. Apply
// trusts its ranges, so this belongs at configuration-save time.
func ValidateRanges(ranges []pricingdomain.PricingRange) error {
	for i, r := range ranges {
		if r.Min < 0 || r.Max < 0 || r.FixedPrice < 0 {
			return fmt.Errorf("%w: range %d has negative values", pricingdomain.ErrInvalidRange, i)
		}
		if r.Min > r.Max {
			return fmt.Errorf("%w: range %d min %d exceeds max %d", pricingdomain.ErrInvalidRange, i, r.Min, r.Max)
		}
	}

	sorted := append([]pricingdomain.PricingRange(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.Min <= prev.Max {
			return fmt.Errorf("%w: %d-%d and %d-%d", pricingdomain.ErrOverlappingRanges, prev.Min, prev.Max, cur.Min, cur.Max)
		}
	}
	return nil
}

// matchRange returns the first range in list order containing users.
func matchRange(ranges []pricingdomain.PricingRange, users int) (pricingdomain.PricingRange, bool) {
	for _, r := range ranges {
		if users >= r.Min && users <= r.Max {
			return r, true
		}
	}
	return pricingdomain.PricingRange{}, false
}
