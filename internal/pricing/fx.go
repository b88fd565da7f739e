package pricing

import (
	"github.com/railzwaylabs/seatbill/internal/config"
	pricingdomain "github.com/railzwaylabs/seatbill/internal/pricing/domain"
	"github.com/railzwaylabs/seatbill/internal/pricing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pricing.service",
	fx.Provide(NewDefaults),
	fx.Provide(service.New),
)

func NewDefaults(cfg config.Config) pricingdomain.Defaults {
	return pricingdomain.Defaults{
		SegmentPrice:          cfg.Billing.DefaultSegmentPrice,
		UsageOnlySegmentPrice: cfg.Billing.UsageOnlySegmentPrice,
	}
}
