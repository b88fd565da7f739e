package reconciliation

import (
	"github.com/railzwaylabs/seatbill/internal/reconciliation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reconciliation.service",
	fx.Provide(service.NewService),
)
