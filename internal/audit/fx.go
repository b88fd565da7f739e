package audit

import (
	"github.com/railzwaylabs/seatbill/internal/audit/repository"
	"github.com/railzwaylabs/seatbill/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
