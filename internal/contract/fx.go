package contract

import (
	"github.com/railzwaylabs/seatbill/internal/contract/repository"
	"github.com/railzwaylabs/seatbill/internal/contract/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contract.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
