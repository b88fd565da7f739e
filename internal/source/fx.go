package source

import (
	"github.com/railzwaylabs/seatbill/internal/config"
	"github.com/railzwaylabs/seatbill/internal/source/domain"
	"github.com/railzwaylabs/seatbill/internal/source/file"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("source",
	fx.Provide(NewSources),
)

func NewSources(cfg config.Config, log *zap.Logger) domain.Sources {
	return file.NewStore(cfg.Sources.Dir, log).Sources()
}
