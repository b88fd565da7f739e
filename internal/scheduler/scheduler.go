package scheduler

import (
	"context"
	"time"

	auditdomain "github.com/railzwaylabs/seatbill/internal/audit/domain"
	"github.com/railzwaylabs/seatbill/internal/clock"
	"github.com/railzwaylabs/seatbill/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(New),
	fx.Invoke(Start),
)

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	Clock  clock.Clock
	Audit  auditdomain.Service
}

// Scheduler runs housekeeping jobs on a fixed interval.
type Scheduler struct {
	log           *zap.Logger
	clock         clock.Clock
	audit         auditdomain.Service
	retentionDays int
	interval      time.Duration
}

func New(p Params) *Scheduler {
	interval := p.Config.Audit.PruneInterval
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		log:           p.Log.Named("scheduler"),
		clock:         p.Clock,
		audit:         p.Audit,
		retentionDays: p.Config.Audit.RetentionDays,
		interval:      interval,
	}
}

// RunForever executes every job once, then on each tick until ctx is done.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.PruneRunLogsJob(ctx); err != nil {
			s.log.Error("prune run logs failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func Start(lc fx.Lifecycle, s *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				s.RunForever(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
