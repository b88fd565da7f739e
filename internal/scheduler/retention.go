package scheduler

import (
	"context"

	"go.uber.org/zap"
)

func (s *Scheduler) PruneRunLogsJob(ctx context.Context) error {
	if s.retentionDays <= 0 {
		s.log.Debug("run log retention disabled", zap.Int("days", s.retentionDays))
		return nil
	}

	cutoff := s.clock.Now(ctx).AddDate(0, 0, -s.retentionDays)
	_, err := s.audit.Prune(ctx, cutoff)
	return err
}
