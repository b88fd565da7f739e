package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/seatbill/internal/audit/domain"
	"github.com/railzwaylabs/seatbill/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, entry *domain.RunLog) error {
	if entry.ID == 0 {
		entry.ID = s.genID.Generate()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock.Now(ctx)
	}
	if strings.TrimSpace(entry.Actor) == "" {
		entry.Actor = domain.SystemActor
	}
	if entry.Status == "" {
		entry.Status = domain.StatusSucceeded
	}

	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		s.log.Error("failed to record run",
			zap.String("customer_id", entry.CustomerID),
			zap.String("period", entry.Period),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.RunLog, error) {
	filter.CustomerID = strings.TrimSpace(filter.CustomerID)
	filter.Period = strings.TrimSpace(filter.Period)
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.repo.DeleteBefore(ctx, s.db, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("pruned run logs", zap.Time("cutoff", cutoff), zap.Int64("deleted", deleted))
	}
	return deleted, nil
}
