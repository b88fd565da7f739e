package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/railzwaylabs/seatbill/internal/clock"
	"github.com/railzwaylabs/seatbill/internal/contract/domain"
	pricingdomain "github.com/railzwaylabs/seatbill/internal/pricing/domain"
	pricingservice "github.com/railzwaylabs/seatbill/internal/pricing/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
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
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	validate *validator.Validate
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("contract.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Service) Get(ctx context.Context, customerID string) (*domain.Contract, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, domain.ErrInvalidCustomer
	}

	stored, err := s.repo.FindByCustomerID(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		def := domain.Default(customerID)
		return &def, nil
	}
	return stored, nil
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertRequest) (*domain.Contract, error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.CustomerID == "" {
		return nil, domain.ErrInvalidCustomer
	}
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidContract, err)
	}

	contract, err := s.repo.FindByCustomerID(ctx, s.db, req.CustomerID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now(ctx)
	if contract == nil {
		def := domain.Default(req.CustomerID)
		contract = &def
		contract.ID = s.genID.Generate()
		contract.CreatedAt = now
	}
	applyUpdate(contract, req)

	if err := pricingservice.ValidateRanges(contract.PricingRanges); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidContract, err)
	}
	if contract.AgreementType == pricingdomain.AgreementComplex && len(contract.PricingRanges) == 0 {
		s.log.Warn("complex contract saved without pricing ranges",
			zap.String("customer_id", contract.CustomerID),
		)
	}

	contract.UpdatedAt = now
	if err := s.repo.Upsert(ctx, s.db, contract); err != nil {
		return nil, err
	}

	s.log.Info("contract saved",
		zap.String("customer_id", contract.CustomerID),
		zap.String("agreement_type", string(contract.AgreementType)),
	)
	return contract, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Contract, error) {
	return s.repo.List(ctx, s.db)
}

func applyUpdate(c *domain.Contract, req domain.UpsertRequest) {
	if req.CustomerName != nil {
		c.CustomerName = strings.TrimSpace(*req.CustomerName)
	}
	if req.AgreementType != nil {
		c.AgreementType = *req.AgreementType
	}
	if req.UserRate != nil {
		c.UserRate = *req.UserRate
	}
	if req.MinUsers != nil {
		c.MinUsers = *req.MinUsers
	}
	if req.MinMonthlyAmount != nil {
		c.MinMonthlyAmount = *req.MinMonthlyAmount
	}
	if req.PricingRanges != nil {
		c.PricingRanges = append([]pricingdomain.PricingRange{}, (*req.PricingRanges)...)
	}
	if req.SegmentEnabled != nil {
		c.SegmentEnabled = *req.SegmentEnabled
	}
	switch {
	case req.ClearSegmentPrice:
		c.SegmentPrice = nil
	case req.SegmentPrice != nil:
		price := *req.SegmentPrice
		c.SegmentPrice = &price
	}
	if req.UsageOnly != nil {
		c.UsageOnly = *req.UsageOnly
	}
	if req.TestIdentities != nil {
		identities := make([]string, 0, len(*req.TestIdentities))
		for _, id := range *req.TestIdentities {
			if id = strings.TrimSpace(id); id != "" {
				identities = append(identities, id)
			}
		}
		c.TestIdentities = identities
	}
}
