package repository

import (
	"context"
	"errors"

	"github.com/railzwaylabs/seatbill/internal/contract/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*domain.Contract, error) {
	var c domain.Contract
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, contract *domain.Contract) error {
	if contract == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "customer_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"customer_name",
				"agreement_type",
				"user_rate",
				"min_users",
				"min_monthly_amount",
				"pricing_ranges",
				"segment_enabled",
				"segment_price",
				"usage_only",
				"test_identities",
				"updated_at",
			}),
		}).
		Create(contract).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]domain.Contract, error) {
	var items []domain.Contract
	if err := db.WithContext(ctx).Order("customer_id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
