package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*Contract, error)
	Upsert(ctx context.Context, db *gorm.DB, contract *Contract) error
	List(ctx context.Context, db *gorm.DB) ([]Contract, error)
}
