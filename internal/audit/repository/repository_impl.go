package repository

import (
	"context"
	"time"

	"github.com/railzwaylabs/seatbill/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.RunLog) error {
	if entry == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.RunLog, error) {
	stmt := db.WithContext(ctx).Model(&domain.RunLog{})
	if filter.CustomerID != "" {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Period != "" {
		stmt = stmt.Where("period = ?", filter.Period)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var items []domain.RunLog
	if err := stmt.Order("created_at desc, id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Range(ctx context.Context, db *gorm.DB, start, end time.Time, customerID string) ([]domain.RunLog, error) {
	stmt := db.WithContext(ctx).Model(&domain.RunLog{})
	if !start.IsZero() {
		stmt = stmt.Where("created_at >= ?", start)
	}
	if !end.IsZero() {
		stmt = stmt.Where("created_at < ?", end)
	}
	if customerID != "" {
		stmt = stmt.Where("customer_id = ?", customerID)
	}

	var items []domain.RunLog
	if err := stmt.Order("created_at asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) DeleteBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&domain.RunLog{})
	return result.RowsAffected, result.Error
}
