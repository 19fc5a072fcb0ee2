package repository

import (
	"context"
	"errors"
	"time"

	usagedomain "github.com/ngoinfo/copilot/internal/usage/domain"
	"gorm.io/gorm"
)

type ledgerRepo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) usagedomain.Repository {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) Insert(ctx context.Context, record *usagedomain.UsageRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *ledgerRepo) SumSince(ctx context.Context, userID, action string, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&usagedomain.UsageRecord{}).
		Select("COALESCE(SUM(count), 0)").
		Where("user_id = ? AND action_type = ? AND created_at >= ?", userID, action, since).
		Scan(&total).Error
	return total, err
}

func (r *ledgerRepo) SumBetween(ctx context.Context, userID string, start, end time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&usagedomain.UsageRecord{}).
		Select("COALESCE(SUM(count), 0)").
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, start, end).
		Scan(&total).Error
	return total, err
}

func (r *ledgerRepo) Latest(ctx context.Context, userID string) (*usagedomain.UsageRecord, error) {
	var record usagedomain.UsageRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
