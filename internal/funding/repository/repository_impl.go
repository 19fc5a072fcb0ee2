package repository

import (
	"context"
	"errors"

	fundingdomain "github.com/ngoinfo/copilot/internal/funding/domain"
	"gorm.io/gorm"
)

type opportunityRepo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) fundingdomain.Repository {
	return &opportunityRepo{db: db}
}

func (r *opportunityRepo) FindActiveByID(ctx context.Context, id int64) (*fundingdomain.FundingOpportunity, error) {
	var opportunity fundingdomain.FundingOpportunity
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&opportunity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &opportunity, nil
}

func (r *opportunityRepo) ListActive(ctx context.Context, req fundingdomain.ListRequest) ([]fundingdomain.FundingOpportunity, error) {
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority_score DESC NULLS LAST, id ASC").
		Limit(limit).
		Offset(req.Offset)

	var opportunities []fundingdomain.FundingOpportunity
	if err := query.Find(&opportunities).Error; err != nil {
		return nil, err
	}
	return opportunities, nil
}
