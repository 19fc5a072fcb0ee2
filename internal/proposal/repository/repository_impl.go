package repository

import (
	"context"
	"errors"

	proposaldomain "github.com/ngoinfo/copilot/internal/proposal/domain"
	"gorm.io/gorm"
)

type proposalRepo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) proposaldomain.Repository {
	return &proposalRepo{db: db}
}

func (r *proposalRepo) FindActiveByID(ctx context.Context, userID, proposalID string) (*proposaldomain.Proposal, error) {
	var proposal proposaldomain.Proposal
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_active = ?", proposalID, userID, true).
		First(&proposal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *proposalRepo) ListActive(ctx context.Context, userID string, req proposaldomain.ListRequest) ([]proposaldomain.Proposal, error) {
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var proposals []proposaldomain.Proposal
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(req.Offset).
		Find(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

func (r *proposalRepo) Save(ctx context.Context, proposal *proposaldomain.Proposal) error {
	return r.db.WithContext(ctx).Save(proposal).Error
}

func (r *proposalRepo) Archive(ctx context.Context, userID, proposalID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&proposaldomain.Proposal{}).
		Where("id = ? AND user_id = ? AND is_active = ?", proposalID, userID, true).
		Update("is_archived", true)
	return res.RowsAffected > 0, res.Error
}
