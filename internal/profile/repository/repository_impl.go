package repository

import (
	"context"
	"errors"

	profiledomain "github.com/ngoinfo/copilot/internal/profile/domain"
	"gorm.io/gorm"
)

type profileRepo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) profiledomain.Repository {
	return &profileRepo{db: db}
}

func (r *profileRepo) FindActiveByUserID(ctx context.Context, userID string) (*profiledomain.NGOProfile, error) {
	var profile profiledomain.NGOProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepo) Create(ctx context.Context, profile *profiledomain.NGOProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *profileRepo) Save(ctx context.Context, profile *profiledomain.NGOProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *profileRepo) Deactivate(ctx context.Context, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&profiledomain.NGOProfile{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false)
	return res.RowsAffected > 0, res.Error
}

func (r *profileRepo) Verify(ctx context.Context, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&profiledomain.NGOProfile{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_verified", true)
	return res.RowsAffected > 0, res.Error
}
