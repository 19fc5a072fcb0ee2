package repository

import (
	"context"
	"errors"
	"time"

	idemdomain "github.com/ngoinfo/copilot/internal/idempotency/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type recordRepo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) idemdomain.Repository {
	return &recordRepo{db: db}
}

func (r *recordRepo) Find(ctx context.Context, userID, key, endpoint string) (*idemdomain.IdempotencyRecord, error) {
	var record idemdomain.IdempotencyRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ? AND endpoint = ?", userID, key, endpoint).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Insert keeps the first committed response for a key while it is live.
// Under a concurrent double-compute the loser's store is a no-op and both
// callers already hold their own computed response. A row left behind by an
// expired key is overwritten in place so the key becomes usable again before
// the cleanup sweep reaches it.
func (r *recordRepo) Insert(ctx context.Context, record *idemdomain.IdempotencyRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "idempotency_key"},
				{Name: "endpoint"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"request_hash":  record.RequestHash,
				"response_body": record.ResponseBody,
				"status_code":   record.StatusCode,
				"expires_at":    record.ExpiresAt,
				"created_at":    record.CreatedAt,
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Lte{
					Column: clause.Column{Table: "idempotency_records", Name: "expires_at"},
					Value:  record.CreatedAt,
				},
			}},
		}).
		Create(record).Error
}

func (r *recordRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&idemdomain.IdempotencyRecord{})
	return res.RowsAffected, res.Error
}
