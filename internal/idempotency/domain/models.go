// Package domain contains the persistence model and service contract for
// idempotent response replay.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// IdempotencyRecord caches one fully-computed response keyed by
// (user, idempotency key, endpoint). RequestHash pins the payload the key was
// first used with so a reused key with a different body is detectable.
type IdempotencyRecord struct {
	ID             snowflake.ID   `gorm:"primaryKey"`
	UserID         string         `gorm:"type:text;not null;uniqueIndex:idx_idem_user_key_endpoint,priority:1"`
	IdempotencyKey string         `gorm:"size:255;not null;uniqueIndex:idx_idem_user_key_endpoint,priority:2"`
	Endpoint       string         `gorm:"size:255;not null;uniqueIndex:idx_idem_user_key_endpoint,priority:3"`
	RequestHash    string         `gorm:"size:64;not null"`
	ResponseBody   datatypes.JSON `gorm:"not null"`
	StatusCode     int            `gorm:"not null"`
	ExpiresAt      time.Time      `gorm:"not null;index"`
	CreatedAt      time.Time      `gorm:"not null"`
}

// TableName sets the database table name.
func (IdempotencyRecord) TableName() string { return "idempotency_records" }
