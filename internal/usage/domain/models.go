// Package domain contains the persistence model and service contract for the
// usage ledger.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UsageRecord is one billable action. The ledger is append-only; plan name
// and monthly limit are cached on every row so the summary endpoint can
// report the plan without a join.
type UsageRecord struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	UserID       string       `gorm:"type:text;not null;index:idx_usage_user_created,priority:1"`
	ActionType   string       `gorm:"size:50;not null"`
	Count        int          `gorm:"not null;default:1"`
	PlanName     string       `gorm:"size:50;not null"`
	MonthlyLimit int          `gorm:"not null"`
	CreatedAt    time.Time    `gorm:"not null;index:idx_usage_user_created,priority:2"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_ledger" }
