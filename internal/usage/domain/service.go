package domain

import (
	"context"
	"time"
)

// Billable actions recorded in the ledger.
const (
	ActionGenerate = "generate"
	ActionExport   = "export"
)

type RecordRequest struct {
	UserID       string
	ActionType   string
	Count        int
	PlanName     string
	MonthlyLimit int
}

// Summary reports monthly consumption for the UTC calendar month.
type Summary struct {
	Plan         string    `json:"plan"`
	MonthlyLimit int       `json:"monthly_limit"`
	Used         int       `json:"used"`
	Remaining    int       `json:"remaining"`
	ResetAt      time.Time `json:"reset_at"`
}

// Service is the usage ledger. Record and CheckRateLimit are fail-open:
// storage errors are logged and treated as success so a ledger outage never
// blocks user traffic.
type Service interface {
	Record(ctx context.Context, req RecordRequest) bool
	CheckRateLimit(ctx context.Context, userID, action string, limitPerMinute int) bool
	Summary(ctx context.Context, userID string) (Summary, error)
}

type Repository interface {
	Insert(ctx context.Context, record *UsageRecord) error
	SumSince(ctx context.Context, userID, action string, since time.Time) (int64, error)
	SumBetween(ctx context.Context, userID string, start, end time.Time) (int64, error)
	Latest(ctx context.Context, userID string) (*UsageRecord, error)
}
