package domain

import (
	"context"
	"encoding/json"
	"time"
)

// CachedResponse is a stored response ready for replay.
type CachedResponse struct {
	Body       json.RawMessage
	StatusCode int
}

// Service caches computed responses for replay. Check and Store are
// fail-open: storage errors are logged and reported as a miss or a skipped
// store, never propagated, so a cache outage degrades to recomputation.
//
// A reused key whose request hash differs from the stored one is treated as
// a miss rather than a conflict error; the caller recomputes and the stale
// entry ages out.
type Service interface {
	Check(ctx context.Context, userID, key, endpoint string, requestData any) *CachedResponse
	Store(ctx context.Context, userID, key, endpoint string, requestData any, body []byte, statusCode int) bool
	CleanupExpired(ctx context.Context) (int64, error)
}

type Repository interface {
	Find(ctx context.Context, userID, key, endpoint string) (*IdempotencyRecord, error)
	Insert(ctx context.Context, record *IdempotencyRecord) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
