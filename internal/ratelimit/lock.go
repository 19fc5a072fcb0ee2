package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const keyGenerateLock = "copilot:generate:lock:%s:%s:%s"

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// GenerationLock holds one in-flight generation per (user, idempotency key,
// endpoint) so concurrent retries of the same request collapse to a single
// computation. Release is token-checked so a holder whose TTL lapsed cannot
// delete a lock re-acquired by a newer request.
type GenerationLock struct {
	client *redis.Client
	script *redis.Script
	ttl    time.Duration
}

func NewGenerationLock(client *redis.Client, ttl time.Duration) *GenerationLock {
	if client == nil {
		return nil
	}
	return &GenerationLock{
		client: client,
		script: redis.NewScript(lockReleaseScript),
		ttl:    ttl,
	}
}

func (l *GenerationLock) key(userID, idempotencyKey, endpoint string) string {
	return fmt.Sprintf(
		keyGenerateLock,
		strings.TrimSpace(userID),
		strings.TrimSpace(idempotencyKey),
		strings.TrimSpace(endpoint),
	)
}

// Acquire takes the lock for the request identity and returns the release
// token. ok is false when another request already holds the lock.
func (l *GenerationLock) Acquire(ctx context.Context, userID, idempotencyKey, endpoint string) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, errors.New("generation lock client not configured")
	}
	if strings.TrimSpace(idempotencyKey) == "" {
		return "", false, errors.New("generation lock requires an idempotency key")
	}
	if l.ttl <= 0 {
		return "", false, errors.New("generation lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key(userID, idempotencyKey, endpoint), token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release deletes the lock only while the caller's token still holds it.
func (l *GenerationLock) Release(ctx context.Context, userID, idempotencyKey, endpoint, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if strings.TrimSpace(idempotencyKey) == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{l.key(userID, idempotencyKey, endpoint)}, token).Err()
}
