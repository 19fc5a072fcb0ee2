package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ngoinfo/copilot/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyPerimeterUser = "copilot:perimeter:%s:%s"

// Perimeter applies a coarse redis token bucket per user and endpoint in
// front of the ledger-backed per-action limits, and hands out execution
// locks so concurrent retries of the same idempotent request collapse to a
// single computation. Disabled unless redis is configured.
type Perimeter struct {
	enabled bool

	bucket *TokenBucket
	lock   *GenerationLock

	rate  float64
	burst int
}

func NewPerimeter(cfg config.Config) (*Perimeter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.PerimeterRate <= 0 || limitCfg.PerimeterBurst <= 0 {
		return nil, errors.New("perimeter rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: limitCfg.RedisPassword,
		DB:       limitCfg.RedisDB,
	})

	return &Perimeter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		lock:    NewGenerationLock(client, time.Duration(limitCfg.LockTTLSeconds)*time.Second),
		rate:    limitCfg.PerimeterRate,
		burst:   limitCfg.PerimeterBurst,
	}, nil
}

func (p *Perimeter) Enabled() bool {
	return p != nil && p.enabled
}

// AllowUser consumes a perimeter token for the user and endpoint.
func (p *Perimeter) AllowUser(ctx context.Context, userID, endpoint string) (bool, error) {
	if !p.Enabled() {
		return true, nil
	}
	key := fmt.Sprintf(keyPerimeterUser, strings.TrimSpace(userID), strings.TrimSpace(endpoint))
	res, err := p.bucket.Allow(ctx, key, p.rate, p.burst)
	if err != nil {
		return false, err
	}
	return res.Allowed, nil
}

// TryLockGeneration guards a generate request identified by its idempotency key.
func (p *Perimeter) TryLockGeneration(ctx context.Context, userID, key, endpoint string) (string, bool, error) {
	if !p.Enabled() {
		return "", true, nil
	}
	return p.lock.Acquire(ctx, userID, key, endpoint)
}

func (p *Perimeter) ReleaseGeneration(ctx context.Context, userID, key, endpoint, token string) error {
	if !p.Enabled() {
		return nil
	}
	return p.lock.Release(ctx, userID, key, endpoint, token)
}
