package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ngoinfo/copilot/internal/clock"
	"github.com/ngoinfo/copilot/internal/config"
	idemdomain "github.com/ngoinfo/copilot/internal/idempotency/domain"
	obslogger "github.com/ngoinfo/copilot/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  idemdomain.Repository
	Cfg   config.Config
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  idemdomain.Repository
	ttl   time.Duration
}

func NewService(p ServiceParam) idemdomain.Service {
	return &Service{
		log:   p.Log.Named("idempotency.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		ttl:   p.Cfg.IdempotencyTTL,
	}
}

// Check looks up an unexpired cached response for the key. Any failure,
// including a hash mismatch from a reused key with a different payload, is
// reported as a miss so the caller recomputes.
func (s *Service) Check(ctx context.Context, userID, key, endpoint string, requestData any) *idemdomain.CachedResponse {
	if key == "" {
		return nil
	}
	log := obslogger.WithUser(obslogger.WithContext(ctx, s.log), userID).
		With(zap.String("endpoint", endpoint))

	hash, err := requestHash(requestData)
	if err != nil {
		log.Warn("idempotency hash failed", zap.Error(err))
		return nil
	}

	record, err := s.repo.Find(ctx, userID, key, endpoint)
	if err != nil {
		log.Warn("idempotency lookup failed", zap.Error(err))
		return nil
	}
	if record == nil {
		return nil
	}
	if !record.ExpiresAt.After(s.clock.Now().UTC()) {
		return nil
	}
	if record.RequestHash != hash {
		// Key reuse with a different payload. Masked as a miss so the
		// request is reprocessed instead of failing.
		log.Warn("idempotency key reused with different payload")
		return nil
	}

	return &idemdomain.CachedResponse{
		Body:       append([]byte(nil), record.ResponseBody...),
		StatusCode: record.StatusCode,
	}
}

// Store caches a fully-computed response. It must only run after the
// response is final; storage errors are logged and reported as false.
func (s *Service) Store(ctx context.Context, userID, key, endpoint string, requestData any, body []byte, statusCode int) bool {
	if key == "" {
		return false
	}
	log := obslogger.WithUser(obslogger.WithContext(ctx, s.log), userID).
		With(zap.String("endpoint", endpoint))

	hash, err := requestHash(requestData)
	if err != nil {
		log.Warn("idempotency hash failed", zap.Error(err))
		return false
	}

	now := s.clock.Now().UTC()
	record := idemdomain.IdempotencyRecord{
		ID:             s.genID.Generate(),
		UserID:         userID,
		IdempotencyKey: key,
		Endpoint:       endpoint,
		RequestHash:    hash,
		ResponseBody:   datatypes.JSON(body),
		StatusCode:     statusCode,
		ExpiresAt:      now.Add(s.ttl),
		CreatedAt:      now,
	}

	if err := s.repo.Insert(ctx, &record); err != nil {
		log.Warn("idempotency store failed", zap.Error(err))
		return false
	}
	return true
}

// CleanupExpired deletes records past their expiry. Runs from the scheduler,
// never on the request path.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.clock.Now().UTC())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info("expired idempotency records removed", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}
