// Package scheduler runs periodic maintenance jobs outside the request path.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ngoinfo/copilot/internal/clock"
	idemdomain "github.com/ngoinfo/copilot/internal/idempotency/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

const jobTimeout = 30 * time.Second

type Params struct {
	fx.In

	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Idem   idemdomain.Service
	Config Config `optional:"true"`
}

type Scheduler struct {
	log   *zap.Logger
	cfg   Config
	genID *snowflake.Node
	clock clock.Clock
	idem  idemdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.Idem == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:   p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:   p.Config.withDefaults(),
		genID: p.GenID,
		clock: p.Clock,
		idem:  p.Idem,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()

	runID := s.genID.Generate().String()
	log := s.log.With(
		zap.String("job", name),
		zap.String("run_id", runID),
	)
	log.Info("scheduler.job.start")

	err := fn(ctx)
	duration := s.clock.Now().Sub(start)

	if err == nil {
		log.Info("scheduler.job.finish", zap.Int64("duration_ms", duration.Milliseconds()))
		return nil
	}

	// A deadline here is a soft timeout: the next tick picks up the rest.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out",
			zap.Duration("timeout", jobTimeout),
			zap.Error(err),
		)
		return nil
	}

	log.Error("scheduler.job.failed",
		zap.Int64("duration_ms", duration.Milliseconds()),
		zap.Error(err),
	)
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes every enabled job a single time.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{"idempotency_cleanup", s.IdempotencyCleanupJob},
	}

	for _, job := range jobs {
		if s.isJobEnabled(job.Name) {
			err = errors.Join(err, s.runJob(parent, job.Name, job.Run))
		}
	}

	return err
}

// RunForever runs jobs on the configured interval until the context ends.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// IdempotencyCleanupJob removes expired idempotency records so the table
// stays bounded by the TTL window.
func (s *Scheduler) IdempotencyCleanupJob(ctx context.Context) error {
	deleted, err := s.idem.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.log.Info("idempotency cleanup",
			zap.String("job", "idempotency_cleanup"),
			zap.Int64("deleted", deleted),
		)
	}
	return nil
}
