package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ngoinfo/copilot/internal/clock"
	"github.com/ngoinfo/copilot/internal/config"
	obslogger "github.com/ngoinfo/copilot/internal/observability/logger"
	usagedomain "github.com/ngoinfo/copilot/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  usagedomain.Repository
	Cfg   config.Config
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  usagedomain.Repository

	defaultPlan  string
	defaultLimit int
}

func NewService(p ServiceParam) usagedomain.Service {
	return &Service{
		log:   p.Log.Named("usage.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,

		defaultPlan:  p.Cfg.DefaultPlanName,
		defaultLimit: p.Cfg.DefaultMonthlyLimit,
	}
}

// Record appends one ledger row. A storage failure is logged and reported as
// false but never returned as an error: losing a ledger row is preferable to
// failing the action the user already paid for.
func (s *Service) Record(ctx context.Context, req usagedomain.RecordRequest) bool {
	count := req.Count
	if count < 1 {
		count = 1
	}
	plan := req.PlanName
	if plan == "" {
		plan = s.defaultPlan
	}
	limit := req.MonthlyLimit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	record := usagedomain.UsageRecord{
		ID:           s.genID.Generate(),
		UserID:       req.UserID,
		ActionType:   req.ActionType,
		Count:        count,
		PlanName:     plan,
		MonthlyLimit: limit,
		CreatedAt:    s.clock.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, &record); err != nil {
		obslogger.WithUser(obslogger.WithContext(ctx, s.log), req.UserID).Warn("usage record failed",
			zap.String("action_type", req.ActionType),
			zap.Error(err),
		)
		return false
	}
	return true
}

// CheckRateLimit sums the user's actions inside the current fixed calendar
// minute. The bucket resets at every minute boundary rather than sliding, so
// a burst can straddle two adjacent minutes. Lookup errors fail open.
func (s *Service) CheckRateLimit(ctx context.Context, userID, action string, limitPerMinute int) bool {
	if limitPerMinute <= 0 {
		return true
	}

	windowStart := s.clock.Now().UTC().Truncate(time.Minute)
	used, err := s.repo.SumSince(ctx, userID, action, windowStart)
	if err != nil {
		obslogger.WithUser(obslogger.WithContext(ctx, s.log), userID).Warn("rate limit lookup failed",
			zap.String("action_type", action),
			zap.Error(err),
		)
		return true
	}
	return used < int64(limitPerMinute)
}

// Summary reports consumption for the current UTC calendar month. Plan and
// limit come from the user's most recent ledger row; a plan change therefore
// only shows up after the next recorded action.
func (s *Service) Summary(ctx context.Context, userID string) (usagedomain.Summary, error) {
	now := s.clock.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonthStart := monthStart.AddDate(0, 1, 0)

	used, err := s.repo.SumBetween(ctx, userID, monthStart, nextMonthStart)
	if err != nil {
		return usagedomain.Summary{}, err
	}

	plan := s.defaultPlan
	limit := s.defaultLimit
	latest, err := s.repo.Latest(ctx, userID)
	if err != nil {
		return usagedomain.Summary{}, err
	}
	if latest != nil {
		plan = latest.PlanName
		limit = latest.MonthlyLimit
	}

	remaining := limit - int(used)
	if remaining < 0 {
		remaining = 0
	}

	return usagedomain.Summary{
		Plan:         plan,
		MonthlyLimit: limit,
		Used:         int(used),
		Remaining:    remaining,
		ResetAt:      nextMonthStart,
	}, nil
}
