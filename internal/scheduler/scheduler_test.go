package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/ngoinfo/copilot/internal/clock"
	"github.com/ngoinfo/copilot/internal/config"
	idemdomain "github.com/ngoinfo/copilot/internal/idempotency/domain"
	idemrepository "github.com/ngoinfo/copilot/internal/idempotency/repository"
	idemservice "github.com/ngoinfo/copilot/internal/idempotency/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupScheduler(t *testing.T, clk clock.Clock, cfg Config) (*Scheduler, idemdomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&idemdomain.IdempotencyRecord{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	idemSvc := idemservice.NewService(idemservice.ServiceParam{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  idemrepository.Provide(db),
		Cfg:   config.Config{IdempotencyTTL: 10 * time.Minute},
	})

	sched, err := New(Params{
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clk,
		Idem:   idemSvc,
		Config: cfg,
	})
	require.NoError(t, err)
	return sched, idemSvc, db
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunOnceCleansExpiredRecords(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC))
	sched, idemSvc, db := setupScheduler(t, clk, Config{})
	ctx := context.Background()

	require.True(t, idemSvc.Store(ctx, "user-1", "key-1", "/api/proposals/generate", map[string]any{"a": 1}, []byte(`{}`), 201))
	require.True(t, idemSvc.Store(ctx, "user-1", "key-2", "/api/proposals/generate", map[string]any{"b": 2}, []byte(`{}`), 201))

	// First key expires; the second is refreshed inside its TTL.
	clk.Advance(11 * time.Minute)
	require.True(t, idemSvc.Store(ctx, "user-1", "key-3", "/api/proposals/generate", map[string]any{"c": 3}, []byte(`{}`), 201))

	require.NoError(t, sched.RunOnce(ctx))

	var remaining int64
	require.NoError(t, db.Model(&idemdomain.IdempotencyRecord{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}

func TestDisabledJobsAreSkipped(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC))
	sched, idemSvc, db := setupScheduler(t, clk, Config{EnabledJobs: []string{"something_else"}})
	ctx := context.Background()

	require.True(t, idemSvc.Store(ctx, "user-1", "key-1", "/api/proposals/generate", map[string]any{"a": 1}, []byte(`{}`), 201))
	clk.Advance(time.Hour)

	require.NoError(t, sched.RunOnce(ctx))

	var remaining int64
	require.NoError(t, db.Model(&idemdomain.IdempotencyRecord{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
}

func TestRunOnceSurfacesStorageErrors(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC))
	sched, _, db := setupScheduler(t, clk, Config{})

	require.NoError(t, db.Migrator().DropTable(&idemdomain.IdempotencyRecord{}))
	assert.Error(t, sched.RunOnce(context.Background()))
}
