package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/ngoinfo/copilot/internal/clock"
	"github.com/ngoinfo/copilot/internal/config"
	usagedomain "github.com/ngoinfo/copilot/internal/usage/domain"
	"github.com/ngoinfo/copilot/internal/usage/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T, clk clock.Clock) (usagedomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&usagedomain.UsageRecord{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(db),
		Cfg: config.Config{
			DefaultPlanName:     "free",
			DefaultMonthlyLimit: 10,
		},
	})
	return svc, db
}

func TestRecordAppendsLedgerRow(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 30, 15, 0, time.UTC))
	svc, db := setupService(t, clk)
	ctx := context.Background()

	ok := svc.Record(ctx, usagedomain.RecordRequest{
		UserID:     "user-1",
		ActionType: usagedomain.ActionGenerate,
	})
	assert.True(t, ok)

	var record usagedomain.UsageRecord
	require.NoError(t, db.First(&record).Error)
	assert.Equal(t, "user-1", record.UserID)
	assert.Equal(t, usagedomain.ActionGenerate, record.ActionType)
	assert.Equal(t, 1, record.Count)
	assert.Equal(t, "free", record.PlanName)
	assert.Equal(t, 10, record.MonthlyLimit)
	assert.Equal(t, clk.Now(), record.CreatedAt.UTC())
}

func TestRecordFailOpenOnStorageError(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC))
	svc, db := setupService(t, clk)

	require.NoError(t, db.Migrator().DropTable(&usagedomain.UsageRecord{}))

	ok := svc.Record(context.Background(), usagedomain.RecordRequest{
		UserID:     "user-1",
		ActionType: usagedomain.ActionGenerate,
	})
	assert.False(t, ok)
}

func TestCheckRateLimitFixedMinuteWindow(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 30, 45, 0, time.UTC))
	svc, _ := setupService(t, clk)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.True(t, svc.CheckRateLimit(ctx, "user-1", usagedomain.ActionGenerate, 5))
		assert.True(t, svc.Record(ctx, usagedomain.RecordRequest{
			UserID:     "user-1",
			ActionType: usagedomain.ActionGenerate,
		}))
	}

	// Fifth row fills the budget; strictly-less-than denies the sixth.
	assert.False(t, svc.CheckRateLimit(ctx, "user-1", usagedomain.ActionGenerate, 5))

	// The bucket is the fixed calendar minute, so crossing the boundary
	// resets it even though less than a minute has passed.
	clk.Advance(20 * time.Second)
	assert.True(t, svc.CheckRateLimit(ctx, "user-1", usagedomain.ActionGenerate, 5))
}

func TestCheckRateLimitIsolatesActionAndUser(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC))
	svc, _ := setupService(t, clk)
	ctx := context.Background()

	svc.Record(ctx, usagedomain.RecordRequest{UserID: "user-1", ActionType: usagedomain.ActionGenerate})

	assert.False(t, svc.CheckRateLimit(ctx, "user-1", usagedomain.ActionGenerate, 1))
	assert.True(t, svc.CheckRateLimit(ctx, "user-1", usagedomain.ActionExport, 1))
	assert.True(t, svc.CheckRateLimit(ctx, "user-2", usagedomain.ActionGenerate, 1))
}

func TestCheckRateLimitFailOpenOnLookupError(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC))
	svc, db := setupService(t, clk)

	require.NoError(t, db.Migrator().DropTable(&usagedomain.UsageRecord{}))

	assert.True(t, svc.CheckRateLimit(context.Background(), "user-1", usagedomain.ActionGenerate, 1))
}

func TestSummaryDefaultsWithoutHistory(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	svc, _ := setupService(t, clk)

	summary, err := svc.Summary(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "free", summary.Plan)
	assert.Equal(t, 10, summary.MonthlyLimit)
	assert.Equal(t, 0, summary.Used)
	assert.Equal(t, 10, summary.Remaining)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), summary.ResetAt)
}

func TestSummaryCountsCalendarMonthOnly(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 2, 27, 23, 0, 0, 0, time.UTC))
	svc, _ := setupService(t, clk)
	ctx := context.Background()

	// Previous-month rows must not count.
	svc.Record(ctx, usagedomain.RecordRequest{UserID: "user-1", ActionType: usagedomain.ActionGenerate})
	svc.Record(ctx, usagedomain.RecordRequest{UserID: "user-1", ActionType: usagedomain.ActionGenerate})

	clk.Advance(72 * time.Hour) // now 2026-03-02
	svc.Record(ctx, usagedomain.RecordRequest{UserID: "user-1", ActionType: usagedomain.ActionExport})

	summary, err := svc.Summary(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Used)
	assert.Equal(t, 9, summary.Remaining)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), summary.ResetAt)
}

func TestSummaryPlanFromLatestRecord(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	svc, _ := setupService(t, clk)
	ctx := context.Background()

	svc.Record(ctx, usagedomain.RecordRequest{
		UserID:     "user-1",
		ActionType: usagedomain.ActionGenerate,
	})
	clk.Advance(time.Minute)
	svc.Record(ctx, usagedomain.RecordRequest{
		UserID:       "user-1",
		ActionType:   usagedomain.ActionGenerate,
		PlanName:     "pro",
		MonthlyLimit: 100,
	})

	summary, err := svc.Summary(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "pro", summary.Plan)
	assert.Equal(t, 100, summary.MonthlyLimit)
	assert.Equal(t, 2, summary.Used)
	assert.Equal(t, 98, summary.Remaining)
}

func TestSummaryRemainingNeverNegative(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	svc, _ := setupService(t, clk)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.Record(ctx, usagedomain.RecordRequest{
			UserID:       "user-1",
			ActionType:   usagedomain.ActionGenerate,
			PlanName:     "free",
			MonthlyLimit: 2,
		})
		clk.Advance(time.Minute)
	}

	summary, err := svc.Summary(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Used)
	assert.Equal(t, 0, summary.Remaining)
}
