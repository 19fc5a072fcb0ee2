package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/ngoinfo/copilot/internal/clock"
	profiledomain "github.com/ngoinfo/copilot/internal/profile/domain"
	"github.com/ngoinfo/copilot/internal/profile/repository"
	"github.com/ngoinfo/copilot/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (profiledomain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&profiledomain.NGOProfile{}))

	svc := NewService(ServiceParam{
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(db),
	})
	return svc, db
}

func validCreateRequest() profiledomain.CreateRequest {
	return profiledomain.CreateRequest{
		OrganizationName: "Water for All",
		MissionStatement: "Clean water access for rural communities",
		FocusAreas:       []string{"WASH"},
		GeographicScope:  []string{"Kenya"},
	}
}

func TestCreateComputesWeightedScore(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	profile, err := svc.Create(ctx, "user-1", validCreateRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
	assert.True(t, profile.IsActive)
	// Required fields only: 36 of 101 weighted points.
	assert.Equal(t, 35, profile.CompletenessScore)
}

func TestCreateRejectsMissingRequiredFields(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	req := validCreateRequest()
	req.MissionStatement = "  "
	_, err := svc.Create(ctx, "user-1", req)
	assert.ErrorIs(t, err, profiledomain.ErrInvalidInput)

	req = validCreateRequest()
	req.FocusAreas = nil
	_, err = svc.Create(ctx, "user-1", req)
	assert.ErrorIs(t, err, profiledomain.ErrInvalidInput)
}

func TestCreateRejectsSecondActiveProfile(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", validCreateRequest())
	require.NoError(t, err)

	_, err = svc.Create(ctx, "user-1", validCreateRequest())
	assert.ErrorIs(t, err, profiledomain.ErrAlreadyExists)
}

func TestUpdateRecomputesScoreAndKeepsUnsetFields(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "user-1", validCreateRequest())
	require.NoError(t, err)

	website := "https://waterforall.example.org"
	updated, err := svc.Update(ctx, "user-1", profiledomain.UpdateRequest{Website: &website})
	require.NoError(t, err)

	assert.Equal(t, website, updated.Website)
	assert.Equal(t, created.OrganizationName, updated.OrganizationName)
	assert.Greater(t, updated.CompletenessScore, created.CompletenessScore)
}

func TestUpdateMissingProfile(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Update(context.Background(), "nobody", profiledomain.UpdateRequest{})
	assert.ErrorIs(t, err, profiledomain.ErrNotFound)
}

func TestDeactivateHidesProfile(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, "user-1"))

	_, err = svc.GetByUserID(ctx, "user-1")
	assert.ErrorIs(t, err, profiledomain.ErrNotFound)

	assert.ErrorIs(t, svc.Deactivate(ctx, "user-1"), profiledomain.ErrNotFound)
}

func TestVerifyMarksProfile(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", validCreateRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Verify(ctx, "user-1"))

	profile, err := svc.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, profile.IsVerified)
}

func TestUpsertCreatesAndScores(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	score, err := svc.Upsert(ctx, "user-1", profiledomain.SimplifiedProfile{
		OrgName:      "Water for All",
		Mission:      strings.Repeat("x", 10),
		Sectors:      []string{"health"},
		Countries:    []string{"Kenya"},
		PastProjects: strings.Repeat("y", 250),
		Staffing:     "2 staff",
	})
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	profile, err := svc.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 100, profile.CompletenessScore)
	require.Len(t, profile.PastProjects.Data(), 1)
	assert.Equal(t, "Past Work", profile.PastProjects.Data()[0].Title)
}

func TestUpsertUpdatesExistingProfile(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", validCreateRequest())
	require.NoError(t, err)

	score, err := svc.Upsert(ctx, "user-1", profiledomain.SimplifiedProfile{
		OrgName: "Water for All",
		Mission: "Clean water",
	})
	require.NoError(t, err)
	assert.Equal(t, 40, score)

	profile, err := svc.GetByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, []string(profile.FocusAreas))
	assert.Equal(t, 40, profile.CompletenessScore)
}

func TestGetSimplifiedFormatsPastProjects(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	req := validCreateRequest()
	req.PastProjects = []profiledomain.PastProject{
		{Title: "Boreholes", Description: "Drilled 40 wells"},
		{Description: "Committee training"},
	}
	_, err := svc.Create(ctx, "user-1", req)
	require.NoError(t, err)

	simplified, err := svc.GetSimplified(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, simplified)
	assert.Equal(t, "Boreholes: Drilled 40 wells; Untitled Project: Committee training", simplified.PastProjects)
}

func TestStructureForPromptDefaults(t *testing.T) {
	svc, _ := setupService(t)

	structured := svc.StructureForPrompt(context.Background(), "nobody")
	assert.Equal(t, scoring.PromptProfile{
		OrgName:      "Unknown Organization",
		Mission:      "Mission not provided",
		Sectors:      []string{"General development"},
		Countries:    []string{"Not specified"},
		PastProjects: "No past projects listed",
		Staffing:     "Staffing information not provided",
	}, structured)
}

func TestStructureForPromptFillsBlanks(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "user-1", profiledomain.SimplifiedProfile{
		OrgName: "Water for All",
		Mission: "Clean water access",
	})
	require.NoError(t, err)

	structured := svc.StructureForPrompt(ctx, "user-1")
	assert.Equal(t, "Water for All", structured.OrgName)
	assert.Equal(t, []string{"General development"}, structured.Sectors)
	assert.Equal(t, "No past projects listed", structured.PastProjects)
}

func TestScoreWithoutProfile(t *testing.T) {
	svc, _ := setupService(t)
	assert.Zero(t, svc.Score(context.Background(), "nobody"))
}
