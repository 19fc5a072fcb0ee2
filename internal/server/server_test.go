package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ngoinfo/copilot/internal/auth"
	"github.com/ngoinfo/copilot/internal/clock"
	"github.com/ngoinfo/copilot/internal/config"
	exportdomain "github.com/ngoinfo/copilot/internal/export/domain"
	profiledomain "github.com/ngoinfo/copilot/internal/profile/domain"
	proposaldomain "github.com/ngoinfo/copilot/internal/proposal/domain"
	"github.com/ngoinfo/copilot/internal/scoring"
	usagedomain "github.com/ngoinfo/copilot/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "server-test-secret"
	testIssuer = "copilot-identity"
	testUserID = "user-123"
)

var testNow = time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)

type stubProposalService struct {
	generate    func(ctx context.Context, userID string, req proposaldomain.GenerateRequest) (*proposaldomain.GenerateOutcome, error)
	getByID     func(ctx context.Context, userID, proposalID string) (*proposaldomain.Proposal, error)
	list        func(ctx context.Context, userID string, req proposaldomain.ListRequest) ([]proposaldomain.Proposal, error)
	update      func(ctx context.Context, userID, proposalID string, req proposaldomain.UpdateRequest) (*proposaldomain.Proposal, error)
	rate        func(ctx context.Context, userID, proposalID string, rating int, feedback string) (*proposaldomain.Proposal, error)
	archive     func(ctx context.Context, userID, proposalID string) error
	trackExport func(ctx context.Context, userID, proposalID, format string) error
}

func (s *stubProposalService) Generate(ctx context.Context, userID string, req proposaldomain.GenerateRequest) (*proposaldomain.GenerateOutcome, error) {
	return s.generate(ctx, userID, req)
}

func (s *stubProposalService) GetByID(ctx context.Context, userID, proposalID string) (*proposaldomain.Proposal, error) {
	return s.getByID(ctx, userID, proposalID)
}

func (s *stubProposalService) List(ctx context.Context, userID string, req proposaldomain.ListRequest) ([]proposaldomain.Proposal, error) {
	return s.list(ctx, userID, req)
}

func (s *stubProposalService) Update(ctx context.Context, userID, proposalID string, req proposaldomain.UpdateRequest) (*proposaldomain.Proposal, error) {
	return s.update(ctx, userID, proposalID, req)
}

func (s *stubProposalService) Rate(ctx context.Context, userID, proposalID string, rating int, feedback string) (*proposaldomain.Proposal, error) {
	return s.rate(ctx, userID, proposalID, rating, feedback)
}

func (s *stubProposalService) Archive(ctx context.Context, userID, proposalID string) error {
	return s.archive(ctx, userID, proposalID)
}

func (s *stubProposalService) TrackExport(ctx context.Context, userID, proposalID, format string) error {
	return s.trackExport(ctx, userID, proposalID, format)
}

type stubProfileService struct {
	profiledomain.Service

	getSimplified func(ctx context.Context, userID string) (*profiledomain.SimplifiedProfile, error)
	upsert        func(ctx context.Context, userID string, simplified profiledomain.SimplifiedProfile) (int, error)
	score         func(ctx context.Context, userID string) int
}

func (s *stubProfileService) GetSimplified(ctx context.Context, userID string) (*profiledomain.SimplifiedProfile, error) {
	return s.getSimplified(ctx, userID)
}

func (s *stubProfileService) Upsert(ctx context.Context, userID string, simplified profiledomain.SimplifiedProfile) (int, error) {
	return s.upsert(ctx, userID, simplified)
}

func (s *stubProfileService) Score(ctx context.Context, userID string) int {
	return s.score(ctx, userID)
}

type stubUsageService struct {
	usagedomain.Service

	summary func(ctx context.Context, userID string) (usagedomain.Summary, error)
}

func (s *stubUsageService) Summary(ctx context.Context, userID string) (usagedomain.Summary, error) {
	return s.summary(ctx, userID)
}

type stubExportService struct {
	export func(ctx context.Context, userID, proposalID string, format exportdomain.Format) (*exportdomain.Document, error)
	calls  int
}

func (s *stubExportService) Export(ctx context.Context, userID, proposalID string, format exportdomain.Format) (*exportdomain.Document, error) {
	s.calls++
	return s.export(ctx, userID, proposalID, format)
}

type harness struct {
	server   *Server
	proposal *stubProposalService
	profile  *stubProfileService
	usage    *stubUsageService
	export   *stubExportService
}

func setupServer(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		HTTPAddr:      ":0",
		AuthJWTSecret: testSecret,
		AuthJWTIssuer: testIssuer,
	}
	validator, err := auth.NewSessionValidator(cfg, clock.NewFakeClock(testNow))
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(ErrorHandlingMiddleware())

	h := &harness{
		proposal: &stubProposalService{},
		profile:  &stubProfileService{},
		usage:    &stubUsageService{},
		export:   &stubExportService{},
	}
	h.server = NewServer(ServerParams{
		Gin:         engine,
		Cfg:         cfg,
		ProposalSvc: h.proposal,
		ProfileSvc:  h.profile,
		UsageSvc:    h.usage,
		ExportSvc:   h.export,
		Validator:   validator,
	})
	return h
}

func signedToken(t *testing.T) string {
	t.Helper()
	claims := auth.SessionClaims{
		UserID: testUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   testUserID,
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(testNow),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (h *harness) do(t *testing.T, method, path, body, token string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.server.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var payload errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	h := setupServer(t)

	rec := h.do(t, http.MethodGet, "/api/proposals", "", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, CodeUnauthorized, payload.Code)
}

func TestExpiredTokenIsUnauthorized(t *testing.T) {
	h := setupServer(t)

	claims := auth.SessionClaims{
		UserID: testUserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   testUserID,
			ExpiresAt: jwt.NewNumericDate(testNow.Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec := h.do(t, http.MethodGet, "/api/proposals", "", token, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeUnauthorized, decodeError(t, rec).Code)
}

func TestGenerateProposalCreated(t *testing.T) {
	h := setupServer(t)

	var gotUserID, gotKey string
	proposal := &proposaldomain.Proposal{ID: "p-1", UserID: testUserID, Title: "Clean Water"}
	h.proposal.generate = func(_ context.Context, userID string, req proposaldomain.GenerateRequest) (*proposaldomain.GenerateOutcome, error) {
		gotUserID = userID
		gotKey = req.IdempotencyKey
		return &proposaldomain.GenerateOutcome{Proposal: proposal, StatusCode: http.StatusCreated}, nil
	}

	rec := h.do(t, http.MethodPost, "/api/proposals/generate",
		`{"funding_opportunity_id": 42}`, signedToken(t),
		map[string]string{"Idempotency-Key": "key-1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, testUserID, gotUserID)
	assert.Equal(t, "key-1", gotKey)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "p-1", body["id"])
}

func TestGenerateProposalReplayReturnsStoredBytes(t *testing.T) {
	h := setupServer(t)

	stored := []byte(`{"id":"p-1","title":"Stored Verbatim"}`)
	h.proposal.generate = func(_ context.Context, _ string, _ proposaldomain.GenerateRequest) (*proposaldomain.GenerateOutcome, error) {
		return &proposaldomain.GenerateOutcome{
			Body:       stored,
			StatusCode: http.StatusCreated,
			Replayed:   true,
		}, nil
	}

	rec := h.do(t, http.MethodPost, "/api/proposals/generate",
		`{"funding_opportunity_id": 42}`, signedToken(t), nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, string(stored), rec.Body.String())
}

func TestGenerateProposalValidationError(t *testing.T) {
	h := setupServer(t)

	h.proposal.generate = func(_ context.Context, _ string, _ proposaldomain.GenerateRequest) (*proposaldomain.GenerateOutcome, error) {
		return nil, proposaldomain.ErrInvalidInput
	}

	rec := h.do(t, http.MethodPost, "/api/proposals/generate", `{}`, signedToken(t), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, CodeValidationError, decodeError(t, rec).Code)
}

func TestGenerateProposalMalformedBody(t *testing.T) {
	h := setupServer(t)

	called := false
	h.proposal.generate = func(_ context.Context, _ string, _ proposaldomain.GenerateRequest) (*proposaldomain.GenerateOutcome, error) {
		called = true
		return nil, nil
	}

	rec := h.do(t, http.MethodPost, "/api/proposals/generate", `{not json`, signedToken(t), nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, CodeValidationError, decodeError(t, rec).Code)
	assert.False(t, called)
}

func TestGenerateProposalRateLimited(t *testing.T) {
	h := setupServer(t)

	h.proposal.generate = func(_ context.Context, _ string, _ proposaldomain.GenerateRequest) (*proposaldomain.GenerateOutcome, error) {
		return nil, &proposaldomain.RateLimitError{Action: "generate", Limit: 5}
	}

	rec := h.do(t, http.MethodPost, "/api/proposals/generate",
		`{"funding_opportunity_id": 42}`, signedToken(t), nil)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, CodeRateLimitExceeded, payload.Code)
	assert.Equal(t, "generate", payload.Details["action"])
	assert.EqualValues(t, 5, payload.Details["limit"])
}

func TestGetProposalNotFound(t *testing.T) {
	h := setupServer(t)

	h.proposal.getByID = func(_ context.Context, _, _ string) (*proposaldomain.Proposal, error) {
		return nil, proposaldomain.ErrNotFound
	}

	rec := h.do(t, http.MethodGet, "/api/proposals/missing", "", signedToken(t), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, rec).Code)
}

func TestListProposalsPassesQuery(t *testing.T) {
	h := setupServer(t)

	var gotReq proposaldomain.ListRequest
	h.proposal.list = func(_ context.Context, _ string, req proposaldomain.ListRequest) ([]proposaldomain.Proposal, error) {
		gotReq = req
		return []proposaldomain.Proposal{{ID: "p-1"}, {ID: "p-2"}}, nil
	}

	rec := h.do(t, http.MethodGet, "/api/proposals?status=draft&limit=5&offset=10", "", signedToken(t), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, proposaldomain.ListRequest{Status: "draft", Limit: 5, Offset: 10}, gotReq)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
}

func TestRateProposal(t *testing.T) {
	h := setupServer(t)

	var gotRating int
	var gotFeedback string
	h.proposal.rate = func(_ context.Context, _, proposalID string, rating int, feedback string) (*proposaldomain.Proposal, error) {
		gotRating = rating
		gotFeedback = feedback
		return &proposaldomain.Proposal{ID: proposalID, UserRating: &rating}, nil
	}

	rec := h.do(t, http.MethodPost, "/api/proposals/p-1/rate",
		`{"rating": 4, "feedback": "solid draft"}`, signedToken(t), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, gotRating)
	assert.Equal(t, "solid draft", gotFeedback)
}

func TestArchiveProposal(t *testing.T) {
	h := setupServer(t)

	h.proposal.archive = func(_ context.Context, _, _ string) error { return nil }

	rec := h.do(t, http.MethodDelete, "/api/proposals/p-1/archive", "", signedToken(t), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "archived")
}

func TestExportProposalPDF(t *testing.T) {
	h := setupServer(t)

	h.export.export = func(_ context.Context, _, _ string, format exportdomain.Format) (*exportdomain.Document, error) {
		return &exportdomain.Document{
			Data:        []byte("%PDF-1.4 test"),
			ContentType: format.ContentType(),
			Filename:    "clean-water.pdf",
		}, nil
	}

	rec := h.do(t, http.MethodGet, "/api/proposals/p-1/export/pdf", "", signedToken(t), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="clean-water.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4 test", rec.Body.String())
}

func TestExportProposalUnknownFormat(t *testing.T) {
	h := setupServer(t)

	rec := h.do(t, http.MethodGet, "/api/proposals/p-1/export/csv", "", signedToken(t), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidFormat, decodeError(t, rec).Code)
	assert.Zero(t, h.export.calls)
}

func TestGetProfile(t *testing.T) {
	h := setupServer(t)

	h.profile.getSimplified = func(_ context.Context, _ string) (*profiledomain.SimplifiedProfile, error) {
		return &profiledomain.SimplifiedProfile{OrgName: "WaterWorks Kenya", Mission: "Safe water"}, nil
	}
	h.profile.score = func(_ context.Context, _ string) int { return scoring.ReadyThreshold }

	rec := h.do(t, http.MethodGet, "/api/profile", "", signedToken(t), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body profileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "WaterWorks Kenya", body.Profile.OrgName)
	assert.True(t, body.ProfileReady)
}

func TestGetProfileMissing(t *testing.T) {
	h := setupServer(t)

	h.profile.getSimplified = func(_ context.Context, _ string) (*profiledomain.SimplifiedProfile, error) {
		return nil, profiledomain.ErrNotFound
	}

	rec := h.do(t, http.MethodGet, "/api/profile", "", signedToken(t), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, decodeError(t, rec).Code)
}

func TestUpsertProfileReportsReadiness(t *testing.T) {
	h := setupServer(t)

	h.profile.upsert = func(_ context.Context, _ string, simplified profiledomain.SimplifiedProfile) (int, error) {
		assert.Equal(t, "WaterWorks Kenya", simplified.OrgName)
		return 40, nil
	}
	h.profile.getSimplified = func(_ context.Context, _ string) (*profiledomain.SimplifiedProfile, error) {
		return &profiledomain.SimplifiedProfile{OrgName: "WaterWorks Kenya"}, nil
	}

	rec := h.do(t, http.MethodPost, "/api/profile",
		`{"org_name": "WaterWorks Kenya"}`, signedToken(t), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body profileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 40, body.CompletenessScore)
	assert.False(t, body.ProfileReady)
}

func TestUsageSummary(t *testing.T) {
	h := setupServer(t)

	h.usage.summary = func(_ context.Context, userID string) (usagedomain.Summary, error) {
		assert.Equal(t, testUserID, userID)
		return usagedomain.Summary{
			Plan:         "free",
			MonthlyLimit: 10,
			Used:         3,
			Remaining:    7,
			ResetAt:      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		}, nil
	}

	rec := h.do(t, http.MethodGet, "/api/usage/summary", "", signedToken(t), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body usagedomain.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "free", body.Plan)
	assert.Equal(t, 7, body.Remaining)
}
