package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ngoinfo/copilot/internal/clock"
	"github.com/ngoinfo/copilot/internal/config"
	fundingdomain "github.com/ngoinfo/copilot/internal/funding/domain"
	"github.com/ngoinfo/copilot/internal/generator"
	idemdomain "github.com/ngoinfo/copilot/internal/idempotency/domain"
	obslogger "github.com/ngoinfo/copilot/internal/observability/logger"
	obsmetrics "github.com/ngoinfo/copilot/internal/observability/metrics"
	profiledomain "github.com/ngoinfo/copilot/internal/profile/domain"
	"github.com/ngoinfo/copilot/internal/prompt"
	proposaldomain "github.com/ngoinfo/copilot/internal/proposal/domain"
	"github.com/ngoinfo/copilot/internal/ratelimit"
	"github.com/ngoinfo/copilot/internal/scoring"
	usagedomain "github.com/ngoinfo/copilot/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EndpointGenerate scopes idempotency records and perimeter buckets for the
// generate flow.
const EndpointGenerate = "/api/proposals/generate"

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Cfg   config.Config

	Repo      proposaldomain.Repository
	Usage     usagedomain.Service
	Idem      idemdomain.Service
	Profile   profiledomain.Service
	Funding   fundingdomain.Service
	Generator generator.Client

	Perimeter *ratelimit.Perimeter `optional:"true"`
	Metrics   *obsmetrics.Metrics  `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	cfg   config.Config

	repo      proposaldomain.Repository
	usage     usagedomain.Service
	idem      idemdomain.Service
	profile   profiledomain.Service
	funding   fundingdomain.Service
	generator generator.Client

	perimeter *ratelimit.Perimeter
	metrics   *obsmetrics.Metrics
}

func NewService(p ServiceParam) proposaldomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("proposal.service"),
		clock: p.Clock,
		cfg:   p.Cfg,

		repo:      p.Repo,
		usage:     p.Usage,
		idem:      p.Idem,
		profile:   p.Profile,
		funding:   p.Funding,
		generator: p.Generator,

		perimeter: p.Perimeter,
		metrics:   p.Metrics,
	}
}

// Generate runs the full orchestration for one request: rate check,
// idempotent replay, input resolution, generation, scoring, transactional
// persist, then the fail-open ledger and idempotency writes. A generation
// failure leaves no trace in storage so the caller can retry without
// spending budget.
func (s *Service) Generate(ctx context.Context, userID string, req proposaldomain.GenerateRequest) (*proposaldomain.GenerateOutcome, error) {
	log := obslogger.WithUser(obslogger.WithContext(ctx, s.log), userID)

	if err := validateGenerateInput(req); err != nil {
		return nil, err
	}

	if allowed, err := s.allowGenerate(ctx, userID); err != nil {
		log.Warn("perimeter check failed", zap.Error(err))
	} else if !allowed {
		s.metrics.RecordRateLimitDenied(usagedomain.ActionGenerate)
		return nil, &proposaldomain.RateLimitError{
			Action: usagedomain.ActionGenerate,
			Limit:  s.cfg.GenerateRatePerMinute,
		}
	}
	if !s.usage.CheckRateLimit(ctx, userID, usagedomain.ActionGenerate, s.cfg.GenerateRatePerMinute) {
		s.metrics.RecordRateLimitDenied(usagedomain.ActionGenerate)
		return nil, &proposaldomain.RateLimitError{
			Action: usagedomain.ActionGenerate,
			Limit:  s.cfg.GenerateRatePerMinute,
		}
	}

	if cached := s.idem.Check(ctx, userID, req.IdempotencyKey, EndpointGenerate, req); cached != nil {
		s.metrics.RecordIdempotencyReplay(EndpointGenerate)
		log.Info("idempotent replay", zap.String("endpoint", EndpointGenerate))
		return &proposaldomain.GenerateOutcome{
			Body:       cached.Body,
			StatusCode: cached.StatusCode,
			Replayed:   true,
		}, nil
	}

	// Collapse concurrent retries of the same idempotent request to one
	// computation when redis is available. Lock contention or failure
	// degrades to double compute, which the idempotency insert resolves.
	if s.perimeter.Enabled() && req.IdempotencyKey != "" {
		token, ok, err := s.perimeter.TryLockGeneration(ctx, userID, req.IdempotencyKey, EndpointGenerate)
		if err != nil {
			log.Warn("generation lock unavailable", zap.Error(err))
		} else if ok {
			defer func() {
				if err := s.perimeter.ReleaseGeneration(ctx, userID, req.IdempotencyKey, EndpointGenerate, token); err != nil {
					log.Warn("generation lock release failed", zap.Error(err))
				}
			}()
		} else {
			log.Warn("concurrent generation for idempotency key, proceeding")
		}
	}

	proposal, err := s.resolveAndGenerate(ctx, userID, req)
	if err != nil {
		if errors.Is(err, generator.ErrGeneration) {
			s.metrics.RecordGeneration("failure")
		}
		return nil, err
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(proposal).Error
	}); err != nil {
		log.Error("proposal persist failed", zap.Error(err))
		return nil, err
	}

	s.usage.Record(ctx, usagedomain.RecordRequest{
		UserID:       userID,
		ActionType:   usagedomain.ActionGenerate,
		PlanName:     s.cfg.DefaultPlanName,
		MonthlyLimit: s.cfg.DefaultMonthlyLimit,
	})

	if req.IdempotencyKey != "" {
		if body, err := json.Marshal(proposal); err == nil {
			s.idem.Store(ctx, userID, req.IdempotencyKey, EndpointGenerate, req, body, 201)
		} else {
			log.Warn("idempotency body marshal failed", zap.Error(err))
		}
	}

	s.metrics.RecordGeneration("success")
	log.Info("proposal generated",
		zap.String("proposal_id", proposal.ID),
		zap.String("input_source", inputSource(req)),
	)

	return &proposaldomain.GenerateOutcome{Proposal: proposal, StatusCode: 201}, nil
}

func validateGenerateInput(req proposaldomain.GenerateRequest) error {
	hasOpportunity := req.FundingOpportunityID != nil
	hasBrief := strings.TrimSpace(req.CustomBrief) != "" ||
		(req.QuickFields != nil && !req.QuickFields.IsZero())

	if hasOpportunity == hasBrief {
		return proposaldomain.ErrInvalidInput
	}
	return nil
}

func inputSource(req proposaldomain.GenerateRequest) string {
	if req.FundingOpportunityID != nil {
		return "funding_opportunity"
	}
	if strings.TrimSpace(req.CustomBrief) != "" {
		return "custom_brief"
	}
	return "quick_fields"
}

func (s *Service) allowGenerate(ctx context.Context, userID string) (bool, error) {
	if !s.perimeter.Enabled() {
		return true, nil
	}
	return s.perimeter.AllowUser(ctx, userID, EndpointGenerate)
}

func (s *Service) resolveAndGenerate(ctx context.Context, userID string, req proposaldomain.GenerateRequest) (*proposaldomain.Proposal, error) {
	var (
		opportunity *fundingdomain.FundingOpportunity
		stored      *profiledomain.NGOProfile
	)

	if req.FundingOpportunityID != nil {
		var err error
		stored, err = s.profile.GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, profiledomain.ErrNotFound) {
				return nil, proposaldomain.ErrProfileRequired
			}
			return nil, err
		}

		opportunity, err = s.funding.GetByID(ctx, *req.FundingOpportunityID)
		if err != nil {
			if errors.Is(err, fundingdomain.ErrNotFound) {
				return nil, proposaldomain.ErrOpportunityNotFound
			}
			return nil, err
		}
	} else if existing, err := s.profile.GetByUserID(ctx, userID); err == nil {
		// Brief generation works without a profile; keep the link if one
		// exists.
		stored = existing
	}

	structured := s.profile.StructureForPrompt(ctx, userID)

	var (
		generationPrompt string
		donorTemplate    string
	)
	if opportunity != nil {
		generationPrompt = prompt.BuildOpportunityPrompt(structured, opportunity, req.CustomInstructions)
		donorTemplate = prompt.DonorTemplateKey(opportunity.DonorOrganization)
	} else {
		brief := strings.TrimSpace(req.CustomBrief)
		if brief == "" {
			brief = req.QuickFields.Brief()
		}
		generationPrompt = prompt.BuildBriefPrompt(structured, brief, req.CustomInstructions)
		donorTemplate = "default"
	}

	result, err := s.generator.Generate(ctx, generationPrompt)
	if err != nil {
		return nil, err
	}

	scores := scoreProposal(result.Content, opportunity, stored, structured)

	now := s.clock.Now().UTC()
	title := result.Title
	if title == "" {
		if opportunity != nil {
			title = "Proposal for " + opportunity.Title
		} else {
			title = "Grant Proposal Draft"
		}
	}

	var profileID string
	if stored != nil {
		profileID = stored.ID
	}

	proposal := proposaldomain.Proposal{
		ID:                   uuid.NewString(),
		UserID:               userID,
		NGOProfileID:         profileID,
		FundingOpportunityID: req.FundingOpportunityID,

		Title:            title,
		Content:          result.Content,
		ExecutiveSummary: result.ExecutiveSummary,

		GenerationPrompt:    generationPrompt,
		DonorTemplateUsed:   donorTemplate,
		AIModelUsed:         result.Model,
		GenerationTimestamp: now,

		ConfidenceScore:   &scores.Confidence,
		AlignmentScore:    &scores.Alignment,
		CompletenessScore: &scores.Completeness,

		Status:    proposaldomain.StatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}
	if opportunity != nil {
		proposal.FundingOpportunitySnapshot = opportunity.Snapshot()
	}

	return &proposal, nil
}

func scoreProposal(content string, opportunity *fundingdomain.FundingOpportunity, stored *profiledomain.NGOProfile, structured scoring.PromptProfile) scoring.Scores {
	var oppFacts scoring.OpportunityFacts
	if opportunity != nil {
		oppFacts = scoring.OpportunityFacts{
			DonorOrganization: opportunity.DonorOrganization,
			FocusAreas:        opportunity.FocusAreas,
			OrganizationTypes: opportunity.OrganizationTypes,
			GeographicFocus:   opportunity.GeographicFocus,
			Keywords:          opportunity.Keywords,
		}
	}
	profFacts := scoring.ProfileFacts{
		FocusAreas:      structured.Sectors,
		GeographicScope: strings.Join(structured.Countries, ", "),
	}
	if stored != nil {
		profFacts.OrganizationType = stored.OrganizationType
	}
	return scoring.ProposalScores(content, oppFacts, profFacts)
}

func (s *Service) GetByID(ctx context.Context, userID, proposalID string) (*proposaldomain.Proposal, error) {
	proposal, err := s.repo.FindActiveByID(ctx, userID, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, proposaldomain.ErrNotFound
	}
	return proposal, nil
}

func (s *Service) List(ctx context.Context, userID string, req proposaldomain.ListRequest) ([]proposaldomain.Proposal, error) {
	return s.repo.ListActive(ctx, userID, req)
}

// Update applies the provided fields, appends an edit history entry and
// bumps the version when the content changed.
func (s *Service) Update(ctx context.Context, userID, proposalID string, req proposaldomain.UpdateRequest) (*proposaldomain.Proposal, error) {
	proposal, err := s.GetByID(ctx, userID, proposalID)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if req.Title != nil {
		changes["title"] = *req.Title
	}
	if req.Content != nil {
		changes["content"] = *req.Content
	}
	if req.ExecutiveSummary != nil {
		changes["executive_summary"] = *req.ExecutiveSummary
	}
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return nil, proposaldomain.ErrInvalidStatus
		}
		changes["status"] = *req.Status
	}
	if len(changes) == 0 {
		return proposal, nil
	}

	var history []proposaldomain.EditRecord
	if len(proposal.EditHistory) > 0 {
		if err := json.Unmarshal(proposal.EditHistory, &history); err != nil {
			obslogger.WithUser(obslogger.WithContext(ctx, s.log), userID).
				Warn("edit history unreadable, resetting", zap.String("proposal_id", proposalID), zap.Error(err))
			history = nil
		}
	}
	history = append(history, proposaldomain.EditRecord{
		Timestamp: proposal.UpdatedAt.UTC().Format(time.RFC3339),
		Changes:   changes,
		Version:   proposal.Version,
	})
	encoded, err := json.Marshal(history)
	if err != nil {
		return nil, err
	}
	proposal.EditHistory = datatypes.JSON(encoded)

	if req.Title != nil {
		proposal.Title = *req.Title
	}
	if req.ExecutiveSummary != nil {
		proposal.ExecutiveSummary = *req.ExecutiveSummary
	}
	if req.Status != nil {
		proposal.Status = *req.Status
	}
	if req.Content != nil {
		proposal.Content = *req.Content
		proposal.Version++
	}
	proposal.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Save(ctx, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

func validStatus(status string) bool {
	switch status {
	case proposaldomain.StatusDraft,
		proposaldomain.StatusReviewed,
		proposaldomain.StatusFinalized,
		proposaldomain.StatusSubmitted:
		return true
	}
	return false
}

func (s *Service) Rate(ctx context.Context, userID, proposalID string, rating int, feedback string) (*proposaldomain.Proposal, error) {
	if rating < 1 || rating > 5 {
		return nil, proposaldomain.ErrInvalidRating
	}

	proposal, err := s.GetByID(ctx, userID, proposalID)
	if err != nil {
		return nil, err
	}

	proposal.UserRating = &rating
	if feedback != "" {
		proposal.UserFeedback = feedback
	}
	proposal.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Save(ctx, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

func (s *Service) Archive(ctx context.Context, userID, proposalID string) error {
	ok, err := s.repo.Archive(ctx, userID, proposalID)
	if err != nil {
		return err
	}
	if !ok {
		return proposaldomain.ErrNotFound
	}
	return nil
}

// TrackExport records a completed export: set-union of formats, counter
// increment and last-exported timestamp.
func (s *Service) TrackExport(ctx context.Context, userID, proposalID, format string) error {
	proposal, err := s.GetByID(ctx, userID, proposalID)
	if err != nil {
		return err
	}

	found := false
	for _, existing := range proposal.ExportedFormats {
		if existing == format {
			found = true
			break
		}
	}
	if !found {
		proposal.ExportedFormats = append(proposal.ExportedFormats, format)
	}
	proposal.ExportCount++
	now := s.clock.Now().UTC()
	proposal.LastExportedAt = &now
	proposal.UpdatedAt = now

	return s.repo.Save(ctx, proposal)
}
