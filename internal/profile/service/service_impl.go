package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ngoinfo/copilot/internal/clock"
	obslogger "github.com/ngoinfo/copilot/internal/observability/logger"
	profiledomain "github.com/ngoinfo/copilot/internal/profile/domain"
	"github.com/ngoinfo/copilot/internal/scoring"
	pkgdb "github.com/ngoinfo/copilot/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	Clock clock.Clock
	Repo  profiledomain.Repository
}

type Service struct {
	log   *zap.Logger
	clock clock.Clock
	repo  profiledomain.Repository
}

func NewService(p ServiceParam) profiledomain.Service {
	return &Service{
		log:   p.Log.Named("profile.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, userID string, req profiledomain.CreateRequest) (*profiledomain.NGOProfile, error) {
	if strings.TrimSpace(req.OrganizationName) == "" ||
		strings.TrimSpace(req.MissionStatement) == "" ||
		len(req.FocusAreas) == 0 ||
		len(req.GeographicScope) == 0 {
		return nil, profiledomain.ErrInvalidInput
	}

	existing, err := s.repo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, profiledomain.ErrAlreadyExists
	}

	now := s.clock.Now().UTC()
	profile := profiledomain.NGOProfile{
		ID:     uuid.NewString(),
		UserID: userID,

		OrganizationName: req.OrganizationName,
		MissionStatement: req.MissionStatement,
		FocusAreas:       datatypes.NewJSONSlice(req.FocusAreas),
		GeographicScope:  datatypes.NewJSONSlice(req.GeographicScope),

		FoundedYear:        req.FoundedYear,
		OrganizationType:   req.OrganizationType,
		RegistrationNumber: req.RegistrationNumber,
		Website:            req.Website,

		ContactPerson: req.ContactPerson,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		Address:       req.Address,

		ProgramsServices:    datatypes.NewJSONSlice(req.ProgramsServices),
		TargetBeneficiaries: datatypes.NewJSONSlice(req.TargetBeneficiaries),
		AnnualBudgetRange:   req.AnnualBudgetRange,
		StaffSize:           req.StaffSize,

		PastProjects:      datatypes.NewJSONType(req.PastProjects),
		Partnerships:      datatypes.NewJSONSlice(req.Partnerships),
		AwardsRecognition: datatypes.NewJSONSlice(req.AwardsRecognition),

		FundingSources:  datatypes.NewJSONSlice(req.FundingSources),
		GrantExperience: req.GrantExperience,

		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
	}
	profile.CompletenessScore = scoring.WeightedCompleteness(scoringFields(&profile))

	if err := s.repo.Create(ctx, &profile); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, profiledomain.ErrAlreadyExists
		}
		return nil, err
	}

	obslogger.WithUser(obslogger.WithContext(ctx, s.log), userID).Info("profile created",
		zap.String("profile_id", profile.ID),
		zap.Int("completeness_score", profile.CompletenessScore),
	)
	return &profile, nil
}

func (s *Service) GetByUserID(ctx context.Context, userID string) (*profiledomain.NGOProfile, error) {
	profile, err := s.repo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, profiledomain.ErrNotFound
	}
	return profile, nil
}

func (s *Service) Update(ctx context.Context, userID string, req profiledomain.UpdateRequest) (*profiledomain.NGOProfile, error) {
	profile, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	applyString(&profile.OrganizationName, req.OrganizationName)
	applyString(&profile.MissionStatement, req.MissionStatement)
	if req.FocusAreas != nil {
		profile.FocusAreas = datatypes.NewJSONSlice(req.FocusAreas)
	}
	if req.GeographicScope != nil {
		profile.GeographicScope = datatypes.NewJSONSlice(req.GeographicScope)
	}
	if req.FoundedYear != nil {
		profile.FoundedYear = req.FoundedYear
	}
	applyString(&profile.OrganizationType, req.OrganizationType)
	applyString(&profile.RegistrationNumber, req.RegistrationNumber)
	applyString(&profile.Website, req.Website)
	applyString(&profile.ContactPerson, req.ContactPerson)
	applyString(&profile.ContactEmail, req.ContactEmail)
	applyString(&profile.ContactPhone, req.ContactPhone)
	applyString(&profile.Address, req.Address)
	if req.ProgramsServices != nil {
		profile.ProgramsServices = datatypes.NewJSONSlice(req.ProgramsServices)
	}
	if req.TargetBeneficiaries != nil {
		profile.TargetBeneficiaries = datatypes.NewJSONSlice(req.TargetBeneficiaries)
	}
	applyString(&profile.AnnualBudgetRange, req.AnnualBudgetRange)
	applyString(&profile.StaffSize, req.StaffSize)
	if req.PastProjects != nil {
		profile.PastProjects = datatypes.NewJSONType(req.PastProjects)
	}
	if req.Partnerships != nil {
		profile.Partnerships = datatypes.NewJSONSlice(req.Partnerships)
	}
	if req.AwardsRecognition != nil {
		profile.AwardsRecognition = datatypes.NewJSONSlice(req.AwardsRecognition)
	}
	if req.FundingSources != nil {
		profile.FundingSources = datatypes.NewJSONSlice(req.FundingSources)
	}
	applyString(&profile.GrantExperience, req.GrantExperience)

	profile.CompletenessScore = scoring.WeightedCompleteness(scoringFields(profile))
	profile.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Save(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *Service) Deactivate(ctx context.Context, userID string) error {
	ok, err := s.repo.Deactivate(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return profiledomain.ErrNotFound
	}
	return nil
}

func (s *Service) Verify(ctx context.Context, userID string) error {
	ok, err := s.repo.Verify(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return profiledomain.ErrNotFound
	}
	return nil
}

func (s *Service) GetSimplified(ctx context.Context, userID string) (*profiledomain.SimplifiedProfile, error) {
	profile, err := s.repo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}
	simplified := simplify(profile)
	return &simplified, nil
}

// Upsert writes the simplified six-field shape, creating the profile when
// none exists. The flat completeness score is persisted and returned.
func (s *Service) Upsert(ctx context.Context, userID string, simplified profiledomain.SimplifiedProfile) (int, error) {
	score := scoring.FlatCompleteness(promptProfile(simplified))
	now := s.clock.Now().UTC()

	profile, err := s.repo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}

	if profile == nil {
		profile = &profiledomain.NGOProfile{
			ID:               uuid.NewString(),
			UserID:           userID,
			OrganizationName: simplified.OrgName,
			MissionStatement: simplified.Mission,
			FocusAreas:       datatypes.NewJSONSlice(simplified.Sectors),
			GeographicScope:  datatypes.NewJSONSlice(simplified.Countries),
			StaffSize:        simplified.Staffing,
			PastProjects:     datatypes.NewJSONType(structurePastProjects(simplified.PastProjects)),
			CreatedAt:        now,
			UpdatedAt:        now,
			IsActive:         true,
		}
		profile.CompletenessScore = score
		if err := s.repo.Create(ctx, profile); err != nil {
			return 0, err
		}
		return score, nil
	}

	profile.OrganizationName = simplified.OrgName
	profile.MissionStatement = simplified.Mission
	profile.FocusAreas = datatypes.NewJSONSlice(simplified.Sectors)
	profile.GeographicScope = datatypes.NewJSONSlice(simplified.Countries)
	profile.StaffSize = simplified.Staffing
	profile.PastProjects = datatypes.NewJSONType(structurePastProjects(simplified.PastProjects))
	profile.CompletenessScore = score
	profile.UpdatedAt = now

	if err := s.repo.Save(ctx, profile); err != nil {
		return 0, err
	}
	return score, nil
}

// StructureForPrompt returns the simplified profile with prompt-safe
// defaults substituted for missing fields. Lookup errors also fall back to
// the defaults so prompt building never fails on a profile read.
func (s *Service) StructureForPrompt(ctx context.Context, userID string) scoring.PromptProfile {
	defaults := scoring.PromptProfile{
		OrgName:      "Unknown Organization",
		Mission:      "Mission not provided",
		Sectors:      []string{"General development"},
		Countries:    []string{"Not specified"},
		PastProjects: "No past projects listed",
		Staffing:     "Staffing information not provided",
	}

	simplified, err := s.GetSimplified(ctx, userID)
	if err != nil {
		obslogger.WithUser(obslogger.WithContext(ctx, s.log), userID).Warn("profile lookup for prompt failed", zap.Error(err))
		return defaults
	}
	if simplified == nil {
		return defaults
	}

	structured := promptProfile(*simplified)
	if structured.OrgName == "" {
		structured.OrgName = defaults.OrgName
	}
	if structured.Mission == "" {
		structured.Mission = defaults.Mission
	}
	if len(structured.Sectors) == 0 {
		structured.Sectors = defaults.Sectors
	}
	if len(structured.Countries) == 0 {
		structured.Countries = defaults.Countries
	}
	if structured.PastProjects == "" {
		structured.PastProjects = defaults.PastProjects
	}
	if structured.Staffing == "" {
		structured.Staffing = defaults.Staffing
	}
	return structured
}

// Score returns the flat completeness score, 0 when no profile exists.
func (s *Service) Score(ctx context.Context, userID string) int {
	simplified, err := s.GetSimplified(ctx, userID)
	if err != nil || simplified == nil {
		return 0
	}
	return scoring.FlatCompleteness(promptProfile(*simplified))
}

func simplify(profile *profiledomain.NGOProfile) profiledomain.SimplifiedProfile {
	return profiledomain.SimplifiedProfile{
		OrgName:      profile.OrganizationName,
		Mission:      profile.MissionStatement,
		Sectors:      profile.FocusAreas,
		Countries:    profile.GeographicScope,
		PastProjects: formatPastProjects(profile.PastProjects.Data()),
		Staffing:     profile.StaffSize,
	}
}

func promptProfile(simplified profiledomain.SimplifiedProfile) scoring.PromptProfile {
	return scoring.PromptProfile{
		OrgName:      simplified.OrgName,
		Mission:      simplified.Mission,
		Sectors:      simplified.Sectors,
		Countries:    simplified.Countries,
		PastProjects: simplified.PastProjects,
		Staffing:     simplified.Staffing,
	}
}

func formatPastProjects(projects []profiledomain.PastProject) string {
	if len(projects) == 0 {
		return ""
	}
	parts := make([]string, 0, len(projects))
	for _, project := range projects {
		title := project.Title
		if title == "" {
			title = "Untitled Project"
		}
		description := project.Description
		if description == "" {
			description = "No description provided"
		}
		parts = append(parts, title+": "+description)
	}
	return strings.Join(parts, "; ")
}

func structurePastProjects(text string) []profiledomain.PastProject {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return []profiledomain.PastProject{{Title: "Past Work", Description: text}}
}

func scoringFields(profile *profiledomain.NGOProfile) scoring.ProfileFields {
	return scoring.ProfileFields{
		OrganizationName: profile.OrganizationName,
		MissionStatement: profile.MissionStatement,
		FocusAreas:       profile.FocusAreas,
		GeographicScope:  strings.Join(profile.GeographicScope, ", "),

		FoundedYear:         profile.FoundedYear,
		OrganizationType:    profile.OrganizationType,
		Website:             profile.Website,
		ContactPerson:       profile.ContactPerson,
		ContactEmail:        profile.ContactEmail,
		ProgramsServices:    profile.ProgramsServices,
		TargetBeneficiaries: strings.Join(profile.TargetBeneficiaries, ", "),
		AnnualBudgetRange:   profile.AnnualBudgetRange,
		StaffSize:           profile.StaffSize,

		RegistrationNumber: profile.RegistrationNumber,
		ContactPhone:       profile.ContactPhone,
		Address:            profile.Address,
		PastProjects:       pastProjectTitles(profile.PastProjects.Data()),
		Partnerships:       profile.Partnerships,
		AwardsRecognition:  profile.AwardsRecognition,
		FundingSources:     profile.FundingSources,
		GrantExperience:    profile.GrantExperience,
	}
}

func pastProjectTitles(projects []profiledomain.PastProject) []string {
	titles := make([]string, 0, len(projects))
	for _, project := range projects {
		titles = append(titles, project.Title)
	}
	return titles
}
