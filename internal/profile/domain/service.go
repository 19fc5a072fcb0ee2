package domain

import (
	"context"

	"github.com/ngoinfo/copilot/internal/scoring"
)

// CreateRequest carries the full profile shape. Organization name, mission,
// focus areas and geographic scope are required.
type CreateRequest struct {
	OrganizationName string   `json:"organization_name"`
	MissionStatement string   `json:"mission_statement"`
	FocusAreas       []string `json:"focus_areas"`
	GeographicScope  []string `json:"geographic_scope"`

	FoundedYear        *int   `json:"founded_year"`
	OrganizationType   string `json:"organization_type"`
	RegistrationNumber string `json:"registration_number"`
	Website            string `json:"website"`

	ContactPerson string `json:"contact_person"`
	ContactEmail  string `json:"contact_email"`
	ContactPhone  string `json:"contact_phone"`
	Address       string `json:"address"`

	ProgramsServices    []string `json:"programs_services"`
	TargetBeneficiaries []string `json:"target_beneficiaries"`
	AnnualBudgetRange   string   `json:"annual_budget_range"`
	StaffSize           string   `json:"staff_size"`

	PastProjects      []PastProject `json:"past_projects"`
	Partnerships      []string      `json:"partnerships"`
	AwardsRecognition []string      `json:"awards_recognition"`

	FundingSources  []string `json:"funding_sources"`
	GrantExperience string   `json:"grant_experience"`
}

// UpdateRequest updates only the fields that are set. Nil pointers and nil
// slices leave the stored value untouched.
type UpdateRequest struct {
	OrganizationName *string  `json:"organization_name"`
	MissionStatement *string  `json:"mission_statement"`
	FocusAreas       []string `json:"focus_areas"`
	GeographicScope  []string `json:"geographic_scope"`

	FoundedYear        *int    `json:"founded_year"`
	OrganizationType   *string `json:"organization_type"`
	RegistrationNumber *string `json:"registration_number"`
	Website            *string `json:"website"`

	ContactPerson *string `json:"contact_person"`
	ContactEmail  *string `json:"contact_email"`
	ContactPhone  *string `json:"contact_phone"`
	Address       *string `json:"address"`

	ProgramsServices    []string `json:"programs_services"`
	TargetBeneficiaries []string `json:"target_beneficiaries"`
	AnnualBudgetRange   *string  `json:"annual_budget_range"`
	StaffSize           *string  `json:"staff_size"`

	PastProjects      []PastProject `json:"past_projects"`
	Partnerships      []string      `json:"partnerships"`
	AwardsRecognition []string      `json:"awards_recognition"`

	FundingSources  []string `json:"funding_sources"`
	GrantExperience *string  `json:"grant_experience"`
}

// SimplifiedProfile is the six-field shape used by the generation flow.
type SimplifiedProfile struct {
	OrgName      string   `json:"org_name"`
	Mission      string   `json:"mission"`
	Sectors      []string `json:"sectors"`
	Countries    []string `json:"countries"`
	PastProjects string   `json:"past_projects"`
	Staffing     string   `json:"staffing"`
}

// Service manages NGO profiles. The full CRUD surface maintains the weighted
// completeness score; the simplified surface feeds prompt building and
// readiness gating with the flat score.
type Service interface {
	Create(ctx context.Context, userID string, req CreateRequest) (*NGOProfile, error)
	GetByUserID(ctx context.Context, userID string) (*NGOProfile, error)
	Update(ctx context.Context, userID string, req UpdateRequest) (*NGOProfile, error)
	Deactivate(ctx context.Context, userID string) error
	Verify(ctx context.Context, userID string) error

	GetSimplified(ctx context.Context, userID string) (*SimplifiedProfile, error)
	Upsert(ctx context.Context, userID string, simplified SimplifiedProfile) (int, error)
	StructureForPrompt(ctx context.Context, userID string) scoring.PromptProfile
	Score(ctx context.Context, userID string) int
}

type Repository interface {
	FindActiveByUserID(ctx context.Context, userID string) (*NGOProfile, error)
	Create(ctx context.Context, profile *NGOProfile) error
	Save(ctx context.Context, profile *NGOProfile) error
	Deactivate(ctx context.Context, userID string) (bool, error)
	Verify(ctx context.Context, userID string) (bool, error)
}
