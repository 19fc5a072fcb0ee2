package domain

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// QuickFields is the structured alternative to a free-form brief.
type QuickFields struct {
	ProjectTitle        string `json:"project_title"`
	ProblemStatement    string `json:"problem_statement"`
	TargetBeneficiaries string `json:"target_beneficiaries"`
	Activities          string `json:"activities"`
	Budget              string `json:"budget"`
	DurationMonths      int    `json:"duration_months"`
}

// Brief renders the quick fields as a donor brief for prompt building.
func (q QuickFields) Brief() string {
	var b strings.Builder
	writeLine := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			b.WriteString(label + ": " + strings.TrimSpace(value) + "\n")
		}
	}
	writeLine("Project Title", q.ProjectTitle)
	writeLine("Problem Statement", q.ProblemStatement)
	writeLine("Target Beneficiaries", q.TargetBeneficiaries)
	writeLine("Planned Activities", q.Activities)
	writeLine("Budget", q.Budget)
	if q.DurationMonths > 0 {
		b.WriteString("Duration: " + strconv.Itoa(q.DurationMonths) + " months\n")
	}
	return strings.TrimSpace(b.String())
}

// IsZero reports whether no quick field is populated.
func (q QuickFields) IsZero() bool {
	return q.Brief() == ""
}

// GenerateRequest is the orchestrator input. Exactly one of
// FundingOpportunityID or CustomBrief/QuickFields must be populated.
type GenerateRequest struct {
	FundingOpportunityID *int64       `json:"funding_opportunity_id"`
	CustomBrief          string       `json:"custom_brief"`
	QuickFields          *QuickFields `json:"quick_fields"`
	CustomInstructions   string       `json:"custom_instructions"`

	IdempotencyKey string `json:"-"`
}

// GenerateOutcome carries either a freshly persisted proposal or, on an
// idempotent replay, the stored response bytes verbatim.
type GenerateOutcome struct {
	Proposal   *Proposal
	Body       json.RawMessage
	StatusCode int
	Replayed   bool
}

type ListRequest struct {
	Status string
	Limit  int
	Offset int
}

type UpdateRequest struct {
	Title            *string `json:"title"`
	Content          *string `json:"content"`
	ExecutiveSummary *string `json:"executive_summary"`
	Status           *string `json:"status"`
}

// Service is the proposal orchestrator and CRUD surface. All reads and
// writes are owner-scoped by user id.
type Service interface {
	Generate(ctx context.Context, userID string, req GenerateRequest) (*GenerateOutcome, error)
	GetByID(ctx context.Context, userID, proposalID string) (*Proposal, error)
	List(ctx context.Context, userID string, req ListRequest) ([]Proposal, error)
	Update(ctx context.Context, userID, proposalID string, req UpdateRequest) (*Proposal, error)
	Rate(ctx context.Context, userID, proposalID string, rating int, feedback string) (*Proposal, error)
	Archive(ctx context.Context, userID, proposalID string) error
	TrackExport(ctx context.Context, userID, proposalID, format string) error
}

type Repository interface {
	FindActiveByID(ctx context.Context, userID, proposalID string) (*Proposal, error)
	ListActive(ctx context.Context, userID string, req ListRequest) ([]Proposal, error)
	Save(ctx context.Context, proposal *Proposal) error
	Archive(ctx context.Context, userID, proposalID string) (bool, error)
}
