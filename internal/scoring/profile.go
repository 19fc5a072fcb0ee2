// Package scoring holds the profile completeness policies and the proposal
// quality heuristics. The two profile policies are intentionally separate:
// the weighted policy drives the stored completeness score on full profiles,
// the flat policy gates generation readiness on the simplified profile.
package scoring

import "strings"

// ProfileFields is the field view the weighted policy scores.
type ProfileFields struct {
	OrganizationName string
	MissionStatement string
	FocusAreas       []string
	GeographicScope  string

	FoundedYear         *int
	OrganizationType    string
	Website             string
	ContactPerson       string
	ContactEmail        string
	ProgramsServices    []string
	TargetBeneficiaries string
	AnnualBudgetRange   string
	StaffSize           string

	RegistrationNumber string
	ContactPhone       string
	Address            string
	PastProjects       []string
	Partnerships       []string
	AwardsRecognition  []string
	FundingSources     []string
	GrantExperience    string
}

type weightedField struct {
	weight  int
	present bool
}

// WeightedCompleteness scores a full profile 0-100. Required fields carry
// the heaviest weights, list fields only count when non-empty, and the
// result is the integer percentage of earned over total weight.
func WeightedCompleteness(f ProfileFields) int {
	fields := []weightedField{
		// required
		{10, f.OrganizationName != ""},
		{10, f.MissionStatement != ""},
		{8, len(f.FocusAreas) > 0},
		{8, f.GeographicScope != ""},
		// important
		{5, f.FoundedYear != nil},
		{5, f.OrganizationType != ""},
		{5, f.Website != ""},
		{5, f.ContactPerson != ""},
		{5, f.ContactEmail != ""},
		{6, len(f.ProgramsServices) > 0},
		{6, f.TargetBeneficiaries != ""},
		{4, f.AnnualBudgetRange != ""},
		{4, f.StaffSize != ""},
		// optional
		{2, f.RegistrationNumber != ""},
		{2, f.ContactPhone != ""},
		{2, f.Address != ""},
		{3, len(f.PastProjects) > 0},
		{3, len(f.Partnerships) > 0},
		{2, len(f.AwardsRecognition) > 0},
		{3, len(f.FundingSources) > 0},
		{3, f.GrantExperience != ""},
	}

	total := 0
	earned := 0
	for _, field := range fields {
		total += field.weight
		if field.present {
			earned += field.weight
		}
	}
	if total == 0 {
		return 0
	}
	return int(float64(earned) / float64(total) * 100)
}

// PromptProfile is the simplified profile shape used for prompt building
// and readiness gating.
type PromptProfile struct {
	OrgName      string
	Mission      string
	Sectors      []string
	Countries    []string
	PastProjects string
	Staffing     string
}

// ReadyThreshold is the flat score at which a profile can drive generation.
const ReadyThreshold = 60

// FlatCompleteness scores the simplified profile with five equal 20-point
// checks, capped at 100.
func FlatCompleteness(p PromptProfile) int {
	score := 0
	if strings.TrimSpace(p.Mission) != "" {
		score += 20
	}
	if len(p.Sectors) > 0 && len(p.Countries) > 0 {
		score += 20
	}
	if len(strings.TrimSpace(p.PastProjects)) >= 200 {
		score += 20
	}
	if strings.TrimSpace(p.Staffing) != "" {
		score += 20
	}
	if len(strings.TrimSpace(p.OrgName)) > 3 {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return score
}
