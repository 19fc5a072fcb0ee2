package prompt

import (
	"strings"
	"testing"

	fundingdomain "github.com/ngoinfo/copilot/internal/funding/domain"
	"github.com/ngoinfo/copilot/internal/scoring"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func testProfile() scoring.PromptProfile {
	return scoring.PromptProfile{
		OrgName:      "Water for All",
		Mission:      "Clean water access",
		Sectors:      []string{"WASH"},
		Countries:    []string{"Kenya"},
		PastProjects: "Boreholes: Drilled 40 wells",
		Staffing:     "12 staff",
	}
}

func TestBuildOpportunityPromptSections(t *testing.T) {
	amountMin := 25000.0
	amountMax := 150000.0
	opportunity := &fundingdomain.FundingOpportunity{
		ID:                42,
		Title:             "Community Water Grant",
		DonorOrganization: "Gates Foundation",
		AmountMin:         &amountMin,
		AmountMax:         &amountMax,
		Currency:          "USD",
		FocusAreas:        datatypes.NewJSONSlice([]string{"Water Access"}),
	}

	built := BuildOpportunityPrompt(testProfile(), opportunity, "Keep it under five pages.")

	assert.Contains(t, built, "ORGANIZATION PROFILE:")
	assert.Contains(t, built, "Organization Name: Water for All")
	assert.Contains(t, built, "Title: Community Water Grant")
	assert.Contains(t, built, "Funding Amount: USD25000 - USD150000")
	assert.Contains(t, built, "GATES FOUNDATION SPECIFIC GUIDELINES")
	assert.Contains(t, built, "REQUIRED SECTIONS:")
	assert.Contains(t, built, "CUSTOM INSTRUCTIONS:\nKeep it under five pages.")
}

func TestBuildOpportunityPromptUnknownDonorFallsBack(t *testing.T) {
	opportunity := &fundingdomain.FundingOpportunity{
		Title:             "Local Grant",
		DonorOrganization: "Tiny Family Trust",
	}

	built := BuildOpportunityPrompt(testProfile(), opportunity, "")
	assert.Contains(t, built, "GENERAL BEST PRACTICES:")
	assert.NotContains(t, built, "CUSTOM INSTRUCTIONS:")
}

func TestBuildBriefPrompt(t *testing.T) {
	built := BuildBriefPrompt(testProfile(), "Fund school water tanks in Turkana.", "")

	assert.Contains(t, built, "DONOR BRIEF:\nFund school water tanks in Turkana.")
	assert.Contains(t, built, "GENERAL BEST PRACTICES:")
	assert.Contains(t, built, "REQUIRED SECTIONS:")
}

func TestCustomInstructionsAreBounded(t *testing.T) {
	long := strings.Repeat("a", maxCustomInstructions+500)
	built := BuildBriefPrompt(testProfile(), "brief", long)

	assert.Contains(t, built, strings.Repeat("a", maxCustomInstructions))
	assert.NotContains(t, built, strings.Repeat("a", maxCustomInstructions+1))
}

func TestResolveDonorTemplateVariants(t *testing.T) {
	assert.Contains(t, ResolveDonorTemplate("Bill & Melinda Gates Foundation"), "GATES FOUNDATION")
	assert.Contains(t, ResolveDonorTemplate("US-AID Mission Kenya"), "USAID")
	assert.Contains(t, ResolveDonorTemplate("European Union Delegation"), "EUROPEAN UNION")
	assert.Contains(t, ResolveDonorTemplate(""), "GENERAL BEST PRACTICES")
}
