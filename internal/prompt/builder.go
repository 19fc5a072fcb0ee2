// Package prompt assembles generation prompts from structured profile and
// opportunity data. Pure formatting, no I/O.
package prompt

import (
	"fmt"
	"strings"
	"time"

	fundingdomain "github.com/ngoinfo/copilot/internal/funding/domain"
	"github.com/ngoinfo/copilot/internal/scoring"
)

// maxCustomInstructions bounds user-supplied instruction text so it cannot
// drown out the structured sections.
const maxCustomInstructions = 2000

var requiredSections = `REQUIRED SECTIONS:
- Executive Summary
- Problem Statement
- Project Description
- Methodology and Approach
- Timeline
- Budget Overview
- Expected Outcomes and Impact
- Organization Capacity and Experience
- Sustainability Plan
- Evaluation and Monitoring`

// BuildOpportunityPrompt builds the full generation prompt for a stored
// funding opportunity.
func BuildOpportunityPrompt(profile scoring.PromptProfile, opportunity *fundingdomain.FundingOpportunity, customInstructions string) string {
	var b strings.Builder

	b.WriteString("You are an expert grant writer specializing in NGO proposals. ")
	b.WriteString("Generate a comprehensive, professional proposal that aligns with the funding requirements and showcases the organization's capabilities.\n\n")

	b.WriteString("ORGANIZATION PROFILE:\n")
	b.WriteString(formatProfile(profile))
	b.WriteString("\n\nFUNDING OPPORTUNITY:\n")
	b.WriteString(formatOpportunity(opportunity))
	b.WriteString("\n\nDONOR-SPECIFIC GUIDELINES:\n")
	b.WriteString(ResolveDonorTemplate(opportunity.DonorOrganization))
	b.WriteString("\n\n")
	b.WriteString(requiredSections)
	writeCustomInstructions(&b, customInstructions)
	b.WriteString("\n\nGenerate a complete proposal that follows best practices for grant writing and maximizes the chances of funding approval.")

	return b.String()
}

// BuildBriefPrompt builds the generation prompt for a free-form brief when
// no stored opportunity is referenced.
func BuildBriefPrompt(profile scoring.PromptProfile, brief string, customInstructions string) string {
	var b strings.Builder

	b.WriteString("You are an expert grant writer specializing in NGO proposals. ")
	b.WriteString("Use the following donor brief and NGO profile to generate a specific, credible, and compelling grant proposal written in a natural, professional tone.\n\n")

	b.WriteString("ORGANIZATION PROFILE:\n")
	b.WriteString(formatProfile(profile))
	b.WriteString("\n\nDONOR BRIEF:\n")
	b.WriteString(strings.TrimSpace(brief))
	b.WriteString("\n\nDONOR-SPECIFIC GUIDELINES:\n")
	b.WriteString(defaultTemplate)
	b.WriteString("\n\n")
	b.WriteString(requiredSections)
	writeCustomInstructions(&b, customInstructions)
	b.WriteString("\n\nGenerate a complete proposal that closely reflects the organization's actual history, mission, and capacity.")

	return b.String()
}

func formatProfile(profile scoring.PromptProfile) string {
	return fmt.Sprintf(`Organization Name: %s
Mission Statement: %s
Focus Areas: %s
Geographic Scope: %s
Past Projects: %s
Staffing: %s`,
		profile.OrgName,
		profile.Mission,
		strings.Join(profile.Sectors, ", "),
		strings.Join(profile.Countries, ", "),
		profile.PastProjects,
		profile.Staffing,
	)
}

func formatOpportunity(opportunity *fundingdomain.FundingOpportunity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Title: %s\n", opportunity.Title)
	fmt.Fprintf(&b, "Donor Organization: %s\n", orDefault(opportunity.DonorOrganization))
	fmt.Fprintf(&b, "Funding Type: %s\n", orDefault(opportunity.FundingType))
	fmt.Fprintf(&b, "Description: %s", orDefault(opportunity.Description))

	if amount := formatAmount(opportunity); amount != "" {
		b.WriteString("\nFunding Amount: " + amount)
	}
	if opportunity.ApplicationDeadline != nil {
		b.WriteString("\nApplication Deadline: " + opportunity.ApplicationDeadline.UTC().Format(time.DateOnly))
	}
	if len(opportunity.FocusAreas) > 0 {
		b.WriteString("\nFocus Areas: " + strings.Join(opportunity.FocusAreas, ", "))
	}
	if len(opportunity.GeographicFocus) > 0 {
		b.WriteString("\nGeographic Focus: " + strings.Join(opportunity.GeographicFocus, ", "))
	}
	if len(opportunity.EligibilityCriteria) > 0 {
		b.WriteString("\nEligibility Criteria:")
		for _, criterion := range opportunity.EligibilityCriteria {
			b.WriteString("\n- " + criterion)
		}
	}
	if len(opportunity.RequiredDocuments) > 0 {
		b.WriteString("\nRequired Documents: " + strings.Join(opportunity.RequiredDocuments, ", "))
	}
	if opportunity.ApplicationProcess != "" {
		b.WriteString("\nApplication Process: " + opportunity.ApplicationProcess)
	}
	if len(opportunity.Keywords) > 0 {
		b.WriteString("\nKeywords: " + strings.Join(opportunity.Keywords, ", "))
	}

	return b.String()
}

func formatAmount(opportunity *fundingdomain.FundingOpportunity) string {
	currency := opportunity.Currency
	if currency == "" {
		currency = "$"
	}
	switch {
	case opportunity.AmountMin != nil && opportunity.AmountMax != nil:
		return fmt.Sprintf("%s%.0f - %s%.0f", currency, *opportunity.AmountMin, currency, *opportunity.AmountMax)
	case opportunity.AmountMax != nil:
		return fmt.Sprintf("Up to %s%.0f", currency, *opportunity.AmountMax)
	case opportunity.AmountMin != nil:
		return fmt.Sprintf("Minimum %s%.0f", currency, *opportunity.AmountMin)
	}
	return ""
}

func writeCustomInstructions(b *strings.Builder, customInstructions string) {
	customInstructions = strings.TrimSpace(customInstructions)
	if customInstructions == "" {
		return
	}
	if len(customInstructions) > maxCustomInstructions {
		customInstructions = customInstructions[:maxCustomInstructions]
	}
	b.WriteString("\n\nCUSTOM INSTRUCTIONS:\n")
	b.WriteString(customInstructions)
}

func orDefault(value string) string {
	if value == "" {
		return "Not specified"
	}
	return value
}
