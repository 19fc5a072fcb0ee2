package scoring

import (
	"math"
	"strings"
)

// OpportunityFacts carries the opportunity attributes the alignment score
// inspects. Empty facts (custom-brief generation) earn no alignment bonuses.
type OpportunityFacts struct {
	DonorOrganization string
	FocusAreas        []string
	OrganizationTypes []string
	GeographicFocus   []string
	Keywords          []string
}

// ProfileFacts carries the profile attributes the alignment score inspects.
type ProfileFacts struct {
	FocusAreas       []string
	OrganizationType string
	GeographicScope  string
}

// Scores are the generated proposal quality heuristics, each in [0, 1].
type Scores struct {
	Confidence   float64
	Alignment    float64
	Completeness float64
}

// Neutral is the fallback value when a sub-score cannot be computed.
const Neutral = 0.5

// ProposalScores computes all three quality heuristics for generated text.
// A failure in any sub-score degrades that score to Neutral rather than
// failing the generation.
func ProposalScores(content string, opp OpportunityFacts, prof ProfileFacts) Scores {
	return Scores{
		Confidence:   safeScore(func() float64 { return confidenceScore(content) }),
		Alignment:    safeScore(func() float64 { return alignmentScore(content, opp, prof) }),
		Completeness: safeScore(func() float64 { return completenessScore(content) }),
	}
}

func safeScore(fn func() float64) (score float64) {
	defer func() {
		if recover() != nil {
			score = Neutral
		}
	}()
	return fn()
}

var structuralKeywords = []string{"budget", "methodology", "timeline", "impact"}

func confidenceScore(content string) float64 {
	score := 0.0
	lower := strings.ToLower(content)

	wordCount := len(strings.Fields(content))
	switch {
	case wordCount >= 500:
		score += 0.2
	case wordCount >= 300:
		score += 0.15
	case wordCount >= 200:
		score += 0.1
	}

	if strings.Contains(lower, "executive summary") {
		score += 0.15
	}
	for _, keyword := range structuralKeywords {
		if strings.Contains(lower, keyword) {
			score += 0.1
		}
	}

	if len(strings.Split(content, ".")) >= 10 {
		score += 0.1
	}

	return clamp(score)
}

func alignmentScore(content string, opp OpportunityFacts, prof ProfileFacts) float64 {
	score := 0.0
	lower := strings.ToLower(content)

	for _, area := range opp.FocusAreas {
		area = strings.ToLower(strings.TrimSpace(area))
		if area != "" && strings.Contains(lower, area) {
			score += 0.2
			break
		}
	}

	if profType := strings.ToLower(strings.TrimSpace(prof.OrganizationType)); profType != "" {
		for _, orgType := range opp.OrganizationTypes {
			orgType = strings.ToLower(strings.TrimSpace(orgType))
			if orgType != "" && strings.Contains(profType, orgType) {
				score += 0.15
				break
			}
		}
	}

	if prof.GeographicScope != "" {
		scope := strings.ToLower(prof.GeographicScope)
		for _, region := range opp.GeographicFocus {
			region = strings.ToLower(strings.TrimSpace(region))
			if region != "" && strings.Contains(scope, region) {
				score += 0.15
				break
			}
		}
	}

	matches := 0
	for _, keyword := range opp.Keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" && strings.Contains(lower, keyword) {
			matches++
		}
	}
	score += math.Min(float64(matches)*0.1, 0.3)

	if donor := strings.ToLower(strings.TrimSpace(opp.DonorOrganization)); donor != "" && strings.Contains(lower, donor) {
		score += 0.1
	}

	return clamp(score)
}

var expectedSections = []string{
	"executive summary",
	"problem statement",
	"objectives",
	"methodology",
	"budget",
	"timeline",
	"impact",
	"sustainability",
	"evaluation",
	"conclusion",
}

var (
	financialKeywords = []string{"budget", "cost", "funding", "expense", "financial"}
	outcomeKeywords   = []string{"target", "goal", "outcome", "result", "metric", "indicator"}
)

func completenessScore(content string) float64 {
	lower := strings.ToLower(content)

	found := 0
	for _, section := range expectedSections {
		if strings.Contains(lower, section) {
			found++
		}
	}
	score := float64(found) / float64(len(expectedSections)) * 0.6

	if containsAny(lower, financialKeywords) {
		score += 0.15
	}
	if containsAny(lower, outcomeKeywords) {
		score += 0.15
	}
	if strings.Contains(lower, "organization") || strings.Contains(lower, "ngo") {
		score += 0.1
	}

	return clamp(score)
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
