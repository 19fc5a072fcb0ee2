package scoring

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestConfidenceScoreEmptyContent(t *testing.T) {
	assert.InDelta(t, 0.0, confidenceScore(""), 1e-9)
}

func TestConfidenceScoreRichContent(t *testing.T) {
	var b strings.Builder
	b.WriteString("Executive Summary. ")
	b.WriteString("Our budget, methodology, timeline and impact plan follow. ")
	for i := 0; i < 60; i++ {
		b.WriteString("Each activity is sequenced against measurable milestones across ten words. ")
	}

	// 0.2 length + 0.15 summary + 4*0.1 keywords + 0.1 sentences: every bonus
	// earned tops out at 0.85.
	assert.InDelta(t, 0.85, confidenceScore(b.String()), 1e-9)
}

func TestConfidenceScoreWordCountTiers(t *testing.T) {
	short := strings.Repeat("word ", 199)
	mid := strings.Repeat("word ", 200)
	long := strings.Repeat("word ", 300)
	longest := strings.Repeat("word ", 500)

	assert.InDelta(t, 0.0, confidenceScore(short), 1e-9)
	assert.InDelta(t, 0.1, confidenceScore(mid), 1e-9)
	assert.InDelta(t, 0.15, confidenceScore(long), 1e-9)
	assert.InDelta(t, 0.2, confidenceScore(longest), 1e-9)
}

func TestAlignmentScoreZeroWithoutMatches(t *testing.T) {
	score := alignmentScore("Any proposal text.", OpportunityFacts{}, ProfileFacts{})
	assert.InDelta(t, 0.0, score, 1e-9)
}

func TestAlignmentScoreComponents(t *testing.T) {
	opp := OpportunityFacts{
		DonorOrganization: "Global Water Fund",
		FocusAreas:        []string{"Water Access"},
		OrganizationTypes: []string{"NGO"},
		GeographicFocus:   []string{"Kenya"},
		Keywords:          []string{"sanitation", "boreholes", "hygiene", "committees"},
	}
	prof := ProfileFacts{
		OrganizationType: "ngo",
		GeographicScope:  "Kenya and Uganda",
	}

	content := "We improve water access through sanitation, boreholes, hygiene " +
		"training and committees, with support from the Global Water Fund."

	// 0.2 focus + 0.15 org type + 0.15 geography + 0.3 keyword cap + 0.1 donor.
	assert.InDelta(t, 0.9, alignmentScore(content, opp, prof), 1e-9)
}

func TestAlignmentScoreOrgTypeSubstring(t *testing.T) {
	opp := OpportunityFacts{OrganizationTypes: []string{"Nonprofit"}}
	prof := ProfileFacts{OrganizationType: "registered nonprofit organization"}

	// The accepted type only has to appear within the profile's type.
	assert.InDelta(t, 0.15, alignmentScore("no other matches", opp, prof), 1e-9)

	prof.OrganizationType = "government agency"
	assert.InDelta(t, 0.0, alignmentScore("no other matches", opp, prof), 1e-9)
}

func TestAlignmentScoreKeywordCap(t *testing.T) {
	opp := OpportunityFacts{
		Keywords: []string{"alpha", "beta", "gamma", "delta", "epsilon"},
	}
	content := "alpha beta gamma delta epsilon"
	assert.InDelta(t, 0.3, alignmentScore(content, opp, ProfileFacts{}), 1e-9)
}

func TestCompletenessScoreSections(t *testing.T) {
	assert.InDelta(t, 0.0, completenessScore("Plain text with nothing expected."), 1e-9)

	allSections := strings.Join(expectedSections, ". ")
	// 0.6 for all ten sections, 0.15 financial via "budget"; no outcome
	// keyword or organization mention yet.
	assert.InDelta(t, 0.75, completenessScore(allSections), 1e-9)

	full := allSections + ". Our organization targets measurable outcomes."
	assert.InDelta(t, 1.0, completenessScore(full), 1e-9)
}

func TestProposalScoresEmptyContent(t *testing.T) {
	scores := ProposalScores("", OpportunityFacts{}, ProfileFacts{})
	assert.InDelta(t, 0.0, scores.Confidence, 1e-9)
	assert.InDelta(t, 0.0, scores.Alignment, 1e-9)
	assert.InDelta(t, 0.0, scores.Completeness, 1e-9)
}

func TestScoreProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("all scores stay within [0, 1]", prop.ForAll(
		func(content string, keywords []string) bool {
			scores := ProposalScores(content, OpportunityFacts{Keywords: keywords}, ProfileFacts{})
			for _, s := range []float64{scores.Confidence, scores.Alignment, scores.Completeness} {
				if s < 0 || s > 1 {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("longer content never lowers confidence tiers", prop.ForAll(
		func(words int) bool {
			base := strings.Repeat("word ", words)
			extended := strings.Repeat("word ", words+300)
			return confidenceScore(extended) >= confidenceScore(base)
		},
		gen.IntRange(0, 600),
	))

	properties.TestingRun(t)
}
