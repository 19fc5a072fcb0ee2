package prompt

import "strings"

// donorTemplates holds per-donor guideline blocks injected into the
// generation prompt. Unknown donors get the general best-practice block.
var donorTemplates = map[string]string{
	"gates_foundation": `GATES FOUNDATION SPECIFIC GUIDELINES:
- Emphasize measurable impact and evidence-based approaches
- Focus on innovation and scalability
- Include strong monitoring and evaluation framework
- Demonstrate sustainability and long-term impact
- Use clear, concise language with specific metrics
- Include risk mitigation strategies
- Focus on underserved populations and equity`,

	"ford_foundation": `FORD FOUNDATION SPECIFIC GUIDELINES:
- Emphasize social justice and human rights
- Highlight work with marginalized communities
- Include participatory approaches and community engagement
- Show how the project addresses systemic issues
- Include capacity building and empowerment strategies
- Focus on reducing inequality`,

	"open_society_foundations": `OPEN SOCIETY FOUNDATIONS SPECIFIC GUIDELINES:
- Emphasize democracy, human rights, and rule of law
- Focus on transparency and accountability
- Include advocacy and policy reform components
- Show how the project promotes civic engagement
- Focus on protecting vulnerable populations`,

	"usaid": `USAID SPECIFIC GUIDELINES:
- Include clear development hypothesis and theory of change
- Emphasize sustainability and local ownership
- Include strong results framework with indicators
- Demonstrate cost-effectiveness and value for money
- Include gender integration and youth engagement
- Focus on building local capacity and systems`,

	"european_union": `EUROPEAN UNION SPECIFIC GUIDELINES:
- Align with EU development policies and priorities
- Include multi-stakeholder approaches
- Show clear European added value
- Include visibility and communication requirements
- Focus on sustainable development goals`,

	"world_bank": `WORLD BANK SPECIFIC GUIDELINES:
- Emphasize poverty reduction and shared prosperity
- Include strong economic analysis and justification
- Show environmental and social safeguards compliance
- Include results-based approach with clear indicators
- Focus on scalability and replicability`,

	"united_nations": `UNITED NATIONS SPECIFIC GUIDELINES:
- Align with UN Sustainable Development Goals
- Include human rights-based approach
- Show gender equality and women's empowerment
- Emphasize leaving no one behind principle
- Include climate change and environmental considerations`,
}

const defaultTemplate = `GENERAL BEST PRACTICES:
- Use clear, professional language
- Include specific, measurable outcomes
- Demonstrate organizational capacity and experience
- Show clear alignment with donor priorities
- Include realistic timeline and budget
- Emphasize sustainability and long-term impact
- Include strong monitoring and evaluation plan
- Include risk management strategies`

// ResolveDonorTemplate maps a free-form donor name to its guideline block.
func ResolveDonorTemplate(donorOrganization string) string {
	if template, ok := donorTemplates[normalizeDonorName(donorOrganization)]; ok {
		return template
	}
	return defaultTemplate
}

// DonorTemplateKey returns the identifier of the template ResolveDonorTemplate
// would pick, for audit fields on stored proposals.
func DonorTemplateKey(donorOrganization string) string {
	if key := normalizeDonorName(donorOrganization); key != "" {
		return key
	}
	return "default"
}

func normalizeDonorName(name string) string {
	normalized := strings.ToLower(name)
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	switch {
	case strings.Contains(normalized, "gates"):
		return "gates_foundation"
	case strings.Contains(normalized, "ford"):
		return "ford_foundation"
	case strings.Contains(normalized, "open_society"), strings.Contains(normalized, "soros"):
		return "open_society_foundations"
	case strings.Contains(normalized, "usaid"), strings.Contains(normalized, "us_aid"):
		return "usaid"
	case strings.Contains(normalized, "european") && strings.Contains(normalized, "union"):
		return "european_union"
	case strings.Contains(normalized, "world_bank"):
		return "world_bank"
	case strings.Contains(normalized, "united_nations"), strings.Contains(normalized, "un_"):
		return "united_nations"
	}
	return ""
}
