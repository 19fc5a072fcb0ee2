package generator

import "strings"

// extractTitle returns the first non-empty, non-heading line of the draft.
func extractTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return line
		}
	}
	return ""
}

// extractExecutiveSummary collects the body lines between the "executive
// summary" heading and the next heading.
func extractExecutiveSummary(content string) string {
	start := strings.Index(strings.ToLower(content), "executive summary")
	if start == -1 {
		return ""
	}

	var summary []string
	inSummary := false
	for _, line := range strings.Split(content[start:], "\n") {
		line = strings.TrimSpace(line)
		if strings.Contains(strings.ToLower(line), "executive summary") {
			inSummary = true
			continue
		}
		if !inSummary {
			continue
		}
		if line != "" && !strings.HasPrefix(line, "#") {
			summary = append(summary, line)
		} else if strings.HasPrefix(line, "#") && len(summary) > 0 {
			break
		}
	}
	return strings.Join(summary, " ")
}
