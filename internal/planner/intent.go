package planner

import "strings"

// Intent is the parsed understanding of a free-text pipeline command.
// Parsing is a closed vocabulary of substring matches; anything
// unrecognized falls back to a full-site analysis at medium priority.
type Intent struct {
	Action     string   `json:"action"`
	Scope      string   `json:"scope"`
	Priority   string   `json:"priority"`
	FocusAreas []string `json:"focus_areas"`
}

// ParseCommand parses a user command into an Intent.
func ParseCommand(command string) Intent {
	lower := strings.ToLower(command)

	intent := Intent{
		Action:     "analyze",
		Scope:      "full-site",
		Priority:   "medium",
		FocusAreas: []string{},
	}

	switch {
	case strings.Contains(lower, "plan-and-stage"):
		intent.Action = "plan-and-stage"
	case strings.Contains(lower, "review"):
		intent.Action = "review"
	case strings.Contains(lower, "optimize"):
		intent.Action = "optimize"
	case strings.Contains(lower, "enhance"):
		intent.Action = "enhance"
	}

	switch {
	case strings.Contains(lower, "landing") || strings.Contains(lower, "page"):
		intent.Scope = "landing-page"
	case strings.Contains(lower, "component"):
		intent.Scope = "components"
	case strings.Contains(lower, "style") || strings.Contains(lower, "css"):
		intent.Scope = "styling"
	case strings.Contains(lower, "performance"):
		intent.Scope = "performance"
	case strings.Contains(lower, "seo"):
		intent.Scope = "seo"
	}

	switch {
	case strings.Contains(lower, "urgent") || strings.Contains(lower, "critical"):
		intent.Priority = "high"
	case strings.Contains(lower, "low") || strings.Contains(lower, "minor"):
		intent.Priority = "low"
	}

	for _, fk := range focusKeywords {
		for _, kw := range fk.keywords {
			if strings.Contains(lower, kw) {
				intent.FocusAreas = append(intent.FocusAreas, fk.area)
				break
			}
		}
	}

	return intent
}

var focusKeywords = []struct {
	area     string
	keywords []string
}{
	{"performance", []string{"performance", "speed", "lighthouse", "metrics"}},
	{"accessibility", []string{"accessibility", "a11y", "wcag"}},
	{"seo", []string{"seo", "search", "ranking", "meta"}},
	{"security", []string{"security", "vulnerability", "safety"}},
}
