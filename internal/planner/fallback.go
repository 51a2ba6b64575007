package planner

// FallbackPlan is the deterministic plan used when the model is unreachable
// or returns something undecodable. It is intentionally conservative: CSS
// and performance work only, testing and backups required.
func FallbackPlan() StrategicPlan {
	return StrategicPlan{
		Analysis: Analysis{
			CurrentState: "Site analysis completed",
			Strengths:    []string{"Existing structure", "Content foundation"},
			Weaknesses:   []string{"Performance optimization needed", "Visual enhancements required"},
		},
		Opportunities: []string{
			"Performance optimization",
			"Visual design enhancement",
			"Content optimization",
			"SEO improvements",
		},
		Recommendations: []Recommendation{
			{Title: "Optimize Core Web Vitals", Priority: "high", Impact: "high", Effort: "medium"},
			{Title: "Enhance Visual Design", Priority: "medium", Impact: "high", Effort: "medium"},
		},
		ImplementationPlan: map[string]Phase{
			"phase_1": {
				Title:    "Foundation Optimization",
				Tasks:    []string{"Performance analysis", "Code optimization"},
				Duration: "1-2 days",
			},
			"phase_2": {
				Title:    "Visual Enhancement",
				Tasks:    []string{"Design improvements", "Interactive elements"},
				Duration: "2-3 days",
			},
		},
		SuccessMetrics: []string{
			"Page load time < 2s",
			"Lighthouse score > 90",
			"User engagement increase",
		},
		RiskAssessment: RiskAssessment{
			LowRisk:    []string{"CSS modifications", "Performance tweaks"},
			MediumRisk: []string{"Component restructuring"},
			HighRisk:   []string{"Major architectural changes"},
		},
		ExecutorInstructions: ExecutorInstructions{
			SafetyLevel:        "conservative",
			TestingRequired:    true,
			BackupNeeded:       true,
			ComponentsToUpdate: []string{"index.html", "index.css", "index.tsx"},
		},
	}
}
