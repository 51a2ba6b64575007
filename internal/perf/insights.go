package perf

// Optimization is one identified optimization opportunity.
type Optimization struct {
	Category         string `json:"category"`
	Priority         string `json:"priority"`
	Description      string `json:"description"`
	EstimatedSavings string `json:"estimated_savings"`
}

// UXImpact summarizes how the vitals translate to user experience.
type UXImpact struct {
	LoadingExperience string `json:"loading_experience"`
	VisualStability   string `json:"visual_stability"`
	Interactivity     string `json:"interactivity"`
	OverallUXRating   string `json:"overall_ux_rating"`
}

// Insights is the analysis layered on top of the raw Lighthouse data.
type Insights struct {
	OverallAssessment         string         `json:"overall_assessment"`
	CriticalIssues            []string       `json:"critical_issues"`
	OptimizationOpportunities []Optimization `json:"optimization_opportunities"`
	CompetitiveAnalysis       string         `json:"competitive_analysis"`
	UserExperienceImpact      UXImpact       `json:"user_experience_impact"`
}

// HeuristicInsights derives insights from audit scores alone. It backs the
// model-generated analysis when no provider is reachable.
func HeuristicInsights(report *LighthouseReport, vitals CoreVitals) Insights {
	performanceScore := report.categoryScore("performance", 0.5)
	return Insights{
		OverallAssessment:         assessPerformance(performanceScore),
		CriticalIssues:            criticalIssues(report),
		OptimizationOpportunities: optimizations(report),
		CompetitiveAnalysis:       competitiveInsight(performanceScore),
		UserExperienceImpact:      uxImpact(vitals),
	}
}

func assessPerformance(score float64) string {
	switch {
	case score >= 0.9:
		return "Excellent performance - site loads quickly and provides great user experience"
	case score >= 0.7:
		return "Good performance with room for optimization"
	case score >= 0.5:
		return "Moderate performance - needs attention to improve user experience"
	default:
		return "Poor performance - urgent optimization required"
	}
}

func criticalIssues(report *LighthouseReport) []string {
	issues := []string{}
	if report.auditScore("largest-contentful-paint", 1) < 0.5 {
		issues = append(issues, "Largest Contentful Paint is too slow")
	}
	if report.auditScore("cumulative-layout-shift", 1) < 0.5 {
		issues = append(issues, "Cumulative Layout Shift causes visual instability")
	}
	if report.auditScore("unused-css-rules", 1) < 0.5 {
		issues = append(issues, "Significant unused CSS detected")
	}
	if report.auditScore("render-blocking-resources", 1) < 0.5 {
		issues = append(issues, "Render-blocking resources delay page rendering")
	}
	return issues
}

func optimizations(report *LighthouseReport) []Optimization {
	opts := []Optimization{}
	if report.auditScore("uses-optimized-images", 1) < 0.9 {
		opts = append(opts, Optimization{
			Category:         "Images",
			Priority:         "High",
			Description:      "Optimize images for better compression",
			EstimatedSavings: "20-40% file size reduction",
		})
	}
	if report.auditScore("unused-javascript", 1) < 0.9 {
		opts = append(opts, Optimization{
			Category:         "JavaScript",
			Priority:         "Medium",
			Description:      "Remove unused JavaScript code",
			EstimatedSavings: "10-30% bundle size reduction",
		})
	}
	if report.auditScore("unused-css-rules", 1) < 0.9 {
		opts = append(opts, Optimization{
			Category:         "CSS",
			Priority:         "Medium",
			Description:      "Remove unused CSS rules",
			EstimatedSavings: "15-25% CSS size reduction",
		})
	}
	return opts
}

func competitiveInsight(score float64) string {
	switch {
	case score >= 0.9:
		return "Performance is in the top 10% of websites"
	case score >= 0.7:
		return "Performance is above average but competitors may have an edge"
	default:
		return "Performance is below industry standards"
	}
}

func uxImpact(vitals CoreVitals) UXImpact {
	impact := UXImpact{
		LoadingExperience: "Slow",
		VisualStability:   "Unstable",
		Interactivity:     "Delayed",
	}
	if vitals.LargestContentfulPaint.Score > 0.7 {
		impact.LoadingExperience = "Fast"
	}
	if vitals.CumulativeLayoutShift.Score > 0.7 {
		impact.VisualStability = "Stable"
	}
	if vitals.FirstInputDelay.Score > 0.7 {
		impact.Interactivity = "Responsive"
	}
	impact.OverallUXRating = uxRating(vitals.LargestContentfulPaint.Score, vitals.CumulativeLayoutShift.Score)
	return impact
}

func uxRating(lcpScore, clsScore float64) string {
	avg := (lcpScore + clsScore) / 2
	switch {
	case avg >= 0.8:
		return "Excellent"
	case avg >= 0.6:
		return "Good"
	case avg >= 0.4:
		return "Fair"
	default:
		return "Poor"
	}
}

// Recommendation is one actionable performance recommendation.
type Recommendation struct {
	Category       string `json:"category"`
	Priority       string `json:"priority"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Implementation string `json:"implementation"`
	ExpectedImpact string `json:"expected_impact"`
}

// BaselineRecommendations are always included in the report.
func BaselineRecommendations() []Recommendation {
	return []Recommendation{
		{
			Category:       "Performance",
			Priority:       "High",
			Title:          "Optimize Critical Rendering Path",
			Description:    "Minimize render-blocking resources and optimize CSS delivery",
			Implementation: "Use CSS-in-JS or critical CSS extraction",
			ExpectedImpact: "Improve FCP by 0.5-1.0 seconds",
		},
		{
			Category:       "Performance",
			Priority:       "Medium",
			Title:          "Implement Image Optimization",
			Description:    "Use WebP format and responsive images",
			Implementation: "Convert images to WebP and implement srcset",
			ExpectedImpact: "Reduce image payload by 25-35%",
		},
	}
}
