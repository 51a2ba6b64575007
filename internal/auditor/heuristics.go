package auditor

import (
	"sort"
	"strings"
)

// baseScore is the starting score for every file before deductions.
const baseScore = 85

// FileAnalysis is the heuristic quality assessment of a single file.
type FileAnalysis struct {
	Score               int      `json:"score"`
	Size                int      `json:"size"`
	Lines               int      `json:"lines"`
	SecurityIssues      []string `json:"security_issues,omitempty"`
	PerformanceIssues   []string `json:"performance_issues,omitempty"`
	AccessibilityIssues []string `json:"accessibility_issues,omitempty"`
	SEOIssues           []string `json:"seo_issues,omitempty"`
	BestPractices       []string `json:"best_practices,omitempty"`
}

// QualityAnalysis aggregates per-file heuristics into an overall view.
type QualityAnalysis struct {
	OverallScore        float64                 `json:"overall_score"`
	FileAnalysis        map[string]FileAnalysis `json:"file_analysis"`
	SecurityIssues      []string                `json:"security_issues"`
	PerformanceIssues   []string                `json:"performance_issues"`
	AccessibilityIssues []string                `json:"accessibility_issues"`
	SEOIssues           []string                `json:"seo_issues"`
	BestPractices       []string                `json:"best_practices"`
}

// AnalyzeFiles runs the heuristic track over every generated file and
// averages the per-file scores. The checks are plain substring matches;
// they flag likely problems, they do not parse the files.
func AnalyzeFiles(files map[string]string) *QualityAnalysis {
	analysis := &QualityAnalysis{
		FileAnalysis:        map[string]FileAnalysis{},
		SecurityIssues:      []string{},
		PerformanceIssues:   []string{},
		AccessibilityIssues: []string{},
		SEOIssues:           []string{},
		BestPractices:       []string{},
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0
	for _, name := range names {
		fa := analyzeFile(name, files[name])
		analysis.FileAnalysis[name] = fa
		total += fa.Score

		analysis.SecurityIssues = append(analysis.SecurityIssues, fa.SecurityIssues...)
		analysis.PerformanceIssues = append(analysis.PerformanceIssues, fa.PerformanceIssues...)
		analysis.AccessibilityIssues = append(analysis.AccessibilityIssues, fa.AccessibilityIssues...)
		analysis.SEOIssues = append(analysis.SEOIssues, fa.SEOIssues...)
		analysis.BestPractices = append(analysis.BestPractices, fa.BestPractices...)
	}

	if len(names) > 0 {
		analysis.OverallScore = float64(total) / float64(len(names))
	}

	return analysis
}

func analyzeFile(name, content string) FileAnalysis {
	fa := FileAnalysis{
		Score: baseScore,
		Size:  len(content),
		Lines: strings.Count(content, "\n") + 1,
	}

	switch {
	case strings.HasSuffix(name, ".html"):
		analyzeHTML(&fa, content)
	case strings.HasSuffix(name, ".css"):
		analyzeCSS(&fa, content)
	case strings.HasSuffix(name, ".tsx"), strings.HasSuffix(name, ".ts"),
		strings.HasSuffix(name, ".js"), strings.HasSuffix(name, ".jsx"):
		analyzeJS(&fa, content)
	}

	return fa
}

func analyzeHTML(fa *FileAnalysis, content string) {
	if strings.Contains(content, "<img") && !strings.Contains(content, "alt=") {
		fa.AccessibilityIssues = append(fa.AccessibilityIssues, "Images missing alt attributes")
		fa.Score -= 5
	}
	if !strings.Contains(content, "aria-label") && !strings.Contains(content, "role=") {
		fa.AccessibilityIssues = append(fa.AccessibilityIssues, "Limited ARIA attributes for screen readers")
		fa.Score -= 3
	}

	if !strings.Contains(content, "<title>") {
		fa.SEOIssues = append(fa.SEOIssues, "Missing page title")
		fa.Score -= 10
	}
	if !strings.Contains(content, `meta name="description"`) {
		fa.SEOIssues = append(fa.SEOIssues, "Missing meta description")
		fa.Score -= 5
	}

	if strings.Contains(content, "<img") && !strings.Contains(content, `loading="lazy"`) {
		fa.PerformanceIssues = append(fa.PerformanceIssues, "Images not using lazy loading")
		fa.Score -= 3
	}

	if strings.Contains(content, "<!DOCTYPE html>") {
		fa.BestPractices = append(fa.BestPractices, "Proper HTML5 doctype used")
	} else {
		fa.Score -= 5
	}
	if strings.Contains(content, "viewport") {
		fa.BestPractices = append(fa.BestPractices, "Responsive viewport meta tag present")
	} else {
		fa.Score -= 5
	}
}

func analyzeCSS(fa *FileAnalysis, content string) {
	if strings.Contains(content, "will-change") {
		fa.PerformanceIssues = append(fa.PerformanceIssues, "will-change property used - monitor for overuse")
	}
	if strings.Contains(content, "@import") {
		fa.PerformanceIssues = append(fa.PerformanceIssues, "@import statements can block rendering")
		fa.Score -= 3
	}

	if strings.Contains(content, "prefers-reduced-motion") {
		fa.BestPractices = append(fa.BestPractices, "Respects user motion preferences")
	} else {
		fa.AccessibilityIssues = append(fa.AccessibilityIssues, "Missing reduced motion media query")
		fa.Score -= 3
	}
	if strings.Contains(content, "focus:") || strings.Contains(content, ":focus") {
		fa.BestPractices = append(fa.BestPractices, "Focus states defined for accessibility")
	} else {
		fa.AccessibilityIssues = append(fa.AccessibilityIssues, "Missing focus states for interactive elements")
		fa.Score -= 5
	}

	if strings.Contains(content, "grid") || strings.Contains(content, "flex") {
		fa.BestPractices = append(fa.BestPractices, "Modern layout methods used")
	}
	if strings.Contains(content, "var(") {
		fa.BestPractices = append(fa.BestPractices, "CSS custom properties used")
	}
}

func analyzeJS(fa *FileAnalysis, content string) {
	if strings.Contains(content, "innerHTML") {
		fa.SecurityIssues = append(fa.SecurityIssues, "innerHTML usage detected - ensure XSS protection")
		fa.Score -= 5
	}
	if strings.Contains(content, "eval(") {
		fa.SecurityIssues = append(fa.SecurityIssues, "eval() usage is dangerous")
		fa.Score -= 10
	}

	if strings.Contains(content, "addEventListener") {
		fa.BestPractices = append(fa.BestPractices, "Event listeners used appropriately")
	}
	if strings.Contains(content, "querySelector") {
		fa.BestPractices = append(fa.BestPractices, "Modern DOM selection methods")
	}
	if strings.Contains(content, ": string") || strings.Contains(content, ": number") {
		fa.BestPractices = append(fa.BestPractices, "TypeScript typing detected")
	}
}
