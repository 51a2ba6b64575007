package perf

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"sitewright/internal/llm"
)

const insightsSystemPrompt = `You are a web performance analyst. You receive Lighthouse category scores and Core Web Vitals for a site and respond with a JSON object holding your analysis:
{
  "overall_assessment": "one sentence assessment",
  "critical_issues": ["issue", ...],
  "optimization_opportunities": [{"category": "...", "priority": "High|Medium|Low", "description": "...", "estimated_savings": "..."}],
  "competitive_analysis": "one sentence",
  "user_experience_impact": {"loading_experience": "Fast|Slow", "visual_stability": "Stable|Unstable", "interactivity": "Responsive|Delayed", "overall_ux_rating": "Excellent|Good|Fair|Poor"}
}
Respond with JSON only.`

// Report is the full performance analysis written to disk.
type Report struct {
	Timestamp       string             `json:"timestamp"`
	URL             string             `json:"url"`
	LighthouseScore map[string]float64 `json:"lighthouse_score"`
	CoreWebVitals   CoreVitals         `json:"core_web_vitals"`
	AIInsights      Insights           `json:"ai_insights"`
	InsightsSource  string             `json:"insights_source"`
	Recommendations []Recommendation   `json:"recommendations"`
}

// Analyzer runs Lighthouse against a URL and layers model-generated
// insights on top, falling back to heuristics when either is unavailable.
type Analyzer struct {
	runner Runner
	client llm.Client
	logger *zap.Logger
}

func NewAnalyzer(runner Runner, client llm.Client, logger *zap.Logger) *Analyzer {
	if runner == nil {
		runner = CLIRunner{}
	}
	return &Analyzer{runner: runner, client: client, logger: logger}
}

// AnalyzeURL produces performance_analysis.json and performance.html under
// outputDir. A failed Lighthouse run degrades to representative mock data
// rather than aborting the pipeline.
func (a *Analyzer) AnalyzeURL(ctx context.Context, url, outputDir string) (*Report, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	lighthouse, err := a.runner.Run(ctx, url, outputDir)
	if err != nil {
		a.logger.Warn("lighthouse run failed, using mock data", zap.Error(err))
		lighthouse = MockReport()
	}

	vitals := ExtractCoreVitals(lighthouse)

	scores := map[string]float64{}
	for name, category := range lighthouse.Categories {
		scores[name] = category.Score
	}

	result := llm.CallJSON(ctx, a.client, a.logger, insightsSystemPrompt,
		a.buildPrompt(url, scores, vitals),
		func() Insights { return HeuristicInsights(lighthouse, vitals) })

	report := &Report{
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		URL:             url,
		LighthouseScore: scores,
		CoreWebVitals:   vitals,
		AIInsights:      result.Value,
		InsightsSource:  string(result.Source),
		Recommendations: BaselineRecommendations(),
	}

	if err := writeReportJSON(filepath.Join(outputDir, "performance_analysis.json"), report); err != nil {
		return nil, err
	}
	if err := writeHTMLReport(filepath.Join(outputDir, "performance.html"), report); err != nil {
		return nil, err
	}

	a.logger.Info("performance analysis complete",
		zap.String("url", url),
		zap.Float64("performance", scores["performance"]),
		zap.String("insights", report.InsightsSource))
	return report, nil
}

func (a *Analyzer) buildPrompt(url string, scores map[string]float64, vitals CoreVitals) string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	prompt := fmt.Sprintf("URL: %s\n\nCategory scores:\n", url)
	for _, name := range names {
		prompt += fmt.Sprintf("- %s: %.2f\n", name, scores[name])
	}
	vitalsJSON, _ := json.MarshalIndent(vitals, "", "  ")
	prompt += "\nCore Web Vitals:\n" + string(vitalsJSON) + "\n"
	return prompt
}

func writeReportJSON(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding performance report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing performance report: %w", err)
	}
	return nil
}

var htmlReportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"percent": func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Performance Analysis Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background: #f5f5f5; padding: 20px; border-radius: 8px; }
        .metrics { display: grid; grid-template-columns: repeat(auto-fit, minmax(250px, 1fr)); gap: 15px; margin: 20px 0; }
        .metric { background: white; border: 1px solid #ddd; padding: 15px; border-radius: 8px; }
        .score { font-size: 2em; font-weight: bold; color: #4CAF50; }
        .recommendations { margin-top: 20px; }
        .recommendation { border-left: 4px solid #2196F3; padding: 10px 15px; margin: 10px 0; background: #f9f9f9; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Performance Analysis Report</h1>
        <p><strong>URL:</strong> {{.URL}}</p>
        <p><strong>Analysis Date:</strong> {{.Timestamp}}</p>
    </div>

    <div class="metrics">
        <div class="metric">
            <h3>Performance Score</h3>
            <div class="score">{{percent .LighthouseScore.performance}}</div>
        </div>
        <div class="metric">
            <h3>Accessibility</h3>
            <div class="score">{{percent .LighthouseScore.accessibility}}</div>
        </div>
        <div class="metric">
            <h3>SEO</h3>
            <div class="score">{{percent .LighthouseScore.seo}}</div>
        </div>
    </div>

    <div class="recommendations">
        <h2>Recommendations</h2>
        {{range .Recommendations}}<div class="recommendation"><h4>{{.Title}}</h4><p>{{.Description}}</p></div>
        {{end}}
    </div>
</body>
</html>
`))

func writeHTMLReport(path string, report *Report) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating html report: %w", err)
	}
	defer file.Close()

	if err := htmlReportTemplate.Execute(file, report); err != nil {
		return fmt.Errorf("rendering html report: %w", err)
	}
	return nil
}
