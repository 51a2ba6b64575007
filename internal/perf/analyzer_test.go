package perf

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRunner struct {
	report *LighthouseReport
	err    error
}

func (s stubRunner) Run(context.Context, string, string) (*LighthouseReport, error) {
	return s.report, s.err
}

type stubClient struct {
	response string
	err      error
}

func (s *stubClient) Complete(ctx context.Context, prompt string) (string, error) {
	return s.CompleteWithSystem(ctx, "", prompt)
}

func (s *stubClient) CompleteWithSystem(_ context.Context, _, _ string) (string, error) {
	return s.response, s.err
}

func TestAnalyzer_FallbackEverything(t *testing.T) {
	outputDir := t.TempDir()
	analyzer := NewAnalyzer(
		stubRunner{err: errors.New("lighthouse not installed")},
		&stubClient{err: errors.New("unreachable")},
		zap.NewNop())

	report, err := analyzer.AnalyzeURL(context.Background(), "https://example.com", outputDir)
	require.NoError(t, err)

	// Lighthouse failure degrades to the mock scores.
	assert.Equal(t, 0.75, report.LighthouseScore["performance"])
	assert.Equal(t, "fallback", report.InsightsSource)
	assert.Equal(t, "Good performance with room for optimization", report.AIInsights.OverallAssessment)
	require.Len(t, report.Recommendations, 2)
	assert.Equal(t, "Optimize Critical Rendering Path", report.Recommendations[0].Title)

	data, err := os.ReadFile(filepath.Join(outputDir, "performance_analysis.json"))
	require.NoError(t, err)
	var loaded Report
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "https://example.com", loaded.URL)
	assert.Equal(t, report.LighthouseScore, loaded.LighthouseScore)

	html, err := os.ReadFile(filepath.Join(outputDir, "performance.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Performance Analysis Report")
	assert.Contains(t, string(html), "75%")
	assert.Contains(t, string(html), "https://example.com")
}

func TestAnalyzer_RemoteInsights(t *testing.T) {
	outputDir := t.TempDir()
	remote := Insights{
		OverallAssessment:   "Strong performance overall",
		CriticalIssues:      []string{},
		CompetitiveAnalysis: "Ahead of the pack",
		UserExperienceImpact: UXImpact{
			LoadingExperience: "Fast",
			VisualStability:   "Stable",
			Interactivity:     "Responsive",
			OverallUXRating:   "Excellent",
		},
	}
	payload, err := json.Marshal(remote)
	require.NoError(t, err)

	analyzer := NewAnalyzer(
		stubRunner{report: MockReport()},
		&stubClient{response: string(payload)},
		zap.NewNop())

	report, err := analyzer.AnalyzeURL(context.Background(), "https://example.com", outputDir)
	require.NoError(t, err)
	assert.Equal(t, "remote", report.InsightsSource)
	assert.Equal(t, remote, report.AIInsights)
}

func TestAnalyzer_UsesRunnerReport(t *testing.T) {
	fixture := &LighthouseReport{
		Categories: map[string]Category{
			"performance":   {Score: 0.42},
			"accessibility": {Score: 0.9},
			"seo":           {Score: 0.6},
		},
		Audits: map[string]Audit{
			"largest-contentful-paint": {NumericValue: 4200, Score: score(0.3), DisplayValue: "4.2 s"},
		},
	}
	analyzer := NewAnalyzer(stubRunner{report: fixture},
		&stubClient{err: errors.New("down")}, zap.NewNop())

	report, err := analyzer.AnalyzeURL(context.Background(), "https://slow.example", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0.42, report.LighthouseScore["performance"])
	assert.Equal(t, 4200.0, report.CoreWebVitals.LargestContentfulPaint.Value)
	assert.Contains(t, report.AIInsights.CriticalIssues, "Largest Contentful Paint is too slow")
}
