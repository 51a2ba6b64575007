package perf

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Category is one scored Lighthouse category.
type Category struct {
	Score float64 `json:"score"`
}

// Audit is one Lighthouse audit entry. Score is a pointer because
// informational audits report null.
type Audit struct {
	NumericValue float64  `json:"numericValue"`
	Score        *float64 `json:"score"`
	DisplayValue string   `json:"displayValue"`
}

// LighthouseReport is the subset of the Lighthouse JSON output the
// analyzer consumes.
type LighthouseReport struct {
	Categories map[string]Category `json:"categories"`
	Audits     map[string]Audit    `json:"audits"`
}

// auditScore returns the audit's score, or def when the audit is missing
// or unscored.
func (r *LighthouseReport) auditScore(name string, def float64) float64 {
	audit, ok := r.Audits[name]
	if !ok || audit.Score == nil {
		return def
	}
	return *audit.Score
}

// categoryScore returns the category score, or def when absent.
func (r *LighthouseReport) categoryScore(name string, def float64) float64 {
	category, ok := r.Categories[name]
	if !ok {
		return def
	}
	return category.Score
}

// Runner produces a Lighthouse report for a URL.
type Runner interface {
	Run(ctx context.Context, url, outputDir string) (*LighthouseReport, error)
}

// CLIRunner invokes the lighthouse CLI in headless mode.
type CLIRunner struct{}

func (CLIRunner) Run(ctx context.Context, url, outputDir string) (*LighthouseReport, error) {
	reportPath := filepath.Join(outputDir, "lighthouse-report.json")

	cmd := exec.CommandContext(ctx, "lighthouse", url,
		"--output=json",
		"--output-path="+reportPath,
		"--chrome-flags=--headless --no-sandbox",
		"--quiet")
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("running lighthouse: %w: %s", err, output)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("reading lighthouse report: %w", err)
	}
	var report LighthouseReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decoding lighthouse report: %w", err)
	}
	return &report, nil
}

func score(v float64) *float64 { return &v }

// MockReport is the stand-in used when the lighthouse CLI is unavailable.
func MockReport() *LighthouseReport {
	return &LighthouseReport{
		Categories: map[string]Category{
			"performance":    {Score: 0.75},
			"accessibility":  {Score: 0.85},
			"best-practices": {Score: 0.90},
			"seo":            {Score: 0.80},
		},
		Audits: map[string]Audit{
			"largest-contentful-paint": {NumericValue: 2500, Score: score(0.7), DisplayValue: "2.5 s"},
			"cumulative-layout-shift":  {NumericValue: 0.1, Score: score(0.8), DisplayValue: "0.1"},
			"first-contentful-paint":   {NumericValue: 1800, Score: score(0.75), DisplayValue: "1.8 s"},
		},
	}
}

// CoreVital is one Core Web Vitals measurement.
type CoreVital struct {
	Value        float64 `json:"value"`
	Score        float64 `json:"score"`
	DisplayValue string  `json:"displayValue"`
}

// CoreVitals groups the four tracked vitals.
type CoreVitals struct {
	LargestContentfulPaint CoreVital `json:"largest_contentful_paint"`
	FirstInputDelay        CoreVital `json:"first_input_delay"`
	CumulativeLayoutShift  CoreVital `json:"cumulative_layout_shift"`
	FirstContentfulPaint   CoreVital `json:"first_contentful_paint"`
}

// ExtractCoreVitals pulls the Core Web Vitals audits out of a report.
func ExtractCoreVitals(report *LighthouseReport) CoreVitals {
	return CoreVitals{
		LargestContentfulPaint: coreVital(report, "largest-contentful-paint"),
		FirstInputDelay:        coreVital(report, "max-potential-fid"),
		CumulativeLayoutShift:  coreVital(report, "cumulative-layout-shift"),
		FirstContentfulPaint:   coreVital(report, "first-contentful-paint"),
	}
}

func coreVital(report *LighthouseReport, name string) CoreVital {
	audit, ok := report.Audits[name]
	if !ok {
		return CoreVital{DisplayValue: "N/A"}
	}
	vital := CoreVital{
		Value:        audit.NumericValue,
		DisplayValue: audit.DisplayValue,
	}
	if audit.Score != nil {
		vital.Score = *audit.Score
	}
	if vital.DisplayValue == "" {
		vital.DisplayValue = "N/A"
	}
	return vital
}
