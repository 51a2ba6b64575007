package deploy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"sitewright/internal/auditor"
)

// requiredStagingFiles are the files the validation gate looks for at the
// staging root. At least half of them must be present.
var requiredStagingFiles = []string{"index.html", "index.css"}

// ValidationResults is the per-check outcome of the final gate.
type ValidationResults struct {
	StagingFilesValid      bool `json:"staging_files_valid"`
	QualityThresholdMet    bool `json:"quality_threshold_met"`
	CriticalIssuesResolved bool `json:"critical_issues_resolved"`
	DocumentationComplete  bool `json:"documentation_complete"`
	OverallValid           bool `json:"overall_valid"`
}

// ValidationReport is written to final_validation.json in the audit dir.
type ValidationReport struct {
	Timestamp         string            `json:"timestamp"`
	ValidationResults ValidationResults `json:"validation_results"`
	StagingFilesFound []string          `json:"staging_files_found"`
	QualityThreshold  int               `json:"quality_threshold"`
	Recommendations   []string          `json:"recommendations"`
}

// Validate runs the final pre-deployment gate: staging files present, audit
// score at or above the threshold, no unresolved critical issues. The
// documentation check is informational only and does not block.
func Validate(stagingDir, auditDir string, qualityThreshold int, logger *zap.Logger) (*ValidationReport, error) {
	var results ValidationResults
	var found []string

	for _, name := range requiredStagingFiles {
		if _, err := os.Stat(filepath.Join(stagingDir, name)); err == nil {
			found = append(found, name)
		}
	}
	results.StagingFilesValid = len(found) >= len(requiredStagingFiles)/2

	audit, err := auditor.LoadAudit(filepath.Join(auditDir, "quality_audit.json"))
	if err == nil {
		results.QualityThresholdMet = audit.OverallScore >= float64(qualityThreshold)
		results.CriticalIssuesResolved = len(audit.CriticalIssues) == 0
	} else {
		logger.Warn("quality audit unavailable", zap.Error(err))
	}

	if info, err := os.Stat(filepath.Join(stagingDir, "docs")); err == nil && info.IsDir() {
		results.DocumentationComplete = true
	}

	results.OverallValid = results.StagingFilesValid &&
		results.QualityThresholdMet &&
		results.CriticalIssuesResolved

	report := &ValidationReport{
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		ValidationResults: results,
		StagingFilesFound: found,
		QualityThreshold:  qualityThreshold,
		Recommendations:   []string{},
	}

	if !results.OverallValid {
		if !results.StagingFilesValid {
			report.Recommendations = append(report.Recommendations, "Generate missing staging files")
		}
		if !results.QualityThresholdMet {
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("Improve quality score to meet %d threshold", qualityThreshold))
		}
		if !results.CriticalIssuesResolved {
			report.Recommendations = append(report.Recommendations, "Resolve all critical issues before deployment")
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding validation report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(auditDir, "final_validation.json"), append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("writing validation report: %w", err)
	}

	logger.Info("final validation",
		zap.Bool("staging_files", results.StagingFilesValid),
		zap.Bool("quality_threshold", results.QualityThresholdMet),
		zap.Bool("critical_issues_resolved", results.CriticalIssuesResolved),
		zap.Bool("overall", results.OverallValid))

	return report, nil
}
