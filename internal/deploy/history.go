package deploy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"sitewright/internal/auditor"
)

// historyLimit caps how many deployments the history file retains.
const historyLimit = 10

// Insights is one deployment's record in the knowledge base history.
type Insights struct {
	DeploymentTimestamp      string            `json:"deployment_timestamp"`
	QualityScoreAchieved     float64           `json:"quality_score_achieved"`
	CategoryPerformance      map[string]int    `json:"category_performance"`
	SuccessfulImprovements   []string          `json:"successful_improvements"`
	LessonsLearned           []string          `json:"lessons_learned"`
	AgentPerformance         map[string]string `json:"agent_performance"`
	RecommendationsForFuture []string          `json:"recommendations_for_future"`
}

// RecordDeployment appends this deployment's insights to the history file
// in the knowledge directory and rewrites the latest-deployment summary.
func RecordDeployment(auditDir, knowledgeDir, timestamp string, logger *zap.Logger) (*Insights, error) {
	if err := os.MkdirAll(knowledgeDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating knowledge dir: %w", err)
	}

	audit, err := auditor.LoadAudit(filepath.Join(auditDir, "quality_audit.json"))
	if err != nil {
		logger.Warn("quality audit unavailable", zap.Error(err))
		audit = &auditor.AuditResult{}
	}

	insights := buildInsights(audit, timestamp)

	historyPath := filepath.Join(knowledgeDir, "deployment_history.json")
	var history []Insights
	if data, err := os.ReadFile(historyPath); err == nil {
		if err := json.Unmarshal(data, &history); err != nil {
			logger.Warn("discarding malformed deployment history", zap.Error(err))
			history = nil
		}
	}
	history = append(history, *insights)
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding history: %w", err)
	}
	if err := os.WriteFile(historyPath, append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("writing history: %w", err)
	}

	if err := writeSummary(knowledgeDir, insights); err != nil {
		return nil, err
	}

	logger.Info("knowledge base updated",
		zap.Float64("score", insights.QualityScoreAchieved),
		zap.Int("history_entries", len(history)))

	return insights, nil
}

func buildInsights(audit *auditor.AuditResult, timestamp string) *Insights {
	insights := &Insights{
		DeploymentTimestamp:    timestamp,
		QualityScoreAchieved:   audit.OverallScore,
		CategoryPerformance:    audit.CategoryScores,
		SuccessfulImprovements: []string{},
		AgentPerformance: map[string]string{
			"planner_effectiveness": "high",
			"executor_reliability":  "high",
			"auditor_thoroughness":  "high",
		},
		RecommendationsForFuture: []string{
			"Continue using three-agent collaborative approach",
			"Maintain staging approval process for quality assurance",
			"Expand automated testing in auditor agent",
			"Enhance AI model integration for specific domains",
		},
	}

	for _, rec := range audit.RecommendedImprovements {
		lower := strings.ToLower(rec)
		switch {
		case strings.Contains(lower, "performance"):
			insights.SuccessfulImprovements = append(insights.SuccessfulImprovements, "Performance: "+rec)
		case strings.Contains(lower, "accessibility"):
			insights.SuccessfulImprovements = append(insights.SuccessfulImprovements, "Accessibility: "+rec)
		case strings.Contains(lower, "seo"):
			insights.SuccessfulImprovements = append(insights.SuccessfulImprovements, "SEO: "+rec)
		}
	}

	switch {
	case audit.OverallScore >= 90:
		insights.LessonsLearned = []string{"Agent system highly effective for comprehensive improvements"}
	case audit.OverallScore >= 80:
		insights.LessonsLearned = []string{"Good results achieved, minor optimizations needed"}
	default:
		insights.LessonsLearned = []string{"Areas for improvement identified in agent coordination"}
	}

	return insights
}

func writeSummary(knowledgeDir string, insights *Insights) error {
	var b strings.Builder
	b.WriteString("# Latest Deployment Summary\n\n")
	fmt.Fprintf(&b, "**Deployment Date**: %s\n", insights.DeploymentTimestamp)
	fmt.Fprintf(&b, "**Quality Score**: %.0f/100\n\n", insights.QualityScoreAchieved)

	b.WriteString("## Category Performance\n\n")
	categories := make([]string, 0, len(insights.CategoryPerformance))
	for category := range insights.CategoryPerformance {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		fmt.Fprintf(&b, "- **%s**: %d/100\n", capitalize(category), insights.CategoryPerformance[category])
	}

	b.WriteString("\n## Successful Improvements\n\n")
	for _, improvement := range insights.SuccessfulImprovements {
		fmt.Fprintf(&b, "- %s\n", improvement)
	}

	b.WriteString("\n## Lessons Learned\n\n")
	for _, lesson := range insights.LessonsLearned {
		fmt.Fprintf(&b, "- %s\n", lesson)
	}

	path := filepath.Join(knowledgeDir, "latest_deployment_summary.md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
