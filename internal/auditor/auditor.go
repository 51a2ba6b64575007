// Package auditor implements the quality review stage. It combines a
// deterministic heuristic track over the staged files with a model audit,
// writes quality_audit.json, and renders category todo lists for review.
package auditor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"sitewright/internal/checkpoint"
	"sitewright/internal/llm"
	"sitewright/internal/planner"
)

const systemPrompt = `You are an expert Quality Auditor AI agent specializing in comprehensive code review and quality assurance.

You work as part of a 3-agent system:
- Planner: Strategic analysis and planning (completed)
- Executor: Code generation and implementation (completed)
- You (Auditor): Quality review and validation

Your responsibilities:
1. Comprehensive quality assessment of generated code
2. Security vulnerability analysis
3. Performance optimization review
4. Accessibility compliance checking
5. SEO and best practices validation
6. Risk assessment and mitigation recommendations

Provide detailed, actionable feedback with specific recommendations.`

// StagingArtifacts is what the auditor reads back out of the staging tree.
type StagingArtifacts struct {
	GeneratedFiles      map[string]string
	Documentation       map[string]string
	ValidationChecklist []string
	Checkpoint          *checkpoint.Checkpoint
}

// stagedExtensions are the file types the auditor reviews at the staging root.
var stagedExtensions = []string{".html", ".css", ".tsx"}

// LoadStaging reads the generated files, docs, checklist and checkpoint
// from a staging directory written by the executor.
func LoadStaging(stagingDir string) (*StagingArtifacts, error) {
	artifacts := &StagingArtifacts{
		GeneratedFiles: map[string]string{},
		Documentation:  map[string]string{},
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return nil, fmt.Errorf("reading staging dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !containsString(stagedExtensions, ext) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(stagingDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading staged %s: %w", entry.Name(), err)
		}
		artifacts.GeneratedFiles[entry.Name()] = string(data)
	}

	docsDir := filepath.Join(stagingDir, "docs")
	if docEntries, err := os.ReadDir(docsDir); err == nil {
		for _, entry := range docEntries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
				continue
			}
			data, err := os.ReadFile(filepath.Join(docsDir, entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("reading doc %s: %w", entry.Name(), err)
			}
			name := strings.TrimSuffix(entry.Name(), ".md")
			artifacts.Documentation[name] = string(data)
		}
	}

	if data, err := os.ReadFile(filepath.Join(stagingDir, "VALIDATION_CHECKLIST.md")); err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "- [ ]") {
				artifacts.ValidationChecklist = append(artifacts.ValidationChecklist, strings.TrimSpace(line[5:]))
			}
		}
	}

	if cp, err := checkpoint.Load(filepath.Join(stagingDir, "checkpoint.json")); err == nil {
		artifacts.Checkpoint = cp
	}

	return artifacts, nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Auditor runs the quality review stage.
type Auditor struct {
	client llm.Client
	model  string
	logger *zap.Logger
}

// New returns an Auditor backed by the given model client.
func New(client llm.Client, model string, logger *zap.Logger) *Auditor {
	return &Auditor{client: client, model: model, logger: logger}
}

// Outputs is what the audit stage reports to the workflow.
type Outputs struct {
	Status           string
	Score            float64
	ApprovalRequired bool
	Recommendations  string
	Source           llm.Source
}

// Run executes the stage end to end and writes quality_audit.json plus the
// todo lists under auditDir.
func (a *Auditor) Run(ctx context.Context, planningDir, stagingDir, auditDir string, qualityThreshold int) (*Outputs, error) {
	plan, err := loadPlanIfPresent(filepath.Join(planningDir, "strategic_plan.json"))
	if err != nil {
		return nil, err
	}

	staging, err := LoadStaging(stagingDir)
	if err != nil {
		return nil, err
	}

	heuristics := AnalyzeFiles(staging.GeneratedFiles)

	prompt := buildPrompt(plan, staging)
	result := llm.CallJSON(ctx, a.client, a.logger, systemPrompt, prompt, func() AuditResult {
		return FallbackAudit(len(staging.GeneratedFiles))
	})
	if !result.Remote() {
		a.logger.Warn("using fallback audit", zap.Error(result.Err))
	}
	audit := result.Value

	// A staging set with nothing to deploy is rejected even when the model
	// said otherwise.
	if len(staging.GeneratedFiles) == 0 {
		audit.OverallScore = 0
		audit.ApprovalStatus = "rejected"
		if !containsString(audit.CriticalIssues, "No files were generated") {
			audit.CriticalIssues = append(audit.CriticalIssues, "No files were generated")
		}
	}

	audit.DetailedAnalysis = heuristics
	audit.Timestamp = time.Now().UTC().Format(time.RFC3339)
	audit.AuditAgent = "quality-auditor"
	audit.AuditModel = a.model

	if err := os.MkdirAll(auditDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating audit dir: %w", err)
	}

	data, err := json.MarshalIndent(audit, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding audit: %w", err)
	}
	if err := os.WriteFile(filepath.Join(auditDir, "quality_audit.json"), append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("writing audit: %w", err)
	}

	if err := writeTodos(&audit, auditDir); err != nil {
		return nil, err
	}

	approvalRequired := ApprovalRequired(&audit, qualityThreshold)

	a.logger.Info("quality audit completed",
		zap.Float64("score", audit.OverallScore),
		zap.Bool("approval_required", approvalRequired),
		zap.Int("critical_issues", len(audit.CriticalIssues)),
		zap.String("source", string(result.Source)))

	recommendations := audit.RecommendedImprovements
	if len(recommendations) > 3 {
		recommendations = recommendations[:3]
	}

	return &Outputs{
		Status:           "success",
		Score:            audit.OverallScore,
		ApprovalRequired: approvalRequired,
		Recommendations:  strings.Join(recommendations, "; "),
		Source:           result.Source,
	}, nil
}

// LoadAudit reads a quality audit written by a previous run.
func LoadAudit(path string) (*AuditResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading audit: %w", err)
	}
	var audit AuditResult
	if err := json.Unmarshal(data, &audit); err != nil {
		return nil, fmt.Errorf("parsing audit: %w", err)
	}
	return &audit, nil
}

func loadPlanIfPresent(path string) (*planner.StrategicPlan, error) {
	plan, err := planner.LoadPlan(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &planner.StrategicPlan{}, nil
		}
		return nil, err
	}
	return plan, nil
}

func buildPrompt(plan *planner.StrategicPlan, staging *StagingArtifacts) string {
	fileNames := make([]string, 0, len(staging.GeneratedFiles))
	for name := range staging.GeneratedFiles {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	docNames := make([]string, 0, len(staging.Documentation))
	for name := range staging.Documentation {
		docNames = append(docNames, name)
	}
	sort.Strings(docNames)

	var b strings.Builder
	b.WriteString("# Comprehensive Quality Audit\n\n")
	b.WriteString("## Strategic Plan Alignment:\n")
	fmt.Fprintf(&b, "Original recommendations: %d items\n", len(plan.Recommendations))
	fmt.Fprintf(&b, "Implementation plan phases: %d\n\n", len(plan.ImplementationPlan))
	b.WriteString("## Generated Code Analysis:\n")
	fmt.Fprintf(&b, "Files generated: %s\n", strings.Join(fileNames, ", "))
	fmt.Fprintf(&b, "Documentation provided: %s\n\n", strings.Join(docNames, ", "))
	b.WriteString(`## Quality Assessment Required:

### 1. Code Quality Review
- Syntax and structure validation
- Best practices compliance
- Maintainability assessment

### 2. Security Analysis
- XSS vulnerability assessment
- Input validation review
- Security best practices check

### 3. Performance Evaluation
- Core Web Vitals impact
- Resource optimization
- Loading performance

### 4. Accessibility Compliance
- WCAG 2.1 AA compliance
- Screen reader compatibility
- Keyboard navigation support

### 5. SEO Optimization
- Meta tags and structured data
- Mobile-friendliness
- Page speed factors

Provide your audit as structured JSON with:
- overall_score (0-100)
- category_scores (security, performance, accessibility, seo, maintainability)
- critical_issues (must fix before deployment)
- recommended_improvements (nice to have)
- approval_status (approved/conditional/rejected)
- next_steps (specific actions required)
`)
	return b.String()
}
