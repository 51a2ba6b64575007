// Package planner implements the strategic planning stage. It reads the
// knowledge base and the current site, asks the planning model for a
// structured improvement plan, and writes the plan, its execution context
// and a handoff checkpoint to the output directory.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sitewright/internal/checkpoint"
	"sitewright/internal/knowledge"
	"sitewright/internal/llm"
)

const systemPrompt = `You are an expert Strategic Planner AI agent specializing in website optimization and development. Your role is to create comprehensive, actionable plans for website improvements.

You work as part of a 3-agent system:
- You (Planner): Strategic analysis and planning
- Executor: Code generation and implementation
- Auditor: Quality review and validation

Your output must be structured JSON that the Executor agent can follow precisely.`

// SiteAnalysis captures what the planner could see of the current site.
type SiteAnalysis struct {
	Structure  map[string]string `json:"structure"`
	Components []string          `json:"components"`
}

// mainFiles are the site entry points the planner reads in full.
var mainFiles = []string{"index.html", "index.tsx", "index.css", "package.json"}

// AnalyzeSite reads the site's main files and lists its components directory.
func AnalyzeSite(sitePath string) (*SiteAnalysis, error) {
	analysis := &SiteAnalysis{Structure: map[string]string{}}

	for _, name := range mainFiles {
		data, err := os.ReadFile(filepath.Join(sitePath, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		analysis.Structure[name] = string(data)
	}

	componentsDir := filepath.Join(sitePath, "components")
	err := filepath.WalkDir(componentsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(sitePath, path)
		if err != nil {
			return err
		}
		analysis.Components = append(analysis.Components, filepath.ToSlash(rel))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("walking components: %w", err)
	}
	sort.Strings(analysis.Components)

	return analysis, nil
}

// MainFileNames returns the names of the main files found, sorted.
func (s *SiteAnalysis) MainFileNames() []string {
	names := make([]string, 0, len(s.Structure))
	for name := range s.Structure {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Planner runs the strategic planning stage.
type Planner struct {
	client llm.Client
	logger *zap.Logger
}

// New returns a Planner backed by the given model client.
func New(client llm.Client, logger *zap.Logger) *Planner {
	return &Planner{client: client, logger: logger}
}

// Outputs is what the plan stage reports to the workflow.
type Outputs struct {
	Status     string
	Checksum   string
	Components string
	Priority   string
	Source     llm.Source
}

// Run executes the planning stage end to end and writes strategic_plan.json,
// execution_context.json and checkpoint.json under outputDir.
func (p *Planner) Run(ctx context.Context, command, knowledgeDir, siteDir, outputDir string) (*Outputs, error) {
	base := knowledge.LoadBase(knowledgeDir, p.logger)

	site, err := AnalyzeSite(siteDir)
	if err != nil {
		return nil, fmt.Errorf("analyzing site: %w", err)
	}

	intent := ParseCommand(command)

	prompt := buildPrompt(intent, base, site)
	result := llm.CallJSON(ctx, p.client, p.logger, systemPrompt, prompt, FallbackPlan)
	if !result.Remote() {
		p.logger.Warn("using fallback plan", zap.Error(result.Err))
	}
	plan := result.Value

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	if err := writeJSON(filepath.Join(outputDir, "strategic_plan.json"), plan); err != nil {
		return nil, err
	}

	execContext := ExecutionContext{
		RunID:      uuid.NewString(),
		UserIntent: intent,
		KnowledgeSummary: KnowledgeSummary{
			DocsFiles:         base.DocNames(),
			AnalysisAvailable: base.AnalysisNames(),
		},
		SiteSummary: SiteSummary{
			MainFiles:       site.MainFileNames(),
			ComponentsCount: len(site.Components),
		},
	}
	if err := writeJSON(filepath.Join(outputDir, "execution_context.json"), execContext); err != nil {
		return nil, err
	}

	checksum, err := checkpoint.Create("planner", outputDir, filepath.Join(outputDir, "checkpoint.json"), p.logger)
	if err != nil {
		return nil, fmt.Errorf("creating checkpoint: %w", err)
	}

	p.logger.Info("strategic planning completed",
		zap.String("checksum", checksum),
		zap.String("source", string(result.Source)),
		zap.Int("recommendations", len(plan.Recommendations)))

	return &Outputs{
		Status:     "success",
		Checksum:   checksum,
		Components: strings.Join(plan.ExecutorInstructions.ComponentsToUpdate, ","),
		Priority:   intent.Priority,
		Source:     result.Source,
	}, nil
}

func buildPrompt(intent Intent, base *knowledge.Base, site *SiteAnalysis) string {
	var b strings.Builder
	b.WriteString("# Strategic Planning Request\n\n")
	b.WriteString("## User Intent:\n")
	fmt.Fprintf(&b, "Action: %s\n", intent.Action)
	fmt.Fprintf(&b, "Scope: %s\n", intent.Scope)
	fmt.Fprintf(&b, "Priority: %s\n\n", intent.Priority)
	b.WriteString("## Knowledge Base Summary:\n")
	fmt.Fprintf(&b, "- Docs content: %d files\n", len(base.DocsContent))
	fmt.Fprintf(&b, "- Current analysis: %s\n\n", strings.Join(base.AnalysisNames(), ", "))
	b.WriteString("## Current Site Analysis:\n")
	fmt.Fprintf(&b, "Structure files: %s\n", strings.Join(site.MainFileNames(), ", "))
	fmt.Fprintf(&b, "Components: %d found\n\n", len(site.Components))
	b.WriteString(`## Your Task:
Create a detailed strategic plan that includes:
1. **Situation Analysis**: Current state assessment
2. **Opportunity Identification**: Improvement opportunities
3. **Strategic Recommendations**: Prioritized recommendations
4. **Implementation Phases**: Step-by-step execution plan
5. **Success Metrics**: Measurable outcomes
6. **Risk Assessment**: Potential challenges and mitigations

Provide response in structured JSON format with these sections:
- analysis: Current situation assessment
- opportunities: Identified improvement areas
- recommendations: Prioritized action items
- implementation_plan: Detailed phases and tasks
- success_metrics: KPIs and measurement criteria
- risk_assessment: Risks and mitigation strategies
- executor_instructions: Specific guidance for the Executor agent
`)
	return b.String()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
