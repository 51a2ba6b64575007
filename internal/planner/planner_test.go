package planner

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

	"sitewright/internal/checkpoint"
	"sitewright/internal/llm"
)

type stubClient struct {
	response string
	err      error
	prompts  []string
}

func (s *stubClient) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func (s *stubClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.prompts = append(s.prompts, userPrompt)
	return s.response, s.err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setupSite(t *testing.T) string {
	t.Helper()
	site := t.TempDir()
	writeFile(t, filepath.Join(site, "index.html"), "<html><head></head><body></body></html>")
	writeFile(t, filepath.Join(site, "index.css"), "body { margin: 0; }")
	writeFile(t, filepath.Join(site, "components", "Hero.tsx"), "export const Hero = () => null;")
	writeFile(t, filepath.Join(site, "components", "Footer.tsx"), "export const Footer = () => null;")
	return site
}

func TestAnalyzeSite(t *testing.T) {
	site := setupSite(t)

	analysis, err := AnalyzeSite(site)
	require.NoError(t, err)

	assert.Equal(t, []string{"index.css", "index.html"}, analysis.MainFileNames())
	assert.Equal(t, []string{"components/Footer.tsx", "components/Hero.tsx"}, analysis.Components)
	assert.Contains(t, analysis.Structure["index.html"], "<head>")
}

func TestAnalyzeSite_MissingEverything(t *testing.T) {
	analysis, err := AnalyzeSite(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, analysis.Structure)
	assert.Empty(t, analysis.Components)
}

func TestRun_RemotePlan(t *testing.T) {
	remotePlan := StrategicPlan{
		Analysis:        Analysis{CurrentState: "solid foundation"},
		Recommendations: []Recommendation{{Title: "Compress hero images", Priority: "high", Impact: "high", Effort: "low"}},
		ImplementationPlan: map[string]Phase{
			"phase_1": {Title: "Asset pass", Tasks: []string{"Compress images"}, Duration: "1 day"},
		},
		ExecutorInstructions: ExecutorInstructions{
			SafetyLevel:        "conservative",
			TestingRequired:    true,
			ComponentsToUpdate: []string{"index.html", "index.css"},
		},
	}
	raw, err := json.Marshal(remotePlan)
	require.NoError(t, err)

	client := &stubClient{response: string(raw)}
	site := setupSite(t)
	knowledgeDir := t.TempDir()
	writeFile(t, filepath.Join(knowledgeDir, "docs", "guide.md"), "# Guide")
	outputDir := t.TempDir()

	p := New(client, zap.NewNop())
	out, err := p.Run(context.Background(), "optimize performance", knowledgeDir, site, outputDir)
	require.NoError(t, err)

	assert.Equal(t, "success", out.Status)
	assert.Equal(t, llm.SourceRemote, out.Source)
	assert.Equal(t, "index.html,index.css", out.Components)
	assert.Equal(t, "medium", out.Priority)

	loaded, err := LoadPlan(filepath.Join(outputDir, "strategic_plan.json"))
	require.NoError(t, err)
	assert.Equal(t, "solid foundation", loaded.Analysis.CurrentState)

	execCtx, err := LoadContext(filepath.Join(outputDir, "execution_context.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, execCtx.RunID)
	assert.Equal(t, []string{"guide.md"}, execCtx.KnowledgeSummary.DocsFiles)
	assert.Equal(t, 2, execCtx.SiteSummary.ComponentsCount)

	// The prompt carries the knowledge and site summaries.
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Docs content: 1 files")
	assert.Contains(t, client.prompts[0], "Components: 2 found")
}

func TestRun_FallbackOnClientError(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}
	site := setupSite(t)
	outputDir := t.TempDir()

	p := New(client, zap.NewNop())
	out, err := p.Run(context.Background(), "enhance the landing page", t.TempDir(), site, outputDir)
	require.NoError(t, err)

	assert.Equal(t, llm.SourceFallback, out.Source)
	assert.Equal(t, "index.html,index.css,index.tsx", out.Components)

	loaded, err := LoadPlan(filepath.Join(outputDir, "strategic_plan.json"))
	require.NoError(t, err)
	assert.Equal(t, "Optimize Core Web Vitals", loaded.Recommendations[0].Title)
	assert.True(t, loaded.ExecutorInstructions.TestingRequired)
}

func TestRun_CheckpointMatchesOutputs(t *testing.T) {
	client := &stubClient{err: errors.New("down")}
	site := setupSite(t)
	outputDir := t.TempDir()

	p := New(client, zap.NewNop())
	out, err := p.Run(context.Background(), "review", t.TempDir(), site, outputDir)
	require.NoError(t, err)

	cpPath := filepath.Join(outputDir, "checkpoint.json")
	cp, err := checkpoint.Load(cpPath)
	require.NoError(t, err)
	assert.Equal(t, "planner", cp.Agent)
	assert.Equal(t, "executor", cp.NextAgent)
	assert.Equal(t, out.Checksum, cp.ContentChecksum)

	recomputed, err := checkpoint.Recompute(outputDir, cpPath)
	require.NoError(t, err)
	assert.Equal(t, out.Checksum, recomputed)
}
