package executor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sitewright/internal/checkpoint"
	"sitewright/internal/llm"
	"sitewright/internal/planner"
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

func setupSource(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "index.html"), "<html><head><title>Home</title></head><body></body></html>")
	writeFile(t, filepath.Join(src, "index.css"), "body { margin: 0; }")
	writeFile(t, filepath.Join(src, "package.json"), `{"dependencies":{"react":"^18.2.0"},"devDependencies":{"vite":"^5.0.0"}}`)
	return src
}

func setupPlanning(t *testing.T, components []string) string {
	t.Helper()
	dir := t.TempDir()
	plan := planner.StrategicPlan{
		Recommendations: []planner.Recommendation{
			{Title: "Optimize Core Web Vitals", Priority: "high", Impact: "high", Effort: "medium"},
		},
		ExecutorInstructions: planner.ExecutorInstructions{
			SafetyLevel:        "conservative",
			TestingRequired:    true,
			ComponentsToUpdate: components,
		},
	}
	planJSON, err := json.Marshal(plan)
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, "strategic_plan.json"), string(planJSON))
	writeFile(t, filepath.Join(dir, "execution_context.json"), `{"run_id":"test-run","user_intent":{},"knowledge_summary":{"docs_files":[],"analysis_available":[]},"site_summary":{"main_files":[],"components_count":0}}`)
	return dir
}

func TestAnalyzeSource(t *testing.T) {
	src := setupSource(t)

	analysis, err := AnalyzeSource(src)
	require.NoError(t, err)

	assert.Equal(t, []string{"index.css", "index.html", "package.json"}, analysis.FileNames())
	assert.Equal(t, []string{"react"}, analysis.DependencyNames())
	assert.Equal(t, map[string]string{"vite": "^5.0.0"}, analysis.DevDependencies)

	css := analysis.Files["index.css"]
	assert.Equal(t, len("body { margin: 0; }"), css.Size)
	assert.Equal(t, 1, css.Lines)
}

func TestAnalyzeSource_MalformedManifest(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "package.json"), "not json")

	analysis, err := AnalyzeSource(src)
	require.NoError(t, err)
	assert.Empty(t, analysis.Dependencies)
}

func TestFallbackResult(t *testing.T) {
	src := setupSource(t)
	analysis, err := AnalyzeSource(src)
	require.NoError(t, err)

	result := FallbackResult(analysis)

	assert.Equal(t, []string{"index.css", "index.html"}, result.FileNames())
	assert.Contains(t, result.GeneratedFiles["index.css"].Content, "prefers-reduced-motion")
	assert.Contains(t, result.GeneratedFiles["index.html"].Content, `<meta name="viewport"`)
	assert.Equal(t, "Fallback generation used", result.Documentation["change_log"])
	assert.Len(t, result.ValidationChecklist, 3)
}

func TestFallbackResult_NoMatchingFiles(t *testing.T) {
	result := FallbackResult(&SourceAnalysis{Files: map[string]SourceFile{}})

	assert.Empty(t, result.GeneratedFiles)
	assert.NotEmpty(t, result.ValidationChecklist)
}

func TestRun_RemoteResult(t *testing.T) {
	remote := ExecutionResult{
		GeneratedFiles: map[string]GeneratedFile{
			"index.css": {
				Content:        "body { margin: 0; } /* tuned */",
				ChangesSummary: "Tightened layout rules",
				SafetyNotes:    "Additive only",
				TestingNotes:   "Visual check",
			},
		},
		Assets:              map[string]string{"theme.css": ":root { --accent: #0a7; }"},
		Documentation:       map[string]string{"implementation_guide": "Swap stylesheet"},
		ValidationChecklist: []string{"Check layout"},
	}
	raw, err := json.Marshal(remote)
	require.NoError(t, err)

	client := &stubClient{response: string(raw)}
	staging := t.TempDir()

	e := New(client, zap.NewNop())
	out, err := e.Run(context.Background(), setupPlanning(t, []string{"index.css"}), t.TempDir(), setupSource(t), staging)
	require.NoError(t, err)

	assert.Equal(t, "success", out.Status)
	assert.Equal(t, llm.SourceRemote, out.Source)
	assert.Equal(t, "index.css", out.Files)

	// Staging layout: generated file, asset, doc, checklist, originals.
	data, err := os.ReadFile(filepath.Join(staging, "index.css"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "/* tuned */")

	data, err = os.ReadFile(filepath.Join(staging, "assets", "theme.css"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "--accent")

	data, err = os.ReadFile(filepath.Join(staging, "docs", "implementation_guide.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Implementation Guide\n"))

	data, err = os.ReadFile(filepath.Join(staging, "VALIDATION_CHECKLIST.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "- [ ] Check layout")

	data, err = os.ReadFile(filepath.Join(staging, "originals", "index.css"))
	require.NoError(t, err)
	assert.Equal(t, "body { margin: 0; }", string(data))

	// The prompt embeds the plan and source summaries.
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Recommendations: 1 items")
	assert.Contains(t, client.prompts[0], "react")
}

func TestRun_FallbackOnClientError(t *testing.T) {
	client := &stubClient{err: errors.New("gateway timeout")}
	staging := t.TempDir()

	e := New(client, zap.NewNop())
	out, err := e.Run(context.Background(), setupPlanning(t, []string{"index.css"}), t.TempDir(), setupSource(t), staging)
	require.NoError(t, err)

	assert.Equal(t, llm.SourceFallback, out.Source)
	assert.Equal(t, "index.css,index.html", out.Files)

	data, err := os.ReadFile(filepath.Join(staging, "index.css"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "body { margin: 0; }"))
	assert.Contains(t, string(data), "prefers-reduced-motion")
}

func TestRun_CheckpointCoversStaging(t *testing.T) {
	client := &stubClient{err: errors.New("down")}
	staging := t.TempDir()

	e := New(client, zap.NewNop())
	out, err := e.Run(context.Background(), setupPlanning(t, nil), t.TempDir(), setupSource(t), staging)
	require.NoError(t, err)

	cpPath := filepath.Join(staging, "checkpoint.json")
	cp, err := checkpoint.Load(cpPath)
	require.NoError(t, err)
	assert.Equal(t, "executor", cp.Agent)
	assert.Equal(t, "auditor", cp.NextAgent)

	recomputed, err := checkpoint.Recompute(staging, cpPath)
	require.NoError(t, err)
	assert.Equal(t, out.Checksum, recomputed)

	// Tampering with a staged file must change the recomputed checksum.
	require.NoError(t, os.WriteFile(filepath.Join(staging, "index.css"), []byte("p{}"), 0o644))
	tampered, err := checkpoint.Recompute(staging, cpPath)
	require.NoError(t, err)
	assert.NotEqual(t, out.Checksum, tampered)
}

func TestRun_MissingPlanFails(t *testing.T) {
	e := New(&stubClient{}, zap.NewNop())
	_, err := e.Run(context.Background(), t.TempDir(), t.TempDir(), setupSource(t), t.TempDir())
	require.Error(t, err)
}
