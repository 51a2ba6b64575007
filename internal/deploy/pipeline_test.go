package deploy

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

	"sitewright/internal/auditor"
	"sitewright/internal/executor"
	"sitewright/internal/planner"
)

// downClient simulates an unreachable model API so every stage takes its
// fallback path.
type downClient struct{}

func (d *downClient) Complete(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("connection refused")
}

func (d *downClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "", errors.New("connection refused")
}

// TestPipelineFallbackCSSDeployment drives plan, execute, audit and apply
// over one temp tree with the model API down: the fallback plan targets
// index.css, the executor appends the fixed performance block, the audit
// heuristics credit the accessibility rules that block carries, and the
// applier deploys exactly that file.
func TestPipelineFallbackCSSDeployment(t *testing.T) {
	root := t.TempDir()
	siteDir := filepath.Join(root, "site")
	knowledgeDir := filepath.Join(root, "background")
	planningDir := filepath.Join(root, "planning")
	stagingDir := filepath.Join(root, "staging")
	auditDir := filepath.Join(root, "audit")
	targetDir := filepath.Join(root, "target")
	backupDir := filepath.Join(root, "backup")

	originalCSS := "body { margin: 0; }\n.card { transition: all 2s; }\n"
	writeFile(t, filepath.Join(siteDir, "index.css"), originalCSS)
	require.NoError(t, os.MkdirAll(targetDir, 0o755))

	ctx := context.Background()
	client := &downClient{}

	planOut, err := planner.New(client, zap.NewNop()).Run(ctx, "improve site performance", knowledgeDir, siteDir, planningDir)
	require.NoError(t, err)
	assert.Equal(t, "fallback", string(planOut.Source))
	assert.Contains(t, strings.Split(planOut.Components, ","), "index.css")

	execOut, err := executor.New(client, zap.NewNop()).Run(ctx, planningDir, knowledgeDir, siteDir, stagingDir)
	require.NoError(t, err)
	assert.Contains(t, strings.Split(execOut.Files, ","), "index.css")

	staged, err := os.ReadFile(filepath.Join(stagingDir, "index.css"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(staged), originalCSS), "original rules must be preserved")
	assert.Contains(t, string(staged), "prefers-reduced-motion")
	assert.Contains(t, string(staged), ":focus")

	auditOut, err := auditor.New(client, "test-model", zap.NewNop()).Run(ctx, planningDir, stagingDir, auditDir, 85)
	require.NoError(t, err)
	assert.Equal(t, 85.0, auditOut.Score)

	audit, err := auditor.LoadAudit(filepath.Join(auditDir, "quality_audit.json"))
	require.NoError(t, err)
	require.NotNil(t, audit.DetailedAnalysis)
	cssAnalysis := audit.DetailedAnalysis.FileAnalysis["index.css"]
	assert.Contains(t, cssAnalysis.BestPractices, "Respects user motion preferences")
	assert.Contains(t, cssAnalysis.BestPractices, "Focus states defined for accessibility")
	assert.NotContains(t, cssAnalysis.AccessibilityIssues, "Missing reduced motion media query")
	assert.NotContains(t, cssAnalysis.AccessibilityIssues, "Missing focus states for interactive elements")

	log, err := Apply(stagingDir, targetDir, backupDir, true, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"index.css"}, log.ChangesApplied)

	data, err := os.ReadFile(filepath.Join(targetDir, "deployment.log.json"))
	require.NoError(t, err)
	var persisted Log
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, []string{"index.css"}, persisted.ChangesApplied)

	deployed, err := os.ReadFile(filepath.Join(targetDir, "index.css"))
	require.NoError(t, err)
	assert.Equal(t, string(staged), string(deployed))
}
