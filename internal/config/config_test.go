package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "anthropic", cfg.Planner.Provider)
	assert.Equal(t, "openai", cfg.Executor.Provider)
	assert.Equal(t, "github-models", cfg.Auditor.Provider)
	assert.Equal(t, 85, cfg.Pipeline.QualityThreshold)
	assert.Contains(t, cfg.Pipeline.DeployExtensions, ".css")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GITHUB_TOKEN", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, "sitewright", cfg.Name)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GITHUB_TOKEN", "")

	path := filepath.Join(t.TempDir(), "config.yml")
	data := `
planner:
  provider: anthropic
  model: claude-3-opus
  timeout: 45s
pipeline:
  quality_threshold: 90
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-3-opus", cfg.Planner.Model)
	assert.Equal(t, 90, cfg.Pipeline.QualityThreshold)
	assert.Equal(t, 45*time.Second, cfg.Planner.GetTimeout(time.Minute))
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("ANTHROPIC_API_KEY sets planner key", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "ant-key")

		cfg := Default()
		cfg.applyEnvOverrides()
		assert.Equal(t, "ant-key", cfg.Planner.APIKey)
	})

	t.Run("GITHUB_TOKEN sets auditor and sync keys", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "gh-token")

		cfg := Default()
		cfg.applyEnvOverrides()
		assert.Equal(t, "gh-token", cfg.Auditor.APIKey)
		assert.Equal(t, "gh-token", cfg.Knowledge.SyncAPIToken)
	})

	t.Run("explicit sync token not clobbered", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "gh-token")

		cfg := Default()
		cfg.Knowledge.SyncAPIToken = "explicit"
		cfg.applyEnvOverrides()
		assert.Equal(t, "explicit", cfg.Knowledge.SyncAPIToken)
	})
}

func TestGetTimeout_Invalid(t *testing.T) {
	p := ProviderConfig{Timeout: "soon"}
	assert.Equal(t, 30*time.Second, p.GetTimeout(30*time.Second))
}

func TestStageProvider(t *testing.T) {
	cfg := Default()

	p, err := cfg.StageProvider("auditor")
	require.NoError(t, err)
	assert.Equal(t, "github-models", p.Provider)

	_, err = cfg.StageProvider("reviewer")
	assert.Error(t, err)
}
