// Package config holds all sitewright configuration.
// Configuration is loaded from an optional YAML file and overridden by
// environment variables, so CI workflows can run with nothing but secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all sitewright configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Per-stage LLM providers
	Planner  ProviderConfig `yaml:"planner"`
	Executor ProviderConfig `yaml:"executor"`
	Auditor  ProviderConfig `yaml:"auditor"`

	// Pipeline behavior
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Knowledge ingestion
	Knowledge KnowledgeConfig `yaml:"knowledge"`
}

// ProviderConfig configures one LLM collaborator.
type ProviderConfig struct {
	Provider string `yaml:"provider"` // anthropic, openai, github-models
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// PipelineConfig configures stage gating and deployment.
type PipelineConfig struct {
	QualityThreshold  int      `yaml:"quality_threshold"`
	SafetyLevel       string   `yaml:"safety_level"`
	DeployExtensions  []string `yaml:"deploy_extensions"`
	BackupBeforeApply bool     `yaml:"backup_before_apply"`
}

// KnowledgeConfig configures the documentation ingestion pipeline.
type KnowledgeConfig struct {
	DomainTerms  []string `yaml:"domain_terms"`
	MaxFeatures  int      `yaml:"max_features"`
	IndexPath    string   `yaml:"index_path"`
	SyncAPIBase  string   `yaml:"sync_api_base"`
	SyncAPIToken string   `yaml:"sync_api_token"`
}

// Default returns a Config with working defaults for every stage.
func Default() *Config {
	return &Config{
		Name:    "sitewright",
		Version: "1.0.0",
		Planner: ProviderConfig{
			Provider: "anthropic",
			Model:    "claude-3-5-sonnet-20241022",
			BaseURL:  "https://api.anthropic.com/v1",
			Timeout:  "120s",
		},
		Executor: ProviderConfig{
			Provider: "openai",
			Model:    "gpt-4-1106-preview",
			BaseURL:  "https://api.openai.com/v1",
			Timeout:  "600s",
		},
		Auditor: ProviderConfig{
			Provider: "github-models",
			Model:    "meta-llama-3.1-405b-instruct",
			BaseURL:  "https://models.inference.ai.azure.com",
			Timeout:  "30s",
		},
		Pipeline: PipelineConfig{
			QualityThreshold:  85,
			SafetyLevel:       "conservative",
			DeployExtensions:  []string{".html", ".css", ".tsx", ".js"},
			BackupBeforeApply: true,
		},
		Knowledge: KnowledgeConfig{
			MaxFeatures: 1000,
			IndexPath:   "background/content_index.db",
			SyncAPIBase: "https://api.github.com",
		},
	}
}

// Load reads configuration from path, falling back to defaults when the
// file is absent. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides maps the conventional CI secrets onto the per-stage
// provider configs. A key from the environment always wins over the file.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.Planner.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Executor.APIKey = key
	}
	if key := os.Getenv("GITHUB_TOKEN"); key != "" {
		c.Auditor.APIKey = key
		if c.Knowledge.SyncAPIToken == "" {
			c.Knowledge.SyncAPIToken = key
		}
	}
}

// GetTimeout parses the provider timeout, returning def when unset or invalid.
func (p ProviderConfig) GetTimeout(def time.Duration) time.Duration {
	if p.Timeout == "" {
		return def
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return def
	}
	return d
}

// StageProvider returns the provider config for a named pipeline stage.
func (c *Config) StageProvider(stage string) (ProviderConfig, error) {
	switch stage {
	case "planner":
		return c.Planner, nil
	case "executor":
		return c.Executor, nil
	case "auditor":
		return c.Auditor, nil
	default:
		return ProviderConfig{}, fmt.Errorf("unknown stage: %s", stage)
	}
}
