package llm

import (
	"fmt"

	"sitewright/internal/config"

	"go.uber.org/zap"
)

// Provider identifies an LLM provider.
type Provider string

const (
	ProviderAnthropic    Provider = "anthropic"
	ProviderOpenAI       Provider = "openai"
	ProviderGitHubModels Provider = "github-models"
)

// New builds a Client from a stage's provider configuration. Unset fields
// fall back to the provider defaults.
func New(pc config.ProviderConfig, logger *zap.Logger) (Client, error) {
	switch Provider(pc.Provider) {
	case ProviderAnthropic:
		cfg := DefaultAnthropicConfig(pc.APIKey)
		applyOverrides(&cfg, pc)
		return NewAnthropicClient(cfg, logger), nil
	case ProviderOpenAI:
		cfg := DefaultOpenAIConfig(pc.APIKey)
		applyOverrides(&cfg, pc)
		return NewOpenAIClient(cfg, logger), nil
	case ProviderGitHubModels:
		cfg := DefaultGitHubModelsConfig(pc.APIKey)
		applyOverrides(&cfg, pc)
		return NewGitHubModelsClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", pc.Provider)
	}
}

func applyOverrides(cfg *ClientConfig, pc config.ProviderConfig) {
	if pc.BaseURL != "" {
		cfg.BaseURL = pc.BaseURL
	}
	if pc.Model != "" {
		cfg.Model = pc.Model
	}
	if d := pc.GetTimeout(0); d > 0 {
		cfg.Timeout = d
	}
}
