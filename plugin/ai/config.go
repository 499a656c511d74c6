package ai

import (
	"errors"

	"github.com/hrygo/peakstate/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Embedding EmbeddingConfig
	Backends  BackendsConfig
	Routing   RoutingConfig
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string // openai, siliconflow
	Model      string // text-embedding-3-small
	Dimensions int    // 384, fixed system-wide
	APIKey     string
	BaseURL    string
}

// BackendConfig represents one generation backend endpoint.
type BackendConfig struct {
	Model   string
	APIKey  string
	BaseURL string
}

// BackendsConfig holds the four backend endpoints.
type BackendsConfig struct {
	Local    BackendConfig // free local model behind an OpenAI-compatible server
	Mini     BackendConfig // cheapest remote model
	Empathy  BackendConfig // empathy-specialized remote model
	Flagship BackendConfig // strongest remote model
}

// RoutingConfig holds the complexity thresholds for backend selection.
// These are hand-tuned operational values, not validated invariants.
type RoutingConfig struct {
	CostOptimization bool
	LocalThreshold   int
	MiniThreshold    int
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:   p.EmbeddingProvider,
			Model:      p.EmbeddingModel,
			Dimensions: p.EmbeddingDims,
			APIKey:     p.EmbeddingAPIKey,
			BaseURL:    p.EmbeddingBaseURL,
		},
		Backends: BackendsConfig{
			Local: BackendConfig{
				Model:   p.LocalModel,
				BaseURL: p.LocalModelURL,
			},
			Mini: BackendConfig{
				Model:   p.OpenAIModelMini,
				APIKey:  p.OpenAIAPIKey,
				BaseURL: p.OpenAIBaseURL,
			},
			Empathy: BackendConfig{
				Model:   p.AnthropicModel,
				APIKey:  p.AnthropicAPIKey,
				BaseURL: p.AnthropicBaseURL,
			},
			Flagship: BackendConfig{
				Model:   p.OpenAIModelMain,
				APIKey:  p.OpenAIAPIKey,
				BaseURL: p.OpenAIBaseURL,
			},
		},
		Routing: RoutingConfig{
			CostOptimization: p.CostOptimization,
			LocalThreshold:   p.LocalThreshold,
			MiniThreshold:    p.MiniThreshold,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Embedding.Provider == "" {
		return errors.New("embedding provider is required")
	}
	if c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return errors.New("embedding dimensions must be positive")
	}

	if c.Backends.Mini.APIKey == "" || c.Backends.Flagship.APIKey == "" {
		return errors.New("OpenAI API key is required")
	}
	if c.Backends.Empathy.APIKey == "" {
		return errors.New("Anthropic API key is required")
	}

	return nil
}
