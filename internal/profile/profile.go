package profile

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the server
	Addr string
	// Port is the binding port for the server
	Port int
	// Version is the current version of the server
	Version string

	// Routing configuration
	CostOptimization bool // PEAKSTATE_AI_COST_OPTIMIZATION (default: true)
	LocalThreshold   int  // PEAKSTATE_AI_ROUTE_LOCAL_THRESHOLD (default: 3)
	MiniThreshold    int  // PEAKSTATE_AI_ROUTE_MINI_THRESHOLD (default: 6)

	// Backend credentials and endpoints
	OpenAIAPIKey     string // PEAKSTATE_OPENAI_API_KEY
	OpenAIBaseURL    string // PEAKSTATE_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	OpenAIModelMain  string // PEAKSTATE_OPENAI_MODEL_MAIN (default: gpt-5)
	OpenAIModelMini  string // PEAKSTATE_OPENAI_MODEL_MINI (default: gpt-5-nano)
	AnthropicAPIKey  string // PEAKSTATE_ANTHROPIC_API_KEY
	AnthropicBaseURL string // PEAKSTATE_ANTHROPIC_BASE_URL
	AnthropicModel   string // PEAKSTATE_ANTHROPIC_MODEL (default: claude-sonnet-4)
	LocalModelURL    string // PEAKSTATE_LOCAL_MODEL_URL (default: http://localhost:11434/v1)
	LocalModel       string // PEAKSTATE_LOCAL_MODEL (default: phi-3.5)

	// Embedding configuration
	EmbeddingProvider string // PEAKSTATE_EMBEDDING_PROVIDER (default: openai)
	EmbeddingModel    string // PEAKSTATE_EMBEDDING_MODEL (default: text-embedding-3-small)
	EmbeddingAPIKey   string // PEAKSTATE_EMBEDDING_API_KEY (falls back to OpenAI key)
	EmbeddingBaseURL  string // PEAKSTATE_EMBEDDING_BASE_URL
	EmbeddingDims     int    // PEAKSTATE_EMBEDDING_DIMS (default: 384)

	// Cache configuration
	RedisAddr          string  // PEAKSTATE_REDIS_ADDR (default: localhost:6379)
	RedisPassword      string  // PEAKSTATE_REDIS_PASSWORD
	RedisDB            int     // PEAKSTATE_REDIS_DB (default: 0)
	VectorDSN          string  // PEAKSTATE_VECTOR_DSN (postgres DSN with pgvector)
	CacheTTLSeconds    int     // PEAKSTATE_CACHE_TTL_SECONDS (default: 86400)
	SemanticThreshold  float32 // PEAKSTATE_CACHE_SEMANTIC_THRESHOLD (default: 0.92)
	KnowledgeThreshold float32 // PEAKSTATE_CACHE_KNOWLEDGE_THRESHOLD (default: 0.88)

	// Metrics configuration
	MetricsDSN string // PEAKSTATE_METRICS_DSN (sqlite path, empty disables persistence)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}

func getBoolEnvOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true"
	}
	return defaultValue
}

// FromEnv loads configuration from PEAKSTATE_* environment variables.
func (p *Profile) FromEnv() {
	p.CostOptimization = getBoolEnvOrDefault("PEAKSTATE_AI_COST_OPTIMIZATION", true)
	p.LocalThreshold = getIntEnvOrDefault("PEAKSTATE_AI_ROUTE_LOCAL_THRESHOLD", 3)
	p.MiniThreshold = getIntEnvOrDefault("PEAKSTATE_AI_ROUTE_MINI_THRESHOLD", 6)

	p.OpenAIAPIKey = os.Getenv("PEAKSTATE_OPENAI_API_KEY")
	p.OpenAIBaseURL = getEnvOrDefault("PEAKSTATE_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.OpenAIModelMain = getEnvOrDefault("PEAKSTATE_OPENAI_MODEL_MAIN", "gpt-5")
	p.OpenAIModelMini = getEnvOrDefault("PEAKSTATE_OPENAI_MODEL_MINI", "gpt-5-nano")
	p.AnthropicAPIKey = os.Getenv("PEAKSTATE_ANTHROPIC_API_KEY")
	p.AnthropicBaseURL = os.Getenv("PEAKSTATE_ANTHROPIC_BASE_URL")
	p.AnthropicModel = getEnvOrDefault("PEAKSTATE_ANTHROPIC_MODEL", "claude-sonnet-4")
	p.LocalModelURL = getEnvOrDefault("PEAKSTATE_LOCAL_MODEL_URL", "http://localhost:11434/v1")
	p.LocalModel = getEnvOrDefault("PEAKSTATE_LOCAL_MODEL", "phi-3.5")

	p.EmbeddingProvider = getEnvOrDefault("PEAKSTATE_EMBEDDING_PROVIDER", "openai")
	p.EmbeddingModel = getEnvOrDefault("PEAKSTATE_EMBEDDING_MODEL", "text-embedding-3-small")
	p.EmbeddingAPIKey = getEnvOrDefault("PEAKSTATE_EMBEDDING_API_KEY", os.Getenv("PEAKSTATE_OPENAI_API_KEY"))
	p.EmbeddingBaseURL = os.Getenv("PEAKSTATE_EMBEDDING_BASE_URL")
	p.EmbeddingDims = getIntEnvOrDefault("PEAKSTATE_EMBEDDING_DIMS", 384)

	p.RedisAddr = getEnvOrDefault("PEAKSTATE_REDIS_ADDR", "localhost:6379")
	p.RedisPassword = os.Getenv("PEAKSTATE_REDIS_PASSWORD")
	p.RedisDB = getIntEnvOrDefault("PEAKSTATE_REDIS_DB", 0)
	p.VectorDSN = os.Getenv("PEAKSTATE_VECTOR_DSN")
	p.CacheTTLSeconds = getIntEnvOrDefault("PEAKSTATE_CACHE_TTL_SECONDS", 86400)
	p.SemanticThreshold = getFloatEnvOrDefault("PEAKSTATE_CACHE_SEMANTIC_THRESHOLD", 0.92)
	p.KnowledgeThreshold = getFloatEnvOrDefault("PEAKSTATE_CACHE_KNOWLEDGE_THRESHOLD", 0.88)

	p.MetricsDSN = os.Getenv("PEAKSTATE_METRICS_DSN")
}

// Validate checks that the profile can serve traffic. Missing backend
// credentials are fatal at startup rather than a silent degradation.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}

	if p.OpenAIAPIKey == "" {
		return errors.New("PEAKSTATE_OPENAI_API_KEY is required")
	}
	if p.AnthropicAPIKey == "" {
		return errors.New("PEAKSTATE_ANTHROPIC_API_KEY is required")
	}
	if p.EmbeddingAPIKey == "" {
		return errors.New("PEAKSTATE_EMBEDDING_API_KEY is required")
	}

	if p.LocalThreshold < 0 || p.LocalThreshold > 10 {
		return errors.Errorf("local threshold %d out of range [0,10]", p.LocalThreshold)
	}
	if p.MiniThreshold < 0 || p.MiniThreshold > 10 {
		return errors.Errorf("mini threshold %d out of range [0,10]", p.MiniThreshold)
	}
	if p.MiniThreshold < p.LocalThreshold {
		return errors.Errorf("mini threshold %d below local threshold %d", p.MiniThreshold, p.LocalThreshold)
	}

	if p.EmbeddingDims <= 0 {
		return errors.Errorf("invalid embedding dimensions %d", p.EmbeddingDims)
	}

	return nil
}
