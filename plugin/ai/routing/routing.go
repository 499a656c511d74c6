// Package routing decides which backend answers a request. The decision
// table is ordered and deterministic: same inputs, same backend, same
// reason string.
package routing

import (
	"fmt"
	"log/slog"

	"github.com/hrygo/peakstate/plugin/ai/intent"
)

// Backend identifies one generation backend tier.
type Backend string

const (
	BackendLocal    Backend = "local"
	BackendMini     Backend = "mini"
	BackendEmpathy  Backend = "empathy"
	BackendFlagship Backend = "flagship"
)

// BackendProfile carries the cost and latency model for one backend.
// Rates are per 1K tokens; latency is the static planning estimate.
type BackendProfile struct {
	Model      string
	CostPer1K  float64
	LatencySec float64
}

// Decision is the routing outcome for one request.
type Decision struct {
	Backend          Backend `json:"backend"`
	Model            string  `json:"model"`
	Reason           string  `json:"reason"`
	Complexity       int     `json:"complexity"`
	EstimatedCost    float64 `json:"estimated_cost"`
	EstimatedLatency float64 `json:"estimated_latency_sec"`
	EstimatedTokens  int     `json:"estimated_tokens"`
}

// Config holds the routing thresholds and backend profiles. Thresholds
// are tunable per deployment; the defaults match the cost model the
// profiles were calibrated against.
type Config struct {
	CostOptimization bool
	LocalThreshold   int
	MiniThreshold    int
	Backends         map[Backend]BackendProfile
}

// DefaultConfig returns the stock thresholds and backend cost model.
func DefaultConfig() Config {
	return Config{
		CostOptimization: true,
		LocalThreshold:   3,
		MiniThreshold:    6,
		Backends: map[Backend]BackendProfile{
			BackendLocal:    {Model: "phi-3.5", CostPer1K: 0, LatencySec: 0.05},
			BackendMini:     {Model: "gpt-5-nano", CostPer1K: 0.0002, LatencySec: 0.8},
			BackendEmpathy:  {Model: "claude-sonnet-4", CostPer1K: 0.003, LatencySec: 1.5},
			BackendFlagship: {Model: "gpt-5", CostPer1K: 0.005, LatencySec: 2.0},
		},
	}
}

// Engine applies the routing decision table.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine creates a routing engine with the given configuration.
// Missing backend profiles fall back to the defaults.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultConfig()
	if cfg.Backends == nil {
		cfg.Backends = defaults.Backends
	} else {
		for b, p := range defaults.Backends {
			if _, ok := cfg.Backends[b]; !ok {
				cfg.Backends[b] = p
			}
		}
	}
	if cfg.LocalThreshold == 0 {
		cfg.LocalThreshold = defaults.LocalThreshold
	}
	if cfg.MiniThreshold == 0 {
		cfg.MiniThreshold = defaults.MiniThreshold
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Route picks a backend for a classified, scored message. force, when
// non-empty, bypasses the decision table entirely.
func (e *Engine) Route(cls intent.Classification, complexity int, messageLen int, force Backend) Decision {
	backend, reason := e.pick(cls, complexity, force)
	profile := e.cfg.Backends[backend]
	tokens := estimateTokens(messageLen)
	return Decision{
		Backend:          backend,
		Model:            profile.Model,
		Reason:           reason,
		Complexity:       complexity,
		EstimatedCost:    profile.CostPer1K * float64(tokens) / 1000.0,
		EstimatedLatency: profile.LatencySec,
		EstimatedTokens:  tokens,
	}
}

func (e *Engine) pick(cls intent.Classification, complexity int, force Backend) (Backend, string) {
	if force != "" {
		return force, fmt.Sprintf("forced to %s", force)
	}
	if !e.cfg.CostOptimization {
		return BackendFlagship, "cost optimization disabled"
	}
	if complexity < e.cfg.LocalThreshold {
		return BackendLocal, fmt.Sprintf("complexity %d below local threshold %d", complexity, e.cfg.LocalThreshold)
	}
	if complexity < e.cfg.MiniThreshold {
		return BackendMini, fmt.Sprintf("complexity %d below mini threshold %d", complexity, e.cfg.MiniThreshold)
	}
	if cls.RequiresEmpathy {
		return BackendEmpathy, "empathy required"
	}
	return BackendFlagship, fmt.Sprintf("complexity %d requires flagship", complexity)
}

// estimateTokens approximates token usage from message length. The
// floor keeps short messages from looking free.
func estimateTokens(messageLen int) int {
	tokens := messageLen / 4
	if tokens < 100 {
		return 100
	}
	return tokens
}
