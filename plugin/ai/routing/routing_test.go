package routing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/peakstate/plugin/ai/intent"
)

func TestRouteGreetingGoesLocal(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	cls := intent.Classification{Intent: intent.IntentGreeting}

	d := e.Route(cls, 1, len("你好"), "")
	require.Equal(t, BackendLocal, d.Backend)
	require.Equal(t, "phi-3.5", d.Model)
	require.Equal(t, 0.0, d.EstimatedCost)
	require.Equal(t, "complexity 1 below local threshold 3", d.Reason)
}

func TestRouteMidComplexityGoesMini(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	cls := intent.Classification{Intent: intent.IntentAdviceRequest}

	d := e.Route(cls, 5, 120, "")
	require.Equal(t, BackendMini, d.Backend)
	require.Equal(t, "gpt-5-nano", d.Model)
}

func TestRouteEmotionalSupportGoesEmpathy(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	cls := intent.Classification{
		Intent:          intent.IntentEmotionalSupport,
		RequiresEmpathy: true,
	}

	d := e.Route(cls, 7, 80, "")
	require.Equal(t, BackendEmpathy, d.Backend)
	require.Equal(t, "claude-sonnet-4", d.Model)
	require.Equal(t, "empathy required", d.Reason)
}

func TestRouteHighComplexityGoesFlagship(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	cls := intent.Classification{Intent: intent.IntentComplexAnalysis}

	d := e.Route(cls, 9, 300, "")
	require.Equal(t, BackendFlagship, d.Backend)
	require.Equal(t, "gpt-5", d.Model)
	require.Equal(t, 2.0, d.EstimatedLatency)
}

func TestRouteCostOptimizationDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CostOptimization = false
	e := NewEngine(cfg, nil)
	cls := intent.Classification{Intent: intent.IntentGreeting}

	d := e.Route(cls, 1, 5, "")
	require.Equal(t, BackendFlagship, d.Backend)
	require.Equal(t, "cost optimization disabled", d.Reason)
}

func TestRouteForceBypassesTable(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	cls := intent.Classification{Intent: intent.IntentGreeting}

	d := e.Route(cls, 1, 5, BackendFlagship)
	require.Equal(t, BackendFlagship, d.Backend)
	require.Equal(t, "forced to flagship", d.Reason)
}

func TestRouteDeterministic(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	cls := intent.Classification{Intent: intent.IntentAdviceRequest}

	first := e.Route(cls, 4, 200, "")
	for i := 0; i < 10; i++ {
		require.Equal(t, first, e.Route(cls, 4, 200, ""))
	}
}

func TestEstimatedCost(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	cls := intent.Classification{Intent: intent.IntentComplexAnalysis}

	// 2000 chars -> 500 tokens at $0.005/1K.
	d := e.Route(cls, 9, 2000, "")
	require.Equal(t, 500, d.EstimatedTokens)
	require.InDelta(t, 0.0025, d.EstimatedCost, 1e-9)

	// Short messages floor at 100 tokens.
	d = e.Route(cls, 9, 8, "")
	require.Equal(t, 100, d.EstimatedTokens)
}

func TestCustomThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LocalThreshold = 5
	cfg.MiniThreshold = 8
	e := NewEngine(cfg, nil)
	cls := intent.Classification{Intent: intent.IntentAdviceRequest}

	d := e.Route(cls, 4, 100, "")
	require.Equal(t, BackendLocal, d.Backend)

	d = e.Route(cls, 7, 100, "")
	require.Equal(t, BackendMini, d.Backend)
}
