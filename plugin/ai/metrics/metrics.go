// Package metrics aggregates per-backend request outcomes for the
// operator stats endpoint and persists routing decisions for offline
// analysis.
package metrics

import "sync"

// BackendStats summarizes the traffic one backend has served.
type BackendStats struct {
	Requests    int64   `json:"requests"`
	Failures    int64   `json:"failures"`
	TokensUsed  int64   `json:"tokens_used"`
	CostUSD     float64 `json:"cost_usd"`
	AvgLatMs    float64 `json:"avg_latency_ms"`
	SuccessRate float64 `json:"success_rate"`
}

// Stats is a point-in-time snapshot of the aggregator.
type Stats struct {
	TotalRequests int64                   `json:"total_requests"`
	PerBackend    map[string]BackendStats `json:"per_backend"`
}

type backendCounters struct {
	requests  int64
	failures  int64
	tokens    int64
	cost      float64
	latencyMs float64
}

// Aggregator accumulates request outcomes in memory. Safe for
// concurrent use.
type Aggregator struct {
	mu       sync.Mutex
	backends map[string]*backendCounters
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{backends: make(map[string]*backendCounters)}
}

// Record adds one request outcome for a backend.
func (a *Aggregator) Record(backend string, latencyMs, costUSD float64, tokens int, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.backends[backend]
	if !ok {
		c = &backendCounters{}
		a.backends[backend] = c
	}
	c.requests++
	if !success {
		c.failures++
	}
	c.tokens += int64(tokens)
	c.cost += costUSD
	c.latencyMs += latencyMs
}

// Snapshot returns the current totals.
func (a *Aggregator) Snapshot() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := Stats{PerBackend: make(map[string]BackendStats, len(a.backends))}
	for name, c := range a.backends {
		s := BackendStats{
			Requests:   c.requests,
			Failures:   c.failures,
			TokensUsed: c.tokens,
			CostUSD:    c.cost,
		}
		if c.requests > 0 {
			s.AvgLatMs = c.latencyMs / float64(c.requests)
			s.SuccessRate = float64(c.requests-c.failures) / float64(c.requests)
		}
		out.PerBackend[name] = s
		out.TotalRequests += c.requests
	}
	return out
}
