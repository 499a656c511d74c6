package cache

import "time"

// SchemaVersion is bumped whenever the serialized Entry layout changes.
// Entries with an unknown version are treated as misses and rewritten.
const SchemaVersion = 1

// Entry is a cached response. It is serialized as JSON in Redis values
// and in vector index payloads.
type Entry struct {
	SchemaVersion int       `json:"schema_version"`
	Query         string    `json:"query"`
	Response      string    `json:"response"`
	Backend       string    `json:"backend"`
	Intent        string    `json:"intent"`
	Complexity    int       `json:"complexity"`
	TokensUsed    int       `json:"tokens_used"`
	CostUSD       float64   `json:"cost_usd"`
	LatencyMs     float64   `json:"latency_ms"`
	CreatedAt     time.Time `json:"created_at"`
	HitCount      int       `json:"hit_count"`
}

// Tier identifies which cache layer produced a hit.
type Tier string

const (
	TierExact     Tier = "exact"
	TierSemantic  Tier = "semantic"
	TierKnowledge Tier = "knowledge"
	TierNone      Tier = "none"
)
