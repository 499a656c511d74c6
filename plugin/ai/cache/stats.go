package cache

import "sync"

// Stats summarizes cache effectiveness since process start.
type Stats struct {
	ExactHits      int64   `json:"exact_hits"`
	SemanticHits   int64   `json:"semantic_hits"`
	KnowledgeHits  int64   `json:"knowledge_hits"`
	Misses         int64   `json:"misses"`
	HitRate        float64 `json:"hit_rate"`
	CostSavedUSD   float64 `json:"cost_saved_usd"`
	LatencySavedMs float64 `json:"latency_saved_ms"`
}

type statsCollector struct {
	mu           sync.Mutex
	exact        int64
	semantic     int64
	knowledge    int64
	misses       int64
	costSaved    float64
	latencySaved float64
}

func newStatsCollector() *statsCollector {
	return &statsCollector{}
}

func (s *statsCollector) recordHit(tier Tier, entry *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch tier {
	case TierExact:
		s.exact++
	case TierSemantic:
		s.semantic++
	case TierKnowledge:
		s.knowledge++
	}
	if entry != nil {
		s.costSaved += entry.CostUSD
		s.latencySaved += entry.LatencyMs
	}
}

func (s *statsCollector) recordMiss() {
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
}

func (s *statsCollector) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Stats{
		ExactHits:      s.exact,
		SemanticHits:   s.semantic,
		KnowledgeHits:  s.knowledge,
		Misses:         s.misses,
		CostSavedUSD:   s.costSaved,
		LatencySavedMs: s.latencySaved,
	}
	total := out.ExactHits + out.SemanticHits + out.KnowledgeHits + out.Misses
	if total > 0 {
		out.HitRate = float64(total-out.Misses) / float64(total)
	}
	return out
}
