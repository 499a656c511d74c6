package intent

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/hrygo/peakstate/plugin/ai/provider"
)

// Embedder is the slice of the embedding service the classifier needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Stats is a snapshot of classifier counters.
type Stats struct {
	Total        int64   `json:"total"`
	RuleHits     int64   `json:"rule_hits"`
	SemanticHits int64   `json:"semantic_hits"`
	Fallbacks    int64   `json:"fallbacks"`
	AvgMillis    float64 `json:"avg_ms"`
}

// Classifier assigns an intent to each incoming message. It is safe for
// concurrent use; the template embeddings are computed once on first use.
type Classifier struct {
	embedder Embedder
	logger   *slog.Logger

	loadMu   sync.Mutex
	loaded   bool
	examples []templateExample

	statsMu   sync.Mutex
	total     int64
	ruleHits  int64
	semantic  int64
	fallbacks int64
	elapsed   time.Duration
}

type templateExample struct {
	intent Intent
	vector []float32
}

// NewClassifier creates a classifier backed by the given embedder.
func NewClassifier(embedder Embedder, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{embedder: embedder, logger: logger}
}

// Classify determines the intent of a message. It never returns an
// error: when the semantic stage cannot run, the result degrades to
// advice-request at confidence 0.6 so routing always has an input.
func (c *Classifier) Classify(ctx context.Context, message string, history []provider.Message) Classification {
	start := time.Now()
	result := c.classify(ctx, message, history)
	result.Elapsed = time.Since(start)
	result = result.withFlags()
	c.record(result)
	return result
}

func (c *Classifier) classify(ctx context.Context, message string, _ []provider.Message) Classification {
	if ruled, ok := matchRule(message); ok {
		return Classification{Intent: ruled, Confidence: ruleConfidence, Method: MethodRule}
	}

	if err := c.ensureTemplates(ctx); err != nil {
		c.logger.Warn("intent template load failed, falling back",
			slog.String("error", err.Error()))
		return fallbackClassification()
	}

	vec, err := c.embedder.Embed(ctx, message)
	if err != nil {
		c.logger.Warn("intent embedding failed, falling back",
			slog.String("error", err.Error()))
		return fallbackClassification()
	}

	var (
		best   Intent
		top    float64
		second float64
	)
	for _, ex := range c.examples {
		sim := cosine(vec, ex.vector)
		if sim > top {
			if ex.intent != best {
				second = top
			}
			top = sim
			best = ex.intent
		} else if ex.intent != best && sim > second {
			second = sim
		}
	}
	if best == "" {
		return fallbackClassification()
	}

	margin := top - second
	confidence := top * (1 + margin*0.5)
	confidence = math.Min(math.Max(confidence, 0.5), 0.99)

	return Classification{Intent: best, Confidence: confidence, Method: MethodSemantic}
}

func fallbackClassification() Classification {
	return Classification{Intent: IntentAdviceRequest, Confidence: 0.6, Method: MethodFallback}
}

// ensureTemplates embeds the example phrases once per process. Concurrent
// first callers block on the same load rather than embedding twice.
func (c *Classifier) ensureTemplates(ctx context.Context) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if c.loaded {
		return nil
	}

	var (
		intents []Intent
		texts   []string
	)
	for _, it := range All() {
		for _, phrase := range templates[it] {
			intents = append(intents, it)
			texts = append(texts, phrase)
		}
	}

	vectors, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}

	examples := make([]templateExample, len(vectors))
	for i, v := range vectors {
		examples[i] = templateExample{intent: intents[i], vector: v}
	}
	c.examples = examples
	c.loaded = true
	c.logger.Info("intent templates embedded", slog.Int("examples", len(examples)))
	return nil
}

func (c *Classifier) record(result Classification) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.total++
	c.elapsed += result.Elapsed
	switch result.Method {
	case MethodRule:
		c.ruleHits++
	case MethodSemantic:
		c.semantic++
	default:
		c.fallbacks++
	}
}

// Stats returns a snapshot of the classifier counters.
func (c *Classifier) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	s := Stats{
		Total:        c.total,
		RuleHits:     c.ruleHits,
		SemanticHits: c.semantic,
		Fallbacks:    c.fallbacks,
	}
	if c.total > 0 {
		s.AvgMillis = float64(c.elapsed.Microseconds()) / float64(c.total) / 1000.0
	}
	return s
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	return sim
}
