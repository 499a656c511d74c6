// Package cache implements the three-tier response cache: exact match
// in Redis, per-user semantic match in the vector index, and a shared
// knowledge base. Lookup walks the tiers in strict order; a failing tier
// degrades to a miss for that tier only.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/peakstate/internal/kvstore"
	"github.com/hrygo/peakstate/internal/vectorindex"
	"github.com/hrygo/peakstate/plugin/ai/provider"
)

const knowledgeCollection = "knowledge_base_qa"

// Embedder is the slice of the embedding service the cache needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Config holds the cache tuning knobs.
type Config struct {
	TTL                time.Duration
	SemanticThreshold  float32
	KnowledgeThreshold float32
	// MinComplexity is the complexity below which responses are too cheap
	// to be worth a Tier-2 embedding write.
	MinComplexity int
}

// DefaultConfig returns the stock cache configuration.
func DefaultConfig() Config {
	return Config{
		TTL:                24 * time.Hour,
		SemanticThreshold:  0.92,
		KnowledgeThreshold: 0.88,
		MinComplexity:      3,
	}
}

// LookupRequest identifies what to look for and on whose behalf.
type LookupRequest struct {
	UserID  string
	Query   string
	History []provider.Message
}

// StoreRequest carries a fresh response for write-back.
type StoreRequest struct {
	UserID     string
	Query      string
	History    []provider.Message
	Entry      Entry
	Complexity int
}

// Manager coordinates the three tiers.
type Manager struct {
	kv       kvstore.Store
	index    vectorindex.Index
	embedder Embedder
	cfg      Config
	logger   *slog.Logger
	stats    *statsCollector
}

// NewManager creates a cache manager over the given stores.
func NewManager(kv kvstore.Store, index vectorindex.Index, embedder Embedder, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	return &Manager{
		kv:       kv,
		index:    index,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
		stats:    newStatsCollector(),
	}
}

// Lookup walks the tiers in order and returns the first hit. A tier
// failure is logged and treated as a miss for that tier only.
func (m *Manager) Lookup(ctx context.Context, req LookupRequest) (*Entry, Tier, bool) {
	if entry, ok := m.lookupExact(ctx, req); ok {
		m.stats.recordHit(TierExact, entry)
		return entry, TierExact, true
	}

	vec, err := m.embedder.Embed(ctx, req.Query)
	if err != nil {
		m.logger.Warn("cache query embedding failed, skipping semantic tiers",
			slog.String("error", err.Error()))
		m.stats.recordMiss()
		return nil, TierNone, false
	}

	if entry, ok := m.lookupVector(ctx, semanticCollection(req.UserID), vec, m.cfg.SemanticThreshold); ok {
		m.stats.recordHit(TierSemantic, entry)
		return entry, TierSemantic, true
	}
	if entry, ok := m.lookupVector(ctx, knowledgeCollection, vec, m.cfg.KnowledgeThreshold); ok {
		m.stats.recordHit(TierKnowledge, entry)
		return entry, TierKnowledge, true
	}

	m.stats.recordMiss()
	return nil, TierNone, false
}

func (m *Manager) lookupExact(ctx context.Context, req LookupRequest) (*Entry, bool) {
	key := exactKey(req.UserID, req.Query, req.History)
	raw, ok, err := m.kv.Get(ctx, key)
	if err != nil {
		m.logger.Warn("exact cache read failed", slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.SchemaVersion != SchemaVersion {
		// Stale or corrupt entry, drop it and report a miss.
		_ = m.kv.Delete(ctx, key)
		return nil, false
	}

	entry.HitCount++
	if updated, err := json.Marshal(entry); err == nil {
		if err := m.kv.Set(ctx, key, string(updated), m.cfg.TTL); err != nil {
			m.logger.Warn("exact cache refresh failed", slog.String("error", err.Error()))
		}
	}
	return &entry, true
}

func (m *Manager) lookupVector(ctx context.Context, collection string, vec []float32, threshold float32) (*Entry, bool) {
	results, err := m.index.Search(ctx, collection, vec, 1, threshold)
	if err != nil {
		m.logger.Warn("vector cache read failed",
			slog.String("collection", collection),
			slog.String("error", err.Error()))
		return nil, false
	}
	if len(results) == 0 {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(results[0].Payload, &entry); err != nil || entry.SchemaVersion != SchemaVersion {
		return nil, false
	}
	return &entry, true
}

// Store writes a response back. Tier 1 always; Tier 2 only when the
// response was expensive enough to be worth a semantic entry. The two
// writes are independent best-effort.
func (m *Manager) Store(ctx context.Context, req StoreRequest) error {
	entry := req.Entry
	entry.SchemaVersion = SchemaVersion
	entry.Query = req.Query
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	var firstErr error
	key := exactKey(req.UserID, req.Query, req.History)
	if err := m.kv.Set(ctx, key, string(raw), m.cfg.TTL); err != nil {
		m.logger.Warn("exact cache write failed", slog.String("error", err.Error()))
		firstErr = err
	}

	if req.Complexity >= m.cfg.MinComplexity {
		if err := m.storeSemantic(ctx, req.UserID, req.Query, raw); err != nil {
			m.logger.Warn("semantic cache write failed", slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *Manager) storeSemantic(ctx context.Context, userID, query string, payload []byte) error {
	vec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return err
	}
	collection := semanticCollection(userID)
	if err := m.index.EnsureCollection(ctx, collection, m.embedder.Dimensions()); err != nil {
		return err
	}
	// Deterministic id so restoring the same query replaces its point.
	return m.index.Upsert(ctx, collection, md5sum(normalizeQuery(query))[:16], vec, payload)
}

// InvalidateUser removes every Tier-1 key and the Tier-2 collection of a
// user. The shared knowledge base is untouched.
func (m *Manager) InvalidateUser(ctx context.Context, userID string) (int, error) {
	deleted, err := m.kv.DeleteByPrefix(ctx, userKeyPrefix(userID))
	if err != nil {
		return 0, fmt.Errorf("invalidate exact cache: %w", err)
	}
	if err := m.index.DeleteCollection(ctx, semanticCollection(userID)); err != nil {
		return deleted, fmt.Errorf("invalidate semantic cache: %w", err)
	}
	m.logger.Info("user cache invalidated",
		slog.String("user_id", userID),
		slog.Int("exact_keys_deleted", deleted))
	return deleted, nil
}

// Stats returns a snapshot of cache effectiveness counters.
func (m *Manager) Stats() Stats {
	return m.stats.snapshot()
}

func semanticCollection(userID string) string {
	return "cache_user_" + userID
}
