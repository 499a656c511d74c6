package cache_test

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/peakstate/internal/kvstore"
	"github.com/hrygo/peakstate/internal/vectorindex"
	ai "github.com/hrygo/peakstate/plugin/ai"
	"github.com/hrygo/peakstate/plugin/ai/cache"
	"github.com/hrygo/peakstate/plugin/ai/provider"
)

type fixture struct {
	manager  *cache.Manager
	mr       *miniredis.Miniredis
	index    *vectorindex.MemoryIndex
	embedder *ai.MockEmbeddingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	kv := kvstore.NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = kv.Close() })

	index := vectorindex.NewMemoryIndex(384)
	embedder := ai.NewMockEmbeddingService(384)
	manager := cache.NewManager(kv, index, embedder, cache.DefaultConfig(), nil)
	return &fixture{manager: manager, mr: mr, index: index, embedder: embedder}
}

func storeEntry(t *testing.T, f *fixture, userID, query string, complexity int) {
	t.Helper()
	err := f.manager.Store(context.Background(), cache.StoreRequest{
		UserID: userID,
		Query:  query,
		Entry: cache.Entry{
			Response:   "cached answer for " + query,
			Backend:    "gpt-5-nano",
			Complexity: complexity,
			CostUSD:    0.001,
			LatencyMs:  800,
		},
		Complexity: complexity,
	})
	require.NoError(t, err)
}

func TestExactHitIncrementsHitCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storeEntry(t, f, "user-1", "你好", 1)

	entry, tier, ok := f.manager.Lookup(ctx, cache.LookupRequest{UserID: "user-1", Query: "你好"})
	require.True(t, ok)
	require.Equal(t, cache.TierExact, tier)
	require.Equal(t, 1, entry.HitCount)

	entry, _, ok = f.manager.Lookup(ctx, cache.LookupRequest{UserID: "user-1", Query: "你好"})
	require.True(t, ok)
	require.Equal(t, 2, entry.HitCount)
}

func TestExactKeyNormalization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storeEntry(t, f, "user-1", "How did I sleep", 1)

	_, tier, ok := f.manager.Lookup(ctx, cache.LookupRequest{UserID: "user-1", Query: "  how   did i SLEEP "})
	require.True(t, ok)
	require.Equal(t, cache.TierExact, tier)
}

func TestExactKeyContextSensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	history := []provider.Message{
		{Role: "user", Content: "tell me about my sleep"},
		{Role: "assistant", Content: "you slept seven hours"},
	}
	err := f.manager.Store(ctx, cache.StoreRequest{
		UserID:  "user-1",
		Query:   "why",
		History: history,
		Entry:   cache.Entry{Response: "because of your late workout"},
	})
	require.NoError(t, err)

	// Same question inside the same conversation hits.
	_, tier, ok := f.manager.Lookup(ctx, cache.LookupRequest{UserID: "user-1", Query: "why", History: history})
	require.True(t, ok)
	require.Equal(t, cache.TierExact, tier)

	// Same question with no conversation context keys differently.
	_, _, ok = f.manager.Lookup(ctx, cache.LookupRequest{UserID: "user-1", Query: "why"})
	require.False(t, ok)
}

func TestSemanticHitForParaphrase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storeEntry(t, f, "user-1", "how can I improve my deep sleep quality", 5)

	entry, tier, ok := f.manager.Lookup(ctx, cache.LookupRequest{
		UserID: "user-1",
		Query:  "how can I improve my deep sleep quality tonight",
	})
	require.True(t, ok)
	require.Equal(t, cache.TierSemantic, tier)
	require.Contains(t, entry.Response, "cached answer")
}

func TestLowComplexitySkipsSemanticTier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storeEntry(t, f, "user-1", "你好", 1)

	// Complexity 1 is below the Tier-2 write threshold, so a paraphrase
	// finds nothing.
	_, _, ok := f.manager.Lookup(ctx, cache.LookupRequest{UserID: "user-1", Query: "你好 朋友 今天"})
	require.False(t, ok)
}

func TestSemanticTierIsPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storeEntry(t, f, "user-1", "how can I improve my deep sleep quality", 5)

	_, _, ok := f.manager.Lookup(ctx, cache.LookupRequest{
		UserID: "user-2",
		Query:  "how can I improve my deep sleep quality tonight",
	})
	require.False(t, ok)
}

func TestKnowledgeBaseHit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	corpus := `[
		{"question": "what is sleep hygiene exactly", "answer": "Sleep hygiene is the set of habits that support good sleep.", "category": "sleep"},
		{"question": "how much water should I drink daily", "answer": "Around two liters for most adults.", "category": "nutrition"}
	]`
	loaded, err := f.manager.LoadKnowledgeBase(ctx, strings.NewReader(corpus))
	require.NoError(t, err)
	require.Equal(t, 2, loaded)

	entry, tier, ok := f.manager.Lookup(ctx, cache.LookupRequest{
		UserID: "user-9",
		Query:  "what is good sleep hygiene exactly",
	})
	require.True(t, ok)
	require.Equal(t, cache.TierKnowledge, tier)
	require.Contains(t, entry.Response, "habits")
}

func TestKnowledgeLoaderOnlyPopulatesTier3(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	corpus := `[{"question": "what is sleep hygiene exactly", "answer": "Habits that support good sleep."}]`
	_, err := f.manager.LoadKnowledgeBase(ctx, strings.NewReader(corpus))
	require.NoError(t, err)

	// The loader never writes to the exact tier.
	require.Empty(t, f.mr.Keys())
}

func TestInvalidateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storeEntry(t, f, "user-1", "how can I improve my deep sleep quality", 5)
	storeEntry(t, f, "user-2", "how can I improve my deep sleep quality", 5)

	deleted, err := f.manager.InvalidateUser(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	// user-1 misses on both tiers.
	_, _, ok := f.manager.Lookup(ctx, cache.LookupRequest{UserID: "user-1", Query: "how can I improve my deep sleep quality"})
	require.False(t, ok)

	// user-2 is untouched.
	_, tier, ok := f.manager.Lookup(ctx, cache.LookupRequest{UserID: "user-2", Query: "how can I improve my deep sleep quality"})
	require.True(t, ok)
	require.Equal(t, cache.TierExact, tier)
}

func TestInvalidateUserKeepsKnowledge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	corpus := `[{"question": "what is sleep hygiene exactly", "answer": "Habits that support good sleep."}]`
	_, err := f.manager.LoadKnowledgeBase(ctx, strings.NewReader(corpus))
	require.NoError(t, err)

	_, err = f.manager.InvalidateUser(ctx, "user-1")
	require.NoError(t, err)

	_, tier, ok := f.manager.Lookup(ctx, cache.LookupRequest{UserID: "user-1", Query: "what is sleep hygiene exactly"})
	require.True(t, ok)
	require.Equal(t, cache.TierKnowledge, tier)
}

func TestRedisFailureDegradesToSemanticTier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storeEntry(t, f, "user-1", "how can I improve my deep sleep quality", 5)

	f.mr.Close()

	// Tier 1 is down, Tier 2 still serves the paraphrase.
	_, tier, ok := f.manager.Lookup(ctx, cache.LookupRequest{
		UserID: "user-1",
		Query:  "how can I improve my deep sleep quality tonight",
	})
	require.True(t, ok)
	require.Equal(t, cache.TierSemantic, tier)
}

func TestEmbedderFailureDegradesToMiss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storeEntry(t, f, "user-1", "how can I improve my deep sleep quality", 5)

	f.embedder.SetFail(true)

	// Exact tier still works without embeddings.
	_, tier, ok := f.manager.Lookup(ctx, cache.LookupRequest{UserID: "user-1", Query: "how can I improve my deep sleep quality"})
	require.True(t, ok)
	require.Equal(t, cache.TierExact, tier)

	// Paraphrases cannot be served while the embedder is down.
	_, _, ok = f.manager.Lookup(ctx, cache.LookupRequest{UserID: "user-1", Query: "how can I improve my deep sleep quality tonight"})
	require.False(t, ok)
}

func TestTTLExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storeEntry(t, f, "user-1", "你好", 1)

	f.mr.FastForward(cache.DefaultConfig().TTL + 1)

	_, _, ok := f.manager.Lookup(ctx, cache.LookupRequest{UserID: "user-1", Query: "你好"})
	require.False(t, ok)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storeEntry(t, f, "user-1", "你好", 1)

	f.manager.Lookup(ctx, cache.LookupRequest{UserID: "user-1", Query: "你好"})
	f.manager.Lookup(ctx, cache.LookupRequest{UserID: "user-1", Query: "something never cached before"})

	s := f.manager.Stats()
	require.Equal(t, int64(1), s.ExactHits)
	require.Equal(t, int64(1), s.Misses)
	require.InDelta(t, 0.5, s.HitRate, 1e-9)
	require.InDelta(t, 0.001, s.CostSavedUSD, 1e-9)
}
