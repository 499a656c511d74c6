package ai

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	aierrors "github.com/hrygo/peakstate/internal/errors"
	"github.com/hrygo/peakstate/internal/kvstore"
	"github.com/hrygo/peakstate/internal/vectorindex"
	"github.com/hrygo/peakstate/plugin/ai/cache"
	"github.com/hrygo/peakstate/plugin/ai/complexity"
	"github.com/hrygo/peakstate/plugin/ai/intent"
	"github.com/hrygo/peakstate/plugin/ai/metrics"
	"github.com/hrygo/peakstate/plugin/ai/provider"
	"github.com/hrygo/peakstate/plugin/ai/routing"
)

type pipelineFixture struct {
	orchestrator *Orchestrator
	generators   map[routing.Backend]*provider.MockGenerator
	recorder     *complexity.DecisionRecorder
	aggregator   *metrics.Aggregator
	cacheManager *cache.Manager
}

func newPipeline(t *testing.T) *pipelineFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	kv := kvstore.NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = kv.Close() })

	embedder := NewMockEmbeddingService(384)
	index := vectorindex.NewMemoryIndex(384)
	cacheManager := cache.NewManager(kv, index, embedder, cache.DefaultConfig(), nil)

	generators := map[routing.Backend]*provider.MockGenerator{
		routing.BackendLocal:    provider.NewMockGenerator("phi-3.5", "local reply"),
		routing.BackendMini:     provider.NewMockGenerator("gpt-5-nano", "mini reply"),
		routing.BackendEmpathy:  provider.NewMockGenerator("claude-sonnet-4", "empathetic reply"),
		routing.BackendFlagship: provider.NewMockGenerator("gpt-5", "flagship reply"),
	}
	asGenerators := make(map[routing.Backend]provider.Generator, len(generators))
	for b, g := range generators {
		asGenerators[b] = g
	}

	profiles := complexity.NewProfileCache(func(_ context.Context, userID string) (*complexity.UserProfile, error) {
		return &complexity.UserProfile{UserID: userID, DaysActive: 30, Expertise: complexity.ExpertiseIntermediate}, nil
	}, 16)

	recorder := complexity.NewDecisionRecorder(100)
	aggregator := metrics.NewAggregator()

	orchestrator := NewOrchestrator(Deps{
		Classifier: intent.NewClassifier(embedder, nil),
		Scorer:     complexity.NewScorer(nil),
		Profiles:   profiles,
		Engine:     routing.NewEngine(routing.DefaultConfig(), nil),
		Cache:      cacheManager,
		Generators: asGenerators,
		Recorder:   recorder,
		Metrics:    aggregator,
	})
	return &pipelineFixture{
		orchestrator: orchestrator,
		generators:   generators,
		recorder:     recorder,
		aggregator:   aggregator,
		cacheManager: cacheManager,
	}
}

func TestRespondGreetingUsesLocalBackend(t *testing.T) {
	f := newPipeline(t)
	resp, err := f.orchestrator.Respond(context.Background(), ChatRequest{
		UserID:  "user-1",
		Message: "你好",
	})
	require.NoError(t, err)
	require.Equal(t, "local reply", resp.Content)
	require.Equal(t, "phi-3.5", resp.Backend)
	require.Equal(t, string(intent.IntentGreeting), resp.Intent)
	require.False(t, resp.CacheHit)
	require.Equal(t, 1, f.generators[routing.BackendLocal].CallCount())
}

func TestRespondSecondIdenticalRequestHitsCache(t *testing.T) {
	f := newPipeline(t)
	ctx := context.Background()

	first, err := f.orchestrator.Respond(ctx, ChatRequest{UserID: "user-1", Message: "你好"})
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := f.orchestrator.Respond(ctx, ChatRequest{UserID: "user-1", Message: "你好"})
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, string(cache.TierExact), second.CacheTier)
	require.Equal(t, first.Content, second.Content)

	// The backend was only called once; the hit bypassed routing.
	require.Equal(t, 1, f.generators[routing.BackendLocal].CallCount())
	require.Equal(t, 1, f.recorder.Len())
}

func TestRespondEmotionalSupportUsesEmpathyBackend(t *testing.T) {
	f := newPipeline(t)
	resp, err := f.orchestrator.Respond(context.Background(), ChatRequest{
		UserID:  "user-1",
		Message: "I feel so stressed lately and overwhelmed",
	})
	require.NoError(t, err)
	require.Equal(t, "claude-sonnet-4", resp.Backend)
	require.Equal(t, "empathetic reply", resp.Content)
	require.GreaterOrEqual(t, resp.Complexity, 6)
}

func TestRespondForceBackend(t *testing.T) {
	f := newPipeline(t)
	resp, err := f.orchestrator.Respond(context.Background(), ChatRequest{
		UserID:       "user-1",
		Message:      "你好",
		ForceBackend: routing.BackendFlagship,
	})
	require.NoError(t, err)
	require.Equal(t, "gpt-5", resp.Backend)
	require.Equal(t, "forced to flagship", resp.Reason)
}

func TestRespondValidation(t *testing.T) {
	f := newPipeline(t)
	ctx := context.Background()

	_, err := f.orchestrator.Respond(ctx, ChatRequest{Message: "hi"})
	require.Equal(t, aierrors.ErrCodeInvalidArgument, aierrors.CodeOf(err))

	_, err = f.orchestrator.Respond(ctx, ChatRequest{UserID: "user-1"})
	require.Equal(t, aierrors.ErrCodeInvalidArgument, aierrors.CodeOf(err))
}

func TestRespondBackendFailureLeavesNoCacheWrite(t *testing.T) {
	f := newPipeline(t)
	ctx := context.Background()
	f.generators[routing.BackendLocal].SetFail(true)

	_, err := f.orchestrator.Respond(ctx, ChatRequest{UserID: "user-1", Message: "你好"})
	require.Error(t, err)
	require.Equal(t, aierrors.ErrCodeGenerationFailed, aierrors.CodeOf(err))

	// A failed generation is never cached.
	_, _, ok := f.cacheManager.Lookup(ctx, cache.LookupRequest{UserID: "user-1", Query: "你好"})
	require.False(t, ok)

	// The failure still shows up in backend metrics.
	stats := f.aggregator.Snapshot()
	require.Equal(t, int64(1), stats.PerBackend["phi-3.5"].Failures)
}

func TestRespondRecordsDecision(t *testing.T) {
	f := newPipeline(t)
	_, err := f.orchestrator.Respond(context.Background(), ChatRequest{
		UserID:  "user-1",
		Message: "how can I improve my deep sleep quality",
	})
	require.NoError(t, err)

	decisions := f.recorder.Snapshot()
	require.Len(t, decisions, 1)
	require.Equal(t, "user-1", decisions[0].UserID)
	require.NotEmpty(t, decisions[0].Backend)
	require.NotEmpty(t, decisions[0].Reason)
}
