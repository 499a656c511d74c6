package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/peakstate/internal/kvstore"
	"github.com/hrygo/peakstate/internal/profile"
	"github.com/hrygo/peakstate/internal/vectorindex"
	ai "github.com/hrygo/peakstate/plugin/ai"
	"github.com/hrygo/peakstate/plugin/ai/cache"
	"github.com/hrygo/peakstate/plugin/ai/complexity"
	"github.com/hrygo/peakstate/plugin/ai/intent"
	"github.com/hrygo/peakstate/plugin/ai/metrics"
	"github.com/hrygo/peakstate/plugin/ai/provider"
	"github.com/hrygo/peakstate/plugin/ai/routing"
)

// services holds every long-lived component the process runs.
type services struct {
	KV           kvstore.Store
	Index        vectorindex.Index
	Embedder     ai.EmbeddingService
	Cache        *cache.Manager
	Classifier   *intent.Classifier
	Scorer       *complexity.Scorer
	Profiles     *complexity.ProfileCache
	Engine       *routing.Engine
	Recorder     *complexity.DecisionRecorder
	Metrics      *metrics.Aggregator
	Persister    *metrics.Persister
	Orchestrator *ai.Orchestrator
}

// backend request rates, requests per second.
const (
	localRPS  = 0 // unlimited, it is our own hardware
	remoteRPS = 8
)

func buildServices(ctx context.Context, p *profile.Profile, logger *slog.Logger) (*services, error) {
	cfg := ai.NewConfigFromProfile(p)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid ai configuration")
	}

	kv, err := kvstore.NewRedisStore(ctx, kvstore.RedisConfig{
		Addr:     p.RedisAddr,
		Password: p.RedisPassword,
		DB:       p.RedisDB,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect redis")
	}

	var index vectorindex.Index
	if p.VectorDSN != "" {
		index, err = vectorindex.NewPGVectorIndex(ctx, p.VectorDSN, cfg.Embedding.Dimensions)
		if err != nil {
			_ = kv.Close()
			return nil, errors.Wrap(err, "connect vector index")
		}
	} else {
		logger.Warn("no vector DSN configured, semantic cache is process-local")
		index = vectorindex.NewMemoryIndex(cfg.Embedding.Dimensions)
	}

	embedder, err := ai.NewEmbeddingService(&cfg.Embedding)
	if err != nil {
		_ = kv.Close()
		_ = index.Close()
		return nil, errors.Wrap(err, "create embedding service")
	}

	cacheManager := cache.NewManager(kv, index, embedder, cache.Config{
		TTL:                time.Duration(p.CacheTTLSeconds) * time.Second,
		SemanticThreshold:  p.SemanticThreshold,
		KnowledgeThreshold: p.KnowledgeThreshold,
		MinComplexity:      cache.DefaultConfig().MinComplexity,
	}, logger)

	classifier := intent.NewClassifier(embedder, logger)
	scorer := complexity.NewScorer(logger)

	// No user store is wired yet, so every user scores as an established
	// intermediate until one is.
	profiles := complexity.NewProfileCache(func(_ context.Context, userID string) (*complexity.UserProfile, error) {
		return &complexity.UserProfile{
			UserID:     userID,
			DaysActive: 30,
			Expertise:  complexity.ExpertiseIntermediate,
		}, nil
	}, 4096)

	routingCfg := routing.DefaultConfig()
	routingCfg.CostOptimization = cfg.Routing.CostOptimization
	routingCfg.LocalThreshold = cfg.Routing.LocalThreshold
	routingCfg.MiniThreshold = cfg.Routing.MiniThreshold
	engine := routing.NewEngine(routingCfg, logger)

	generators := map[routing.Backend]provider.Generator{
		routing.BackendLocal:    newGenerator(cfg.Backends.Local, localRPS),
		routing.BackendMini:     newGenerator(cfg.Backends.Mini, remoteRPS),
		routing.BackendEmpathy:  newGenerator(cfg.Backends.Empathy, remoteRPS),
		routing.BackendFlagship: newGenerator(cfg.Backends.Flagship, remoteRPS),
	}

	recorder := complexity.NewDecisionRecorder(complexity.DefaultDecisionCapacity)
	aggregator := metrics.NewAggregator()

	var persister *metrics.Persister
	if p.MetricsDSN != "" {
		persister, err = metrics.NewPersister(p.MetricsDSN, recorder, metrics.DefaultFlushInterval, logger)
		if err != nil {
			logger.Warn("metrics persistence disabled", slog.String("error", err.Error()))
			persister = nil
		}
	}

	orchestrator := ai.NewOrchestrator(ai.Deps{
		Classifier: classifier,
		Scorer:     scorer,
		Profiles:   profiles,
		Engine:     engine,
		Cache:      cacheManager,
		Generators: generators,
		Recorder:   recorder,
		Metrics:    aggregator,
		Logger:     logger,
	})

	return &services{
		KV:           kv,
		Index:        index,
		Embedder:     embedder,
		Cache:        cacheManager,
		Classifier:   classifier,
		Scorer:       scorer,
		Profiles:     profiles,
		Engine:       engine,
		Recorder:     recorder,
		Metrics:      aggregator,
		Persister:    persister,
		Orchestrator: orchestrator,
	}, nil
}

func newGenerator(cfg ai.BackendConfig, rps float64) provider.Generator {
	gen := provider.NewOpenAIGenerator(provider.OpenAIConfig{
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
	})
	return provider.NewRateLimitedGenerator(gen, rps, 4)
}

// Close releases every connection the services hold.
func (s *services) Close() {
	if s.Persister != nil {
		_ = s.Persister.Close()
	}
	if s.Index != nil {
		_ = s.Index.Close()
	}
	if s.KV != nil {
		_ = s.KV.Close()
	}
}
