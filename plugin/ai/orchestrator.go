package ai

import (
	"context"
	"log/slog"
	"time"

	aierrors "github.com/hrygo/peakstate/internal/errors"
	"github.com/hrygo/peakstate/internal/observability"
	"github.com/hrygo/peakstate/plugin/ai/cache"
	"github.com/hrygo/peakstate/plugin/ai/complexity"
	"github.com/hrygo/peakstate/plugin/ai/intent"
	"github.com/hrygo/peakstate/plugin/ai/metrics"
	"github.com/hrygo/peakstate/plugin/ai/provider"
	"github.com/hrygo/peakstate/plugin/ai/routing"
)

// ChatRequest is one user message plus its conversation context.
type ChatRequest struct {
	UserID  string             `json:"user_id"`
	Message string             `json:"message"`
	History []provider.Message `json:"history,omitempty"`
	// ForceBackend bypasses routing when set. Operator use only.
	ForceBackend routing.Backend `json:"force_backend,omitempty"`
}

// ChatResponse is the answer plus the routing trace that produced it.
type ChatResponse struct {
	Content    string  `json:"content"`
	Backend    string  `json:"backend"`
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Complexity int     `json:"complexity"`
	Reason     string  `json:"reason"`
	CacheHit   bool    `json:"cache_hit"`
	CacheTier  string  `json:"cache_tier,omitempty"`
	TokensUsed int     `json:"tokens_used"`
	CostUSD    float64 `json:"cost_usd"`
	LatencyMs  float64 `json:"latency_ms"`
}

// Deps wires the orchestrator's collaborators.
type Deps struct {
	Classifier *intent.Classifier
	Scorer     *complexity.Scorer
	Profiles   *complexity.ProfileCache
	Engine     *routing.Engine
	Cache      *cache.Manager
	Generators map[routing.Backend]provider.Generator
	Recorder   *complexity.DecisionRecorder
	Metrics    *metrics.Aggregator
	Logger     *slog.Logger
}

// Orchestrator runs the request pipeline: cache, classify, score,
// route, generate, write back.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator creates the pipeline from its collaborators.
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Orchestrator{deps: deps}
}

// Respond answers one chat request. A cache hit returns immediately and
// never consults the routing engine; a miss produces exactly one
// routing decision and one backend call.
func (o *Orchestrator) Respond(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.UserID == "" {
		return nil, aierrors.New(aierrors.ErrCodeInvalidArgument, "user_id is required")
	}
	if req.Message == "" {
		return nil, aierrors.New(aierrors.ErrCodeInvalidArgument, "message is required")
	}

	rc := observability.NewRequestContext(o.deps.Logger, req.UserID)
	ctx = observability.WithRequestContext(ctx, rc)
	start := time.Now()

	if entry, tier, ok := o.deps.Cache.Lookup(ctx, cache.LookupRequest{
		UserID:  req.UserID,
		Query:   req.Message,
		History: req.History,
	}); ok {
		rc.Info("cache hit",
			slog.String(observability.LogFieldCacheTier, string(tier)),
			slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
		return &ChatResponse{
			Content:    entry.Response,
			Backend:    entry.Backend,
			Intent:     entry.Intent,
			Complexity: entry.Complexity,
			CacheHit:   true,
			CacheTier:  string(tier),
			LatencyMs:  float64(time.Since(start).Microseconds()) / 1000.0,
		}, nil
	}

	cls := o.deps.Classifier.Classify(ctx, req.Message, req.History)

	var userProfile *complexity.UserProfile
	if o.deps.Profiles != nil {
		p, err := o.deps.Profiles.Get(ctx, req.UserID)
		if err != nil {
			rc.Warn("profile load failed, scoring without it",
				slog.String("error", err.Error()))
		} else {
			userProfile = p
		}
	}

	factors := o.deps.Scorer.Score(ctx, cls.Intent, req.Message, req.History, userProfile)
	decision := o.deps.Engine.Route(cls, factors.Total, len(req.Message), req.ForceBackend)

	rc.Debug("routing decision",
		slog.String(observability.LogFieldIntent, string(cls.Intent)),
		slog.Int(observability.LogFieldComplexity, factors.Total),
		slog.String(observability.LogFieldBackend, decision.Model),
		slog.String("reason", decision.Reason))

	generator, ok := o.deps.Generators[decision.Backend]
	if !ok {
		return nil, aierrors.New(aierrors.ErrCodeBackendUnavailable,
			"no generator configured for backend "+string(decision.Backend))
	}

	genStart := time.Now()
	resp, err := generator.Generate(ctx, &provider.GenerateRequest{
		Messages: append(append([]provider.Message{}, req.History...),
			provider.Message{Role: "user", Content: req.Message}),
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	genMs := float64(time.Since(genStart).Microseconds()) / 1000.0
	if err != nil {
		o.record(req, cls, factors, decision, genMs, false, 0)
		rc.Error("generation failed", err,
			slog.String(observability.LogFieldBackend, decision.Model))
		return nil, err
	}

	tokens := resp.TokensUsed
	if tokens == 0 {
		tokens = decision.EstimatedTokens
	}
	cost := decision.EstimatedCost

	// A canceled request must not leave half-written cache state behind.
	if ctx.Err() == nil {
		if err := o.deps.Cache.Store(ctx, cache.StoreRequest{
			UserID:  req.UserID,
			Query:   req.Message,
			History: req.History,
			Entry: cache.Entry{
				Response:   resp.Content,
				Backend:    decision.Model,
				Intent:     string(cls.Intent),
				Complexity: factors.Total,
				TokensUsed: tokens,
				CostUSD:    cost,
				LatencyMs:  genMs,
			},
			Complexity: factors.Total,
		}); err != nil {
			rc.Warn("cache write-back failed", slog.String("error", err.Error()))
		}
	}

	o.record(req, cls, factors, decision, genMs, true, tokens)
	rc.Info("request served",
		slog.String(observability.LogFieldBackend, decision.Model),
		slog.String(observability.LogFieldIntent, string(cls.Intent)),
		slog.Int(observability.LogFieldComplexity, factors.Total),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()))

	return &ChatResponse{
		Content:    resp.Content,
		Backend:    decision.Model,
		Intent:     string(cls.Intent),
		Confidence: cls.Confidence,
		Complexity: factors.Total,
		Reason:     decision.Reason,
		TokensUsed: tokens,
		CostUSD:    cost,
		LatencyMs:  float64(time.Since(start).Microseconds()) / 1000.0,
	}, nil
}

func (o *Orchestrator) record(req ChatRequest, cls intent.Classification, factors complexity.Factors,
	decision routing.Decision, latencyMs float64, success bool, tokens int) {
	if o.deps.Recorder != nil {
		o.deps.Recorder.Append(complexity.DecisionRecord{
			Time:          time.Now(),
			UserID:        req.UserID,
			Intent:        string(cls.Intent),
			Complexity:    factors.Total,
			Backend:       decision.Model,
			Reason:        decision.Reason,
			EstimatedCost: decision.EstimatedCost,
			LatencyMs:     latencyMs,
		})
	}
	if o.deps.Metrics != nil {
		o.deps.Metrics.Record(decision.Model, latencyMs, decision.EstimatedCost, tokens, success)
	}
}
