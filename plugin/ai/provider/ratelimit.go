package provider

import (
	"context"

	"golang.org/x/time/rate"

	aierrors "github.com/hrygo/peakstate/internal/errors"
)

// RateLimitedGenerator wraps a Generator with a per-backend token bucket.
// Generate blocks until a token is available or the context is canceled.
type RateLimitedGenerator struct {
	inner   Generator
	limiter *rate.Limiter
}

var _ Generator = (*RateLimitedGenerator)(nil)

// NewRateLimitedGenerator wraps inner with rps requests per second and
// the given burst size. A non-positive rps disables limiting.
func NewRateLimitedGenerator(inner Generator, rps float64, burst int) *RateLimitedGenerator {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedGenerator{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (g *RateLimitedGenerator) Name() string {
	return g.inner.Name()
}

func (g *RateLimitedGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, aierrors.Wrap(aierrors.ErrCodeContextCanceled, "generation canceled while rate limited", err)
	}
	return g.inner.Generate(ctx, req)
}
