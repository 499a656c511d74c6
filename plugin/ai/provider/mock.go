package provider

import (
	"context"
	"sync"

	aierrors "github.com/hrygo/peakstate/internal/errors"
)

// MockGenerator is a deterministic Generator for tests. It records every
// request and returns a canned response, or a typed failure when
// configured to fail.
type MockGenerator struct {
	mu       sync.Mutex
	name     string
	response string
	tokens   int
	fail     bool
	requests []*GenerateRequest
}

var _ Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a mock backend with the given name and canned reply.
func NewMockGenerator(name, response string) *MockGenerator {
	return &MockGenerator{name: name, response: response, tokens: 42}
}

func (g *MockGenerator) Name() string {
	return g.name
}

// SetFail makes subsequent Generate calls return a backend failure.
func (g *MockGenerator) SetFail(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = fail
}

// SetTokens overrides the token count the mock reports.
func (g *MockGenerator) SetTokens(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokens = n
}

// Requests returns a copy of all requests seen so far.
func (g *MockGenerator) Requests() []*GenerateRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*GenerateRequest, len(g.requests))
	copy(out, g.requests)
	return out
}

// CallCount returns the number of Generate calls seen so far.
func (g *MockGenerator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func (g *MockGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, aierrors.Wrap(aierrors.ErrCodeContextCanceled, "generation canceled", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.fail {
		return nil, aierrors.GenerationFailed(g.name, nil)
	}
	return &GenerateResponse{Content: g.response, TokensUsed: g.tokens}, nil
}
