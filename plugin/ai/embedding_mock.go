package ai

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// MockEmbeddingService is a deterministic in-process embedder for tests.
// Texts sharing tokens produce nearby vectors; identical texts produce
// identical vectors; unrelated texts are close to orthogonal.
type MockEmbeddingService struct {
	dims int

	mu   sync.Mutex
	fail bool
}

// NewMockEmbeddingService creates a mock embedder with the given dimensionality.
func NewMockEmbeddingService(dims int) *MockEmbeddingService {
	return &MockEmbeddingService{dims: dims}
}

// SetFail makes subsequent calls return an error, simulating an
// unreachable embedding provider.
func (m *MockEmbeddingService) SetFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *MockEmbeddingService) failing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fail
}

// Embed generates a deterministic vector for the text.
func (m *MockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.failing() {
		return nil, errors.New("mock embedding provider unavailable")
	}
	return m.encode(text), nil
}

// EmbedBatch generates deterministic vectors for multiple texts.
func (m *MockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

// Dimensions returns the vector dimension.
func (m *MockEmbeddingService) Dimensions() int {
	return m.dims
}

// encode hashes each token into a bucket, then L2-normalizes, so token
// overlap translates into cosine similarity.
func (m *MockEmbeddingService) encode(text string) []float32 {
	vector := make([]float32, m.dims)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vector[int(h.Sum32())%m.dims] += 1
	}
	// Character fallback keeps single-token CJK strings distinguishable.
	if len(strings.Fields(text)) <= 1 {
		for _, r := range text {
			vector[int(r)%m.dims] += 0.5
		}
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vector[0] = 1
		return vector
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vector {
		vector[i] *= scale
	}
	return vector
}

// Ensure MockEmbeddingService implements EmbeddingService
var _ EmbeddingService = (*MockEmbeddingService)(nil)
