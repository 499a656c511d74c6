package vectorindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// MemoryIndex is an in-process implementation of Index. It serves tests and
// single-node deployments where PostgreSQL is not configured.
type MemoryIndex struct {
	mu          sync.RWMutex
	dims        int
	collections map[string]map[string]*memoryPoint
}

type memoryPoint struct {
	vector  []float32
	payload []byte
}

// NewMemoryIndex creates a new in-memory index with fixed dimensionality.
func NewMemoryIndex(dims int) *MemoryIndex {
	return &MemoryIndex{
		dims:        dims,
		collections: make(map[string]map[string]*memoryPoint),
	}
}

// EnsureCollection creates the collection if it does not exist.
func (m *MemoryIndex) EnsureCollection(_ context.Context, name string, dims int) error {
	if name == "" {
		return errors.New("collection name is required")
	}
	if dims != m.dims {
		return errors.Errorf("collection %s wants %d dims, index is fixed at %d", name, dims, m.dims)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; !ok {
		m.collections[name] = make(map[string]*memoryPoint)
	}
	return nil
}

// Upsert inserts or replaces a point in the collection.
func (m *MemoryIndex) Upsert(_ context.Context, collection, id string, vector []float32, payload []byte) error {
	if len(vector) != m.dims {
		return errors.Errorf("vector has %d dims, index is fixed at %d", len(vector), m.dims)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	points, ok := m.collections[collection]
	if !ok {
		points = make(map[string]*memoryPoint)
		m.collections[collection] = points
	}

	stored := make([]float32, len(vector))
	copy(stored, vector)
	points[id] = &memoryPoint{vector: stored, payload: payload}
	return nil
}

// Search returns the nearest points by cosine similarity.
func (m *MemoryIndex) Search(_ context.Context, collection string, vector []float32, topK int, scoreThreshold float32) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 1
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	points, ok := m.collections[collection]
	if !ok {
		return nil, nil
	}

	var results []SearchResult
	for id, p := range points {
		score := cosineSimilarity(vector, p.vector)
		if score >= scoreThreshold {
			results = append(results, SearchResult{ID: id, Score: score, Payload: p.payload})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteCollection drops the collection and all its points.
func (m *MemoryIndex) DeleteCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, name)
	return nil
}

// Close is a no-op for the in-memory index.
func (m *MemoryIndex) Close() error {
	return nil
}

// cosineSimilarity calculates the cosine similarity between two vectors,
// clamped to [0, 1] to match the Index contract.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	raw := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if raw < 0 {
		raw = 0
	}
	if raw > 1 {
		raw = 1
	}
	return float32(raw)
}

// Ensure MemoryIndex implements Index
var _ Index = (*MemoryIndex)(nil)
