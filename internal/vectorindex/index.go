// Package vectorindex provides the vector index contract used by the
// semantic and knowledge cache tiers. Embedding dimensionality is fixed
// system-wide; collections are logical namespaces over one index.
package vectorindex

import "context"

// SearchResult is one scored hit from a similarity search.
type SearchResult struct {
	ID      string
	Score   float32 // cosine similarity, 0-1
	Payload []byte
}

// Index is the vector index contract.
type Index interface {
	// EnsureCollection creates the collection if it does not exist.
	// Metric is always cosine.
	EnsureCollection(ctx context.Context, name string, dims int) error

	// Upsert inserts or replaces a point in the collection.
	Upsert(ctx context.Context, collection, id string, vector []float32, payload []byte) error

	// Search returns up to topK points with similarity at or above
	// scoreThreshold, best first.
	Search(ctx context.Context, collection string, vector []float32, topK int, scoreThreshold float32) ([]SearchResult, error)

	// DeleteCollection drops the collection and all its points.
	// Dropping an absent collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// Close releases the underlying connection.
	Close() error
}
