package vectorindex

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"
)

// PGVectorIndex implements Index on PostgreSQL with the pgvector extension.
// All collections share the vector_entry table; the collection column is
// the namespace, so dropping a collection is a single DELETE.
type PGVectorIndex struct {
	db   *sql.DB
	dims int
}

// NewPGVectorIndex opens a PostgreSQL connection and prepares the schema.
func NewPGVectorIndex(ctx context.Context, dsn string, dims int) (*PGVectorIndex, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	idx := &PGVectorIndex{db: db, dims: dims}
	if err := idx.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (i *PGVectorIndex) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS vector_entry (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			payload JSONB NOT NULL,
			created_ts BIGINT NOT NULL DEFAULT extract(epoch from now()),
			PRIMARY KEY (collection, id)
		)`, i.dims),
		`CREATE INDEX IF NOT EXISTS idx_vector_entry_collection ON vector_entry (collection)`,
	}
	for _, stmt := range stmts {
		if _, err := i.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate vector_entry")
		}
	}
	return nil
}

// EnsureCollection validates the dimensionality. Collections are rows in a
// shared table, so there is nothing to create up front.
func (i *PGVectorIndex) EnsureCollection(_ context.Context, name string, dims int) error {
	if name == "" {
		return errors.New("collection name is required")
	}
	if dims != i.dims {
		return errors.Errorf("collection %s wants %d dims, index is fixed at %d", name, dims, i.dims)
	}
	return nil
}

// Upsert inserts or replaces a point in the collection.
func (i *PGVectorIndex) Upsert(ctx context.Context, collection, id string, vector []float32, payload []byte) error {
	if len(vector) != i.dims {
		return errors.Errorf("vector has %d dims, index is fixed at %d", len(vector), i.dims)
	}

	stmt := `
		INSERT INTO vector_entry (collection, id, embedding, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, id)
		DO UPDATE SET embedding = EXCLUDED.embedding, payload = EXCLUDED.payload
	`
	if _, err := i.db.ExecContext(ctx, stmt, collection, id, pgvector.NewVector(vector), payload); err != nil {
		return errors.Wrapf(err, "failed to upsert point %s into %s", id, collection)
	}
	return nil
}

// Search returns the nearest points by cosine similarity.
func (i *PGVectorIndex) Search(ctx context.Context, collection string, vector []float32, topK int, scoreThreshold float32) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 1
	}

	// <=> is cosine distance; similarity = 1 - distance.
	query := `
		SELECT id, payload, 1 - (embedding <=> $1) AS score
		FROM vector_entry
		WHERE collection = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := i.db.QueryContext(ctx, query, pgvector.NewVector(vector), collection, topK)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to search collection %s", collection)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Payload, &r.Score); err != nil {
			return nil, errors.Wrap(err, "failed to scan search result")
		}
		if r.Score >= scoreThreshold {
			results = append(results, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate search results")
	}
	return results, nil
}

// DeleteCollection drops all points in the collection.
func (i *PGVectorIndex) DeleteCollection(ctx context.Context, name string) error {
	if _, err := i.db.ExecContext(ctx, `DELETE FROM vector_entry WHERE collection = $1`, name); err != nil {
		return errors.Wrapf(err, "failed to delete collection %s", name)
	}
	return nil
}

// Close closes the database connection.
func (i *PGVectorIndex) Close() error {
	return i.db.Close()
}

// Ensure PGVectorIndex implements Index
var _ Index = (*PGVectorIndex)(nil)
