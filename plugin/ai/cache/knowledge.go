package cache

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// KnowledgeItem is one curated Q&A pair from the knowledge corpus.
type KnowledgeItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category,omitempty"`
}

const knowledgeBatchSize = 32

// LoadKnowledgeBase bulk-loads a JSON Q&A corpus into the shared Tier-3
// collection. It is meant for offline use; it never touches Tier 1 or
// the per-user collections. Embedding runs batched and concurrently.
func (m *Manager) LoadKnowledgeBase(ctx context.Context, r io.Reader) (int, error) {
	var items []KnowledgeItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return 0, errors.Wrap(err, "decode knowledge corpus")
	}
	if len(items) == 0 {
		return 0, nil
	}

	if err := m.index.EnsureCollection(ctx, knowledgeCollection, m.embedder.Dimensions()); err != nil {
		return 0, errors.Wrap(err, "ensure knowledge collection")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	var (
		mu     sync.Mutex
		loaded int
	)
	for start := 0; start < len(items); start += knowledgeBatchSize {
		end := start + knowledgeBatchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		g.Go(func() error {
			questions := make([]string, len(batch))
			for i, item := range batch {
				questions[i] = item.Question
			}
			vectors, err := m.embedder.EmbedBatch(gctx, questions)
			if err != nil {
				return errors.Wrap(err, "embed knowledge batch")
			}
			for i, item := range batch {
				entry := Entry{
					SchemaVersion: SchemaVersion,
					Query:         item.Question,
					Response:      item.Answer,
					Intent:        item.Category,
					CreatedAt:     time.Now(),
				}
				payload, err := json.Marshal(entry)
				if err != nil {
					return errors.Wrap(err, "marshal knowledge entry")
				}
				if err := m.index.Upsert(gctx, knowledgeCollection, shortuuid.New(), vectors[i], payload); err != nil {
					return errors.Wrap(err, "upsert knowledge entry")
				}
			}
			mu.Lock()
			loaded += len(batch)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return loaded, err
	}
	m.logger.Info("knowledge base loaded", slog.Int("items", loaded))
	return loaded, nil
}
