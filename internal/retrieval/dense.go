// Package retrieval performs dense vector search over the corpus
// collections, including the precedent headnote resolution step that
// deduplicates chunk hits down to one best chunk per precedent.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/homescan/leaselens/internal/embedding"
	"github.com/homescan/leaselens/internal/models"
	"github.com/homescan/leaselens/internal/vector"
)

// DenseRetriever embeds a query and searches one named collection.
// The embedder and store handles are shared across requests.
type DenseRetriever struct {
	store    *vector.Store
	embedder embedding.Embedder
	logger   *zap.Logger
}

// NewDenseRetriever creates a retriever over the given store and embedder.
func NewDenseRetriever(store *vector.Store, embedder embedding.Embedder, logger *zap.Logger) *DenseRetriever {
	return &DenseRetriever{store: store, embedder: embedder, logger: logger}
}

// Search returns the topK nearest chunks in the collection, sorted by
// ascending distance. A blank query returns an empty result without
// touching the embedder or the index; an empty *clause* is the
// orchestrator's validation concern, not this layer's.
func (r *DenseRetriever) Search(ctx context.Context, collection, queryText string, topK int) ([]models.SearchHit, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, nil
	}
	if topK <= 0 {
		return nil, nil
	}

	emb, err := r.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	col, err := r.store.Collection(collection)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", collection, err)
	}

	raw, err := col.Query(ctx, emb, topK)
	if err != nil {
		return nil, fmt.Errorf("query failed on collection %s: %w", collection, err)
	}

	hits := make([]models.SearchHit, len(raw))
	for i, h := range raw {
		hits[i] = models.SearchHit{
			ID:       h.ID,
			Text:     h.Text,
			Metadata: h.Metadata,
			Distance: h.Distance,
		}
	}
	// The index returns ascending order already; re-sort rather than trust
	// it blindly.
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Distance < hits[b].Distance })
	return hits, nil
}
