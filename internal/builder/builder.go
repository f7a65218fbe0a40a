// Package builder rebuilds the vector collections from the relational
// corpora: stream documents, chunk, embed in batches, upsert.
package builder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/homescan/leaselens/internal/chunker"
	"github.com/homescan/leaselens/internal/config"
	"github.com/homescan/leaselens/internal/embedding"
	"github.com/homescan/leaselens/internal/models"
	"github.com/homescan/leaselens/internal/store"
	"github.com/homescan/leaselens/internal/vector"
)

const defaultBatchSize = 64

// Options configure one build pass.
type Options struct {
	// Reset drops the collection before rebuilding. Without it, upsert
	// overwrites matching chunk ids and leaves the rest in place.
	Reset bool
	// Limit caps how many documents are read per kind; 0 means all.
	Limit int
	// BatchSize bounds each embed/upsert batch; 0 uses the default.
	BatchSize int
}

// Builder streams documents from the store into a vector collection.
// Rebuilds run as offline batch jobs; readers tolerate a build in progress.
type Builder struct {
	cfg      *config.Config
	store    *store.Store
	vectors  *vector.Store
	embedder embedding.Embedder
	logger   *zap.Logger
}

// New creates a builder over the given components.
func New(cfg *config.Config, st *store.Store, vectors *vector.Store, embedder embedding.Embedder, logger *zap.Logger) *Builder {
	return &Builder{
		cfg:      cfg,
		store:    st,
		vectors:  vectors,
		embedder: embedder,
		logger:   logger,
	}
}

// Build rebuilds the collection for one corpus kind and saves it to disk.
// Chunk ids are deterministic, so re-running a build on identical input
// overwrites chunks rather than duplicating them.
func (b *Builder) Build(ctx context.Context, kind models.DataKind, opts Options) error {
	ds, ok := b.cfg.Datasets[kind]
	if !ok {
		return fmt.Errorf("no dataset configured for kind %q", kind)
	}

	if opts.Reset {
		if err := b.vectors.Reset(ds.CollectionName); err != nil {
			return fmt.Errorf("failed to reset collection %s: %w", ds.CollectionName, err)
		}
		b.logger.Info("collection reset", zap.String("collection", ds.CollectionName))
	}

	docs, err := b.store.IterDocuments(ctx, kind, store.Filters{Limit: opts.Limit})
	if err != nil {
		return fmt.Errorf("failed to load %s documents: %w", kind, err)
	}
	b.logger.Info("documents loaded",
		zap.String("kind", string(kind)),
		zap.Int("count", len(docs)))
	if len(docs) == 0 {
		return nil
	}

	kindCfg := b.cfg.Chunking.ForKind(kind)
	ck := chunker.New(chunker.Config{
		Size:       kindCfg.Size,
		Overlap:    kindCfg.Overlap,
		MinChars:   b.cfg.Chunking.MinChunkChars,
		Collection: ds.CollectionName,
	})
	chunks := ck.Chunk(docs, kind)
	b.logger.Info("chunks generated",
		zap.String("collection", ds.CollectionName),
		zap.Int("count", len(chunks)))
	if len(chunks) == 0 {
		return nil
	}

	col, err := b.vectors.Collection(ds.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to open collection %s: %w", ds.CollectionName, err)
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	upserted := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		ids := make([]string, len(batch))
		texts := make([]string, len(batch))
		metas := make([]map[string]any, len(batch))
		for i, ch := range batch {
			ids[i] = ch.ID
			texts[i] = ch.Text
			metas[i] = ch.Metadata
		}

		embeddings, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch at %d: %w", start, err)
		}
		if err := col.Upsert(ctx, ids, texts, metas, embeddings); err != nil {
			return fmt.Errorf("failed to upsert batch at %d: %w", start, err)
		}
		upserted += len(batch)
		b.logger.Debug("batch upserted",
			zap.String("collection", ds.CollectionName),
			zap.Int("upserted", upserted),
			zap.Int("total", len(chunks)))
	}

	if err := b.vectors.Save(ds.CollectionName); err != nil {
		return fmt.Errorf("failed to save collection %s: %w", ds.CollectionName, err)
	}
	b.logger.Info("collection built",
		zap.String("collection", ds.CollectionName),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", upserted))
	return nil
}

// BuildAll rebuilds every configured corpus kind.
func (b *Builder) BuildAll(ctx context.Context, opts Options) error {
	for _, kind := range []models.DataKind{models.KindLaw, models.KindPrecedent, models.KindMediation} {
		if err := b.Build(ctx, kind, opts); err != nil {
			return err
		}
	}
	return nil
}
