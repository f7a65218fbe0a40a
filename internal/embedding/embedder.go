// Package embedding provides sentence embedding via ONNX with caching, plus a
// deterministic fallback embedder. Indexing and querying share one embedder so
// distances are a valid similarity proxy.
package embedding

import "context"

// Embedder produces unit-normalized vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
