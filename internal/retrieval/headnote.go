package retrieval

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/homescan/leaselens/internal/models"
)

const (
	precedentDocIDPrefix = "precedent:"
	minOversampleHits    = 24
)

// HeadnoteResolver searches the precedent headnote collection and collapses
// raw chunk hits to at most one hit per precedent. Chunk-level search on a
// chunked collection returns several chunks per precedent, so the raw search
// is oversampled before dedup to keep the top-k precedent slots filled.
type HeadnoteResolver struct {
	retriever  *DenseRetriever
	collection string
	oversample int
	logger     *zap.Logger
}

// NewHeadnoteResolver creates a resolver over the given collection.
// oversample is the raw-hit multiplier per requested precedent; values
// below 1 fall back to 3.
func NewHeadnoteResolver(retriever *DenseRetriever, collection string, oversample int, logger *zap.Logger) *HeadnoteResolver {
	if oversample < 1 {
		oversample = 3
	}
	return &HeadnoteResolver{
		retriever:  retriever,
		collection: collection,
		oversample: oversample,
		logger:     logger,
	}
}

// Retrieve returns the topK distinct precedents nearest to the clause, each
// represented by its lowest-distance chunk, sorted ascending by distance.
func (r *HeadnoteResolver) Retrieve(ctx context.Context, clauseText string, topK int) ([]models.PrecedentHeadnoteHit, error) {
	if topK <= 0 {
		return nil, nil
	}

	rawK := topK * r.oversample
	if rawK < minOversampleHits {
		rawK = minOversampleHits
	}

	hits, err := r.retriever.Search(ctx, r.collection, clauseText, rawK)
	if err != nil {
		return nil, err
	}

	best := make(map[string]models.PrecedentHeadnoteHit)
	for _, h := range hits {
		pid := extractPrecedentID(h.Metadata)
		if pid == "" {
			// Data-quality issue in one chunk, not a pipeline failure.
			r.logger.Warn("chunk has no resolvable precedent id, skipping",
				zap.String("chunk_id", h.ID))
			continue
		}
		prev, seen := best[pid]
		if seen && prev.Distance <= h.Distance {
			continue
		}
		best[pid] = models.PrecedentHeadnoteHit{
			PrecedentID:  pid,
			CaseName:     metaString(h.Metadata, "case_name"),
			CaseNumber:   metaString(h.Metadata, "case_number"),
			DecisionDate: metaString(h.Metadata, "decision_date"),
			Distance:     h.Distance,
			Chunk:        h,
		}
	}

	out := make([]models.PrecedentHeadnoteHit, 0, len(best))
	for _, hit := range best {
		out = append(out, hit)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Distance != out[b].Distance {
			return out[a].Distance < out[b].Distance
		}
		return out[a].PrecedentID < out[b].PrecedentID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// extractPrecedentID reads the precedent id from chunk metadata, falling
// back to parsing a "precedent:<id>" doc_id or parent_doc_id.
func extractPrecedentID(meta map[string]any) string {
	if pid := metaString(meta, "precedent_id"); pid != "" {
		return pid
	}
	for _, key := range []string{"doc_id", "parent_doc_id"} {
		if v := metaString(meta, key); strings.HasPrefix(v, precedentDocIDPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(v, precedentDocIDPrefix))
		}
	}
	return ""
}

func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}
