package retrieval

import (
	"context"
	"fmt"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/homescan/leaselens/internal/vector"
)

// axisEmbedder maps known texts to fixed unit vectors so distances in tests
// are fully controlled.
type axisEmbedder struct {
	dims int
	axes map[string][]float32
}

func (e *axisEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := e.axes[text]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no test vector for %q", text)
}

func (e *axisEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *axisEmbedder) Dimensions() int { return e.dims }
func (e *axisEmbedder) Close() error    { return nil }

func unit(dims, hot int) []float32 {
	v := make([]float32, dims)
	v[hot] = 1
	return v
}

// blend returns a normalized mix of two axes; closer weight to a means
// smaller distance to axis a.
func blend(dims, a, b int, wa, wb float32) []float32 {
	v := make([]float32, dims)
	norm := float32(0)
	v[a], v[b] = wa, wb
	for _, x := range v {
		norm += x * x
	}
	inv := 1 / float32(math.Sqrt(float64(norm)))
	for i := range v {
		v[i] *= inv
	}
	return v
}

const testDims = 4

func newTestRetriever(t *testing.T) (*DenseRetriever, *vector.Store, *axisEmbedder) {
	t.Helper()
	store, err := vector.NewStore(t.TempDir(), testDims)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	emb := &axisEmbedder{dims: testDims, axes: map[string][]float32{
		"전대 조항": unit(testDims, 0),
		"주차 조항": unit(testDims, 1),
	}}
	return NewDenseRetriever(store, emb, zap.NewNop()), store, emb
}

func seedCollection(t *testing.T, store *vector.Store, name string, ids []string, vecs [][]float32, metas []map[string]any) {
	t.Helper()
	col, err := store.Collection(name)
	if err != nil {
		t.Fatalf("Collection() error = %v", err)
	}
	texts := make([]string, len(ids))
	for i, id := range ids {
		texts[i] = "text for " + id
	}
	if err := col.Upsert(context.Background(), ids, texts, metas, vecs); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
}

func TestDenseRetrieverSearch(t *testing.T) {
	r, store, _ := newTestRetriever(t)
	seedCollection(t, store, "laws",
		[]string{"a", "b", "c"},
		[][]float32{
			blend(testDims, 0, 1, 0.9, 0.1),
			blend(testDims, 0, 1, 0.1, 0.9),
			blend(testDims, 0, 1, 0.6, 0.4),
		},
		[]map[string]any{
			{"doc_id": "law:1"},
			{"doc_id": "law:2"},
			{"doc_id": "law:3"},
		})

	hits, err := r.Search(context.Background(), "laws", "전대 조항", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].DocID() != "law:1" {
		t.Errorf("top hit = %s, want law:1", hits[0].DocID())
	}
	if hits[0].Distance > hits[1].Distance {
		t.Error("hits not sorted ascending by distance")
	}
}

func TestDenseRetrieverBlankQuery(t *testing.T) {
	r, _, _ := newTestRetriever(t)
	hits, err := r.Search(context.Background(), "laws", "   ", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("blank query should return no hits, got %d", len(hits))
	}
}

func TestDenseRetrieverZeroTopK(t *testing.T) {
	r, _, _ := newTestRetriever(t)
	hits, err := r.Search(context.Background(), "laws", "전대 조항", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("topK=0 should return no hits, got %d", len(hits))
	}
}

func headnoteMeta(pid, caseName string) map[string]any {
	return map[string]any{
		"precedent_id": pid,
		"case_name":    caseName,
		"doc_id":       "precedent:" + pid,
	}
}

func TestHeadnoteResolverDedup(t *testing.T) {
	r, store, _ := newTestRetriever(t)

	// Six chunks across exactly two precedents, three chunks each.
	ids := []string{"p1c0", "p1c1", "p1c2", "p2c0", "p2c1", "p2c2"}
	vecs := [][]float32{
		blend(testDims, 0, 1, 0.95, 0.05),
		blend(testDims, 0, 1, 0.7, 0.3),
		blend(testDims, 0, 1, 0.5, 0.5),
		blend(testDims, 0, 1, 0.8, 0.2),
		blend(testDims, 0, 1, 0.4, 0.6),
		blend(testDims, 0, 1, 0.3, 0.7),
	}
	metas := []map[string]any{
		headnoteMeta("100", "전대 사건"),
		headnoteMeta("100", "전대 사건"),
		headnoteMeta("100", "전대 사건"),
		headnoteMeta("200", "해지 사건"),
		headnoteMeta("200", "해지 사건"),
		headnoteMeta("200", "해지 사건"),
	}
	seedCollection(t, store, "precedent_cases_headnote", ids, vecs, metas)

	resolver := NewHeadnoteResolver(r, "precedent_cases_headnote", 3, zap.NewNop())
	hits, err := resolver.Retrieve(context.Background(), "전대 조항", 2)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected exactly 2 deduplicated hits, got %d", len(hits))
	}
	if hits[0].PrecedentID != "100" {
		t.Errorf("nearest precedent = %s, want 100", hits[0].PrecedentID)
	}
	if hits[0].Chunk.ID != "p1c0" {
		t.Errorf("kept chunk = %s, want the minimum-distance chunk p1c0", hits[0].Chunk.ID)
	}
	if hits[1].PrecedentID != "200" {
		t.Errorf("second precedent = %s, want 200", hits[1].PrecedentID)
	}
	if hits[0].Distance > hits[1].Distance {
		t.Error("hits not sorted ascending by distance")
	}
	if hits[0].CaseName != "전대 사건" {
		t.Errorf("case name = %q", hits[0].CaseName)
	}
}

func TestHeadnoteResolverSkipsUnresolvable(t *testing.T) {
	r, store, _ := newTestRetriever(t)

	ids := []string{"good", "bad"}
	vecs := [][]float32{
		blend(testDims, 0, 1, 0.9, 0.1),
		blend(testDims, 0, 1, 0.95, 0.05),
	}
	metas := []map[string]any{
		{"parent_doc_id": "precedent:300"},
		{"doc_id": "mediation:9"},
	}
	seedCollection(t, store, "precedent_cases_headnote", ids, vecs, metas)

	resolver := NewHeadnoteResolver(r, "precedent_cases_headnote", 3, zap.NewNop())
	hits, err := resolver.Retrieve(context.Background(), "전대 조항", 4)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit after skipping unresolvable chunk, got %d", len(hits))
	}
	if hits[0].PrecedentID != "300" {
		t.Errorf("precedent id = %s, want 300 parsed from parent_doc_id", hits[0].PrecedentID)
	}
}

func TestExtractPrecedentID(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]any
		want string
	}{
		{"from metadata", map[string]any{"precedent_id": "123"}, "123"},
		{"from doc_id", map[string]any{"doc_id": "precedent:456"}, "456"},
		{"from parent_doc_id", map[string]any{"parent_doc_id": "precedent: 789"}, "789"},
		{"wrong prefix", map[string]any{"doc_id": "law:1"}, ""},
		{"nil metadata", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPrecedentID(tt.meta); got != tt.want {
				t.Errorf("extractPrecedentID() = %q, want %q", got, tt.want)
			}
		})
	}
}
