package rag

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/homescan/leaselens/internal/config"
	"github.com/homescan/leaselens/internal/evidence"
	"github.com/homescan/leaselens/internal/models"
	"github.com/homescan/leaselens/internal/retrieval"
	"github.com/homescan/leaselens/internal/store"
	"github.com/homescan/leaselens/internal/vector"
)

const testDims = 4

const testClause = "임차인은 임대인의 사전 동의 없이 전대할 수 없다."

// fixedEmbedder returns predefined unit vectors for known texts so
// retrieval order in tests is fully controlled.
type fixedEmbedder struct {
	axes map[string][]float32
}

func (e *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := e.axes[text]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no test vector for %q", text)
}

func (e *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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

func (e *fixedEmbedder) Dimensions() int { return testDims }
func (e *fixedEmbedder) Close() error    { return nil }

func blend(a, b int, wa, wb float32) []float32 {
	v := make([]float32, testDims)
	v[a], v[b] = wa, wb
	norm := float32(math.Sqrt(float64(wa*wa + wb*wb)))
	for i := range v {
		v[i] /= norm
	}
	return v
}

type fixture struct {
	pipeline *Pipeline
	store    *store.Store
	vectors  *vector.Store
	cfg      *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	vs, err := vector.NewStore(t.TempDir(), testDims)
	if err != nil {
		t.Fatalf("vector.NewStore() error = %v", err)
	}
	st, err := store.New(":memory:", cfg.Datasets)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	emb := &fixedEmbedder{axes: map[string][]float32{
		testClause: blend(0, 1, 1, 0),
	}}
	logger := zap.NewNop()
	retriever := retrieval.NewDenseRetriever(vs, emb, logger)
	resolver := retrieval.NewHeadnoteResolver(retriever,
		cfg.Datasets[models.KindPrecedent].CollectionName, cfg.Retrieval.HeadnoteOversample, logger)

	return &fixture{
		pipeline: New(cfg, retriever, resolver, st, logger),
		store:    st,
		vectors:  vs,
		cfg:      cfg,
	}
}

func (f *fixture) seed(t *testing.T, collection string, ids []string, vecs [][]float32, metas []map[string]any) {
	t.Helper()
	col, err := f.vectors.Collection(collection)
	if err != nil {
		t.Fatalf("Collection() error = %v", err)
	}
	texts := make([]string, len(ids))
	for i, id := range ids {
		texts[i] = "chunk " + id
	}
	if err := col.Upsert(context.Background(), ids, texts, metas, vecs); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
}

func (f *fixture) seedLawCollection(t *testing.T) {
	t.Helper()
	f.seed(t, f.cfg.Datasets[models.KindLaw].CollectionName,
		[]string{"law1c0", "law2c0"},
		[][]float32{blend(0, 1, 0.95, 0.05), blend(0, 1, 0.05, 0.95)},
		[]map[string]any{
			{"doc_id": "law:1", "data_kind": "law"},
			{"doc_id": "law:2", "data_kind": "law"},
		})
}

func precedentMeta(pid string) map[string]any {
	return map[string]any{
		"precedent_id": pid,
		"doc_id":       "precedent:" + pid,
		"case_name":    "사건 " + pid,
	}
}

func precedentFullText() string {
	return "【원고, 피상고인】 갑 【피고, 상고인】 을 소송대리인 변호사 병 정 무\n\n" +
		"【이유】 임차인은 임대인의 동의 없이 임차권을 양도하거나 전대할 수 없고, 이를 위반하면 " +
		"임대인은 계약을 해지할 수 있다. 따라서 원심의 판단은 법리에 따른 것으로 정당하다.\n\n" +
		"그 밖의 주차장 이용과 관리비 정산 부분은 당사자 사이에 다툼이 없으므로 판단하지 아니한다."
}

func TestRunValidatesClause(t *testing.T) {
	f := newFixture(t)
	for _, clause := range []string{"", "   "} {
		_, err := f.pipeline.Run(context.Background(), &models.AnalyzeQuery{ClauseText: clause})
		if err == nil {
			t.Errorf("Run(%q) should fail validation before any retrieval", clause)
		}
	}
}

func TestRunStatuteLayer(t *testing.T) {
	f := newFixture(t)
	f.seedLawCollection(t)

	got, err := f.pipeline.Run(context.Background(), &models.AnalyzeQuery{ClauseText: testClause})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got.LawHits) == 0 {
		t.Fatal("expected law hits")
	}
	if got.LawHits[0].DocID() != "law:1" {
		t.Errorf("top law hit = %s, want law:1 ranked above the unrelated document", got.LawHits[0].DocID())
	}
	if got.ClauseText != testClause {
		t.Errorf("clause text = %q", got.ClauseText)
	}
}

func TestRunPrecedentDedup(t *testing.T) {
	f := newFixture(t)

	// Six chunks across exactly two precedents.
	ids := []string{"p1c0", "p1c1", "p1c2", "p2c0", "p2c1", "p2c2"}
	vecs := [][]float32{
		blend(0, 1, 0.95, 0.05), blend(0, 1, 0.8, 0.2), blend(0, 1, 0.6, 0.4),
		blend(0, 1, 0.9, 0.1), blend(0, 1, 0.5, 0.5), blend(0, 1, 0.3, 0.7),
	}
	metas := []map[string]any{
		precedentMeta("100"), precedentMeta("100"), precedentMeta("100"),
		precedentMeta("200"), precedentMeta("200"), precedentMeta("200"),
	}
	f.seed(t, f.cfg.Datasets[models.KindPrecedent].CollectionName, ids, vecs, metas)

	got, err := f.pipeline.Run(context.Background(),
		&models.AnalyzeQuery{ClauseText: testClause, TopKPrecedent: 2})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got.PrecedentHeadnoteHits) != 2 {
		t.Fatalf("expected exactly 2 precedent hits, got %d", len(got.PrecedentHeadnoteHits))
	}
	seen := map[string]bool{}
	for _, h := range got.PrecedentHeadnoteHits {
		if seen[h.PrecedentID] {
			t.Errorf("duplicate precedent id %s in headnote hits", h.PrecedentID)
		}
		seen[h.PrecedentID] = true
	}
	if got.PrecedentHeadnoteHits[0].PrecedentID != "100" {
		t.Errorf("nearest precedent = %s, want 100", got.PrecedentHeadnoteHits[0].PrecedentID)
	}
}

func TestRunPrecedentEvidenceChain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seed(t, f.cfg.Datasets[models.KindPrecedent].CollectionName,
		[]string{"p1c0"}, [][]float32{blend(0, 1, 0.9, 0.1)},
		[]map[string]any{precedentMeta("100")})

	err := f.store.InsertPrecedent(ctx, &models.PrecedentRecord{
		PrecedentID: "100",
		CaseName:    "전대 사건",
		FullText:    precedentFullText(),
	})
	if err != nil {
		t.Fatalf("InsertPrecedent() error = %v", err)
	}

	got, err := f.pipeline.Run(ctx, &models.AnalyzeQuery{ClauseText: testClause})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got.PrecedentFullText["100"] == nil {
		t.Fatal("full text record missing for precedent 100")
	}
	scored := got.PrecedentEvidence["100"]
	if len(scored) == 0 {
		t.Fatal("expected evidence spans for precedent 100")
	}
	if len(scored) > 3 {
		t.Errorf("evidence exceeds the final cap of 3: %d", len(scored))
	}
	if !evidence.HasReasonMarker(scored[0].Span.Text) {
		t.Errorf("top evidence should be the reasoning paragraph, got %q", scored[0].Span.Text)
	}
}

func TestRunMissingFullTextTolerated(t *testing.T) {
	f := newFixture(t)

	// Headnote search resolves a precedent that has no stored row.
	f.seed(t, f.cfg.Datasets[models.KindPrecedent].CollectionName,
		[]string{"p9c0"}, [][]float32{blend(0, 1, 0.9, 0.1)},
		[]map[string]any{precedentMeta("999")})

	got, err := f.pipeline.Run(context.Background(), &models.AnalyzeQuery{ClauseText: testClause})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got.PrecedentHeadnoteHits) != 1 || got.PrecedentHeadnoteHits[0].PrecedentID != "999" {
		t.Fatalf("headnote hit for 999 missing: %+v", got.PrecedentHeadnoteHits)
	}
	if _, ok := got.PrecedentFullText["999"]; ok {
		t.Error("precedent without a stored row must be absent from the full-text map")
	}
	if _, ok := got.PrecedentEvidence["999"]; ok {
		t.Error("precedent without full text must be absent from the evidence map")
	}
}

func TestRunDeterminism(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedLawCollection(t)
	f.seed(t, f.cfg.Datasets[models.KindPrecedent].CollectionName,
		[]string{"p1c0", "p2c0"},
		[][]float32{blend(0, 1, 0.9, 0.1), blend(0, 1, 0.7, 0.3)},
		[]map[string]any{precedentMeta("100"), precedentMeta("200")})
	if err := f.store.InsertPrecedent(ctx, &models.PrecedentRecord{
		PrecedentID: "100", FullText: precedentFullText(),
	}); err != nil {
		t.Fatalf("InsertPrecedent() error = %v", err)
	}

	query := func() *models.AnalyzeQuery { return &models.AnalyzeQuery{ClauseText: testClause} }
	first, err := f.pipeline.Run(ctx, query())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := f.pipeline.Run(ctx, query())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !reflect.DeepEqual(first.PrecedentHeadnoteHits, second.PrecedentHeadnoteHits) {
		t.Error("headnote hit ordering differs between identical runs")
	}
	if !reflect.DeepEqual(first.PrecedentEvidence, second.PrecedentEvidence) {
		t.Error("evidence contents differ between identical runs")
	}
	if !reflect.DeepEqual(first.LawHits, second.LawHits) {
		t.Error("law hits differ between identical runs")
	}
}

func TestRunEmptyCorpora(t *testing.T) {
	f := newFixture(t)

	got, err := f.pipeline.Run(context.Background(), &models.AnalyzeQuery{ClauseText: testClause})
	if err != nil {
		t.Fatalf("Run() on empty corpora should not error, got %v", err)
	}
	if len(got.LawHits) != 0 || len(got.MediationHits) != 0 || len(got.PrecedentHeadnoteHits) != 0 {
		t.Errorf("empty corpora should yield empty hits: %+v", got)
	}
	if strings.TrimSpace(got.ClauseText) == "" {
		t.Error("clause text should be preserved on the result")
	}
}
