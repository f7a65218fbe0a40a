package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/homescan/leaselens/internal/config"
	"github.com/homescan/leaselens/internal/embedding"
	"github.com/homescan/leaselens/internal/models"
	"github.com/homescan/leaselens/internal/rag"
	"github.com/homescan/leaselens/internal/retrieval"
	"github.com/homescan/leaselens/internal/store"
	"github.com/homescan/leaselens/internal/vector"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	st, err := store.New(":memory:", cfg.Datasets)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	vs, err := vector.NewStore(t.TempDir(), 32)
	if err != nil {
		t.Fatalf("vector.NewStore() error = %v", err)
	}

	logger := zap.NewNop()
	embedder := embedding.NewHashEmbedder(32)
	retriever := retrieval.NewDenseRetriever(vs, embedder, logger)
	resolver := retrieval.NewHeadnoteResolver(retriever,
		cfg.Datasets[models.KindPrecedent].CollectionName, cfg.Retrieval.HeadnoteOversample, logger)
	pipeline := rag.New(cfg, retriever, resolver, st, logger)

	return NewServer(pipeline, st, vs, cfg, logger)
}

func TestHandleAnalyze(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	body, _ := json.Marshal(models.AnalyzeQuery{
		ClauseText: "임차인은 임대인의 사전 동의 없이 전대할 수 없다.",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AnalysisID string                `json:"analysis_id"`
		Result     *models.LayeredResult `json:"result"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AnalysisID == "" {
		t.Error("analysis_id missing")
	}
	if resp.Result == nil || resp.Result.ClauseText == "" {
		t.Error("result missing clause text")
	}
}

func TestHandleAnalyzeBlankClause(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	for _, clause := range []string{"", "   "} {
		body, _ := json.Marshal(models.AnalyzeQuery{ClauseText: clause})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("clause %q: status = %d, want 400", clause, rec.Code)
		}
	}
}

func TestHandleAnalyzeInvalidBody(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field = %q, want ok", resp["status"])
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t)
	router := srv.Router()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, key := range []string{"documents", "collections", "config"} {
		if _, ok := resp[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
}
