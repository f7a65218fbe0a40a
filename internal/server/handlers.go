package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/homescan/leaselens/internal/models"
)

type analyzeResponse struct {
	AnalysisID string                `json:"analysis_id"`
	Result     *models.LayeredResult `json:"result"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var query models.AnalyzeQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	analysisID := uuid.New().String()
	s.logger.Debug("analyze request",
		zap.String("analysis_id", analysisID),
		zap.Int("clause_chars", len(query.ClauseText)))

	result, err := s.pipeline.Run(r.Context(), &query)
	if err != nil {
		s.logger.Error("analyze failed", zap.String("analysis_id", analysisID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, analyzeResponse{AnalysisID: analysisID, Result: result})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.Counts(r.Context())
	if err != nil {
		s.logger.Error("status: table counts failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"documents":   counts,
		"collections": s.vectors.Sizes(),
		"config": map[string]interface{}{
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"top_k_law":            s.config.Retrieval.TopKLaw,
			"top_k_precedent":      s.config.Retrieval.TopKPrecedent,
			"top_k_mediation":      s.config.Retrieval.TopKMediation,
			"database_path":        s.config.Storage.DatabasePath,
			"vector_store_dir":     s.config.Storage.VectorStoreDir,
		},
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
