package models

import (
	"fmt"
	"strings"
)

// AnalyzeQuery is a layered retrieval request for a single lease clause.
type AnalyzeQuery struct {
	ClauseText        string `json:"clause_text"`
	TopKLaw           int    `json:"top_k_law,omitempty"`
	TopKPrecedent     int    `json:"top_k_precedent,omitempty"`
	TopKMediation     int    `json:"top_k_mediation,omitempty"`
	TopNEvidenceRaw   int    `json:"top_n_evidence_raw,omitempty"`
	TopNEvidenceFinal int    `json:"top_n_evidence_final,omitempty"`
}

// Validate ensures the query has valid fields and sets defaults.
// Returns an error if the clause text is blank after trimming; this is an
// input failure, distinct from a search that legitimately finds nothing.
func (q *AnalyzeQuery) Validate() error {
	if strings.TrimSpace(q.ClauseText) == "" {
		return fmt.Errorf("clause_text cannot be empty")
	}
	if q.TopKLaw <= 0 {
		q.TopKLaw = 4
	}
	if q.TopKPrecedent <= 0 {
		q.TopKPrecedent = 8
	}
	if q.TopKMediation <= 0 {
		q.TopKMediation = 4
	}
	if q.TopNEvidenceRaw <= 0 {
		q.TopNEvidenceRaw = 8
	}
	if q.TopNEvidenceFinal <= 0 {
		q.TopNEvidenceFinal = 3
	}
	if q.TopNEvidenceFinal > q.TopNEvidenceRaw {
		q.TopNEvidenceFinal = q.TopNEvidenceRaw
	}
	return nil
}
