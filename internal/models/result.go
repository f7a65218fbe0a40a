package models

// SearchHit is a single dense-retrieval hit. Distance follows the vector
// index convention: lower means more similar. Hits are ephemeral, produced
// per query and never persisted.
type SearchHit struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Distance float64        `json:"distance"`
}

// DocID returns the hit's source document id from metadata, or "" when absent.
func (h *SearchHit) DocID() string {
	if h.Metadata == nil {
		return ""
	}
	if v, ok := h.Metadata["doc_id"].(string); ok {
		return v
	}
	return ""
}

// PrecedentHeadnoteHit is one deduplicated precedent from headnote search:
// at most one per precedent id, always the lowest-distance chunk.
type PrecedentHeadnoteHit struct {
	PrecedentID  string    `json:"precedent_id"`
	CaseName     string    `json:"case_name,omitempty"`
	CaseNumber   string    `json:"case_number,omitempty"`
	DecisionDate string    `json:"decision_date,omitempty"`
	Distance     float64   `json:"distance"`
	Chunk        SearchHit `json:"chunk"`
}

// EvidenceSpan is a paragraph-level excerpt from a precedent's full text.
// ParagraphIndex is positional within that precedent's paragraph sequence
// for the current request; it is not a globally stable identifier.
type EvidenceSpan struct {
	PrecedentID    string  `json:"precedent_id"`
	ParagraphIndex int     `json:"paragraph_index"`
	Score          float64 `json:"score"`
	Text           string  `json:"text"`
}

// ScoredEvidence wraps a span with its post-filter adjusted score.
type ScoredEvidence struct {
	Span          EvidenceSpan `json:"span"`
	AdjustedScore float64      `json:"adjusted_score"`
}

// LayeredResult aggregates all three evidence layers for one clause. It is
// built once per query and handed to the downstream context assembler.
// Precedents that resolved from headnote search but produced no qualifying
// evidence remain in PrecedentFullText (headnote-only citation) and are
// absent from PrecedentEvidence.
type LayeredResult struct {
	ClauseText            string                      `json:"clause_text"`
	LawHits               []SearchHit                 `json:"law_hits"`
	MediationHits         []SearchHit                 `json:"mediation_hits"`
	PrecedentHeadnoteHits []PrecedentHeadnoteHit      `json:"precedent_headnote_hits"`
	PrecedentFullText     map[string]*PrecedentRecord `json:"precedent_fulltext"`
	PrecedentEvidence     map[string][]ScoredEvidence `json:"precedent_evidence"`
}
