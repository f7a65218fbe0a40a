// Package models defines core data structures for documents, chunks, search
// hits, precedent records, and evidence spans.
package models

import "fmt"

// DataKind identifies one of the three source corpora.
type DataKind string

const (
	KindLaw       DataKind = "law"
	KindPrecedent DataKind = "precedent"
	KindMediation DataKind = "mediation"
)

// ParseDataKind converts a string to a DataKind.
func ParseDataKind(s string) (DataKind, error) {
	switch DataKind(s) {
	case KindLaw, KindPrecedent, KindMediation:
		return DataKind(s), nil
	}
	return "", fmt.Errorf("unknown data kind: %q", s)
}

// DocumentRecord is one normalized source-table row ready for chunking.
// Metadata always carries a stable "doc_id".
type DocumentRecord struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// DocID returns the record's stable document id, or "" when absent.
func (d *DocumentRecord) DocID() string {
	if d.Metadata == nil {
		return ""
	}
	if v, ok := d.Metadata["doc_id"].(string); ok {
		return v
	}
	return ""
}

// Chunk is a bounded text segment of a parent document, the unit that is
// embedded and indexed. ID format is
// "<collection>::<parent_doc_id>::chunk::<index>" for named collections.
type Chunk struct {
	ID       string         `json:"chunk_id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// PrecedentRecord is one row of the precedents table. FullText may be empty
// when the record was loaded for lightweight reads.
type PrecedentRecord struct {
	PrecedentID     string `json:"precedent_id"`
	CaseName        string `json:"case_name,omitempty"`
	CaseNumber      string `json:"case_number,omitempty"`
	DecisionDate    string `json:"decision_date,omitempty"`
	CourtName       string `json:"court_name,omitempty"`
	JudgmentType    string `json:"judgment_type,omitempty"`
	Issues          string `json:"issues,omitempty"`
	Summary         string `json:"summary,omitempty"`
	ReferencedLaws  string `json:"referenced_laws,omitempty"`
	ReferencedCases string `json:"referenced_cases,omitempty"`
	FullText        string `json:"full_text,omitempty"`
}
