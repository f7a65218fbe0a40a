package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/homescan/leaselens/internal/models"
)

func sampleResult() *models.LayeredResult {
	return &models.LayeredResult{
		ClauseText: "임차인은 임대인의 동의 없이 전대할 수 없다.",
		LawHits: []models.SearchHit{
			{
				ID:       "law_chunks::law:1::chunk::0",
				Text:     "주택임대차보호법 제3조",
				Metadata: map[string]any{"doc_id": "law:1"},
				Distance: 0.12,
			},
		},
		PrecedentHeadnoteHits: []models.PrecedentHeadnoteHit{
			{
				PrecedentID: "70010",
				CaseName:    "건물명도",
				CaseNumber:  "2010다1234",
				Distance:    0.21,
			},
		},
		PrecedentFullText: map[string]*models.PrecedentRecord{},
		PrecedentEvidence: map[string][]models.ScoredEvidence{
			"70010": {
				{
					Span:          models.EvidenceSpan{PrecedentID: "70010", Text: "임차인이 임대인의 동의 없이 전대한 때에는 계약을 해지할 수 있다."},
					AdjustedScore: 2.5,
				},
			},
		},
	}
}

func TestWriteResultText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, sampleResult(), OutputText); err != nil {
		t.Fatalf("WriteResult() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"clause: 임차인은",
		"--- Statutes (1) ---",
		"[law:1]",
		"[precedent:70010]",
		"Case: 건물명도 2010다1234",
		"score=2.500",
		"--- Mediation cases (0) ---",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q\noutput:\n%s", want, out)
		}
	}
}

func TestWriteResultJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, sampleResult(), OutputJSON); err != nil {
		t.Fatalf("WriteResult() error = %v", err)
	}

	var decoded models.LayeredResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.PrecedentHeadnoteHits) != 1 || decoded.PrecedentHeadnoteHits[0].PrecedentID != "70010" {
		t.Errorf("JSON round trip lost precedent hits: %+v", decoded.PrecedentHeadnoteHits)
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
