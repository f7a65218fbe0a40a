// Package cli provides CLI output utilities for LeaseLens.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/homescan/leaselens/internal/models"
	"github.com/homescan/leaselens/pkg/utils"
)

// OutputFormat is the format for analysis result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a user-supplied format string.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteResult writes a layered analysis result to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteResult(w io.Writer, result *models.LayeredResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		writeResultText(w, result)
		return nil
	}
}

func writeResultText(w io.Writer, result *models.LayeredResult) {
	fmt.Fprintf(w, "clause: %s\n\n", result.ClauseText)

	fmt.Fprintf(w, "--- Statutes (%d) ---\n", len(result.LawHits))
	for i := range result.LawHits {
		writeHit(w, &result.LawHits[i])
	}

	fmt.Fprintf(w, "\n--- Precedents (%d) ---\n", len(result.PrecedentHeadnoteHits))
	for _, h := range result.PrecedentHeadnoteHits {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[precedent:%s] Distance: %.4f\n", h.PrecedentID, h.Distance)
		if h.CaseName != "" || h.CaseNumber != "" {
			fmt.Fprintf(w, "Case: %s %s\n", h.CaseName, h.CaseNumber)
		}
		if h.DecisionDate != "" {
			fmt.Fprintf(w, "Decided: %s\n", h.DecisionDate)
		}
		for _, ev := range result.PrecedentEvidence[h.PrecedentID] {
			fmt.Fprintf(w, "  · score=%.3f  %s\n", ev.AdjustedScore, utils.Truncate(ev.Span.Text, 160))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\n--- Mediation cases (%d) ---\n", len(result.MediationHits))
	for i := range result.MediationHits {
		writeHit(w, &result.MediationHits[i])
	}
}

func writeHit(w io.Writer, h *models.SearchHit) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "[%s] Distance: %.4f\n", h.DocID(), h.Distance)
	fmt.Fprintf(w, "%s\n\n", utils.Truncate(h.Text, 200))
}

// PrintResult prints an analysis result to stdout in text format.
func PrintResult(result *models.LayeredResult) {
	_ = WriteResult(os.Stdout, result, OutputText)
}
