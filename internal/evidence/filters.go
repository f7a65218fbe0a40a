package evidence

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/homescan/leaselens/internal/models"
)

// Formal section headers: party captions, claim statements, case headers.
// A paragraph opening with one of these is procedural boilerplate unless it
// also carries the reasoning marker.
var formalRes = compileAll([]string{
	`^\s*【\s*원고`,
	`^\s*【\s*피고`,
	`^\s*【\s*상고인`,
	`^\s*【\s*피상고인`,
	`^\s*【\s*항소인`,
	`^\s*【\s*피항소인`,
	`^\s*【\s*원심판결`,
	`^\s*【\s*본소청구취지`,
	`^\s*【\s*반소청구취지`,
	`^\s*【\s*청구\s*및\s*항소취지`,
	`^\s*【\s*청구취지`,
	`^\s*【\s*항소취지`,
	`^\s*사\s*건\s*명`,
	`^\s*사\s*건\s*번\s*호`,
})

// Signals of substantive legal content: judgment structure markers, statute
// citations, and reasoning or legal-action vocabulary.
var substanceRes = compileAll([]string{
	`【\s*이\s*유\s*】`,
	`【\s*판시사항\s*】`,
	`【\s*판결요지\s*】`,
	`【\s*참조조문\s*】`,
	`【\s*참조판례\s*】`,
	`민법\s*제\s*\d+조`,
	`주택임대차보호법\s*제\s*\d+조`,
	`대법원`,
	`판시`,
	`법리`,
	`따라서`,
	`그러므로`,
	`위법`,
	`해지`,
	`전대`,
	`양도`,
})

var (
	reasonRe = regexp.MustCompile(`【\s*이\s*유\s*】`)
	orderRe  = regexp.MustCompile(`^\s*【\s*주\s*문\s*】`)
)

func compileAll(patterns []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return res
}

const (
	emptyPenalty     = 10.0
	shortPenalty     = 2.0
	shortTextRunes   = 35
	orderPenalty     = 0.75
	formalPenalty    = 1.5
	substanceStep    = 0.25
	substanceCap     = 3.0
	reasonBonusExtra = 0.75
)

// HasReasonMarker reports whether the text contains the 【이유】 section
// marker.
func HasReasonMarker(text string) bool {
	return reasonRe.MatchString(text)
}

// FormalPenalty scores how much a paragraph looks like pure procedural
// boilerplate. A paragraph carrying the reasoning marker is never penalized,
// even when it opens with a formal header. The 주문 (order) header gets only
// a light penalty since orders are weaker than reasoning but not pure form.
func FormalPenalty(text string) float64 {
	t := strings.TrimSpace(text)
	if t == "" {
		return emptyPenalty
	}
	if HasReasonMarker(t) {
		return 0
	}
	if utf8.RuneCountInString(t) < shortTextRunes {
		return shortPenalty
	}
	if orderRe.MatchString(t) {
		return orderPenalty
	}
	for _, rx := range formalRes {
		if rx.MatchString(t) {
			return formalPenalty
		}
	}
	return 0
}

// SubstanceBonus rewards paragraphs containing substantive-content markers,
// a small additive bonus per distinct marker plus an extra for the reasoning
// marker, capped in total.
func SubstanceBonus(text string) float64 {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0
	}
	bonus := 0.0
	for _, rx := range substanceRes {
		if rx.MatchString(t) {
			bonus += substanceStep
		}
	}
	if HasReasonMarker(t) {
		bonus += reasonBonusExtra
	}
	if bonus > substanceCap {
		bonus = substanceCap
	}
	return bonus
}

// RerankOptions control filtering during re-ranking.
type RerankOptions struct {
	// DropFormal excludes spans with any nonzero formal penalty outright
	// instead of merely down-ranking them.
	DropFormal bool
	// MinAdjustedScore drops spans whose adjusted score falls below it.
	MinAdjustedScore float64
	// KeepTopIfEmpty rescues this many spans by raw BM25 score when
	// filtering removed everything, so a precedent with only
	// procedurally-phrased paragraphs still contributes its best span.
	KeepTopIfEmpty int
}

// Rerank adjusts raw BM25 spans with the substance bonus and formal penalty,
// filters, and sorts by adjusted score descending.
func Rerank(spans []models.EvidenceSpan, opts RerankOptions) []models.ScoredEvidence {
	var out []models.ScoredEvidence
	for _, s := range spans {
		penalty := FormalPenalty(s.Text)
		if opts.DropFormal && penalty > 0 {
			continue
		}
		adj := s.Score + SubstanceBonus(s.Text) - penalty
		if adj < opts.MinAdjustedScore {
			continue
		}
		out = append(out, models.ScoredEvidence{Span: s, AdjustedScore: adj})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].AdjustedScore > out[b].AdjustedScore
	})

	if len(out) == 0 && opts.KeepTopIfEmpty > 0 && len(spans) > 0 {
		rescued := make([]models.EvidenceSpan, len(spans))
		copy(rescued, spans)
		sort.SliceStable(rescued, func(a, b int) bool {
			return rescued[a].Score > rescued[b].Score
		})
		if len(rescued) > opts.KeepTopIfEmpty {
			rescued = rescued[:opts.KeepTopIfEmpty]
		}
		for _, s := range rescued {
			out = append(out, models.ScoredEvidence{Span: s, AdjustedScore: s.Score})
		}
	}
	return out
}
