package evidence

import (
	"sort"

	"github.com/homescan/leaselens/internal/models"
)

// ExtractOptions bound one extraction pass.
type ExtractOptions struct {
	// TopNPerCase caps how many spans each precedent may contribute.
	TopNPerCase int
	// MinParagraphChars drops fragments below this size during splitting.
	MinParagraphChars int
	// MinOverlap is the minimum number of distinct query tokens a paragraph
	// must share with the clause before it is scored at all.
	MinOverlap int
	// ShortQueryTokens and ShortQueryOverlap relax the gate: when the
	// filtered clause yields at most ShortQueryTokens tokens, the effective
	// overlap requirement becomes ShortQueryOverlap.
	ShortQueryTokens  int
	ShortQueryOverlap int
}

// EffectiveOverlap returns the overlap requirement for a query of the given
// filtered token count.
func (o ExtractOptions) EffectiveOverlap(queryTokens int) int {
	if queryTokens <= o.ShortQueryTokens {
		return o.ShortQueryOverlap
	}
	return o.MinOverlap
}

// Extract scores each precedent's paragraphs against the clause and returns
// the top spans per precedent. Precedents without full text and precedents
// where no paragraph passes the overlap gate with a positive score are
// omitted from the map entirely, so callers can tell "no evidence" apart
// from "not attempted". An empty map is returned when the clause tokenizes
// to nothing.
func Extract(clauseText string, precedents []*models.PrecedentRecord, opts ExtractOptions) map[string][]models.EvidenceSpan {
	qTokens := Tokenize(clauseText)
	if len(qTokens) == 0 {
		return map[string][]models.EvidenceSpan{}
	}
	qSet := tokenSet(qTokens)
	minOverlap := opts.EffectiveOverlap(len(qSet))

	out := make(map[string][]models.EvidenceSpan)
	for _, p := range precedents {
		if p == nil || p.FullText == "" {
			continue
		}

		paras := SplitParagraphs(p.FullText, opts.MinParagraphChars)
		if len(paras) == 0 {
			continue
		}
		idx := NewBM25Index(paras)

		type scored struct {
			i     int
			score float64
		}
		var hits []scored
		for i := 0; i < idx.Len(); i++ {
			if idx.Overlap(qSet, i) < minOverlap {
				continue
			}
			if s := idx.Score(qTokens, i); s > 0 {
				hits = append(hits, scored{i: i, score: s})
			}
		}
		if len(hits) == 0 {
			continue
		}

		sort.Slice(hits, func(a, b int) bool {
			if hits[a].score != hits[b].score {
				return hits[a].score > hits[b].score
			}
			return hits[a].i < hits[b].i
		})
		if opts.TopNPerCase > 0 && len(hits) > opts.TopNPerCase {
			hits = hits[:opts.TopNPerCase]
		}

		spans := make([]models.EvidenceSpan, len(hits))
		for j, h := range hits {
			spans[j] = models.EvidenceSpan{
				PrecedentID:    p.PrecedentID,
				ParagraphIndex: h.i,
				Score:          h.score,
				Text:           idx.Paragraph(h.i),
			}
		}
		out[p.PrecedentID] = spans
	}
	return out
}
