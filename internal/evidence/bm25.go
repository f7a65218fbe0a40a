package evidence

import "math"

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// BM25Index is a minimal Okapi BM25 index over the paragraphs of a single
// precedent. The corpus is deliberately scoped to that one precedent's
// paragraphs: it is cheap to rebuild per request and keeps one verbose
// judgment from skewing document-frequency statistics for every other case.
type BM25Index struct {
	paragraphs []string
	docTokens  [][]string
	docSets    []map[string]bool
	df         map[string]int
	avgdl      float64
}

// NewBM25Index tokenizes the paragraphs and builds frequency statistics.
func NewBM25Index(paragraphs []string) *BM25Index {
	idx := &BM25Index{
		paragraphs: paragraphs,
		docTokens:  make([][]string, len(paragraphs)),
		docSets:    make([]map[string]bool, len(paragraphs)),
		df:         make(map[string]int),
	}

	totalLen := 0
	for i, p := range paragraphs {
		toks := Tokenize(p)
		idx.docTokens[i] = toks
		totalLen += len(toks)

		set := tokenSet(toks)
		idx.docSets[i] = set
		for w := range set {
			idx.df[w]++
		}
	}

	n := len(paragraphs)
	if n == 0 {
		n = 1
	}
	idx.avgdl = float64(totalLen) / float64(n)
	return idx
}

// Len returns the number of indexed paragraphs.
func (idx *BM25Index) Len() int {
	return len(idx.paragraphs)
}

// Paragraph returns the paragraph text at position i.
func (idx *BM25Index) Paragraph(i int) string {
	return idx.paragraphs[i]
}

// Overlap returns how many distinct query tokens occur in paragraph i.
func (idx *BM25Index) Overlap(querySet map[string]bool, i int) int {
	n := 0
	for t := range querySet {
		if idx.docSets[i][t] {
			n++
		}
	}
	return n
}

func (idx *BM25Index) idf(term string) float64 {
	df := float64(idx.df[term])
	n := float64(len(idx.paragraphs))
	return math.Log(1 + (n-df+0.5)/(df+0.5))
}

// Score computes the BM25 score of paragraph i against the query tokens.
func (idx *BM25Index) Score(queryTokens []string, i int) float64 {
	tokens := idx.docTokens[i]
	if len(tokens) == 0 {
		return 0
	}

	dl := float64(len(tokens))
	tf := make(map[string]int, len(tokens))
	for _, w := range tokens {
		tf[w]++
	}

	avgdl := idx.avgdl
	if avgdl == 0 {
		avgdl = 1
	}

	score := 0.0
	for _, q := range queryTokens {
		f := float64(tf[q])
		if f == 0 {
			continue
		}
		denom := f + bm25K1*(1-bm25B+bm25B*dl/avgdl)
		score += idx.idf(q) * (f * (bm25K1 + 1) / denom)
	}
	return score
}
