// Package evidence extracts and re-ranks paragraph-level evidence spans from
// precedent full texts. Scoring is lexical: a small Okapi BM25 index is built
// per precedent over its own paragraphs, then scores are adjusted with a
// boilerplate penalty and a substantive-content bonus.
package evidence

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/homescan/leaselens/pkg/utils"
)

// Runs of Korean syllables, Latin letters, digits, CJK ideographs, and the
// middle dot count as one token each.
var wordRe = regexp.MustCompile(`[0-9A-Za-z가-힣\x{4e00}-\x{9fff}·]+`)

// Functional particles and generic lease vocabulary that appear in nearly
// every clause and paragraph. Kept deliberately short so short clauses are
// not tokenized down to nothing.
var stopwords = map[string]bool{
	"계약":  true,
	"임대인": true,
	"임차인": true,
	"경우":  true,
	"있다":  true,
	"없다":  true,
	"한다":  true,
	"하는":  true,
	"있는":  true,
	"또는":  true,
	"및":   true,
	"대하여": true,
	"의하여": true,
	"그리고": true,
}

// Tokenize lowercases the text, strips markup, and returns token runs with
// stopwords and single-character tokens removed.
func Tokenize(text string) []string {
	t := utils.NormalizeText(utils.StripHTML(text))
	raw := wordRe.FindAllString(strings.ToLower(t), -1)

	tokens := make([]string, 0, len(raw))
	for _, w := range raw {
		if stopwords[w] || utf8.RuneCountInString(w) < 2 {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func tokenSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
