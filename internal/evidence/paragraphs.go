package evidence

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/homescan/leaselens/pkg/utils"
)

var blankLineRe = regexp.MustCompile(`\n\s*\n+`)

const (
	fallbackMinParagraphChars = 120
	maxParagraphChars         = 1800
)

// SplitParagraphs breaks a judgment's full text into paragraphs. Markup is
// stripped first since court full texts often carry <br/> breaks instead of
// blank lines. Primary split is on blank-line boundaries; when that yields
// two paragraphs or fewer the text is re-split line by line and consecutive
// lines are merged into paragraphs between a minimum and maximum size, so a
// break-only document neither collapses into one giant paragraph nor shatters
// into single-line fragments. Paragraphs shorter than minParagraphChars are
// dropped.
func SplitParagraphs(fullText string, minParagraphChars int) []string {
	t := utils.NormalizeText(utils.StripHTML(fullText))
	if t == "" {
		return nil
	}

	var paras []string
	for _, p := range blankLineRe.Split(t, -1) {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}

	if len(paras) <= 2 {
		minChars := minParagraphChars
		if minChars < fallbackMinParagraphChars {
			minChars = fallbackMinParagraphChars
		}
		paras = mergeLinesToParagraphs(strings.Split(t, "\n"), minChars, maxParagraphChars)
	}

	kept := paras[:0]
	for _, p := range paras {
		if utf8.RuneCountInString(p) >= minParagraphChars {
			kept = append(kept, p)
		}
	}
	return kept
}

// mergeLinesToParagraphs accumulates consecutive non-blank lines into a
// buffer, flushing it as one paragraph once it reaches minChars (or is forced
// past maxChars). Blank lines always flush.
func mergeLinesToParagraphs(lines []string, minChars, maxChars int) []string {
	var paras []string
	var buf []string
	bufLen := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		if p := strings.TrimSpace(strings.Join(buf, "\n")); p != "" {
			paras = append(paras, p)
		}
		buf = buf[:0]
		bufLen = 0
	}

	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			flush()
			continue
		}
		buf = append(buf, ln)
		bufLen += utf8.RuneCountInString(ln) + 1
		if bufLen >= minChars || bufLen >= maxChars {
			flush()
		}
	}
	flush()
	return paras
}
