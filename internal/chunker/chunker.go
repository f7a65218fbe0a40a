// Package chunker splits normalized documents into overlapping, size-bounded
// text segments with stable, collection-scoped identifiers.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/homescan/leaselens/internal/models"
	"github.com/homescan/leaselens/pkg/utils"
)

// Config sizes the chunker for one corpus kind. Size and Overlap are in
// runes. Pieces shorter than MinChars after normalization are dropped; this
// is a quality gate, not a correctness requirement.
type Config struct {
	Size       int
	Overlap    int
	MinChars   int
	Collection string
}

// Chunker splits document text by an ordered list of separator preferences:
// paragraph break, line break, sentence-ending punctuation, clause-numbering
// markers, whitespace, and finally rune windows. The earliest separator that
// yields pieces within the size bound wins.
type Chunker struct {
	cfg    Config
	levels []splitFunc
}

type splitFunc func(string) []string

// clauseMarkerRe matches the circled-digit clause numbering (①②…) common in
// Korean statutes and judgments.
var clauseMarkerRe = regexp.MustCompile(`[\x{2460}-\x{2473}]`)

// New creates a chunker with the given configuration.
func New(cfg Config) *Chunker {
	if cfg.Size <= 0 {
		cfg.Size = 2000
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Overlap >= cfg.Size {
		cfg.Overlap = cfg.Size / 10
	}
	return &Chunker{
		cfg: cfg,
		levels: []splitFunc{
			splitAfter("\n\n"),
			splitAfter("\n"),
			splitAfter("。"),
			splitAfter("."),
			splitAfter("?"),
			splitAfter("!"),
			splitBeforeClauseMarkers,
			splitAfter(" "),
		},
	}
}

// Chunk splits each document into chunks, copying parent metadata and
// stamping parent_doc_id, chunk_index, chunk_count, and collection_name.
// Chunk ids are deterministic for identical input, so re-running a build
// overwrites rather than duplicates. Documents that yield no piece at or
// above MinChars produce zero chunks, never an error.
func (c *Chunker) Chunk(docs []models.DocumentRecord, kind models.DataKind) []models.Chunk {
	var out []models.Chunk
	for _, doc := range docs {
		parentID := doc.DocID()
		if parentID == "" {
			parentID = "unknown"
		}
		pieces := c.Split(doc.Text)
		if len(pieces) == 0 {
			continue
		}
		for i, text := range pieces {
			meta := make(map[string]any, len(doc.Metadata)+5)
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			meta["data_kind"] = string(kind)
			meta["parent_doc_id"] = parentID
			meta["chunk_index"] = i
			meta["chunk_count"] = len(pieces)

			var id string
			if c.cfg.Collection != "" {
				meta["collection_name"] = c.cfg.Collection
				id = fmt.Sprintf("%s::%s::chunk::%d", c.cfg.Collection, parentID, i)
			} else {
				id = fmt.Sprintf("%s::chunk::%d", parentID, i)
			}
			out = append(out, models.Chunk{ID: id, Text: text, Metadata: meta})
		}
	}
	return out
}

// Split splits one text into normalized, size-bounded pieces. Each piece is
// re-normalized after splitting because overlap can reintroduce boundary
// noise. Pieces shorter than MinChars are dropped.
func (c *Chunker) Split(text string) []string {
	text = utils.NormalizeText(text)
	if text == "" {
		return nil
	}
	var out []string
	for _, piece := range c.split(text, 0) {
		piece = utils.NormalizeText(piece)
		if len([]rune(piece)) < c.cfg.MinChars {
			continue
		}
		out = append(out, piece)
	}
	return out
}

func (c *Chunker) split(text string, level int) []string {
	runes := []rune(text)
	if len(runes) <= c.cfg.Size {
		return []string{text}
	}
	if level >= len(c.levels) {
		return c.runeWindows(runes)
	}
	parts := c.levels[level](text)
	if len(parts) <= 1 {
		return c.split(text, level+1)
	}
	return c.merge(parts, level)
}

// merge greedily packs separator parts into chunks of at most Size runes,
// carrying an Overlap-rune tail across chunk boundaries. Parts that are
// themselves oversized recurse into the next separator level.
func (c *Chunker) merge(parts []string, level int) []string {
	var out []string
	var buf []rune
	fresh := false // true when buf holds content beyond the carried overlap

	flush := func() {
		if len(buf) == 0 || !fresh {
			return
		}
		out = append(out, string(buf))
		tail := c.cfg.Overlap
		if tail > len(buf) {
			tail = len(buf)
		}
		buf = append([]rune(nil), buf[len(buf)-tail:]...)
		fresh = false
	}

	for _, part := range parts {
		pr := []rune(part)
		if len(pr) > c.cfg.Size {
			flush()
			out = append(out, c.split(part, level+1)...)
			buf = nil
			fresh = false
			continue
		}
		if len(buf)+len(pr) > c.cfg.Size {
			flush()
			// Carried overlap may still not leave room; shrink it.
			if len(buf)+len(pr) > c.cfg.Size {
				keep := c.cfg.Size - len(pr)
				if keep < 0 {
					keep = 0
				}
				buf = buf[len(buf)-keep:]
			}
		}
		buf = append(buf, pr...)
		fresh = true
	}
	flush()
	return out
}

// runeWindows is the last-resort splitter: fixed windows with overlap.
func (c *Chunker) runeWindows(runes []rune) []string {
	step := c.cfg.Size - c.cfg.Overlap
	if step <= 0 {
		step = 1
	}
	var out []string
	for i := 0; i < len(runes); i += step {
		end := i + c.cfg.Size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
		if end >= len(runes) {
			break
		}
	}
	return out
}

func splitAfter(sep string) splitFunc {
	return func(text string) []string {
		parts := strings.SplitAfter(text, sep)
		out := parts[:0]
		for _, p := range parts {
			if strings.TrimSpace(p) != "" {
				out = append(out, p)
			}
		}
		return out
	}
}

// splitBeforeClauseMarkers cuts the text before each circled-digit clause
// marker so that numbered clauses stay whole.
func splitBeforeClauseMarkers(text string) []string {
	locs := clauseMarkerRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}
	var out []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			out = append(out, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	out = append(out, text[prev:])
	return out
}
