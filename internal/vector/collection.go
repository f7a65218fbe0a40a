// Package vector provides persistent named vector collections with
// brute-force similarity search over normalized embeddings.
package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/homescan/leaselens/pkg/utils"
)

// Hit is a single similarity-search result. Distance is 1 minus the inner
// product of unit vectors, so lower means more similar; Query returns hits
// sorted ascending by distance.
type Hit struct {
	ID       string
	Text     string
	Metadata map[string]any
	Distance float64
}

// Collection stores chunk embeddings with their text and metadata payloads.
// Upsert overwrites by id, which makes rebuilds with identical chunk ids
// idempotent. Readers during a rebuild see eventually-consistent contents;
// no isolation is provided.
type Collection struct {
	name       string
	dimensions int

	mu      sync.RWMutex
	ids     []string
	byID    map[string]int
	vectors [][]float32
	texts   []string
	metas   []map[string]any
}

// NewCollection creates an empty collection with the given dimension.
func NewCollection(name string, dimensions int) (*Collection, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if name == "" {
		return nil, fmt.Errorf("collection name cannot be empty")
	}
	return &Collection{
		name:       name,
		dimensions: dimensions,
		byID:       make(map[string]int),
	}, nil
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Upsert inserts or overwrites entries by id. All slices must have equal
// length and every vector must match the collection dimension.
func (c *Collection) Upsert(ctx context.Context, ids, texts []string, metas []map[string]any, embeddings [][]float32) error {
	if len(ids) != len(embeddings) || len(ids) != len(texts) || len(ids) != len(metas) {
		return fmt.Errorf("ids, texts, metadatas, embeddings length mismatch")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, id := range ids {
		if len(embeddings[i]) != c.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(embeddings[i]), c.dimensions)
		}
		vec := make([]float32, c.dimensions)
		copy(vec, embeddings[i])
		if pos, ok := c.byID[id]; ok {
			c.vectors[pos] = vec
			c.texts[pos] = texts[i]
			c.metas[pos] = metas[i]
			continue
		}
		c.byID[id] = len(c.ids)
		c.ids = append(c.ids, id)
		c.vectors = append(c.vectors, vec)
		c.texts = append(c.texts, texts[i])
		c.metas = append(c.metas, metas[i])
	}
	return nil
}

// Query returns the top-k entries by ascending distance from the query
// vector. The query vector is assumed unit-normalized.
func (c *Collection) Query(ctx context.Context, query []float32, topK int) ([]Hit, error) {
	if len(query) != c.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), c.dimensions)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if topK <= 0 || len(c.ids) == 0 {
		return nil, nil
	}
	type scored struct {
		pos      int
		distance float64
	}
	scores := make([]scored, len(c.ids))
	for i, vec := range c.vectors {
		scores[i] = scored{pos: i, distance: 1 - utils.Dot(query, vec)}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].distance < scores[j].distance })
	if topK > len(scores) {
		topK = len(scores)
	}
	hits := make([]Hit, topK)
	for i := 0; i < topK; i++ {
		pos := scores[i].pos
		hits[i] = Hit{
			ID:       c.ids[pos],
			Text:     c.texts[pos],
			Metadata: c.metas[pos],
			Distance: scores[i].distance,
		}
	}
	return hits, nil
}

// Size returns the number of entries in the collection.
func (c *Collection) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ids)
}

// Save persists the collection to path. The directory is created if needed.
// Format: dimension (4), n (4), then per entry: idLen (4), id bytes, vector
// (dimension*4 bytes), textLen (4), text bytes, metaLen (4), metadata JSON.
func (c *Collection) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create collection dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create collection file: %w", err)
	}
	defer f.Close()

	if err := binary.Write(f, binary.LittleEndian, uint32(c.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(c.ids))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, id := range c.ids {
		metaJSON, err := json.Marshal(c.metas[i])
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", id, err)
		}
		if err := writeBlob(f, []byte(id)); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if _, err := f.Write(float32SliceToBytes(c.vectors[i])); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
		if err := writeBlob(f, []byte(c.texts[i])); err != nil {
			return fmt.Errorf("write text: %w", err)
		}
		if err := writeBlob(f, metaJSON); err != nil {
			return fmt.Errorf("write metadata: %w", err)
		}
	}
	return nil
}

// Load reads the collection from path, replacing in-memory contents.
// Dimensions must match. A missing file is not an error; the collection is
// left empty.
func (c *Collection) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open collection file: %w", err)
	}
	defer f.Close()

	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != c.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, collection expects %d", dim, c.dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = make([]string, 0, n)
	c.byID = make(map[string]int, n)
	c.vectors = make([][]float32, 0, n)
	c.texts = make([]string, 0, n)
	c.metas = make([]map[string]any, 0, n)

	vecBuf := make([]byte, c.dimensions*4)
	for i := uint32(0); i < n; i++ {
		idBytes, err := readBlob(f)
		if err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		if _, err := io.ReadFull(f, vecBuf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		textBytes, err := readBlob(f)
		if err != nil {
			return fmt.Errorf("read text: %w", err)
		}
		metaBytes, err := readBlob(f)
		if err != nil {
			return fmt.Errorf("read metadata: %w", err)
		}
		var meta map[string]any
		if len(metaBytes) > 0 {
			if err := json.Unmarshal(metaBytes, &meta); err != nil {
				return fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		c.byID[string(idBytes)] = len(c.ids)
		c.ids = append(c.ids, string(idBytes))
		c.vectors = append(c.vectors, bytesToFloat32Slice(vecBuf))
		c.texts = append(c.texts, string(textBytes))
		c.metas = append(c.metas, meta)
	}
	return nil
}

func writeBlob(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBlob(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
