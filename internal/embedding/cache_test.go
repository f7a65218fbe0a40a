package embedding

import (
	"context"
	"math"
	"testing"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})

	if v, ok := c.Get("a"); !ok || v[0] != 1 {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
	// "b" is now least recently used; inserting "c" evicts it.
	c.Set("c", []float32{3})
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive eviction")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d", c.Len())
	}
}

func TestCache_Overwrite(t *testing.T) {
	c := NewCache(2)
	c.Set("a", []float32{1})
	c.Set("a", []float32{9})
	if v, _ := c.Get("a"); v[0] != 9 {
		t.Errorf("overwrite failed: %v", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d", c.Len())
	}
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	a, err := e.Embed(context.Background(), "임차인은 전대할 수 없다")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(context.Background(), "임차인은 전대할 수 없다")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding not deterministic at %d", i)
		}
	}
	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1.0) > 1e-4 {
		t.Errorf("embedding not unit-normalized: %f", norm)
	}
}

func TestHashEmbedder_Batch(t *testing.T) {
	e := NewHashEmbedder(16)
	embs, err := e.EmbedBatch(context.Background(), []string{"가", "나"})
	if err != nil {
		t.Fatal(err)
	}
	if len(embs) != 2 || len(embs[0]) != 16 {
		t.Errorf("unexpected batch shape: %d x %d", len(embs), len(embs[0]))
	}
}

func TestSimpleTokenizer(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, mask, types := tok.Tokenize("hello world", 8)
	if len(ids) != 8 || len(mask) != 8 || len(types) != 8 {
		t.Fatal("expected padded length 8")
	}
	if ids[0] != 101 {
		t.Errorf("expected CLS at 0, got %d", ids[0])
	}
	if mask[0] != 1 || mask[1] != 1 || mask[2] != 1 {
		t.Error("expected attention on CLS and two words")
	}
}
