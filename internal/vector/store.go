package vector

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store manages named collections persisted under a single directory, one
// file per collection. Collection handles are created once and shared
// read-mostly across requests.
type Store struct {
	dir        string
	dimensions int

	mu          sync.Mutex
	collections map[string]*Collection
}

// NewStore creates a store rooted at dir. The directory is created if needed.
func NewStore(dir string, dimensions int) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create vector store dir: %w", err)
		}
	}
	return &Store{
		dir:         dir,
		dimensions:  dimensions,
		collections: make(map[string]*Collection),
	}, nil
}

// Collection returns the named collection, creating it (and loading any
// persisted contents) on first use.
func (s *Store) Collection(name string) (*Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[name]; ok {
		return col, nil
	}
	col, err := NewCollection(name, s.dimensions)
	if err != nil {
		return nil, err
	}
	if err := col.Load(s.path(name)); err != nil {
		return nil, fmt.Errorf("load collection %s: %w", name, err)
	}
	s.collections[name] = col
	return col, nil
}

// Reset drops the named collection's contents and its persisted file.
// The next Collection call starts empty. Used by the offline rebuild job.
func (s *Store) Reset(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove collection file %s: %w", name, err)
	}
	return nil
}

// Save persists the named collection.
func (s *Store) Save(name string) error {
	s.mu.Lock()
	col, ok := s.collections[name]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return col.Save(s.path(name))
}

// SaveAll persists every open collection.
func (s *Store) SaveAll() error {
	s.mu.Lock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	s.mu.Unlock()
	for _, name := range names {
		if err := s.Save(name); err != nil {
			return err
		}
	}
	return nil
}

// Sizes returns entry counts for every open collection.
func (s *Store) Sizes() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.collections))
	for name, col := range s.collections {
		out[name] = col.Size()
	}
	return out
}

func (s *Store) path(name string) string {
	if s.dir == "" {
		return ""
	}
	return filepath.Join(s.dir, name+".vec")
}
