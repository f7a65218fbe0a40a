// Package config provides configuration loading and structs for the LeaseLens server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/homescan/leaselens/internal/models"
)

// Config holds all configuration for the application. It is constructed once
// at startup and passed explicitly to components; there is no ambient lookup.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Evidence  EvidenceConfig  `yaml:"evidence"`

	// Datasets maps each corpus kind to its table/collection/field layout.
	// Populated by ApplyDefaults; the precedent entry honors
	// PRECEDENT_VECTOR_MODE (headnote|fulltext).
	Datasets map[models.DataKind]DatasetConfig `yaml:"-"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the relational database and vector collections.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	VectorStoreDir string `yaml:"vector_store_dir"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// RetrievalConfig holds per-layer top-k defaults and headnote oversampling.
type RetrievalConfig struct {
	TopKLaw           int `yaml:"top_k_law"`
	TopKPrecedent     int `yaml:"top_k_precedent"`
	TopKMediation     int `yaml:"top_k_mediation"`
	TopNEvidenceRaw   int `yaml:"top_n_evidence_raw"`
	TopNEvidenceFinal int `yaml:"top_n_evidence_final"`

	// HeadnoteOversample multiplies top-k when sampling raw precedent chunks
	// before per-precedent dedup. Chunked precedent collections return
	// several chunks per case; sampling only top-k would starve the slots.
	HeadnoteOversample int `yaml:"headnote_oversample"`
}

// ChunkKindConfig is the chunk size/overlap for one corpus kind.
type ChunkKindConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// ChunkingConfig holds per-kind chunk sizing and the minimum chunk length gate.
type ChunkingConfig struct {
	Law           ChunkKindConfig `yaml:"law"`
	Precedent     ChunkKindConfig `yaml:"precedent"`
	Mediation     ChunkKindConfig `yaml:"mediation"`
	MinChunkChars int             `yaml:"min_chunk_chars"`
}

// ForKind returns the chunk sizing for the given corpus kind.
func (c *ChunkingConfig) ForKind(kind models.DataKind) ChunkKindConfig {
	switch kind {
	case models.KindLaw:
		return c.Law
	case models.KindMediation:
		return c.Mediation
	default:
		return c.Precedent
	}
}

// EvidenceConfig holds BM25 extraction and rerank thresholds.
type EvidenceConfig struct {
	MinParagraphChars int     `yaml:"min_paragraph_chars"`
	MinOverlap        int     `yaml:"min_overlap"`
	ShortQueryTokens  int     `yaml:"short_query_tokens"`
	ShortQueryOverlap int     `yaml:"short_query_overlap"`
	DropFormal        *bool   `yaml:"drop_formal"`
	MinAdjustedScore  float64 `yaml:"min_adjusted_score"`
	KeepTopIfEmpty    int     `yaml:"keep_top_if_empty"`
}

// DropFormalOrDefault returns whether formal spans are excluded outright;
// defaults to true when unset.
func (e *EvidenceConfig) DropFormalOrDefault() bool {
	if e.DropFormal != nil {
		return *e.DropFormal
	}
	return true
}

// Load reads and parses the config file at path, applies defaults, and
// expands relative storage paths against the config directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorStoreDir = expandPath(cfg.Storage.VectorStoreDir, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
