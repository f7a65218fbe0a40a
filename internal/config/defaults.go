package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/leaselens.db"
	}
	if cfg.Storage.VectorStoreDir == "" {
		cfg.Storage.VectorStoreDir = "./data/collections"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "./data/models/bge-m3.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Retrieval.TopKLaw == 0 {
		cfg.Retrieval.TopKLaw = 4
	}
	if cfg.Retrieval.TopKPrecedent == 0 {
		cfg.Retrieval.TopKPrecedent = 8
	}
	if cfg.Retrieval.TopKMediation == 0 {
		cfg.Retrieval.TopKMediation = 4
	}
	if cfg.Retrieval.TopNEvidenceRaw == 0 {
		cfg.Retrieval.TopNEvidenceRaw = 8
	}
	if cfg.Retrieval.TopNEvidenceFinal == 0 {
		cfg.Retrieval.TopNEvidenceFinal = 3
	}
	if cfg.Retrieval.HeadnoteOversample == 0 {
		cfg.Retrieval.HeadnoteOversample = 3
	}
	// Statute articles are already paragraph-scale; mediation narratives run
	// long. Precedent headnotes sit in between.
	if cfg.Chunking.Law.Size == 0 {
		cfg.Chunking.Law = ChunkKindConfig{Size: 1200, Overlap: 120}
	}
	if cfg.Chunking.Precedent.Size == 0 {
		cfg.Chunking.Precedent = ChunkKindConfig{Size: 2000, Overlap: 200}
	}
	if cfg.Chunking.Mediation.Size == 0 {
		cfg.Chunking.Mediation = ChunkKindConfig{Size: 2400, Overlap: 240}
	}
	if cfg.Chunking.MinChunkChars == 0 {
		cfg.Chunking.MinChunkChars = 80
	}
	if cfg.Evidence.MinParagraphChars == 0 {
		cfg.Evidence.MinParagraphChars = 40
	}
	if cfg.Evidence.MinOverlap == 0 {
		cfg.Evidence.MinOverlap = 2
	}
	if cfg.Evidence.ShortQueryTokens == 0 {
		cfg.Evidence.ShortQueryTokens = 2
	}
	if cfg.Evidence.ShortQueryOverlap == 0 {
		cfg.Evidence.ShortQueryOverlap = 1
	}
	if cfg.Evidence.KeepTopIfEmpty == 0 {
		cfg.Evidence.KeepTopIfEmpty = 1
	}
	if cfg.Datasets == nil {
		cfg.Datasets = defaultDatasets()
	}
}
