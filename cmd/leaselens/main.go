// Package main is the LeaseLens CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/homescan/leaselens/internal/builder"
	"github.com/homescan/leaselens/internal/cli"
	"github.com/homescan/leaselens/internal/config"
	"github.com/homescan/leaselens/internal/embedding"
	"github.com/homescan/leaselens/internal/models"
	"github.com/homescan/leaselens/internal/rag"
	"github.com/homescan/leaselens/internal/retrieval"
	"github.com/homescan/leaselens/internal/server"
	"github.com/homescan/leaselens/internal/store"
	"github.com/homescan/leaselens/internal/vector"
	"github.com/homescan/leaselens/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/leaselens/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used instead.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// PRECEDENT_VECTOR_MODE and friends may come from a local .env.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "build":
		runBuild()
	case "query":
		runQuery()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("leaselens version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Pipeline, components.Store, components.Vectors, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runBuild() {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	kindFlag := fs.String("kind", "all", "corpus to build: law, precedent, mediation, or all")
	reset := fs.Bool("reset", false, "drop the collection before rebuilding")
	limit := fs.Int("limit", 0, "max documents to read per corpus (0 = all)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	b := builder.New(cfg, components.Store, components.Vectors, components.Embedder, logger)
	opts := builder.Options{Reset: *reset, Limit: *limit}
	ctx := context.Background()

	if *kindFlag == "all" {
		if err := b.BuildAll(ctx, opts); err != nil {
			logger.Fatal("Build failed", zap.Error(err))
		}
	} else {
		kind, err := models.ParseDataKind(*kindFlag)
		if err != nil {
			fmt.Printf("Invalid kind: %v\n", err)
			os.Exit(1)
		}
		if err := b.Build(ctx, kind, opts); err != nil {
			logger.Fatal("Build failed", zap.Error(err))
		}
	}

	for name, size := range components.Vectors.Sizes() {
		fmt.Printf("%-30s %d chunks\n", name, size)
	}
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	topKLaw := fs.Int("top-k-law", 0, "statute hits to return (0 = config default)")
	topKPrecedent := fs.Int("top-k-precedent", 0, "precedents to return (0 = config default)")
	topKMediation := fs.Int("top-k-mediation", 0, "mediation hits to return (0 = config default)")
	outputFlag := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: leaselens query [flags] <clause text>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	clause := strings.TrimSpace(strings.Join(fs.Args(), " "))

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	query := &models.AnalyzeQuery{
		ClauseText:    clause,
		TopKLaw:       *topKLaw,
		TopKPrecedent: *topKPrecedent,
		TopKMediation: *topKMediation,
	}
	result, err := components.Pipeline.Run(context.Background(), query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
		os.Exit(1)
	}

	if err := cli.WriteResult(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = read local stores directly)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/status")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	counts, err := components.Store.Counts(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("# documents")
	for kind, n := range counts {
		fmt.Printf("  %-12s %d\n", kind, n)
	}
	fmt.Println("# collections")
	for name, size := range components.Vectors.Sizes() {
		fmt.Printf("  %-30s %d chunks\n", name, size)
	}
}

// Components holds initialized services.
type Components struct {
	Store    *store.Store
	Vectors  *vector.Store
	Embedder embedding.Embedder
	Pipeline *rag.Pipeline
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	st, err := store.New(cfg.Storage.DatabasePath, cfg.Datasets)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	var embedder embedding.Embedder
	onnxEmbedder, err := embedding.NewONNXEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	if err != nil {
		logger.Warn("ONNX embedder unavailable, using hash embedder", zap.Error(err))
		embedder = embedding.NewHashEmbedder(cfg.Embedding.Dimensions)
	} else {
		embedder = onnxEmbedder
	}

	vectors, err := vector.NewStore(cfg.Storage.VectorStoreDir, cfg.Embedding.Dimensions)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	retriever := retrieval.NewDenseRetriever(vectors, embedder, logger)
	resolver := retrieval.NewHeadnoteResolver(
		retriever,
		cfg.Datasets[models.KindPrecedent].CollectionName,
		cfg.Retrieval.HeadnoteOversample,
		logger,
	)
	pipeline := rag.New(cfg, retriever, resolver, st, logger)

	return &Components{
		Store:    st,
		Vectors:  vectors,
		Embedder: embedder,
		Pipeline: pipeline,
	}, nil
}

func printUsage() {
	fmt.Println(`leaselens - layered retrieval for Korean residential lease clauses

Usage:
  leaselens server [flags]              Start the HTTP API server
  leaselens build [flags]               Build vector collections from the database
  leaselens query [flags] <clause>      Run layered retrieval for one clause
  leaselens status [flags]              Show corpus and collection sizes
  leaselens version                     Show version
  leaselens help                        Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/leaselens/config.yaml)
  --debug            Enable debug logging

Build Flags:
  --config string    Config file path
  --kind string      Corpus to build: law, precedent, mediation, or all (default: all)
  --reset            Drop the collection before rebuilding
  --limit int        Max documents per corpus (0 = all)

Query Flags:
  --config string           Config file path
  --top-k-law int           Statute hits (0 = config default)
  --top-k-precedent int     Precedents (0 = config default)
  --top-k-mediation int     Mediation hits (0 = config default)
  --output string           text or json (default: text)

Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct mode.

Environment:
  PRECEDENT_VECTOR_MODE    headnote (default) or fulltext

Examples:
  leaselens build --kind all --reset
  leaselens query "임차인은 임대인의 사전 동의 없이 전대할 수 없다."
  leaselens query --output json "보증금은 계약 종료 후 3개월 이내에 반환한다."
  leaselens server --debug
  leaselens status --server ""`)
}
