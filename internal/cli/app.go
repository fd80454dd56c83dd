package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"edurag/config"
	"edurag/internal/adapter/analyzer"
	"edurag/internal/adapter/cache"
	"edurag/internal/adapter/chunker"
	"edurag/internal/adapter/embedding"
	"edurag/internal/adapter/fs"
	"edurag/internal/adapter/llm"
	"edurag/internal/adapter/memstore"
	"edurag/internal/adapter/retriever"
	"edurag/internal/adapter/store"
	"edurag/internal/adapter/vectorindex"
	"edurag/internal/port"
	"edurag/internal/usecase"
)

const mockDimension = 256

// App holds the wired service for one command invocation.
type App struct {
	Store     port.DocumentStore
	Index     *vectorindex.MemoryIndex
	Embedder  port.Embedder
	Retriever port.Retriever
	Ingest    *usecase.IngestUseCase
	Queue     *usecase.IngestQueue // nil unless built with background ingestion
	Docs      *usecase.DocumentService
	Import    *usecase.ImportUseCase
	Answer    *usecase.AnswerUseCase
}

// newApp wires every component from cfg. With background set, uploads are
// ingested by a queue the caller must Start; otherwise ingestion runs inline.
func newApp(ctx context.Context, cfg *config.Config, rootDir string, background bool, logger *slog.Logger) (*App, error) {
	if err := chunker.Validate(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap); err != nil {
		return nil, err
	}

	st, err := newStore(ctx, cfg, rootDir)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	generator, err := newGenerator(cfg.Generation)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	counter, err := newTokenCounter(cfg.Generation.Tokenizer)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}

	index := vectorindex.NewMemoryIndex(embedder.Dimension())

	ingest := usecase.NewIngestUseCase(st, index,
		chunker.NewWindowChunker(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap),
		embedder,
		usecase.IngestOptions{
			BatchSize:   cfg.Embedding.BatchSize,
			Concurrency: cfg.Embedding.Concurrency,
			Timeout:     cfg.Embedding.Timeout,
		},
		logger.With("component", "ingest"))

	app := &App{
		Store:    st,
		Index:    index,
		Embedder: embedder,
		Ingest:   ingest,
	}

	var scheduler usecase.Scheduler
	if background {
		app.Queue = usecase.NewIngestQueue(ingest, cfg.Ingest.Workers, cfg.Ingest.QueueSize, logger.With("component", "queue"))
		scheduler = app.Queue
	}
	app.Docs = usecase.NewDocumentService(st, index, ingest, scheduler, logger.With("component", "documents"))
	app.Import = usecase.NewImportUseCase(app.Docs, fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes))

	var r port.Retriever = retriever.NewSemanticRetriever(index, embedder, cfg.Embedding.Timeout)
	if cfg.Retrieve.CacheSize > 0 {
		r = cache.NewCachedRetriever(r, index, cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL))
	}
	app.Retriever = r
	app.Answer = usecase.NewAnswerUseCase(
		usecase.NewRetrieveUseCase(r, cfg.Retrieve.TopK, cfg.Retrieve.MinScore),
		usecase.NewPacker(counter, cfg.Generation.TokenBudget),
		generator,
		cfg.Generation.Timeout,
		logger.With("component", "answer"))

	logger.Debug("service wired",
		"store", cfg.Store.Driver,
		"embedder", embedder.ModelName(),
		"dimension", embedder.Dimension(),
		"generator", generator.ModelName())
	return app, nil
}

// Close stops background ingestion and releases the store.
func (a *App) Close() error {
	if a.Queue != nil {
		a.Queue.Close()
	}
	return a.Store.Close()
}

func newStore(ctx context.Context, cfg *config.Config, rootDir string) (port.DocumentStore, error) {
	switch cfg.Store.Driver {
	case "bolt":
		if !filepath.IsAbs(cfg.Store.Path) {
			if err := config.EnsureDataDir(rootDir); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		st, err := store.NewBoltStore(cfg.StorePath(rootDir))
		if err != nil {
			return nil, fmt.Errorf("failed to open document store: %w", err)
		}
		return st, nil
	case "postgres":
		dsn := os.Getenv(cfg.Store.PostgresDSNEnv)
		if dsn == "" {
			return nil, fmt.Errorf("postgres DSN not found. Set %s environment variable", cfg.Store.PostgresDSNEnv)
		}
		st, err := store.NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("error to connect to Postgres database: %w", err)
		}
		if err := st.Init(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("error to create tables: %w", err)
		}
		return st, nil
	case "memory":
		return memstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func newEmbedder(cfg config.EmbeddingConfig) (port.Embedder, error) {
	var (
		embedder port.Embedder
		err      error
	)
	switch cfg.Provider {
	case "openai":
		if cfg.BaseURL != "" {
			embedder, err = embedding.NewOpenAICompatibleEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL, cfg.Dimension)
		} else {
			embedder, err = embedding.NewOpenAIEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.Dimension)
		}
	case "deepseek":
		embedder, err = embedding.NewDeepSeekEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.Dimension)
	case "jina":
		embedder, err = embedding.NewJinaEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.Dimension)
	case "ollama":
		embedder, err = embedding.NewOllamaEmbedder(cfg.Model, cfg.BaseURL, cfg.Dimension)
	case "mock":
		dim := cfg.Dimension
		if dim <= 0 {
			dim = mockDimension
		}
		embedder = embedding.NewHashEmbedder(dim)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit > 0 {
		embedder = embedding.NewRateLimited(embedder, cfg.RateLimit)
	}
	return embedder, nil
}

func newGenerator(cfg config.GenerationConfig) (port.LLM, error) {
	if cfg.Provider == "mock" {
		return llm.NewExtractive(), nil
	}
	client, err := llm.NewChatClient(llm.Options{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		APIKeyEnv:   cfg.APIKeyEnv,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newTokenCounter(name string) (port.TokenCounter, error) {
	switch name {
	case "tiktoken":
		counter, err := analyzer.NewTiktokenCounter("")
		if err != nil {
			return nil, err
		}
		return counter, nil
	case "", "heuristic":
		return analyzer.NewTokenizer(false), nil
	default:
		return nil, fmt.Errorf("unsupported tokenizer: %s", name)
	}
}
