// Package app wires the long-lived components of the service: providers,
// the vector store and the indexing and answering pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"pdfqa/internal/ai"
	"pdfqa/internal/cache"
	"pdfqa/internal/config"
	"pdfqa/internal/logger"
	"pdfqa/internal/telemetry"
	"pdfqa/internal/vectorstore"
	"pdfqa/models"
	"pdfqa/services"
)

// App holds every shared component. Build it once with New and release it
// with Close.
type App struct {
	Config    *config.Config
	Embedder  ai.Embedder
	Completer ai.Completer
	Store     vectorstore.Store
	Registry  *vectorstore.Registry
	Metrics   *telemetry.Metrics

	Storage   *services.UploadStorage
	Extractor *services.PDFExtractor
	Indexer   *services.Indexer
	Retriever *services.Retriever
	Generator *services.AnswerGenerator

	closers []func(context.Context) error
}

// New connects to the configured providers and store.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	shutdown, err := telemetry.InitTracer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.onClose(shutdown)

	embedder, err := ai.NewEmbedder(ctx, cfg)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	if cfg.RedisURL != "" {
		rdb, err := config.NewRedisClient(ctx, cfg)
		if err != nil {
			closeQuietly(embedder)
			a.Close(ctx)
			return nil, err
		}
		a.onClose(func(context.Context) error { return rdb.Close() })
		embedder = cache.NewEmbeddingCache(embedder, rdb, cfg.EmbeddingCacheTTL)
		logger.Info("embedding cache enabled", "ttl", cfg.EmbeddingCacheTTL.String())
	}
	if c, ok := embedder.(ai.Closer); ok {
		a.onClose(func(context.Context) error { return c.Close() })
	}

	completer, err := ai.NewCompleter(ctx, cfg)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("init completer: %w", err)
	}
	if c, ok := completer.(ai.Closer); ok {
		a.onClose(func(context.Context) error { return c.Close() })
	}

	store, err := OpenStore(cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.onClose(store.Close)

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	storage, err := services.NewUploadStorage(cfg.UploadDir, cfg.UploadChunkSize)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Metrics = metrics
	a.wire(embedder, completer, store, storage)

	logger.Info("application initialized",
		"vector_store", store.Backend(),
		"embedder", embedder.Name(),
		"llm", completer.Name(),
	)
	return a, nil
}

// NewWithComponents builds an App around already constructed providers and
// store. Close does not release them.
func NewWithComponents(cfg *config.Config, embedder ai.Embedder, completer ai.Completer, store vectorstore.Store) (*App, error) {
	storage, err := services.NewUploadStorage(cfg.UploadDir, cfg.UploadChunkSize)
	if err != nil {
		return nil, err
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Metrics: metrics}
	a.wire(embedder, completer, store, storage)
	return a, nil
}

func (a *App) wire(embedder ai.Embedder, completer ai.Completer, store vectorstore.Store, storage *services.UploadStorage) {
	cfg := a.Config
	a.Embedder = embedder
	a.Completer = completer
	a.Store = store
	a.Registry = vectorstore.NewRegistry(store)
	a.Storage = storage
	a.Extractor = services.NewPDFExtractor()
	a.Indexer = services.NewIndexer(
		services.NewSemanticSplitter(embedder, cfg.SplitterBufferSize, cfg.BreakpointPercentile),
		embedder,
		a.Registry,
	)
	a.Retriever = services.NewRetriever(embedder, a.Registry, cfg.TopK)
	a.Generator = services.NewAnswerGenerator(a.Retriever, completer, cfg.TopK)
}

// OpenStore connects the backend selected by VECTOR_STORE.
func OpenStore(cfg *config.Config) (vectorstore.Store, error) {
	switch cfg.VectorStore {
	case config.VectorStoreLocal, "":
		return vectorstore.NewLocalStore(cfg.StorageDir)
	case config.VectorStoreMongo:
		client, err := config.ConnectMongoDB(cfg)
		if err != nil {
			return nil, err
		}
		return vectorstore.NewMongoStore(client, cfg.DBName, cfg.VectorSearchEnabled, cfg.VectorIndexName), nil
	case config.VectorStorePostgres:
		db, err := config.ConnectPostgres(cfg)
		if err != nil {
			return nil, err
		}
		return vectorstore.NewPostgresStore(db), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore)
	}
}

// IngestFile extracts and indexes a PDF that is already on disk.
func (a *App) IngestFile(ctx context.Context, path, filename, owner string) (*models.UploadResponse, error) {
	start := time.Now()
	pages, chunks, err := a.ingest(ctx, path, filename, owner)

	status := models.StatusSuccess
	if err != nil {
		status = "error"
	}
	a.Metrics.RecordPDFProcessing(ctx, time.Since(start).Seconds(), status, chunks)
	if err != nil {
		return nil, err
	}

	return &models.UploadResponse{
		Message:    fmt.Sprintf("PDF %s processed and stored for UUID %s", filename, owner),
		Filename:   filename,
		PageCount:  pages,
		ChunkCount: chunks,
		Status:     models.StatusSuccess,
	}, nil
}

func (a *App) ingest(ctx context.Context, path, filename, owner string) (int, int, error) {
	docs, err := a.Extractor.Extract(ctx, path)
	if err != nil {
		return 0, 0, err
	}
	chunks, err := a.Indexer.Index(ctx, docs, owner, filename)
	if err != nil {
		return len(docs), 0, err
	}
	return len(docs), chunks, nil
}

// Upload saves r to the upload directory and ingests it.
func (a *App) Upload(ctx context.Context, r io.Reader, filename, owner string) (*models.UploadResponse, error) {
	path, _, err := a.Storage.Save(owner, filename, r)
	if err != nil {
		return nil, err
	}
	return a.IngestFile(ctx, path, filename, owner)
}

// Ask answers question from owner's documents.
func (a *App) Ask(ctx context.Context, question, owner string) (*models.AskResponse, error) {
	start := time.Now()
	answer, err := a.Generator.Answer(ctx, question, owner)

	status := "success"
	if err != nil {
		status = "error"
	}
	a.Metrics.RecordAnswer(ctx, time.Since(start).Seconds(), status)
	if err != nil {
		return nil, err
	}

	return &models.AskResponse{
		Question: question,
		Answer:   answer.Text,
		Metadata: answer.Sources,
	}, nil
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func closeQuietly(v any) {
	if c, ok := v.(ai.Closer); ok {
		_ = c.Close()
	}
}
