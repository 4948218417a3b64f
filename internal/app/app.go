package app

import (
	"context"
	"fmt"

	"github.com/akolanti/smartsort/internal/classifier/model"
	"github.com/akolanti/smartsort/internal/classifier/rules"
	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/data/sqlStore"
	"github.com/akolanti/smartsort/internal/data/store"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/internal/embedding"
	"github.com/akolanti/smartsort/internal/ingest"
	"github.com/akolanti/smartsort/internal/job"
	"github.com/akolanti/smartsort/internal/pipeline/extraction"
	"github.com/akolanti/smartsort/internal/pipeline/stages"
	"github.com/akolanti/smartsort/internal/storage"
	"github.com/akolanti/smartsort/internal/vectorDB"
	"github.com/akolanti/smartsort/internal/vectorDB/qdrantDB"
	"github.com/akolanti/smartsort/pkg/logger_i"
)

// App holds the components shared by the HTTP server, the worker, the MCP server and the CLI.
// Redis and qdrant clients close themselves when the context passed to New is cancelled.
type App struct {
	Config  config.Config
	Sandbox *storage.Sandbox
	DB      *sqlStore.Store
	Queue   jobModel.JobQueue
	Ingest  *ingest.Service
	Review  *ingest.ReviewService
	Service *job.Service

	logger *logger_i.Logger
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logger_i.NewLogger("App")

	sb, err := storage.New(cfg.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	for _, dir := range []string{config.InboxDir, config.IngestedDir, config.SortedDir, config.ErrorsDir} {
		if _, err := sb.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("storage layout: %w", err)
		}
	}

	db, err := sqlStore.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	queue, err := store.NewJobQueue(ctx, cfg.Redis)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("job queue: %w", err)
	}

	ingester := ingest.NewService(sb, db, queue)
	reviewer := ingest.NewReviewService(sb, db)
	service := job.InitJobService(job.ServiceConfig{
		Queue:     queue,
		Documents: db,
		Rules:     db,
		Ingester:  ingester,
		Reviewer:  reviewer,
	})

	logger.Info("Components ready", "root", sb.Root(), "database", cfg.Database.Path)
	return &App{
		Config:  cfg,
		Sandbox: sb,
		DB:      db,
		Queue:   queue,
		Ingest:  ingester,
		Review:  reviewer,
		Service: service,
		logger:  logger,
	}, nil
}

// Handlers builds the stage handlers with the configured model, embedding and vector backends.
// Backends that fail to construct are logged and left out; the stages degrade around them.
func (a *App) Handlers(ctx context.Context) map[jobModel.JobType]jobModel.Handler {
	deps := stages.Dependencies{
		Documents:    a.DB,
		Extractor:    extraction.NewExtractor(a.Sandbox),
		Rules:        rules.NewEngine(a.DB),
		EmbedTimeout: a.Config.Embedding.Timeout,
	}

	provider, err := model.NewProvider(ctx, a.Config.Model)
	if err != nil {
		a.logger.Warn("Model provider disabled", "provider", a.Config.Model.Provider, "error", err)
		provider = nil
	}
	deps.Model = model.NewClassifier(provider, a.Config.Model.Timeout, a.Config.Model.CacheTTL)

	embedder, err := embedding.NewEmbedder(ctx, a.Config.Embedding)
	if err != nil {
		a.logger.Warn("Embedding provider disabled", "provider", a.Config.Embedding.Provider, "error", err)
		embedder = nil
	}
	deps.Embedder = embedder

	deps.Index = a.vectorIndex(ctx)
	return stages.Registry(deps)
}

func (a *App) vectorIndex(ctx context.Context) vectorDB.Index {
	holder, err := qdrantDB.NewClient(ctx, a.Config.Qdrant)
	if err != nil {
		a.logger.Warn("Vector index disabled", "error", err)
		return nil
	}
	if holder == nil {
		return nil
	}
	return holder
}

func (a *App) Close() error {
	return a.DB.Close()
}
