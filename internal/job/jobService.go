package job

import (
	"context"
	"errors"
	"io"

	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/internal/ingest"
	"github.com/akolanti/smartsort/internal/metrics"
	"github.com/akolanti/smartsort/pkg/logger_i"
)

// Service is the read and command surface shared by the HTTP API, the MCP server and the CLI.
// Stage handlers are never reached through it; only workers execute them.
type Service struct {
	Queue     jobModel.JobQueue
	Documents docModel.DocumentStore
	Rules     docModel.RuleStore
	Ingester  *ingest.Service
	Reviewer  *ingest.ReviewService
	logger    *logger_i.Logger
}

type ServiceConfig struct {
	Queue     jobModel.JobQueue
	Documents docModel.DocumentStore
	Rules     docModel.RuleStore
	Ingester  *ingest.Service
	Reviewer  *ingest.ReviewService
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		Queue:     cfg.Queue,
		Documents: cfg.Documents,
		Rules:     cfg.Rules,
		Ingester:  cfg.Ingester,
		Reviewer:  cfg.Reviewer,
		logger:    logger_i.NewLogger("JobService"),
	}
}

type Health struct {
	Status   string `json:"status"`
	Queue    string `json:"queue"`
	Database string `json:"database"`
}

func (s *Service) JobStatus(ctx context.Context, id string) (jobModel.Job, bool, error) {
	if id == "" {
		return jobModel.Job{}, false, nil
	}
	return s.Queue.StatusOf(ctx, id)
}

func (s *Service) QueueLength(ctx context.Context) (int64, error) {
	n, err := s.Queue.Length(ctx)
	if err != nil {
		return 0, err
	}
	metrics.SetQueueLength(n)
	return n, nil
}

func (s *Service) Requeue(ctx context.Context, id string) (string, error) {
	newId, err := jobModel.Requeue(ctx, s.Queue, id)
	if err != nil {
		return "", err
	}
	s.logger.Info("Job requeued", "jobId", id, "newJobId", newId)
	return newId, nil
}

func (s *Service) Purge(ctx context.Context, id string) error {
	return s.Queue.Purge(ctx, id)
}

// Health pings the queue backend and the database.
func (s *Service) Health(ctx context.Context) Health {
	h := Health{Status: "ok", Queue: "ok", Database: "ok"}
	if err := s.Queue.Ping(ctx); err != nil {
		s.logger.Warn("Queue backend unhealthy", "error", err)
		h.Queue = err.Error()
		h.Status = "degraded"
	}
	if err := s.Documents.Ping(ctx); err != nil {
		s.logger.Warn("Database unhealthy", "error", err)
		h.Database = err.Error()
		h.Status = "degraded"
	}
	return h
}

func (s *Service) IngestDocument(ctx context.Context, inboxPath string) (ingest.Result, error) {
	if s.Ingester == nil {
		return ingest.Result{}, errors.New("ingest is not configured")
	}
	return s.Ingester.Ingest(ctx, inboxPath)
}

// Document returns the document together with its chunk count.
func (s *Service) Document(ctx context.Context, id int64) (docModel.Document, int, error) {
	doc, err := s.Documents.GetDocument(ctx, id)
	if err != nil {
		return doc, 0, err
	}
	chunks, err := s.Documents.ListChunks(ctx, id)
	if err != nil {
		return doc, 0, err
	}
	return doc, len(chunks), nil
}

func (s *Service) ListDocuments(ctx context.Context, status docModel.DocStatus, limit, offset int) ([]docModel.Document, error) {
	return s.Documents.ListDocuments(ctx, status, limit, offset)
}

func (s *Service) UploadDocument(ctx context.Context, filename string, content io.Reader) (ingest.Result, error) {
	if s.Ingester == nil {
		return ingest.Result{}, errors.New("ingest is not configured")
	}
	return s.Ingester.Upload(ctx, filename, content)
}

var errReviewNotConfigured = errors.New("review is not configured")

func (s *Service) Approve(ctx context.Context, id int64, final ingest.Overrides) (docModel.Document, error) {
	if s.Reviewer == nil {
		return docModel.Document{}, errReviewNotConfigured
	}
	return s.Reviewer.Approve(ctx, id, final)
}

func (s *Service) Reject(ctx context.Context, id int64) (docModel.Document, error) {
	if s.Reviewer == nil {
		return docModel.Document{}, errReviewNotConfigured
	}
	return s.Reviewer.Reject(ctx, id)
}

func (s *Service) UpdateDocument(ctx context.Context, id int64, overrides ingest.Overrides) (docModel.Document, error) {
	if s.Reviewer == nil {
		return docModel.Document{}, errReviewNotConfigured
	}
	return s.Reviewer.Update(ctx, id, overrides)
}
