package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/internal/metrics"
	"github.com/akolanti/smartsort/internal/storage"
	"github.com/akolanti/smartsort/pkg/logger_i"
	"github.com/google/uuid"
)

var (
	ErrOutsideInbox    = errors.New("documents can only be ingested from " + config.InboxDir)
	ErrInvalidFilename = errors.New("invalid filename")
)

type Result struct {
	DocumentId  int64              `json:"document_id"`
	Status      docModel.DocStatus `json:"status"`
	Message     string             `json:"message"`
	IsDuplicate bool               `json:"is_duplicate"`
	DuplicateOf int64              `json:"duplicate_of,omitempty"`
	SHA256      string             `json:"sha256"`
	JobIds      []string           `json:"job_ids,omitempty"`
}

// Service registers inbox files as documents and queues their pipeline.
type Service struct {
	sandbox *storage.Sandbox
	docs    docModel.DocumentStore
	queue   jobModel.JobQueue
	logger  *logger_i.Logger
}

func NewService(sandbox *storage.Sandbox, docs docModel.DocumentStore, queue jobModel.JobQueue) *Service {
	return &Service{
		sandbox: sandbox,
		docs:    docs,
		queue:   queue,
		logger:  logger_i.NewLogger("Ingest"),
	}
}

// stages is the pipeline in dependency order.
var stages = []struct {
	jobType  jobModel.JobType
	priority int
}{
	{jobModel.JobTypeExtractText, config.PriorityExtract},
	{jobModel.JobTypeChunkText, config.PriorityChunk},
	{jobModel.JobTypeEmbedChunks, config.PriorityEmbed},
	{jobModel.JobTypeClassifyDocument, config.PriorityClassify},
}

// Ingest hashes the inbox file, keeps an immutable copy under its content hash
// and enqueues the four pipeline stages. Known content is reported as a duplicate.
func (s *Service) Ingest(ctx context.Context, inboxPath string) (Result, error) {
	rel, err := inboxRelative(inboxPath)
	if err != nil {
		metrics.IncrementDocumentsIngested("rejected")
		return Result{}, err
	}

	sha, err := s.sandbox.Hash(rel)
	if err != nil {
		metrics.IncrementDocumentsIngested("failed")
		return Result{}, err
	}

	existing, err := s.docs.GetDocumentBySHA(ctx, sha)
	switch {
	case err == nil:
		metrics.IncrementDocumentsIngested("duplicate")
		return duplicate(existing.Id, sha), nil
	case !errors.Is(err, docModel.ErrDocumentNotFound):
		return Result{}, err
	}

	info, err := s.sandbox.Stat(rel)
	if err != nil {
		return Result{}, err
	}
	mimeType := info.MimeType
	if mimeType == "" {
		if detected, err := s.sandbox.DetectMime(rel); err == nil {
			mimeType = detected
		}
	}

	ingested := path.Join(config.IngestedDir, sha+"_"+info.Name)
	if _, err := s.sandbox.Copy(rel, ingested, false); err != nil {
		// same name and same hash means the bytes are already in place
		if !errors.Is(err, storage.ErrExists) {
			metrics.IncrementDocumentsIngested("failed")
			return Result{}, fmt.Errorf("copying to %s: %w", config.IngestedDir, err)
		}
		s.logger.Warn("Ingested copy already present", "path", ingested)
	}

	size := info.Size
	id, err := s.docs.CreateDocument(ctx, docModel.Document{
		SHA256:           sha,
		OriginalFilename: info.Name,
		InboxPath:        rel,
		IngestedPath:     ingested,
		MimeType:         mimeType,
		Size:             &size,
		Status:           docModel.StatusIngested,
	})
	if err != nil {
		if errors.Is(err, docModel.ErrDuplicateHash) {
			// lost a race with a concurrent ingest of the same content
			if winner, gerr := s.docs.GetDocumentBySHA(ctx, sha); gerr == nil {
				metrics.IncrementDocumentsIngested("duplicate")
				return duplicate(winner.Id, sha), nil
			}
		}
		metrics.IncrementDocumentsIngested("failed")
		return Result{}, err
	}

	jobIds, err := s.enqueuePipeline(ctx, id)
	if err != nil {
		metrics.IncrementDocumentsIngested("failed")
		return Result{}, fmt.Errorf("document %d stored but pipeline not queued: %w", id, err)
	}

	metrics.IncrementDocumentsIngested("ingested")
	s.logger.Info("Document ingested", "documentId", id, "sha256", sha, "file", info.Name)
	return Result{
		DocumentId: id,
		Status:     docModel.StatusIngested,
		Message:    fmt.Sprintf("Document ingested successfully. ID: %d", id),
		SHA256:     sha,
		JobIds:     jobIds,
	}, nil
}

// Upload stores content in the inbox under its base name and ingests it.
// A name already taken in the inbox gets a timestamp prefix.
func (s *Service) Upload(ctx context.Context, filename string, content io.Reader) (Result, error) {
	name := path.Base(filepath.ToSlash(strings.TrimSpace(filename)))
	if name == "" || name == "." || name == ".." || name == "/" {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}

	rel := path.Join(config.InboxDir, name)
	_, err := s.sandbox.Write(rel, content, false)
	if errors.Is(err, storage.ErrExists) {
		rel = path.Join(config.InboxDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), name))
		_, err = s.sandbox.Write(rel, content, false)
	}
	if err != nil {
		return Result{}, err
	}
	return s.Ingest(ctx, rel)
}

// EnqueuePipeline queues every stage again for an already stored document.
func (s *Service) EnqueuePipeline(ctx context.Context, documentId int64) ([]string, error) {
	if _, err := s.docs.GetDocument(ctx, documentId); err != nil {
		return nil, err
	}
	return s.enqueuePipeline(ctx, documentId)
}

func (s *Service) enqueuePipeline(ctx context.Context, documentId int64) ([]string, error) {
	traceId := uuid.NewString()
	payload := jobModel.DocumentPayload{DocumentId: documentId}
	ids := make([]string, 0, len(stages))
	dependsOn := ""
	for _, stage := range stages {
		id, err := s.queue.Enqueue(ctx, jobModel.EnqueueRequest{
			JobType:    stage.jobType,
			Payload:    payload,
			Priority:   stage.priority,
			DependsOn:  dependsOn,
			DocumentId: documentId,
			TraceId:    traceId,
		})
		if err != nil {
			return ids, fmt.Errorf("enqueue %s: %w", stage.jobType, err)
		}
		ids = append(ids, id)
		dependsOn = id
	}
	return ids, nil
}

func duplicate(id int64, sha string) Result {
	return Result{
		DocumentId:  id,
		Status:      docModel.StatusDuplicate,
		Message:     fmt.Sprintf("Document already exists with ID #%d", id),
		IsDuplicate: true,
		DuplicateOf: id,
		SHA256:      sha,
	}
}

// inboxRelative normalizes the path and requires it to sit below the inbox folder.
func inboxRelative(p string) (string, error) {
	clean := path.Clean(filepath.ToSlash(strings.TrimSpace(p)))
	if !strings.HasPrefix(clean, config.InboxDir+"/") {
		return "", fmt.Errorf("%w: %s", ErrOutsideInbox, p)
	}
	return clean, nil
}
