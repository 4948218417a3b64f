package mcpServer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/akolanti/smartsort/internal/data/sqlStore"
	"github.com/akolanti/smartsort/internal/data/store"
	"github.com/akolanti/smartsort/internal/domain/docModel"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/internal/ingest"
	"github.com/akolanti/smartsort/internal/job"
	"github.com/akolanti/smartsort/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.Sandbox) {
	t.Helper()
	sb, err := storage.New(filepath.Join(t.TempDir(), "root"))
	if err != nil {
		t.Fatal(err)
	}
	docs, err := sqlStore.Open(filepath.Join(t.TempDir(), "smartsort.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = docs.Close() })
	q := store.InitInMemoryJobQueue()
	svc := job.InitJobService(job.ServiceConfig{
		Queue:     q,
		Documents: docs,
		Rules:     docs,
		Ingester:  ingest.NewService(sb, docs, q),
	})
	s, err := NewServer(svc)
	if err != nil {
		t.Fatal(err)
	}
	return s, sb
}

func TestNewServerRequiresService(t *testing.T) {
	if _, err := NewServer(nil); !errors.Is(err, ErrMissingService) {
		t.Errorf("NewServer(nil) = %v", err)
	}
}

func TestToolsRoundTrip(t *testing.T) {
	s, sb := newTestServer(t)
	ctx := context.Background()

	abs := filepath.Join(sb.Root(), "00_inbox", "note.txt")
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte("a short note"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, ingested, err := s.handleIngest(ctx, nil, IngestInput{InboxPath: "00_inbox/note.txt"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if ingested.DocumentId == 0 || len(ingested.JobIds) != 4 || ingested.Status != string(docModel.StatusIngested) {
		t.Fatalf("ingest output = %+v", ingested)
	}

	_, length, err := s.handleQueueLength(ctx, nil, QueueLengthInput{})
	if err != nil || length.Length != 4 {
		t.Errorf("queue length = %d (%v)", length.Length, err)
	}

	_, status, err := s.handleJobStatus(ctx, nil, JobStatusInput{JobId: ingested.JobIds[0]})
	if err != nil {
		t.Fatal(err)
	}
	if !status.Found || status.JobType != "extract_text" || status.Status != "PENDING" || status.CreatedAt == "" {
		t.Errorf("job status = %+v", status)
	}

	_, doc, err := s.handleGetDocument(ctx, nil, GetDocumentInput{DocumentId: ingested.DocumentId})
	if err != nil {
		t.Fatal(err)
	}
	if doc.OriginalFilename != "note.txt" || doc.MimeType != "text/plain" || doc.ChunksCount != 0 {
		t.Errorf("document = %+v", doc)
	}
}

func TestToolErrors(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	_, status, err := s.handleJobStatus(ctx, nil, JobStatusInput{JobId: "missing"})
	if err != nil || status.Found {
		t.Errorf("missing job = %+v (%v)", status, err)
	}
	if _, _, err := s.handleJobStatus(ctx, nil, JobStatusInput{}); err == nil {
		t.Error("empty job id should fail")
	}
	if _, _, err := s.handleGetDocument(ctx, nil, GetDocumentInput{DocumentId: 99}); !errors.Is(err, docModel.ErrDocumentNotFound) {
		t.Errorf("missing document = %v", err)
	}
	if _, _, err := s.handleIngest(ctx, nil, IngestInput{InboxPath: "../etc/passwd"}); !errors.Is(err, ingest.ErrOutsideInbox) {
		t.Errorf("outside inbox = %v", err)
	}
}

func TestToJobOutputDecodesResult(t *testing.T) {
	out := toJobOutput(jobModelFixture())
	if out.Result["chunks_count"] != float64(3) || out.EndedAt != "" {
		t.Errorf("output = %+v", out)
	}
}

func jobModelFixture() jobModel.Job {
	return jobModel.Job{
		Id:      "j1",
		JobType: jobModel.JobTypeChunkText,
		Status:  jobModel.JobStatusCompleted,
		Result:  []byte(`{"chunks_count":3,"total_chars":120}`),
	}
}
