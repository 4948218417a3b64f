package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/data/store"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
)

func newTestPool(handlers map[jobModel.JobType]jobModel.Handler) (*Pool, *store.InMemoryJobQueue) {
	q := store.InitInMemoryJobQueue()
	p := NewPool(q, handlers, config.WorkerConfig{Count: 2, DequeueTimeout: 50 * time.Millisecond})
	p.retryDelay = 10 * time.Millisecond
	return p, q
}

func enqueue(t *testing.T, q jobModel.JobQueue, jobType jobModel.JobType) string {
	t.Helper()
	id, err := q.Enqueue(context.Background(), jobModel.EnqueueRequest{
		JobType:  jobType,
		Payload:  jobModel.DocumentPayload{DocumentId: 1},
		Priority: 50,
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func statusOf(t *testing.T, q jobModel.JobQueue, id string) jobModel.Job {
	t.Helper()
	job, found, err := q.StatusOf(context.Background(), id)
	if err != nil || !found {
		t.Fatalf("job %s: found=%v err=%v", id, found, err)
	}
	return job
}

func TestProcessNextOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		handler    jobModel.HandlerFunc
		wantStatus jobModel.JobStatus
		wantResult string
		wantError  string
	}{
		{
			name: "succeeded",
			handler: func(ctx context.Context, payload json.RawMessage) jobModel.Outcome {
				return jobModel.Succeeded(map[string]any{"chunks_count": 3})
			},
			wantStatus: jobModel.JobStatusCompleted,
			wantResult: `"chunks_count":3`,
		},
		{
			name: "skipped completes",
			handler: func(ctx context.Context, payload json.RawMessage) jobModel.Outcome {
				return jobModel.Skipped("vector index not available")
			},
			wantStatus: jobModel.JobStatusCompleted,
			wantResult: `"skipped":true`,
		},
		{
			name: "failed",
			handler: func(ctx context.Context, payload json.RawMessage) jobModel.Outcome {
				return jobModel.Failed(errors.New("document has no extracted text"))
			},
			wantStatus: jobModel.JobStatusFailed,
			wantError:  "document has no extracted text",
		},
		{
			name: "panic is contained",
			handler: func(ctx context.Context, payload json.RawMessage) jobModel.Outcome {
				panic("boom")
			},
			wantStatus: jobModel.JobStatusFailed,
			wantError:  "handler panic: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, q := newTestPool(map[jobModel.JobType]jobModel.Handler{jobModel.JobTypeChunkText: tt.handler})
			id := enqueue(t, q, jobModel.JobTypeChunkText)

			processed, err := p.ProcessNext(context.Background(), 1)
			if err != nil || !processed {
				t.Fatalf("processed=%v err=%v", processed, err)
			}
			job := statusOf(t, q, id)
			if job.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", job.Status, tt.wantStatus)
			}
			if tt.wantResult != "" && !strings.Contains(string(job.Result), tt.wantResult) {
				t.Errorf("result = %s", job.Result)
			}
			if job.Error != tt.wantError {
				t.Errorf("error = %q, want %q", job.Error, tt.wantError)
			}
		})
	}
}

func TestUnknownJobTypeFailsJobOnly(t *testing.T) {
	p, q := newTestPool(map[jobModel.JobType]jobModel.Handler{})
	id := enqueue(t, q, jobModel.JobTypeEmbedChunks)

	if _, err := p.ProcessNext(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	job := statusOf(t, q, id)
	if job.Status != jobModel.JobStatusFailed || job.Error != "Unknown job type: embed_chunks" {
		t.Errorf("job = %s %q", job.Status, job.Error)
	}
}

func TestProcessNextIdle(t *testing.T) {
	p, _ := newTestPool(nil)
	processed, err := p.ProcessNext(context.Background(), 1)
	if err != nil || processed {
		t.Errorf("empty queue: processed=%v err=%v", processed, err)
	}
}

func TestHandlerReceivesPayloadAndTraceId(t *testing.T) {
	var gotId int64
	var gotTrace any
	p, q := newTestPool(map[jobModel.JobType]jobModel.Handler{
		jobModel.JobTypeExtractText: jobModel.HandlerFunc(func(ctx context.Context, payload json.RawMessage) jobModel.Outcome {
			var dp jobModel.DocumentPayload
			_ = json.Unmarshal(payload, &dp)
			gotId = dp.DocumentId
			gotTrace = ctx.Value(config.TRACE_ID_KEY)
			return jobModel.Succeeded(nil)
		}),
	})
	_, err := q.Enqueue(context.Background(), jobModel.EnqueueRequest{
		JobType: jobModel.JobTypeExtractText,
		Payload: jobModel.DocumentPayload{DocumentId: 42},
		TraceId: "trace-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.ProcessNext(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if gotId != 42 || gotTrace != "trace-1" {
		t.Errorf("payload id=%d trace=%v", gotId, gotTrace)
	}
}

func TestRunDrainsQueueAndStops(t *testing.T) {
	var handled atomic.Int32
	handler := jobModel.HandlerFunc(func(ctx context.Context, payload json.RawMessage) jobModel.Outcome {
		handled.Add(1)
		return jobModel.Succeeded(nil)
	})
	p, q := newTestPool(map[jobModel.JobType]jobModel.Handler{jobModel.JobTypeExtractText: handler})

	ids := make([]string, 5)
	for i := range ids {
		ids[i] = enqueue(t, q, jobModel.JobTypeExtractText)
	}

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for handled.Load() < 5 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	p.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not stop within timeout")
	}

	if handled.Load() != 5 {
		t.Errorf("handled %d jobs, want 5", handled.Load())
	}
	for _, id := range ids {
		if job := statusOf(t, q, id); job.Status != jobModel.JobStatusCompleted {
			t.Errorf("job %s = %s", id, job.Status)
		}
	}
}

func TestStopLetsInFlightJobFinish(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	handler := jobModel.HandlerFunc(func(ctx context.Context, payload json.RawMessage) jobModel.Outcome {
		close(started)
		<-release
		if ctx.Err() != nil {
			return jobModel.Failed(ctx.Err())
		}
		return jobModel.Succeeded(map[string]any{"ok": true})
	})
	p, q := newTestPool(map[jobModel.JobType]jobModel.Handler{jobModel.JobTypeClassifyDocument: handler})
	id := enqueue(t, q, jobModel.JobTypeClassifyDocument)

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never started")
	}
	p.Stop()
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop")
	}
	if job := statusOf(t, q, id); job.Status != jobModel.JobStatusCompleted {
		t.Errorf("in-flight job = %s %q", job.Status, job.Error)
	}
}
