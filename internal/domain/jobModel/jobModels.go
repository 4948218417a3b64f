package jobModel

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

type JobStatus string

type JobType string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"

	JobTypeExtractText      JobType = "extract_text"
	JobTypeChunkText        JobType = "chunk_text"
	JobTypeEmbedChunks      JobType = "embed_chunks"
	JobTypeClassifyDocument JobType = "classify_document"
)

var ErrJobNotFound = errors.New("job not found")

// JobTypes lists the closed set of pipeline stages in execution order.
var JobTypes = []JobType{JobTypeExtractText, JobTypeChunkText, JobTypeEmbedChunks, JobTypeClassifyDocument}

func (t JobType) Valid() bool {
	for _, known := range JobTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

type Job struct {
	Id         string          `json:"id"`
	JobType    JobType         `json:"job_type"`
	Payload    json.RawMessage `json:"payload"`
	Priority   int             `json:"priority"`
	DependsOn  string          `json:"depends_on,omitempty"`
	DocumentId int64           `json:"document_id,omitempty"`
	Status     JobStatus       `json:"status"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	TraceId    string          `json:"trace_id,omitempty"`

	CreatedTime time.Time `json:"created_time"`
	StartedTime time.Time `json:"started_time,omitempty"`
	EndTime     time.Time `json:"end_time,omitempty"`
}

type EnqueueRequest struct {
	JobType    JobType
	Payload    any
	Priority   int
	DependsOn  string
	DocumentId int64
	TraceId    string
}

// DocumentPayload is the payload shared by every pipeline stage.
type DocumentPayload struct {
	DocumentId int64 `json:"document_id"`
}

// JobQueue is a priority ordered, at-least-once channel of pipeline work.
// Lower priority values are dequeued first, ties are FIFO.
type JobQueue interface {
	Enqueue(ctx context.Context, req EnqueueRequest) (string, error)
	// Dequeue blocks up to timeout. A nil job with a nil error means nothing arrived.
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)
	Complete(ctx context.Context, jobId string, result any) error
	Fail(ctx context.Context, jobId string, errText string) error
	StatusOf(ctx context.Context, jobId string) (Job, bool, error)
	Length(ctx context.Context) (int64, error)
	Purge(ctx context.Context, jobId string) error
	Ping(ctx context.Context) error
}

// Requeue enqueues a fresh copy of a finished job. The original record is left untouched.
func Requeue(ctx context.Context, queue JobQueue, jobId string) (string, error) {
	job, found, err := queue.StatusOf(ctx, jobId)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrJobNotFound
	}
	return queue.Enqueue(ctx, EnqueueRequest{
		JobType:    job.JobType,
		Payload:    job.Payload,
		Priority:   job.Priority,
		DocumentId: job.DocumentId,
		TraceId:    job.TraceId,
	})
}
