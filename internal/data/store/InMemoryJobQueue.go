package store

import (
	"container/heap"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/internal/metrics"
	"github.com/akolanti/smartsort/pkg/logger_i"
	"github.com/google/uuid"
)

var inMemLogger = logger_i.NewLogger("InMem JobQueue")

type queueEntry struct {
	priority int
	seq      uint64
	jobId    string
}

type entryHeap []queueEntry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(queueEntry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// InMemoryJobQueue is the process-local fallback used when redis is unavailable.
// It has the same ordering and claim semantics but nothing survives a restart.
type InMemoryJobQueue struct {
	jobMutex *sync.Mutex
	pending  entryHeap
	jobMap   map[string]jobModel.Job
	seq      uint64
	// wake is closed and replaced on every push to release blocked poppers
	wake chan struct{}
}

func InitInMemoryJobQueue() *InMemoryJobQueue {
	return &InMemoryJobQueue{
		jobMutex: new(sync.Mutex),
		jobMap:   make(map[string]jobModel.Job),
		wake:     make(chan struct{}),
	}
}

func (q *InMemoryJobQueue) Enqueue(ctx context.Context, req jobModel.EnqueueRequest) (string, error) {
	if req.JobType == "" {
		return "", errors.New("enqueue: job type is required")
	}
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return "", fmt.Errorf("enqueue: marshal payload: %w", err)
	}

	job := jobModel.Job{
		Id:          uuid.New().String(),
		JobType:     req.JobType,
		Payload:     payload,
		Priority:    req.Priority,
		DependsOn:   req.DependsOn,
		DocumentId:  req.DocumentId,
		TraceId:     req.TraceId,
		Status:      jobModel.JobStatusPending,
		CreatedTime: time.Now().UTC(),
	}

	q.jobMutex.Lock()
	q.seq++
	q.jobMap[job.Id] = job
	heap.Push(&q.pending, queueEntry{priority: req.Priority, seq: q.seq, jobId: job.Id})
	close(q.wake)
	q.wake = make(chan struct{})
	q.jobMutex.Unlock()

	metrics.IncrementJobsEnqueued(string(req.JobType))
	inMemLogger.Debug("job enqueued", "jobId", job.Id, "jobType", job.JobType)
	return job.Id, nil
}

func (q *InMemoryJobQueue) Dequeue(ctx context.Context, timeout time.Duration) (*jobModel.Job, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		job, wake := q.tryClaim()
		if job != nil {
			metrics.IncrementJobsDequeued(string(job.JobType))
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case <-wake:
		}
	}
}

func (q *InMemoryJobQueue) tryClaim() (*jobModel.Job, <-chan struct{}) {
	q.jobMutex.Lock()
	defer q.jobMutex.Unlock()

	for q.pending.Len() > 0 {
		entry := heap.Pop(&q.pending).(queueEntry)
		job, found := q.jobMap[entry.jobId]
		if !found || job.Status != jobModel.JobStatusPending {
			inMemLogger.Warn("dropping popped job that is no longer pending", "jobId", entry.jobId)
			continue
		}
		job.Status = jobModel.JobStatusRunning
		job.StartedTime = time.Now().UTC()
		q.jobMap[job.Id] = job
		return &job, nil
	}
	return nil, q.wake
}

func (q *InMemoryJobQueue) Complete(ctx context.Context, jobId string, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("complete %s: marshal result: %w", jobId, err)
	}
	return q.finish(jobId, func(job *jobModel.Job) {
		job.Status = jobModel.JobStatusCompleted
		job.Result = raw
		job.Error = ""
	})
}

func (q *InMemoryJobQueue) Fail(ctx context.Context, jobId string, errText string) error {
	return q.finish(jobId, func(job *jobModel.Job) {
		job.Status = jobModel.JobStatusFailed
		job.Error = errText
	})
}

func (q *InMemoryJobQueue) finish(jobId string, apply func(*jobModel.Job)) error {
	q.jobMutex.Lock()
	defer q.jobMutex.Unlock()
	job, found := q.jobMap[jobId]
	if !found {
		return fmt.Errorf("%w: %s", jobModel.ErrJobNotFound, jobId)
	}
	apply(&job)
	job.EndTime = time.Now().UTC()
	q.jobMap[jobId] = job
	return nil
}

func (q *InMemoryJobQueue) StatusOf(ctx context.Context, jobId string) (jobModel.Job, bool, error) {
	q.jobMutex.Lock()
	defer q.jobMutex.Unlock()
	job, found := q.jobMap[jobId]
	return job, found, nil
}

func (q *InMemoryJobQueue) Length(ctx context.Context) (int64, error) {
	q.jobMutex.Lock()
	defer q.jobMutex.Unlock()
	n := int64(q.pending.Len())
	metrics.SetQueueLength(n)
	return n, nil
}

func (q *InMemoryJobQueue) Purge(ctx context.Context, jobId string) error {
	q.jobMutex.Lock()
	defer q.jobMutex.Unlock()
	delete(q.jobMap, jobId)
	return nil
}

func (q *InMemoryJobQueue) Ping(ctx context.Context) error {
	return nil
}
