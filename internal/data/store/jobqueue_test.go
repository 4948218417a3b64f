package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/data/redisStore"
	"github.com/akolanti/smartsort/internal/data/store"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisQueue(t *testing.T) (*store.RedisJobQueue, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return store.NewRedisJobQueue(redisStore.NewTestStore(client), "test", 10*time.Millisecond), mr
}

// queueFactories runs every contract test against both implementations.
func queueFactories(t *testing.T) map[string]func() jobModel.JobQueue {
	return map[string]func() jobModel.JobQueue{
		"redis": func() jobModel.JobQueue {
			q, _ := newRedisQueue(t)
			return q
		},
		"inmemory": func() jobModel.JobQueue {
			return store.InitInMemoryJobQueue()
		},
	}
}

func enqueue(t *testing.T, q jobModel.JobQueue, jobType jobModel.JobType, priority int) string {
	t.Helper()
	id, err := q.Enqueue(context.Background(), jobModel.EnqueueRequest{
		JobType:  jobType,
		Payload:  jobModel.DocumentPayload{DocumentId: 7},
		Priority: priority,
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	return id
}

func TestJobQueue_Lifecycle(t *testing.T) {
	for name, newQueue := range queueFactories(t) {
		t.Run(name, func(t *testing.T) {
			q := newQueue()
			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")

			jobId := enqueue(t, q, jobModel.JobTypeExtractText, 50)

			job, found, err := q.StatusOf(ctx, jobId)
			if err != nil || !found {
				t.Fatalf("StatusOf after enqueue: found=%v err=%v", found, err)
			}
			if job.Status != jobModel.JobStatusPending {
				t.Errorf("status after enqueue = %s, want PENDING", job.Status)
			}

			dequeued, err := q.Dequeue(ctx, time.Second)
			if err != nil || dequeued == nil {
				t.Fatalf("Dequeue: job=%v err=%v", dequeued, err)
			}
			if dequeued.Id != jobId || dequeued.Status != jobModel.JobStatusRunning {
				t.Errorf("dequeued %s with status %s", dequeued.Id, dequeued.Status)
			}
			var payload jobModel.DocumentPayload
			if err := json.Unmarshal(dequeued.Payload, &payload); err != nil || payload.DocumentId != 7 {
				t.Errorf("payload did not survive the queue: %s (%v)", dequeued.Payload, err)
			}

			job, _, _ = q.StatusOf(ctx, jobId)
			if job.Status != jobModel.JobStatusRunning {
				t.Errorf("status after dequeue = %s, want RUNNING", job.Status)
			}

			if err := q.Complete(ctx, jobId, map[string]any{"chunks": 3}); err != nil {
				t.Fatalf("Complete failed: %v", err)
			}
			job, _, _ = q.StatusOf(ctx, jobId)
			if job.Status != jobModel.JobStatusCompleted {
				t.Errorf("status after complete = %s", job.Status)
			}
			var result map[string]int
			if err := json.Unmarshal(job.Result, &result); err != nil || result["chunks"] != 3 {
				t.Errorf("result = %s (%v)", job.Result, err)
			}
			if job.EndTime.IsZero() {
				t.Error("end time should be set")
			}
		})
	}
}

func TestJobQueue_Fail(t *testing.T) {
	for name, newQueue := range queueFactories(t) {
		t.Run(name, func(t *testing.T) {
			q := newQueue()
			ctx := context.Background()
			jobId := enqueue(t, q, jobModel.JobTypeChunkText, 100)

			if _, err := q.Dequeue(ctx, time.Second); err != nil {
				t.Fatal(err)
			}
			if err := q.Fail(ctx, jobId, "no extracted text"); err != nil {
				t.Fatalf("Fail: %v", err)
			}

			job, found, _ := q.StatusOf(ctx, jobId)
			if !found || job.Status != jobModel.JobStatusFailed || job.Error != "no extracted text" {
				t.Errorf("unexpected failed record: %+v", job)
			}
			// failure is terminal, the queue does not hand the job out again
			again, err := q.Dequeue(ctx, 50*time.Millisecond)
			if err != nil || again != nil {
				t.Errorf("failed job came back: %v %v", again, err)
			}
		})
	}
}

func TestJobQueue_PriorityThenFIFO(t *testing.T) {
	for name, newQueue := range queueFactories(t) {
		t.Run(name, func(t *testing.T) {
			q := newQueue()
			ctx := context.Background()

			classify := enqueue(t, q, jobModel.JobTypeClassifyDocument, 200)
			firstChunk := enqueue(t, q, jobModel.JobTypeChunkText, 100)
			extract := enqueue(t, q, jobModel.JobTypeExtractText, 50)
			secondChunk := enqueue(t, q, jobModel.JobTypeChunkText, 100)

			want := []string{extract, firstChunk, secondChunk, classify}
			for i, id := range want {
				job, err := q.Dequeue(ctx, time.Second)
				if err != nil || job == nil {
					t.Fatalf("dequeue %d: %v %v", i, job, err)
				}
				if job.Id != id {
					t.Errorf("dequeue %d = %s (%s), want %s", i, job.Id, job.JobType, id)
				}
			}
		})
	}
}

func TestJobQueue_DequeueTimeout(t *testing.T) {
	for name, newQueue := range queueFactories(t) {
		t.Run(name, func(t *testing.T) {
			q := newQueue()
			start := time.Now()
			job, err := q.Dequeue(context.Background(), 100*time.Millisecond)
			if err != nil || job != nil {
				t.Fatalf("empty queue should return nothing, got %v %v", job, err)
			}
			if time.Since(start) < 90*time.Millisecond {
				t.Errorf("dequeue returned before the timeout")
			}
		})
	}
}

func TestJobQueue_DequeueCancelled(t *testing.T) {
	for name, newQueue := range queueFactories(t) {
		t.Run(name, func(t *testing.T) {
			q := newQueue()
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := q.Dequeue(ctx, time.Second)
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		})
	}
}

func TestJobQueue_PurgedJobIsDropped(t *testing.T) {
	for name, newQueue := range queueFactories(t) {
		t.Run(name, func(t *testing.T) {
			q := newQueue()
			ctx := context.Background()
			purged := enqueue(t, q, jobModel.JobTypeExtractText, 50)
			kept := enqueue(t, q, jobModel.JobTypeExtractText, 60)

			if err := q.Purge(ctx, purged); err != nil {
				t.Fatal(err)
			}
			if _, found, _ := q.StatusOf(ctx, purged); found {
				t.Error("purged job should not be found")
			}

			job, err := q.Dequeue(ctx, time.Second)
			if err != nil || job == nil || job.Id != kept {
				t.Fatalf("expected %s, got %v %v", kept, job, err)
			}
		})
	}
}

func TestJobQueue_CompleteUnknownJob(t *testing.T) {
	for name, newQueue := range queueFactories(t) {
		t.Run(name, func(t *testing.T) {
			q := newQueue()
			err := q.Complete(context.Background(), "ghost-id", nil)
			if !errors.Is(err, jobModel.ErrJobNotFound) {
				t.Errorf("expected ErrJobNotFound, got %v", err)
			}
		})
	}
}

func TestJobQueue_Length(t *testing.T) {
	for name, newQueue := range queueFactories(t) {
		t.Run(name, func(t *testing.T) {
			q := newQueue()
			ctx := context.Background()
			for i := 0; i < 3; i++ {
				enqueue(t, q, jobModel.JobTypeEmbedChunks, 150)
			}
			if n, err := q.Length(ctx); err != nil || n != 3 {
				t.Fatalf("length = %d, %v", n, err)
			}
			_, _ = q.Dequeue(ctx, time.Second)
			if n, _ := q.Length(ctx); n != 2 {
				t.Errorf("length after dequeue = %d, want 2", n)
			}
		})
	}
}

func TestJobQueue_Requeue(t *testing.T) {
	for name, newQueue := range queueFactories(t) {
		t.Run(name, func(t *testing.T) {
			q := newQueue()
			ctx := context.Background()
			original := enqueue(t, q, jobModel.JobTypeEmbedChunks, 150)
			_, _ = q.Dequeue(ctx, time.Second)
			_ = q.Fail(ctx, original, "qdrant down")

			fresh, err := jobModel.Requeue(ctx, q, original)
			if err != nil {
				t.Fatalf("Requeue: %v", err)
			}
			if fresh == original {
				t.Fatal("requeue must create a new job id")
			}

			old, _, _ := q.StatusOf(ctx, original)
			if old.Status != jobModel.JobStatusFailed {
				t.Errorf("original record changed to %s", old.Status)
			}
			job, _ := q.Dequeue(ctx, time.Second)
			if job == nil || job.Id != fresh || job.Priority != 150 || job.JobType != jobModel.JobTypeEmbedChunks {
				t.Errorf("requeued job mismatch: %+v", job)
			}

			if _, err := jobModel.Requeue(ctx, q, "ghost-id"); !errors.Is(err, jobModel.ErrJobNotFound) {
				t.Errorf("requeue of unknown job: %v", err)
			}
		})
	}
}

func TestJobQueue_ConcurrentDequeueNeverDuplicates(t *testing.T) {
	for name, newQueue := range queueFactories(t) {
		t.Run(name, func(t *testing.T) {
			q := newQueue()
			ctx := context.Background()
			const jobs = 40
			for i := 0; i < jobs; i++ {
				enqueue(t, q, jobModel.JobTypeExtractText, i%3)
			}

			var mu sync.Mutex
			seen := make(map[string]int)
			var wg sync.WaitGroup
			for w := 0; w < 8; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for {
						job, err := q.Dequeue(ctx, 50*time.Millisecond)
						if err != nil || job == nil {
							return
						}
						mu.Lock()
						seen[job.Id]++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			if len(seen) != jobs {
				t.Errorf("dequeued %d distinct jobs, want %d", len(seen), jobs)
			}
			for id, n := range seen {
				if n != 1 {
					t.Errorf("job %s delivered %d times", id, n)
				}
			}
		})
	}
}

func TestRedisJobQueue_KeysAndPing(t *testing.T) {
	q, mr := newRedisQueue(t)
	ctx := context.Background()
	jobId := enqueue(t, q, jobModel.JobTypeExtractText, 50)

	if !mr.Exists("test:job:" + jobId) {
		t.Error("job hash missing")
	}
	members, err := mr.ZMembers("test:queue")
	if err != nil || len(members) != 1 {
		t.Fatalf("queue members = %v (%v)", members, err)
	}
	if err := q.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}

	mr.Close()
	if err := q.Ping(ctx); err == nil {
		t.Error("Ping should fail once redis is gone")
	}
}

// cancelOnScript cancels the caller's context as soon as the claim script is sent.
type cancelOnScript struct {
	cancel context.CancelFunc
}

func (h cancelOnScript) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h cancelOnScript) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if name := cmd.Name(); name == "evalsha" || name == "eval" {
			h.cancel()
		}
		return next(ctx, cmd)
	}
}

func (h cancelOnScript) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisJobQueue_ClaimSurvivesCancellation(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	q := store.NewRedisJobQueue(redisStore.NewTestStore(client), "test", 10*time.Millisecond)
	jobId := enqueue(t, q, jobModel.JobTypeEmbedChunks, 50)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.AddHook(cancelOnScript{cancel: cancel})

	job, err := q.Dequeue(ctx, time.Second)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if job == nil || job.Id != jobId {
		t.Fatalf("expected job %s, got %+v", jobId, job)
	}
	if job.Status != jobModel.JobStatusRunning || job.StartedTime.IsZero() {
		t.Errorf("claimed job = %+v, want RUNNING with a start time", job)
	}
	if job.JobType != jobModel.JobTypeEmbedChunks || job.Priority != 50 {
		t.Errorf("claimed job fields = %+v", job)
	}
}

func TestRedisJobQueue_CancelledDequeueLeavesJobPending(t *testing.T) {
	q, _ := newRedisQueue(t)
	jobId := enqueue(t, q, jobModel.JobTypeExtractText, 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := q.Dequeue(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	job, found, err := q.StatusOf(context.Background(), jobId)
	if err != nil || !found {
		t.Fatalf("StatusOf: found=%v err=%v", found, err)
	}
	if job.Status != jobModel.JobStatusPending {
		t.Errorf("status = %s, want PENDING", job.Status)
	}
	if n, _ := q.Length(context.Background()); n != 1 {
		t.Errorf("queue length = %d, want 1", n)
	}
}

func TestNewJobQueue_Fallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.RedisConfig{Addr: "127.0.0.1:1", InMemoryFallback: true}
	q, err := store.NewJobQueue(ctx, cfg)
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if _, ok := q.(*store.InMemoryJobQueue); !ok {
		t.Errorf("expected in-memory queue, got %T", q)
	}

	cfg.InMemoryFallback = false
	if _, err := store.NewJobQueue(ctx, cfg); !errors.Is(err, redisStore.ErrRedisOffline) {
		t.Errorf("expected ErrRedisOffline, got %v", err)
	}
}
