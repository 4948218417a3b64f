package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/data/redisStore"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
	"github.com/akolanti/smartsort/internal/metrics"
	"github.com/akolanti/smartsort/pkg/logger_i"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// claimScript pops the lowest (priority, seq) member, flips its record to RUNNING and returns
// the record, all in one step. Returns nil when the queue is empty and {id, 0} when the record
// was purged or is no longer PENDING.
var claimScript = redis.NewScript(`
local popped = redis.call('ZPOPMIN', KEYS[1])
if #popped == 0 then
  return false
end
local member = popped[1]
local sep = string.find(member, '|', 1, true)
local id = string.sub(member, sep + 1)
local key = ARGV[1] .. id
if redis.call('HGET', key, 'status') ~= 'PENDING' then
  return {id, 0}
end
redis.call('HSET', key, 'status', 'RUNNING', 'started_at', ARGV[2])
return {id, 1, redis.call('HGETALL', key)}
`)

// RedisJobQueue keeps pending job ids in a sorted set scored by priority and the full job record in a hash per job.
// The record outlives the queue entry so status lookups keep working during and after execution.
type RedisJobQueue struct {
	store        *redisStore.Store
	logger       *logger_i.Logger
	queueKey     string
	seqKey       string
	jobKeyPrefix string
	pollInterval time.Duration
}

func GetRedisJobQueue(ctx context.Context, cfg config.RedisConfig) (*RedisJobQueue, error) {
	store, err := redisStore.GetRedisStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisJobQueue(store, cfg.KeyPrefix, config.DequeuePollInterval), nil
}

func NewRedisJobQueue(store *redisStore.Store, prefix string, pollInterval time.Duration) *RedisJobQueue {
	if prefix == "" {
		prefix = config.RedisKeyPrefix
	}
	if pollInterval <= 0 {
		pollInterval = config.DequeuePollInterval
	}
	return &RedisJobQueue{
		store:        store,
		logger:       logger_i.NewLogger("JobQueue"),
		queueKey:     prefix + ":queue",
		seqKey:       prefix + ":seq",
		jobKeyPrefix: prefix + ":job:",
		pollInterval: pollInterval,
	}
}

func (q *RedisJobQueue) jobKey(jobId string) string {
	return q.jobKeyPrefix + jobId
}

func (q *RedisJobQueue) Enqueue(ctx context.Context, req jobModel.EnqueueRequest) (string, error) {
	if req.JobType == "" {
		return "", errors.New("enqueue: job type is required")
	}
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return "", fmt.Errorf("enqueue: marshal payload: %w", err)
	}

	jobId := uuid.New().String()
	seq, err := q.store.Incr(ctx, q.seqKey)
	if err != nil {
		return "", fmt.Errorf("enqueue: next sequence: %w", err)
	}
	// equal scores are ordered lexicographically by member, the padded sequence keeps that FIFO
	member := fmt.Sprintf("%020d|%s", seq, jobId)

	fields := map[string]any{
		"id":          jobId,
		"type":        string(req.JobType),
		"payload":     string(payload),
		"priority":    req.Priority,
		"depends_on":  req.DependsOn,
		"document_id": req.DocumentId,
		"trace_id":    req.TraceId,
		"status":      string(jobModel.JobStatusPending),
		"created_at":  formatTime(time.Now()),
	}

	err = q.store.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.jobKey(jobId), fields)
		pipe.ZAdd(ctx, q.queueKey, redis.Z{Score: float64(req.Priority), Member: member})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}

	metrics.IncrementJobsEnqueued(string(req.JobType))
	q.logger.Debug("job enqueued", "traceId", req.TraceId, "jobId", jobId, "jobType", req.JobType, "priority", req.Priority)
	return jobId, nil
}

func (q *RedisJobQueue) Dequeue(ctx context.Context, timeout time.Duration) (*jobModel.Job, error) {
	deadline := time.Now().Add(timeout)
	for {
		job, err := q.claim(ctx)
		if err != nil || job != nil {
			return job, err
		}

		wait := time.Until(deadline)
		if wait <= 0 {
			return nil, nil
		}
		if wait > q.pollInterval {
			wait = q.pollInterval
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// claim pops until it finds a claimable job or the queue is empty. Once the script is sent the
// job may already be RUNNING, so the call no longer listens to ctx cancellation.
func (q *RedisJobQueue) claim(ctx context.Context) (*jobModel.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	claimCtx := context.WithoutCancel(ctx)
	for {
		reply, err := q.store.RunScript(claimCtx, claimScript, []string{q.queueKey}, q.jobKeyPrefix, formatTime(time.Now()))
		if q.store.IsNil(err) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("dequeue: %w", err)
		}

		values, ok := reply.([]any)
		if !ok || len(values) < 2 {
			return nil, fmt.Errorf("dequeue: unexpected script reply %v", reply)
		}
		jobId, _ := values[0].(string)
		claimed, _ := values[1].(int64)
		if claimed != 1 || len(values) != 3 {
			q.logger.Warn("dropping popped job that is no longer pending", "jobId", jobId)
			continue
		}

		job, err := jobFromHash(hashReply(values[2]))
		if err != nil {
			// the record is RUNNING but unreadable, fail it instead of leaving it stranded
			_ = q.Fail(claimCtx, jobId, err.Error())
			return nil, fmt.Errorf("dequeue %s: %w", jobId, err)
		}
		metrics.IncrementJobsDequeued(string(job.JobType))
		return &job, nil
	}
}

// hashReply turns a flat HGETALL reply from a script into a field map.
func hashReply(reply any) map[string]string {
	flat, _ := reply.([]any)
	fields := make(map[string]string, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		key, _ := flat[i].(string)
		value, _ := flat[i+1].(string)
		fields[key] = value
	}
	return fields
}

func (q *RedisJobQueue) Complete(ctx context.Context, jobId string, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("complete %s: marshal result: %w", jobId, err)
	}
	return q.finish(ctx, jobId, map[string]any{
		"status":   string(jobModel.JobStatusCompleted),
		"result":   string(raw),
		"error":    "",
		"ended_at": formatTime(time.Now()),
	})
}

func (q *RedisJobQueue) Fail(ctx context.Context, jobId string, errText string) error {
	return q.finish(ctx, jobId, map[string]any{
		"status":   string(jobModel.JobStatusFailed),
		"error":    errText,
		"ended_at": formatTime(time.Now()),
	})
}

func (q *RedisJobQueue) finish(ctx context.Context, jobId string, fields map[string]any) error {
	exists, err := q.store.Exists(ctx, q.jobKey(jobId))
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", jobModel.ErrJobNotFound, jobId)
	}
	return q.store.HSet(ctx, q.jobKey(jobId), fields)
}

func (q *RedisJobQueue) StatusOf(ctx context.Context, jobId string) (jobModel.Job, bool, error) {
	fields, err := q.store.HGetAll(ctx, q.jobKey(jobId))
	if err != nil {
		return jobModel.Job{}, false, fmt.Errorf("status of %s: %w", jobId, err)
	}
	if len(fields) == 0 {
		return jobModel.Job{}, false, nil
	}
	job, err := jobFromHash(fields)
	return job, err == nil, err
}

func (q *RedisJobQueue) Length(ctx context.Context) (int64, error) {
	n, err := q.store.ZCard(ctx, q.queueKey)
	if err == nil {
		metrics.SetQueueLength(n)
	}
	return n, err
}

// Purge removes the job record. A still queued entry is dropped when it is popped.
func (q *RedisJobQueue) Purge(ctx context.Context, jobId string) error {
	return q.store.Del(ctx, q.jobKey(jobId))
}

func (q *RedisJobQueue) Ping(ctx context.Context) error {
	return q.store.Ping(ctx)
}

func jobFromHash(fields map[string]string) (jobModel.Job, error) {
	job := jobModel.Job{
		Id:        fields["id"],
		JobType:   jobModel.JobType(fields["type"]),
		DependsOn: fields["depends_on"],
		Status:    jobModel.JobStatus(fields["status"]),
		Error:     fields["error"],
		TraceId:   fields["trace_id"],
	}
	if p := fields["payload"]; p != "" {
		job.Payload = json.RawMessage(p)
	}
	if r := fields["result"]; r != "" {
		job.Result = json.RawMessage(r)
	}

	var err error
	if job.Priority, err = strconv.Atoi(fields["priority"]); err != nil {
		return job, fmt.Errorf("job %s: bad priority %q", job.Id, fields["priority"])
	}
	if d := fields["document_id"]; d != "" {
		if job.DocumentId, err = strconv.ParseInt(d, 10, 64); err != nil {
			return job, fmt.Errorf("job %s: bad document id %q", job.Id, d)
		}
	}
	job.CreatedTime = parseTime(fields["created_at"])
	job.StartedTime = parseTime(fields["started_at"])
	job.EndTime = parseTime(fields["ended_at"])
	return job, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
