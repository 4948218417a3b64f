package store

import (
	"context"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/domain/jobModel"
)

var (
	_ jobModel.JobQueue = (*RedisJobQueue)(nil)
	_ jobModel.JobQueue = (*InMemoryJobQueue)(nil)
)

// NewJobQueue connects to redis, falling back to the in-memory queue when allowed.
func NewJobQueue(ctx context.Context, cfg config.RedisConfig) (jobModel.JobQueue, error) {
	queue, err := GetRedisJobQueue(ctx, cfg)
	if err == nil {
		return queue, nil
	}
	if !cfg.InMemoryFallback {
		return nil, err
	}
	inMemLogger.Warn("redis unavailable, using in-memory job queue", "error", err)
	return InitInMemoryJobQueue(), nil
}
