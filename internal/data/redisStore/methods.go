package redisStore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, key).Result()
}

func (s *Store) HSet(ctx context.Context, key string, fields map[string]any) error {
	return s.client.HSet(ctx, key, fields).Err()
}

func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return s.client.HGetAll(ctx, key).Result()
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	count, err := s.client.Exists(ctx, key).Result()
	return count > 0, err
}

func (s *Store) ZCard(ctx context.Context, key string) (int64, error) {
	return s.client.ZCard(ctx, key).Result()
}

// TxPipelined runs fn inside MULTI/EXEC.
func (s *Store) TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) error {
	_, err := s.client.TxPipelined(ctx, fn)
	return err
}

// RunScript evaluates a cached lua script, falling back to EVAL when the sha is unknown.
func (s *Store) RunScript(ctx context.Context, script *redis.Script, keys []string, args ...any) (any, error) {
	return script.Run(ctx, s.client, keys, args...).Result()
}
