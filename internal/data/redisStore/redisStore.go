package redisStore

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var (
	instances = make(map[string]*Store)
	mu        sync.RWMutex
	logger    = logger_i.NewLogger("Redis Store")
)

var ErrRedisOffline = errors.New("redis is offline")

type Store struct {
	client *redis.Client
	Type   int
}

// GetRedisStore returns a pinged client for addr/db, sharing one client per pair.
// Clients are closed once ctx is done.
func GetRedisStore(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	key := instanceKey(cfg)

	mu.RLock()
	instance, exists := instances[key]
	mu.RUnlock()

	if exists {
		return instance, nil
	}

	mu.Lock()
	defer mu.Unlock()

	if instance, exists = instances[key]; exists {
		return instance, nil
	}
	return createNewStore(ctx, cfg, key)
}

func instanceKey(cfg config.RedisConfig) string {
	return cfg.Addr + "/" + strconv.Itoa(cfg.DB)
}

func closeRedisStore(ctx context.Context, key string) {
	<-ctx.Done()
	mu.Lock()
	defer mu.Unlock()
	store, ok := instances[key]
	if !ok {
		return
	}
	if err := store.client.Close(); err != nil {
		logger.Error("Error closing redis client", "error", err)
	}
	delete(instances, key)
	logger.Info("Redis store closed", "addr", key)
}

func createNewStore(ctx context.Context, cfg config.RedisConfig, key string) (*Store, error) {
	newClient := redis.NewClient(&redis.Options{
		Addr:                  cfg.Addr,
		Password:              cfg.Password,
		DB:                    cfg.DB,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, config.RedisPingTimeout)
	defer cancel()

	if err := newClient.Ping(pingCtx).Err(); err != nil {
		logger.Error("Redis is offline", "addr", cfg.Addr, "error", err)
		_ = newClient.Close()
		return nil, errors.Join(ErrRedisOffline, err)
	}

	logger.Info("Redis client initialised", "addr", cfg.Addr, "db", cfg.DB)

	newStore := &Store{
		client: newClient,
		Type:   cfg.DB,
	}
	instances[key] = newStore
	go closeRedisStore(ctx, key)
	return newStore, nil
}

// NewTestStore wraps an existing client, typically one pointed at miniredis.
func NewTestStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}
