package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env       string          `yaml:"env"`
	LogLevel  string          `yaml:"log_level"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DatabaseConfig  `yaml:"database"`
	Worker    WorkerConfig    `yaml:"worker"`
	Model     ModelConfig     `yaml:"model"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Server    ServerConfig    `yaml:"server"`
	Inbox     InboxConfig     `yaml:"inbox"`
}

type StorageConfig struct {
	Root string `yaml:"root"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
	// InMemoryFallback swaps in the process-local queue when redis cannot be reached
	InMemoryFallback bool `yaml:"in_memory_fallback"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type WorkerConfig struct {
	Count          int           `yaml:"count"`
	DequeueTimeout time.Duration `yaml:"dequeue_timeout"`
}

type ModelConfig struct {
	// Provider is one of gemini, openai, local or none. Empty Host and Name select the provider defaults.
	Provider    string        `yaml:"provider"`
	Host        string        `yaml:"host"`
	Name        string        `yaml:"name"`
	APIKey      string        `yaml:"api_key"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

type EmbeddingConfig struct {
	// Provider is one of google, local or none
	Provider   string        `yaml:"provider"`
	Host       string        `yaml:"host"`
	Name       string        `yaml:"name"`
	APIKey     string        `yaml:"api_key"`
	Dimensions int32         `yaml:"dimensions"`
	Timeout    time.Duration `yaml:"timeout"`
}

type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
	Collection string `yaml:"collection"`
}

type ServerConfig struct {
	ListenAddr string  `yaml:"listen_addr"`
	APIKey     string  `yaml:"api_key"`
	NoAuth     bool    `yaml:"no_auth"`
	RateLimit  float64 `yaml:"rate_limit"`
	RateBurst  int     `yaml:"rate_burst"`
}

type InboxConfig struct {
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
}

func Default() Config {
	return Config{
		Env:      "dev",
		LogLevel: DefaultLevel,
		Storage:  StorageConfig{Root: DefaultRoot},
		Redis: RedisConfig{
			Addr:      RedisAddr,
			DB:        RedisJobDB,
			KeyPrefix: RedisKeyPrefix,
		},
		Database: DatabaseConfig{Path: DefaultDB},
		Worker: WorkerConfig{
			Count:          DefaultWorkerCount,
			DequeueTimeout: DequeueTimeout,
		},
		Model: ModelConfig{
			Provider:    "local",
			Temperature: ModelTemperature,
			Timeout:     ModelTimeout,
			CacheTTL:    AvailabilityCacheTTL,
		},
		Embedding: EmbeddingConfig{
			Provider:   "none",
			Name:       GoogleEmbeddingModel,
			Dimensions: EmbeddingOutputDimensionality,
			Timeout:    EmbeddingTimeout,
		},
		Qdrant: QdrantConfig{
			Port:       QdrantGrpcPort,
			Collection: QdrantCollection,
		},
		Server: ServerConfig{
			ListenAddr: ServerListenAddr,
			RateLimit:  RATE_LIMIT_PER_SECOND,
			RateBurst:  BURST_RATE_LIMIT_PER_SECOND,
		},
		Inbox:  InboxConfig{Debounce: InboxDebounce},
	}
}

// Load reads an optional yaml file on top of the defaults, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv outside of tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("SS_ENV", &c.Env)
	str("SS_LOG_LEVEL", &c.LogLevel)
	str("SS_STORAGE_ROOT", &c.Storage.Root)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("SS_DB_PATH", &c.Database.Path)
	str("QDRANT_HOST", &c.Qdrant.Host)
	str("SS_MODEL_PROVIDER", &c.Model.Provider)
	str("SS_MODEL_HOST", &c.Model.Host)
	str("SS_MODEL_NAME", &c.Model.Name)
	str("SS_EMBEDDING_PROVIDER", &c.Embedding.Provider)
	str("SS_EMBEDDING_HOST", &c.Embedding.Host)
	str("SS_API_KEY", &c.Server.APIKey)
	str("SS_LISTEN_ADDR", &c.Server.ListenAddr)

	if v, ok := lookup("QDRANT_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Qdrant.Port = port
		}
	}
	if v, ok := lookup("SS_WORKERS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Worker.Count = n
		}
	}
	if v, ok := lookup("GOOGLE_API_KEY"); ok && v != "" {
		if c.Model.Provider == "gemini" {
			c.Model.APIKey = v
		}
		if c.Embedding.Provider == "google" {
			c.Embedding.APIKey = v
		}
	}
	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" && c.Model.Provider == "openai" {
		c.Model.APIKey = v
	}
	if v, ok := lookup("SS_NO_AUTH"); ok {
		c.Server.NoAuth, _ = strconv.ParseBool(v)
	}
}

func (c Config) IsProd() bool {
	return strings.EqualFold(c.Env, "prod")
}

func (c Config) Validate() error {
	var errs []error
	if c.Storage.Root == "" {
		errs = append(errs, errors.New("storage.root is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Worker.Count < 1 {
		errs = append(errs, fmt.Errorf("worker.count must be positive, got %d", c.Worker.Count))
	}
	switch c.Model.Provider {
	case "gemini", "openai", "local", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown model provider %q", c.Model.Provider))
	}
	switch c.Embedding.Provider {
	case "google", "local", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider))
	}
	return errors.Join(errs...)
}
