package config

import (
	"time"
)

const (
	TRACE_ID_KEY                = "traceId"
	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5
	RATE_LIMITER_IDLE_TTL       = 10 * time.Minute
	RATE_LIMITER_MAX_CLIENTS    = 10000

	//storage layout, relative to the sandbox root
	InboxDir     = "00_inbox"
	IngestedDir  = "01_ingested"
	SortedDir    = "03_sorted"
	ErrorsDir    = "99_errors"
	HashBlockLen = 8192

	UncategorizedCategory = "Uncategorized"
	UncategorizedTarget   = SortedDir + "/" + UncategorizedCategory

	//pipeline priorities, lower runs first
	PriorityExtract  = 50
	PriorityChunk    = 100
	PriorityEmbed    = 150
	PriorityClassify = 200

	//chunking
	ChunkTargetSize = 800
	ChunkOverlap    = 200

	//classification
	ConfidenceThreshold    = 0.8
	PromptPreviewChars     = 2000
	PromptTruncationMarker = "\n\n[... text truncated ...]"
	RawResponseTraceChars  = 500
	AvailabilityCacheTTL   = 30 * time.Second
	ModelPingTimeout       = 5 * time.Second

	ModelTemperature float32 = 0.1

	//extraction
	ExtractionTimeout = 10 * time.Second

	//queue
	RedisKeyPrefix        = "smartsort"
	DequeueTimeout        = 5 * time.Second
	DequeuePollInterval   = 200 * time.Millisecond
	RedisPingTimeout      = 3 * time.Second
	DefaultWorkerCount    = 2
	WorkerShutdownTimeout = 30 * time.Second

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantGrpcPort          = 6334
	QdrantPoolSize          = 1
	QdrantKeepAliveTimeout  = 30 * time.Second
	QdrantCollection        = "smartsort-chunks"
	QdrantHealthTimeout     = 3 * time.Second

	//embeddings
	GoogleEmbeddingModel                = "gemini-embedding-001"
	EmbeddingOutputDimensionality int32 = 768
	EmbeddingBatchSize                  = 50
	LocalEmbeddingModel                 = "nomic-embed-text"
	EmbeddingTimeout                    = 30 * time.Second
	EmbeddingPingTimeout                = 5 * time.Second

	//llm
	GeminiModelName = "gemini-2.5-flash-lite"
	OpenAIModelName = "gpt-4o-mini"
	LocalModelName  = "llama3.1"
	LocalModelHost  = "http://localhost:11434/v1"
	ModelTimeout    = 60 * time.Second

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//inbox watcher
	InboxDebounce = 2 * time.Second

	//redis
	RedisAddr    = "127.0.0.1:6379"
	RedisJobDB   = 0
	DefaultDB    = "data/smartsort.db"
	DefaultRoot  = "data/storage"
	DefaultLevel = "info"
)
