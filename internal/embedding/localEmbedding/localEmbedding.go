package localEmbedding

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/customHttpClient"
	"github.com/akolanti/smartsort/pkg/logger_i"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Client embeds through a local OpenAI compatible server.
type Client struct {
	embedder embeddings.Embedder
	http     *http.Client
	host     string
	logger   *logger_i.Logger
}

func NewClient(cfg config.EmbeddingConfig) (*Client, error) {
	host := strings.TrimRight(cfg.Host, "/")
	if host == "" {
		host = config.LocalModelHost
	}
	model := cfg.Name
	if model == "" || model == config.GoogleEmbeddingModel {
		model = config.LocalEmbeddingModel
	}

	httpClient := customHttpClient.NewClient(cfg.Timeout)
	llm, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(model),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("creating local embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(config.EmbeddingBatchSize),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		embedder: embedder,
		http:     httpClient,
		host:     host,
		logger:   logger_i.NewLogger("local_embedding"),
	}, nil
}

func (c *Client) Name() string {
	return "local"
}

func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/models", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding server answered %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	c.logger.Debug("generating embeddings for texts", "count", len(texts))
	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		c.logger.Error("failed to generate embeddings", "count", len(texts), "error", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding server returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}
