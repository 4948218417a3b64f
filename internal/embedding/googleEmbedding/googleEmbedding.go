package googleEmbedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/customHttpClient"
	"github.com/akolanti/smartsort/pkg/logger_i"
	"google.golang.org/genai"
)

type Client struct {
	genAi      *genai.Client
	model      string
	dimension  int32
	retryDelay time.Duration
	logger     *logger_i.Logger
}

func NewClient(ctx context.Context, cfg config.EmbeddingConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("google embeddings need an api key")
	}
	model := cfg.Name
	if model == "" {
		model = config.GoogleEmbeddingModel
	}
	dimension := cfg.Dimensions
	if dimension <= 0 {
		dimension = config.EmbeddingOutputDimensionality
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.NewClient(cfg.Timeout),
	}
	if cfg.Host != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Host}
	}
	c, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("creating google embedding client: %w", err)
	}

	logger := logger_i.NewLogger("google_embedding")
	logger.Info("Google Embedding client created", "model", model)
	return &Client{genAi: c, model: model, dimension: dimension, retryDelay: 5 * time.Second, logger: logger}, nil
}

func (c *Client) Name() string {
	return "google"
}

func (c *Client) Ping(ctx context.Context) error {
	_, err := c.genAi.Models.Get(ctx, c.model, nil)
	return err
}

// BatchEmbedding sends the texts in slices of EmbeddingBatchSize and retries a slice once
// when the API reports exhausted quota.
func (c *Client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += config.EmbeddingBatchSize {
		end := min(start+config.EmbeddingBatchSize, len(texts))

		res, err := c.doCall(ctx, getContent(texts[start:end]))
		if err != nil && doRetry(err, c.logger) {
			c.logger.Debug("Retrying after rate limit", "delay", c.retryDelay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
			res, err = c.doCall(ctx, getContent(texts[start:end]))
		}
		if err != nil {
			c.logger.Error("Error getting Embeddings from Google", "error", err)
			return nil, err
		}
		if res == nil || len(res.Embeddings) != end-start {
			return nil, fmt.Errorf("google returned %d embeddings for %d texts", embeddingCount(res), end-start)
		}
		for _, e := range res.Embeddings {
			results = append(results, e.Values)
		}
	}
	return results, nil
}

func (c *Client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: &c.dimension,
		TaskType:             "RETRIEVAL_DOCUMENT",
	})
}

func embeddingCount(res *genai.EmbedContentResponse) int {
	if res == nil {
		return 0
	}
	return len(res.Embeddings)
}
