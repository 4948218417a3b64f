package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/customHttpClient"
	"github.com/akolanti/smartsort/pkg/logger_i"
	"google.golang.org/genai"
)

type LLMClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
	logger      *logger_i.Logger
}

// NewProvider builds a Gemini backed classifier provider. Host overrides the API base url.
func NewProvider(ctx context.Context, cfg config.ModelConfig) (*LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini provider needs an api key")
	}
	modelName := cfg.Name
	if modelName == "" {
		modelName = config.GeminiModelName
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: customHttpClient.NewClient(0),
	}
	if cfg.Host != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Host}
	}

	c, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	logger := logger_i.NewLogger("llm_gemini")
	logger.Info("Gemini client created", "model", modelName)
	return &LLMClient{client: c, modelName: modelName, temperature: cfg.Temperature, logger: logger}, nil
}

func (c *LLMClient) Name() string {
	return "gemini"
}

func (c *LLMClient) Ping(ctx context.Context) error {
	_, err := c.client.Models.Get(ctx, c.modelName, nil)
	return err
}

func (c *LLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	contentConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.temperature),
		ResponseMIMEType: "application/json",
	}

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), contentConfig)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if result == nil {
		return "", errors.New("gemini returned no candidates")
	}
	return result.Text(), nil
}
