package openaiChat

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/customHttpClient"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const systemPrompt = "You classify documents and answer with a single JSON object."

type Provider struct {
	client      openai.Client
	modelName   string
	temperature float64
}

// NewProvider talks to the OpenAI API, or to any compatible endpoint when Host is set.
func NewProvider(cfg config.ModelConfig) (*Provider, error) {
	if cfg.APIKey == "" && cfg.Host == "" {
		return nil, errors.New("openai provider needs an api key")
	}
	modelName := cfg.Name
	if modelName == "" {
		modelName = config.OpenAIModelName
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(customHttpClient.NewClient(0)),
		// the classifier falls back on failure, retries only delay that
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Host != "" {
		opts = append(opts, option.WithBaseURL(cfg.Host))
	}

	return &Provider{
		client:      openai.NewClient(opts...),
		modelName:   modelName,
		temperature: float64(cfg.Temperature),
	}, nil
}

func (p *Provider) Name() string {
	return "openai"
}

func (p *Provider) Ping(ctx context.Context) error {
	_, err := p.client.Models.List(ctx)
	return err
}

func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Model:       p.modelName,
		Temperature: openai.Float(p.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
