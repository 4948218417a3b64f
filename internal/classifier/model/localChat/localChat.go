package localChat

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/customHttpClient"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider drives a local OpenAI compatible server such as Ollama's /v1 endpoint.
type Provider struct {
	llm         *openai.LLM
	http        *http.Client
	host        string
	temperature float64
}

func NewProvider(cfg config.ModelConfig) (*Provider, error) {
	host := strings.TrimRight(cfg.Host, "/")
	if host == "" {
		host = config.LocalModelHost
	}
	modelName := cfg.Name
	if modelName == "" {
		modelName = config.LocalModelName
	}

	httpClient := customHttpClient.NewClient(0)
	// local servers do not check the token
	llm, err := openai.New(
		openai.WithBaseURL(host),
		openai.WithToken("none"),
		openai.WithModel(modelName),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("creating local model client: %w", err)
	}
	return &Provider{llm: llm, http: httpClient, host: host, temperature: float64(cfg.Temperature)}, nil
}

func (p *Provider) Name() string {
	return "local"
}

// Ping lists the served models, which every OpenAI compatible server exposes.
func (p *Provider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.host+"/models", nil)
	if err != nil {
		return err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server answered %d", resp.StatusCode)
	}
	return nil
}

func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, p.llm, prompt,
		llms.WithTemperature(p.temperature),
		llms.WithJSONMode(),
	)
}
