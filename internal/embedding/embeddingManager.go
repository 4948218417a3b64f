package embedding

import (
	"context"
	"fmt"

	"github.com/akolanti/smartsort/internal/config"
	"github.com/akolanti/smartsort/internal/embedding/googleEmbedding"
	"github.com/akolanti/smartsort/internal/embedding/localEmbedding"
)

type Embedder interface {
	Name() string
	Ping(ctx context.Context) error
	// BatchEmbedding returns one vector per input text, in order.
	BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmbedder returns nil without error when embeddings are disabled.
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "google":
		e, err := googleEmbedding.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	case "local":
		e, err := localEmbedding.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
