package model

import (
	"context"
	"fmt"

	"github.com/akolanti/smartsort/internal/classifier/model/gemini"
	"github.com/akolanti/smartsort/internal/classifier/model/localChat"
	"github.com/akolanti/smartsort/internal/classifier/model/openaiChat"
	"github.com/akolanti/smartsort/internal/config"
)

// NewProvider returns nil without error for the "none" provider.
func NewProvider(ctx context.Context, cfg config.ModelConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "gemini":
		p, err := gemini.NewProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "openai":
		p, err := openaiChat.NewProvider(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "local":
		p, err := localChat.NewProvider(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
