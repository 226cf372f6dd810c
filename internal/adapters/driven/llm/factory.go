// Package llm provides factory functions for creating LLM service adapters
// from configuration.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/deskfind/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/deskfind/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// NewFromConfig creates the configured LLM service. Returns (nil, nil) when
// no provider is configured: the search pipeline then runs rule-based only.
//
// Config keys: llm.provider ("openai" or "ollama"), llm.model, llm.base_url,
// llm.api_key.
func NewFromConfig(cfg driven.ConfigStore) (driven.LLMService, error) {
	provider := cfg.GetString("llm.provider")
	if provider == "" {
		return nil, nil
	}

	svc, err := create(provider, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

func create(provider string, cfg driven.ConfigStore) (driven.LLMService, error) {
	switch provider {
	case "ollama":
		return ollama.NewLLMService(ollama.LLMConfig{
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		}), nil

	case "openai":
		return openai.NewLLMService(openai.LLMConfig{
			APIKey:  cfg.GetString("llm.api_key"),
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
