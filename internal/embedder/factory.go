package embedder

import (
	"fmt"

	"go.uber.org/zap"
)

// Options selects and configures a provider
type Options struct {
	Provider  string
	APIKey    string
	Model     string
	Dimension int
	BaseURL   string
	CacheSize int
}

// New creates the configured embedding provider with a shared LRU cache
func New(opts Options, logger *zap.Logger) (Embedder, error) {
	cache := NewCache(opts.CacheSize)

	switch opts.Provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(OpenAIOptions{
			APIKey:    opts.APIKey,
			Model:     opts.Model,
			Dimension: opts.Dimension,
			BaseURL:   opts.BaseURL,
		}, cache, logger)
	case ProviderHash, "":
		return NewHashProvider(opts.Dimension, cache), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, opts.Provider)
	}
}
