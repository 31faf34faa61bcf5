package embedder

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAI provider defaults
const (
	ProviderOpenAI     = "openai"
	DefaultOpenAIModel = "text-embedding-3-small"
	OpenAIDimension    = 1536

	// EnvOpenAIAPIKey is consulted when no key is configured explicitly
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// OpenAIProvider generates embeddings through the OpenAI embeddings API
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	dimension int
	cache     *Cache
	logger    *zap.Logger
}

// OpenAIOptions configures an OpenAIProvider. Zero values fall back to
// defaults; BaseURL supports OpenAI-compatible endpoints.
type OpenAIOptions struct {
	APIKey    string
	Model     string
	Dimension int
	BaseURL   string
}

// NewOpenAIProvider creates an OpenAI embedder. The API key comes from
// options or the OPENAI_API_KEY environment variable.
func NewOpenAIProvider(opts OpenAIOptions, cache *Cache, logger *zap.Logger) (*OpenAIProvider, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrProviderFailed, EnvOpenAIAPIKey)
	}

	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	dimension := opts.Dimension
	if dimension <= 0 {
		dimension = OpenAIDimension
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		dimension: dimension,
		cache:     cache,
		logger:    logger,
	}, nil
}

// Embed generates one embedding, consulting the cache first
func (o *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if o.cache != nil {
		if v, ok := o.cache.Get(hash); ok {
			return v, nil
		}
	}

	vectors, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for texts in order. Cached texts are
// served locally; only misses go to the API.
func (o *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	if o.cache != nil {
		for i, text := range texts {
			if v, ok := o.cache.Get(ComputeHash(text)); ok {
				vectors[i] = v
			} else {
				missing = append(missing, text)
				missingIdx = append(missingIdx, i)
			}
		}
	} else {
		missing = texts
		missingIdx = make([]int, len(texts))
		for i := range texts {
			missingIdx[i] = i
		}
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	config := DefaultRetryConfig()
	fetched, err := retryWithBackoff(ctx, config, func() ([][]float32, error) {
		return o.callAPI(ctx, missing)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, config.MaxRetries, err)
	}

	for i, v := range fetched {
		idx := missingIdx[i]
		vectors[idx] = v
		if o.cache != nil {
			o.cache.Set(ComputeHash(texts[idx]), v)
		}
	}

	return vectors, nil
}

func (o *OpenAIProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(o.model),
	}
	if o.dimension != OpenAIDimension {
		req.Dimensions = o.dimension
	}

	resp, err := o.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			ErrProviderFailed, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range",
				ErrProviderFailed, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	o.logger.Debug("embedded batch",
		zap.Int("texts", len(texts)),
		zap.String("model", o.model))

	return vectors, nil
}

// Dimension returns the configured embedding width
func (o *OpenAIProvider) Dimension() int {
	return o.dimension
}

// Provider returns the provider name
func (o *OpenAIProvider) Provider() string {
	return ProviderOpenAI
}

// Close is a no-op; the underlying HTTP client manages its own connections
func (o *OpenAIProvider) Close() error {
	return nil
}
