package encoder

import (
	"context"
	"errors"
	"math"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder calls the OpenAI embeddings API. Vectors come back
// L2-normalized so cosine similarity reduces to a dot product.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	dim     int
	timeout time.Duration
}

// maxConcurrentEmbeds caps parallel API calls in EmbedBatch.
const maxConcurrentEmbeds = 10

// NewOpenAIEmbedder creates an embedder for the given model. The API key
// comes from OPENAI_API_KEY; OPENAI_BASE_URL optionally points at any
// OpenAI-compatible endpoint.
func NewOpenAIEmbedder(model string, dimension int, timeout time.Duration) (*OpenAIEmbedder, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	cfg := openai.DefaultConfig(key)
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		cfg.BaseURL = base
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		dim:     dimension,
		timeout: timeout,
	}, nil
}

// Embed generates an embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(text) == 0 {
		return nil, &EncodingError{Model: e.ModelInfo(), Err: errors.New("cannot embed empty text")}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, &EncodingError{Model: e.ModelInfo(), Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, &EncodingError{Model: e.ModelInfo(), Err: errors.New("no embedding data returned")}
	}

	v := resp.Data[0].Embedding
	if len(v) != e.dim {
		return nil, &EncodingError{Model: e.ModelInfo(),
			Err: errors.New("embedding dimension mismatch with configured model")}
	}

	out := make([]float32, len(v))
	copy(out, v)
	l2normalize(out)
	return out, nil
}

// EmbedBatch embeds texts with bounded concurrency. Results keep input
// order; the first error aborts the batch.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	errChan := make(chan error, len(texts))
	sem := make(chan struct{}, maxConcurrentEmbeds)

	for i := range texts {
		sem <- struct{}{}
		go func(idx int) {
			defer func() { <-sem }()

			emb, err := e.Embed(ctx, texts[idx])
			if err != nil {
				errChan <- err
				return
			}
			embeddings[idx] = emb
			errChan <- nil
		}(i)
	}

	var firstErr error
	for range texts {
		if err := <-errChan; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return embeddings, nil
}

// Dimension returns the embedding dimension.
func (e *OpenAIEmbedder) Dimension() int { return e.dim }

// ModelInfo returns the model identifier recorded in cache metadata.
func (e *OpenAIEmbedder) ModelInfo() string { return "openai-" + e.model }

// l2normalize normalizes a vector to unit length in place.
func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
