package encoder

import (
	"context"
	"fmt"
)

// Embedder turns text into a fixed-length vector. Implementations must be
// deterministic for a fixed model and input, and batching must not change
// output values relative to one-at-a-time calls.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelInfo() string
}

// EncodingError wraps a failed or timed-out embedding call. Retryable:
// the caller may retry once; it must never be papered over with a zero
// vector, which would silently corrupt ranking.
type EncodingError struct {
	Model string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding with %s failed: %v", e.Model, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
