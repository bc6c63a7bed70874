package encoder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// HashEmbedder is a deterministic, offline embedder: each whitespace token
// hashes to a handful of vector positions. It has no semantic power beyond
// shared-token overlap, but it is stable across runs and platforms, which
// makes it usable for tests and air-gapped smoke runs.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a hash embedder of the given dimension.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 384
	}
	return &HashEmbedder{dim: dimension}
}

// Embed produces a normalized bag-of-tokens vector.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,:;()$")
		if token == "" {
			continue
		}
		sum := sha256.Sum256([]byte(token))
		// Spread each token over 4 positions with alternating sign.
		for p := 0; p < 4; p++ {
			idx := binary.LittleEndian.Uint32(sum[p*8:]) % uint32(e.dim)
			sign := float32(1)
			if sum[p*8+4]&1 == 1 {
				sign = -1
			}
			vec[idx] += sign
		}
	}

	l2normalize(vec)
	return vec, nil
}

// EmbedBatch embeds texts sequentially; identical to repeated Embed calls.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimension returns the embedding dimension.
func (e *HashEmbedder) Dimension() int { return e.dim }

// ModelInfo returns the model identifier recorded in cache metadata.
func (e *HashEmbedder) ModelInfo() string { return "hash-embedder-v1" }
