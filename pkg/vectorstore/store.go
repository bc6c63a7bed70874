// Package vectorstore holds the precomputed embedding matrix for the
// catalog. The matrix is built once (or loaded from a validated cache) and
// is immutable afterwards; row i is always the embedding of catalog item i.
package vectorstore

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/encoder"
)

const (
	matrixFile = "mouse_embeddings.gob"
	metaFile   = "mouse_embeddings_meta.json"
)

// Metadata describes a persisted matrix. A cache is only reused when every
// field matches the current catalog and configured embedder.
type Metadata struct {
	Model       string `json:"model"`
	Count       int    `json:"count"`
	Dimension   int    `json:"dimension"`
	Fingerprint string `json:"fingerprint"`
}

// Store wraps the catalog matrix with cache validation and a build guard.
type Store struct {
	cat      *catalog.Catalog
	embedder encoder.Embedder
	dir      string
	log      zerolog.Logger

	mu     sync.Mutex
	matrix [][]float32
	meta   *Metadata
}

// New creates a store over cat using emb, persisting under dir. Nothing is
// computed until the first Matrix call.
func New(cat *catalog.Catalog, emb encoder.Embedder, dir string, log zerolog.Logger) *Store {
	return &Store{cat: cat, embedder: emb, dir: dir, log: log}
}

// Matrix returns the catalog embedding matrix and its metadata, loading a
// valid cache or building one. Only one build runs at a time per process;
// concurrent callers during a cold build wait for it rather than starting
// their own.
func (s *Store) Matrix(ctx context.Context) ([][]float32, *Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.matrix != nil {
		return s.matrix, s.meta, nil
	}

	fingerprint := s.cat.Fingerprint()

	if matrix, meta, ok := s.loadCache(fingerprint); ok {
		s.matrix, s.meta = matrix, meta
		s.log.Info().Int("count", meta.Count).Str("model", meta.Model).
			Msg("loaded mouse embeddings from cache")
		return s.matrix, s.meta, nil
	}

	matrix, meta, err := s.build(ctx, fingerprint)
	if err != nil {
		return nil, nil, err
	}
	s.matrix, s.meta = matrix, meta
	return s.matrix, s.meta, nil
}

// Invalidate drops the in-memory matrix so the next Matrix call revalidates
// against the cache files (and rebuilds if they no longer match).
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matrix, s.meta = nil, nil
}

// loadCache reads and validates the persisted matrix. Any mismatch or
// corruption is recovered by rebuilding, never surfaced as a crash.
func (s *Store) loadCache(fingerprint string) ([][]float32, *Metadata, bool) {
	metaBytes, err := os.ReadFile(filepath.Join(s.dir, metaFile))
	if err != nil {
		return nil, nil, false
	}

	var meta Metadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		s.log.Warn().Err(err).Msg("embedding cache metadata unreadable, rebuilding")
		return nil, nil, false
	}

	if meta.Fingerprint != fingerprint {
		s.log.Info().Msg("catalog changed since embedding cache was built, rebuilding")
		return nil, nil, false
	}
	if meta.Model != s.embedder.ModelInfo() {
		s.log.Info().Str("cached", meta.Model).Str("configured", s.embedder.ModelInfo()).
			Msg("embedding model changed, rebuilding cache")
		return nil, nil, false
	}
	if meta.Dimension != s.embedder.Dimension() || meta.Count != s.cat.Len() {
		s.log.Warn().Msg("embedding cache dimension or count mismatch, rebuilding")
		return nil, nil, false
	}

	f, err := os.Open(filepath.Join(s.dir, matrixFile))
	if err != nil {
		return nil, nil, false
	}
	defer f.Close()

	var matrix [][]float32
	if err := gob.NewDecoder(f).Decode(&matrix); err != nil {
		s.log.Warn().Err(err).Msg("embedding cache matrix unreadable, rebuilding")
		return nil, nil, false
	}

	if len(matrix) != meta.Count {
		return nil, nil, false
	}
	for _, row := range matrix {
		if len(row) != meta.Dimension {
			return nil, nil, false
		}
	}

	return matrix, &meta, true
}

// build encodes every catalog row and persists the result. One-time cost on
// a cold cache.
func (s *Store) build(ctx context.Context, fingerprint string) ([][]float32, *Metadata, error) {
	s.log.Info().Int("count", s.cat.Len()).Str("model", s.embedder.ModelInfo()).
		Msg("building mouse embedding matrix")

	texts := make([]string, s.cat.Len())
	for i := range s.cat.Mice {
		texts[i] = encoder.MouseText(&s.cat.Mice[i])
	}

	matrix, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, nil, fmt.Errorf("building embedding matrix: %w", err)
	}

	for i, row := range matrix {
		if len(row) != s.embedder.Dimension() {
			return nil, nil, fmt.Errorf("embedding row %d has dimension %d, expected %d",
				i, len(row), s.embedder.Dimension())
		}
	}

	meta := &Metadata{
		Model:       s.embedder.ModelInfo(),
		Count:       len(matrix),
		Dimension:   s.embedder.Dimension(),
		Fingerprint: fingerprint,
	}

	if err := s.persist(matrix, meta); err != nil {
		// Persistence failure is not fatal: the freshly built matrix is
		// still usable for this process.
		s.log.Warn().Err(err).Msg("failed to persist embedding cache")
	}

	return matrix, meta, nil
}

// persist writes the matrix and then the metadata, each via a temp file
// and atomic rename. The metadata is written last so a crash mid-write
// never leaves a readable metadata record pointing at a partial matrix.
func (s *Store) persist(matrix [][]float32, meta *Metadata) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	matrixPath := filepath.Join(s.dir, matrixFile)
	f, err := os.Create(matrixPath + ".tmp")
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(matrix); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(matrixPath+".tmp", matrixPath); err != nil {
		return err
	}

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	metaPath := filepath.Join(s.dir, metaFile)
	if err := os.WriteFile(metaPath+".tmp", metaBytes, 0o644); err != nil {
		return err
	}
	return os.Rename(metaPath+".tmp", metaPath)
}
