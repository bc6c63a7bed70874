package vectorstore

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/encoder"
	"github.com/brandonyuanCS/periph4all/pkg/similarity"
)

const testCSV = `name,brand,price,weight,wireless,genre
Viper Mini,Razer,39.99,61,false,fps
G Pro X Superlight,Logitech,149.99,63,true,fps
Basilisk V3,Razer,69.99,101.5,false,general
`

// countingEmbedder wraps the hash embedder and counts embedding calls, so
// tests can assert that a cache hit never re-invokes the model.
type countingEmbedder struct {
	*encoder.HashEmbedder
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.HashEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(int64(len(texts)))
	return c.HashEmbedder.EmbedBatch(ctx, texts)
}

func loadTestCatalog(t *testing.T, csv string) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Read(strings.NewReader(csv))
	require.NoError(t, err)
	return c
}

func TestMatrix_BuildThenCacheHit(t *testing.T) {
	dir := t.TempDir()
	cat := loadTestCatalog(t, testCSV)
	emb := &countingEmbedder{HashEmbedder: encoder.NewHashEmbedder(64)}
	ctx := context.Background()

	store := New(cat, emb, dir, zerolog.Nop())
	matrix, meta, err := store.Matrix(ctx)
	require.NoError(t, err)
	require.Len(t, matrix, 3)
	assert.Equal(t, 3, meta.Count)
	assert.Equal(t, 64, meta.Dimension)
	assert.Equal(t, cat.Fingerprint(), meta.Fingerprint)
	assert.Equal(t, int64(3), emb.calls.Load())

	// A fresh store over the same files must load without re-embedding.
	emb2 := &countingEmbedder{HashEmbedder: encoder.NewHashEmbedder(64)}
	store2 := New(cat, emb2, dir, zerolog.Nop())
	matrix2, _, err := store2.Matrix(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), emb2.calls.Load(), "cache hit must not re-invoke the embedder")
	assert.Equal(t, matrix, matrix2)
}

func TestInvalidate_RevalidatesAgainstCacheFiles(t *testing.T) {
	dir := t.TempDir()
	cat := loadTestCatalog(t, testCSV)
	emb := &countingEmbedder{HashEmbedder: encoder.NewHashEmbedder(64)}
	ctx := context.Background()

	store := New(cat, emb, dir, zerolog.Nop())
	matrix, _, err := store.Matrix(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), emb.calls.Load())

	// Dropping the in-memory matrix falls back to the still-valid cache
	// files, not a rebuild.
	store.Invalidate()
	matrix2, _, err := store.Matrix(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), emb.calls.Load(), "valid cache files must satisfy the reload")
	assert.Equal(t, matrix, matrix2)
}

func TestMatrix_RowAlignment(t *testing.T) {
	dir := t.TempDir()
	cat := loadTestCatalog(t, testCSV)
	emb := encoder.NewHashEmbedder(64)
	ctx := context.Background()

	store := New(cat, emb, dir, zerolog.Nop())
	matrix, _, err := store.Matrix(ctx)
	require.NoError(t, err)

	// Row i must round-trip against a fresh encoding of catalog item i.
	for i := range cat.Mice {
		fresh, err := emb.Embed(ctx, encoder.MouseText(&cat.Mice[i]))
		require.NoError(t, err)
		assert.InDelta(t, 1.0, similarity.Cosine(matrix[i], fresh), 1e-5,
			"matrix row %d must be the embedding of catalog item %d", i, i)
	}
}

func TestMatrix_CatalogChangeForcesRebuild(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store := New(loadTestCatalog(t, testCSV), encoder.NewHashEmbedder(64), dir, zerolog.Nop())
	_, _, err := store.Matrix(ctx)
	require.NoError(t, err)

	altered := loadTestCatalog(t, strings.Replace(testCSV, "61", "59", 1))
	emb := &countingEmbedder{HashEmbedder: encoder.NewHashEmbedder(64)}
	store2 := New(altered, emb, dir, zerolog.Nop())
	_, meta, err := store2.Matrix(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), emb.calls.Load(), "changed catalog must force a rebuild")
	assert.Equal(t, altered.Fingerprint(), meta.Fingerprint)
}

func TestMatrix_ModelChangeForcesRebuild(t *testing.T) {
	dir := t.TempDir()
	cat := loadTestCatalog(t, testCSV)
	ctx := context.Background()

	_, _, err := New(cat, encoder.NewHashEmbedder(64), dir, zerolog.Nop()).Matrix(ctx)
	require.NoError(t, err)

	// Same catalog, different dimension: metadata must reject the cache.
	emb := &countingEmbedder{HashEmbedder: encoder.NewHashEmbedder(32)}
	_, meta, err := New(cat, emb, dir, zerolog.Nop()).Matrix(ctx)
	require.NoError(t, err)
	assert.Equal(t, 32, meta.Dimension)
	assert.Equal(t, int64(3), emb.calls.Load())
}

func TestMatrix_ConcurrentColdCallsBuildOnce(t *testing.T) {
	dir := t.TempDir()
	cat := loadTestCatalog(t, testCSV)
	emb := &countingEmbedder{HashEmbedder: encoder.NewHashEmbedder(64)}
	store := New(cat, emb, dir, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.Matrix(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(3), emb.calls.Load(), "concurrent cold calls must share one build")
}
