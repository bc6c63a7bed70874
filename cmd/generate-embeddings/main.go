// Command generate-embeddings builds the catalog embedding cache ahead
// of time so the API server starts warm. Safe to re-run: a valid cache
// is a no-op unless -force is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/config"
	"github.com/brandonyuanCS/periph4all/pkg/encoder"
	"github.com/brandonyuanCS/periph4all/pkg/vectorstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "generate-embeddings: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	force := flag.Bool("force", false, "rebuild even if a valid cache exists")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	if cat.Len() == 0 {
		return fmt.Errorf("dataset %s has no rows", cfg.Catalog.Path)
	}

	emb, err := encoder.NewOpenAIEmbedder(cfg.Embeddings.Model, cfg.Embeddings.Dimension, cfg.Embeddings.Timeout)
	if err != nil {
		return err
	}

	if *force {
		for _, name := range []string{"mouse_embeddings.gob", "mouse_embeddings_meta.json"} {
			if err := os.Remove(filepath.Join(cfg.Embeddings.CacheDir, name)); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}

	store := vectorstore.New(cat, emb, cfg.Embeddings.CacheDir, log)
	matrix, meta, err := store.Matrix(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Embedding cache ready: %d mice, model %s, dimension %d\n",
		len(matrix), meta.Model, meta.Dimension)
	fmt.Printf("Cache directory: %s\n", cfg.Embeddings.CacheDir)
	return nil
}
