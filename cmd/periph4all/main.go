// Command periph4all serves the gaming mouse recommendation API: a
// preference-elicitation chat, embedding-based ranking, a 2D map of the
// catalog and a similarity graph.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/brandonyuanCS/periph4all/pkg/api"
	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/chat"
	"github.com/brandonyuanCS/periph4all/pkg/config"
	"github.com/brandonyuanCS/periph4all/pkg/encoder"
	"github.com/brandonyuanCS/periph4all/pkg/projection"
	"github.com/brandonyuanCS/periph4all/pkg/recommend"
	"github.com/brandonyuanCS/periph4all/pkg/vectorstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "periph4all: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; the environment itself always wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	log.Info().Int("count", cat.Len()).Str("path", cfg.Catalog.Path).Msg("catalog loaded")

	emb, err := encoder.NewOpenAIEmbedder(cfg.Embeddings.Model, cfg.Embeddings.Dimension, cfg.Embeddings.Timeout)
	if err != nil {
		return fmt.Errorf("initializing embedder: %w", err)
	}

	store := vectorstore.New(cat, emb, cfg.Embeddings.CacheDir, log)
	rec := recommend.New(cat, store, emb, log)
	if cfg.Chat.Enabled {
		if phraser, err := recommend.NewOpenAIPhraser(cfg.Chat.Model, cfg.Chat.Timeout); err == nil {
			rec = rec.WithPhraser(phraser)
		}
	}

	projCfg := projection.DefaultConfig()
	projCfg.NNeighbors = cfg.Projection.Neighbors
	projCfg.MinDist = cfg.Projection.MinDist
	projCfg.NEpochs = cfg.Projection.Epochs
	projCfg.Seed = cfg.Projection.Seed
	proj := projection.NewEngine(cat, store, projCfg, log)

	chatSvc := buildChatService(cfg, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewServer(cfg, log, cat, store, emb, rec, proj, chatSvc).Router(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildChatService wires the conversation layer. Without credentials the
// scripted flow still runs; a model only improves the experience.
func buildChatService(cfg *config.Config, log zerolog.Logger) *chat.Service {
	if !cfg.Chat.Enabled {
		log.Info().Msg("chat disabled by configuration")
		return nil
	}

	llm, err := chat.NewLLMExtractor(cfg.Chat.Model, cfg.Chat.Timeout)
	if err != nil {
		if errors.Is(err, chat.ErrNoAPIKey) {
			log.Warn().Msg("no API key configured, chat runs in scripted mode")
		} else {
			log.Warn().Err(err).Msg("model unavailable, chat runs in scripted mode")
		}
		return chat.NewService(nil, log)
	}

	log.Info().Str("model", cfg.Chat.Model).Msg("chat model configured")
	return chat.NewService(llm, log)
}

func newLogger(cfg config.LoggingConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parsing log level: %w", err)
	}

	var out = os.Stderr
	log := zerolog.New(out)
	if cfg.Format == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return log.Level(level).With().Timestamp().Logger(), nil
}
