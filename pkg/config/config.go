// Package config loads layered service configuration: struct defaults
// first, then environment variables on top. Secrets (API keys) stay in
// the environment and are read where they are used, never stored here.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "PERIPH4ALL_"

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Chat       ChatConfig       `koanf:"chat"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Projection ProjectionConfig `koanf:"projection"`
	Graph      GraphConfig      `koanf:"graph"`
	Logging    LoggingConfig    `koanf:"logging"`
}

type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout     time.Duration `koanf:"timeout" validate:"min=1s"`
	CORSOrigins []string      `koanf:"cors_origins"`
}

type CatalogConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type EmbeddingsConfig struct {
	Model     string        `koanf:"model" validate:"required"`
	Dimension int           `koanf:"dimension" validate:"min=1"`
	CacheDir  string        `koanf:"cache_dir" validate:"required"`
	Timeout   time.Duration `koanf:"timeout" validate:"min=1s"`
}

type ChatConfig struct {
	Enabled bool          `koanf:"enabled"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`
}

type RecommendConfig struct {
	TopK int `koanf:"top_k" validate:"min=1"`
}

type ProjectionConfig struct {
	Neighbors int     `koanf:"neighbors" validate:"min=2"`
	MinDist   float64 `koanf:"min_dist" validate:"gt=0"`
	Epochs    int     `koanf:"epochs" validate:"min=1"`
	Seed      int64   `koanf:"seed"`
}

type GraphConfig struct {
	DefaultNeighbors int `koanf:"default_neighbors" validate:"min=1"`
	MaxNeighbors     int `koanf:"max_neighbors" validate:"min=1"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			Timeout:     30 * time.Second,
			CORSOrigins: []string{"*"},
		},
		Catalog: CatalogConfig{
			Path: "data/mouse_data.csv",
		},
		Embeddings: EmbeddingsConfig{
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			CacheDir:  "data/cache",
			Timeout:   30 * time.Second,
		},
		Chat: ChatConfig{
			Enabled: true,
			Model:   "gpt-4o-mini",
			Timeout: 30 * time.Second,
		},
		Recommend: RecommendConfig{
			TopK: 3,
		},
		Projection: ProjectionConfig{
			Neighbors: 15,
			MinDist:   0.1,
			Epochs:    200,
			Seed:      42,
		},
		Graph: GraphConfig{
			DefaultNeighbors: 5,
			MaxNeighbors:     20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults plus PERIPH4ALL_-prefixed
// environment variables, then validates it.
//
//	PERIPH4ALL_SERVER_PORT=9000        -> server.port
//	PERIPH4ALL_EMBEDDINGS_MODEL=...    -> embeddings.model
//	PERIPH4ALL_LOGGING_LEVEL=debug     -> logging.level
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if origins := k.Get("server.cors_origins"); origins != nil {
		if s, ok := origins.(string); ok {
			if err := k.Set("server.cors_origins", splitCSV(s)); err != nil {
				return nil, fmt.Errorf("parse cors origins: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// envTransform maps PERIPH4ALL_SECTION_KEY to section.key. Only known
// keys map; anything else is dropped so stray environment variables
// cannot pollute the configuration.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

	mappings := map[string]string{
		"server_host":         "server.host",
		"server_port":         "server.port",
		"server_timeout":      "server.timeout",
		"server_cors_origins": "server.cors_origins",

		"catalog_path": "catalog.path",

		"embeddings_model":     "embeddings.model",
		"embeddings_dimension": "embeddings.dimension",
		"embeddings_cache_dir": "embeddings.cache_dir",
		"embeddings_timeout":   "embeddings.timeout",

		"chat_enabled": "chat.enabled",
		"chat_model":   "chat.model",
		"chat_timeout": "chat.timeout",

		"recommend_top_k": "recommend.top_k",

		"projection_neighbors": "projection.neighbors",
		"projection_min_dist":  "projection.min_dist",
		"projection_epochs":    "projection.epochs",
		"projection_seed":      "projection.seed",

		"graph_default_neighbors": "graph.default_neighbors",
		"graph_max_neighbors":     "graph.max_neighbors",

		"logging_level":  "logging.level",
		"logging_format": "logging.format",
	}

	if mapped, ok := mappings[key]; ok {
		return mapped
	}
	return ""
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
