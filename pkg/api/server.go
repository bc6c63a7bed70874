// Package api exposes the recommendation engine over HTTP: conversation,
// ranked recommendations, the 2D embedding map and the similarity graph.
// Scores are clamped to [0,1] and graph node identifiers are formatted at
// this boundary; the packages underneath work with raw indices and raw
// cosine values.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/brandonyuanCS/periph4all/pkg/catalog"
	"github.com/brandonyuanCS/periph4all/pkg/chat"
	"github.com/brandonyuanCS/periph4all/pkg/config"
	"github.com/brandonyuanCS/periph4all/pkg/encoder"
	"github.com/brandonyuanCS/periph4all/pkg/projection"
	"github.com/brandonyuanCS/periph4all/pkg/recommend"
	"github.com/brandonyuanCS/periph4all/pkg/vectorstore"
)

var validate = validator.New()

// Server bundles the request handlers and their dependencies.
type Server struct {
	cfg   *config.Config
	log   zerolog.Logger
	cat   *catalog.Catalog
	store *vectorstore.Store
	emb   encoder.Embedder
	rec   *recommend.Recommender
	proj  *projection.Engine
	chat  *chat.Service
}

func NewServer(
	cfg *config.Config,
	log zerolog.Logger,
	cat *catalog.Catalog,
	store *vectorstore.Store,
	emb encoder.Embedder,
	rec *recommend.Recommender,
	proj *projection.Engine,
	chatSvc *chat.Service,
) *Server {
	return &Server{
		cfg:   cfg,
		log:   log,
		cat:   cat,
		store: store,
		emb:   emb,
		rec:   rec,
		proj:  proj,
		chat:  chatSvc,
	}
}

// Router builds the chi router with the full middleware stack and all
// versioned routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.Server.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/chat/reset", s.handleChatReset)
		r.Post("/recommendations", s.handleRecommendations)
		r.Post("/recommendations/quick", s.handleQuickRecommendations)
		r.Get("/visualizations/embedding-space", s.handleEmbeddingSpace)
		r.Post("/visualizations/embedding-space-with-user", s.handleEmbeddingSpaceWithUser)
		r.Post("/visualizations/graph-data", s.handleGraphData)
	})

	return r
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
