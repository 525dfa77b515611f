package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wildanrfq/filmbro/internal/config"
	"github.com/wildanrfq/filmbro/internal/metrics"
	"github.com/wildanrfq/filmbro/internal/scraper"
)

const requestTimeout = 60 * time.Second

// Lookup is the service surface the handlers depend on.
type Lookup interface {
	Film(ctx context.Context, title string) (scraper.FilmResult, error)
	Profile(ctx context.Context, username string) (scraper.ProfileResult, error)
	Diary(ctx context.Context, username string) (scraper.DiaryPage, error)
	Posters(ctx context.Context, title string, year int) (scraper.ImageSet, error)
	Backdrops(ctx context.Context, title string, year int) (scraper.ImageSet, error)
	Roulette(ctx context.Context) (scraper.FilmResult, error)
	CacheStats() map[string]int
}

// IDGenerator issues request IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Server wires HTTP handlers to the lookup service.
type Server struct {
	router chi.Router
	lookup Lookup
	idGen  IDGenerator
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(lookup Lookup, idGen IDGenerator, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		lookup: lookup,
		idGen:  idGen,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware(idGen))
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
		}
		r.Route("/films/{title}", s.filmRoutes)
		r.Route("/film", s.filmRoutes)
		r.Route("/profiles/{username}", func(r chi.Router) {
			r.Get("/", s.getProfile)
			r.Get("/diary", s.getDiary)
		})
		r.Get("/roulette", s.getRoulette)
		r.Get("/cache", s.getCacheStats)
	})

	s.router = r
	return s
}

func (s *Server) filmRoutes(r chi.Router) {
	r.Get("/", s.getFilm)
	r.Get("/posters", s.getImages(scraper.ImagePosters))
	r.Get("/backdrops", s.getImages(scraper.ImageBackdrops))
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// Caches are in-memory and upstreams are probed lazily.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
