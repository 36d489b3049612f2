package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// Limiter throttles POST /api/analyze. Nil disables rate limiting.
	Limiter Limiter
}

func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(h.NotFound)
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		analyze := r.With()
		if cfg.Limiter != nil {
			analyze = r.With(RateLimit(cfg.Limiter, h.logger))
		}
		analyze.Post("/analyze", h.Analyze)

		r.Get("/market-data/{make}/{model}", h.MarketData)
		r.Get("/cache/stats", h.CacheStats)
		r.Delete("/cache", h.ClearCache)

		if h.deps.History != nil {
			r.Get("/analyses", h.ListAnalyses)
		}
		if h.deps.Fetcher != nil && h.deps.Extractor != nil {
			r.Post("/debug-scrape", h.DebugScrape)
		}
	})

	return r
}
