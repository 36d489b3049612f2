package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/maltedev/car-deal-analyzer/internal/analysis"
	"github.com/maltedev/car-deal-analyzer/internal/api"
	"github.com/maltedev/car-deal-analyzer/internal/assist"
	"github.com/maltedev/car-deal-analyzer/internal/browser"
	"github.com/maltedev/car-deal-analyzer/internal/cache"
	"github.com/maltedev/car-deal-analyzer/internal/config"
	"github.com/maltedev/car-deal-analyzer/internal/database"
	"github.com/maltedev/car-deal-analyzer/internal/events"
	"github.com/maltedev/car-deal-analyzer/internal/fetch"
	"github.com/maltedev/car-deal-analyzer/internal/jitter"
	"github.com/maltedev/car-deal-analyzer/internal/market"
	"github.com/maltedev/car-deal-analyzer/internal/models"
	"github.com/maltedev/car-deal-analyzer/internal/parser"
	"github.com/maltedev/car-deal-analyzer/internal/ratelimit"
	"github.com/maltedev/car-deal-analyzer/internal/scoring"
	"github.com/maltedev/car-deal-analyzer/internal/scraper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
	}

	// Fetchers, most capable first
	chain := fetch.NewChain(logger).SetTimeout(cfg.Scraper.FetchTimeout)
	if cfg.Scraper.ZyteAPIKey != "" {
		chain.Add("zyte", fetch.NewZyteFetcher(cfg.Scraper.ZyteAPIKey, cfg.Scraper.ZyteEndpoint, cfg.Scraper.FetchTimeout))
	}
	if cfg.Browser.Enabled {
		opts := browser.DefaultOptions()
		opts.Headless = cfg.Browser.Headless
		opts.Timeout = cfg.Browser.Timeout
		opts.ProxyServer = cfg.Browser.Proxy

		b, err := browser.New(opts, logger)
		if err != nil {
			logger.Error("failed to initialize browser", "error", err)
			os.Exit(1)
		}
		defer b.Close()

		chain.Add("browser", fetch.NewBrowserFetcher(b))
	}
	httpOpts := fetch.DefaultHTTPOptions()
	httpOpts.Timeout = cfg.Scraper.FetchTimeout
	httpOpts.MaxRedirects = cfg.Scraper.MaxRedirects
	if cfg.Scraper.UserAgent != "" {
		httpOpts.UserAgent = cfg.Scraper.UserAgent
	}
	chain.Add("http", fetch.NewHTTPFetcher(httpOpts))

	var assistant scraper.Assistant
	if cfg.AI.Enabled() {
		a, err := assist.NewFromConfig(assist.Config{
			Provider: cfg.AI.Provider,
			APIKey:   cfg.AI.APIKey,
			BaseURL:  cfg.AI.BaseURL,
			Model:    cfg.AI.Model,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize AI assistant", "error", err)
			os.Exit(1)
		}
		assistant = a
	}

	rnd := jitter.NewSource(cfg.Scraper.RandomSeed)

	extractor := scraper.NewService(chain, parser.NewCarParser(), scraper.Options{
		RequireListingURL: cfg.Scraper.RequireListingURL,
		Assistant:         assistant,
		Rand:              rnd,
	}, logger)

	var (
		analysisCache cache.Cache[*models.DealAnalysis]
		marketCache   cache.Cache[*models.MarketComparison]
	)
	switch cfg.Cache.Backend {
	case "redis":
		analysisCache = cache.NewRedis[*models.DealAnalysis](redisClient, cfg.Cache.KeyPrefix+"analysis:", cfg.Cache.AnalysisTTL, logger)
		marketCache = cache.NewRedis[*models.MarketComparison](redisClient, cfg.Cache.KeyPrefix+"market:", cfg.Cache.MarketTTL, logger)
	default:
		analysisCache = cache.NewTTL[*models.DealAnalysis](cfg.Cache.AnalysisTTL, cfg.Cache.MaxEntries)
		marketCache = cache.NewTTL[*models.MarketComparison](cfg.Cache.MarketTTL, cfg.Cache.MaxEntries)
	}

	marketService := market.NewService(
		market.NewAPIProviders(cfg.Market.APIKeys(), cfg.Market.Timeout),
		market.NewFixtureProvider(rnd),
		marketCache,
		logger,
	)

	deps := api.Deps{Fetcher: chain, Extractor: extractor}

	var recorder analysis.Recorder
	if cfg.Database.Enabled {
		db, err := database.New(ctx, database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.MaxConns,
		})
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}

		recorder = events.NewPublisher(db, cfg.Events.Stream, logger)
		outbox := database.NewOutboxRepository(db)
		deps.History = database.NewHistoryRepository(db)
		deps.Outbox = outbox

		publisher, err := newStreamPublisher(cfg.Events, redisClient)
		if err != nil {
			logger.Error("failed to initialize event sink", "error", err)
			os.Exit(1)
		}
		if publisher != nil {
			defer publisher.Close()

			relay := database.NewRelay(outbox, publisher, logger, database.RelayConfig{
				PollInterval: cfg.Events.PollInterval,
				BatchSize:    cfg.Events.BatchSize,
			})
			go func() {
				if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("relay stopped with error", "error", err)
				}
			}()
		}
	}

	deps.Analyzer = analysis.NewService(extractor, marketService, scoring.New(), analysisCache, recorder, logger)

	routerCfg := api.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if cfg.RateLimit.Enabled {
		routerCfg.Limiter = ratelimit.NewKeyedLimiter(cfg.RateLimit.Points, cfg.RateLimit.Window)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(api.NewHandlers(deps, logger), routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.WriteTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting",
		"port", cfg.Server.Port,
		"fetchers", chain.Len(),
		"cache", cfg.Cache.Backend,
		"ai", cfg.AI.Provider,
		"database", cfg.Database.Enabled,
	)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// newStreamPublisher returns nil when events stay in the outbox.
func newStreamPublisher(cfg config.EventsConfig, redisClient *redis.Client) (database.StreamPublisher, error) {
	switch cfg.Sink {
	case "redis":
		if redisClient == nil {
			return nil, errors.New("redis sink requires a Redis client")
		}
		return database.NewRedisStreamPublisher(redisClient), nil
	case "kafka":
		return database.NewKafkaPublisher(database.NewKafkaWriter(cfg.KafkaAddr, cfg.KafkaTopic)), nil
	default:
		return nil, nil
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
