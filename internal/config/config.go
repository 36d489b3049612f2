package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	maxFetchTimeout = 30 * time.Second
	maxRedirects    = 5
)

type Config struct {
	Server    ServerConfig
	Scraper   ScraperConfig
	Browser   BrowserConfig
	AI        AIConfig
	Market    MarketConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Events    EventsConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type ScraperConfig struct {
	RequireListingURL bool
	FetchTimeout      time.Duration
	MaxRedirects      int
	UserAgent         string
	ZyteAPIKey        string
	ZyteEndpoint      string
	// RandomSeed makes synthetic prices reproducible. Zero seeds from the clock.
	RandomSeed int64
}

type BrowserConfig struct {
	Enabled  bool
	Headless bool
	Timeout  time.Duration
	Proxy    string
}

type AIConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

func (c AIConfig) Enabled() bool {
	return c.Provider != ""
}

type MarketConfig struct {
	KBBAPIKey      string
	NADAAPIKey     string
	EdmundsAPIKey  string
	CarGurusAPIKey string
	Timeout        time.Duration
}

// APIKeys maps pricing API names to their configured keys.
func (c MarketConfig) APIKeys() map[string]string {
	return map[string]string{
		"kbb":      c.KBBAPIKey,
		"nada":     c.NADAAPIKey,
		"edmunds":  c.EdmundsAPIKey,
		"cargurus": c.CarGurusAPIKey,
	}
}

type CacheConfig struct {
	Backend     string
	AnalysisTTL time.Duration
	MarketTTL   time.Duration
	MaxEntries  int
	KeyPrefix   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

type EventsConfig struct {
	Sink         string
	Stream       string
	KafkaAddr    string
	KafkaTopic   string
	PollInterval time.Duration
	BatchSize    int
}

type RateLimitConfig struct {
	Enabled bool
	Points  int
	Window  time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads the configuration from the environment, after merging a .env
// file from the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getIntOrDefault("SERVER_PORT", 3001),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 90*time.Second),
			RequestTimeout:  getDurationOrDefault("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
		Scraper: ScraperConfig{
			RequireListingURL: getBoolOrDefault("SCRAPER_REQUIRE_LISTING_URL", true),
			FetchTimeout:      getDurationOrDefault("SCRAPER_FETCH_TIMEOUT", 15*time.Second),
			MaxRedirects:      getIntOrDefault("SCRAPER_MAX_REDIRECTS", maxRedirects),
			UserAgent:         getEnvOrDefault("SCRAPER_USER_AGENT", ""),
			ZyteAPIKey:        getEnvOrDefault("ZYTE_API_KEY", ""),
			ZyteEndpoint:      getEnvOrDefault("ZYTE_ENDPOINT", ""),
			RandomSeed:        int64(getIntOrDefault("SCRAPER_RANDOM_SEED", 0)),
		},
		Browser: BrowserConfig{
			Enabled:  getBoolOrDefault("BROWSER_ENABLED", false),
			Headless: getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:  getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			Proxy:    getEnvOrDefault("BROWSER_PROXY", ""),
		},
		AI: AIConfig{
			Provider: strings.ToLower(getEnvOrDefault("AI_PROVIDER", "")),
			APIKey:   getEnvOrDefault("AI_API_KEY", os.Getenv("OPENAI_API_KEY")),
			BaseURL:  getEnvOrDefault("AI_BASE_URL", ""),
			Model:    getEnvOrDefault("AI_MODEL", ""),
		},
		Market: MarketConfig{
			KBBAPIKey:      getEnvOrDefault("KBB_API_KEY", ""),
			NADAAPIKey:     getEnvOrDefault("NADA_API_KEY", ""),
			EdmundsAPIKey:  getEnvOrDefault("EDMUNDS_API_KEY", ""),
			CarGurusAPIKey: getEnvOrDefault("CARGURUS_API_KEY", ""),
			Timeout:        getDurationOrDefault("MARKET_API_TIMEOUT", 5*time.Second),
		},
		Cache: CacheConfig{
			Backend:     strings.ToLower(getEnvOrDefault("CACHE_BACKEND", "memory")),
			AnalysisTTL: getDurationOrDefault("CACHE_ANALYSIS_TTL", 60*time.Minute),
			MarketTTL:   getDurationOrDefault("CACHE_MARKET_TTL", 30*time.Minute),
			MaxEntries:  getIntOrDefault("CACHE_MAX_ENTRIES", 1000),
			KeyPrefix:   getEnvOrDefault("CACHE_KEY_PREFIX", "deal-analyzer:"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolOrDefault("DB_ENABLED", false),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "deal_analyzer"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 10)),
		},
		Events: EventsConfig{
			Sink:         strings.ToLower(getEnvOrDefault("EVENTS_SINK", "redis")),
			Stream:       getEnvOrDefault("EVENTS_STREAM", "stream:deal_analysis"),
			KafkaAddr:    getEnvOrDefault("KAFKA_ADDR", "localhost:9092"),
			KafkaTopic:   getEnvOrDefault("KAFKA_TOPIC", "deal_analysis"),
			PollInterval: getDurationOrDefault("EVENTS_POLL_INTERVAL", 5*time.Second),
			BatchSize:    getIntOrDefault("EVENTS_BATCH_SIZE", 100),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolOrDefault("RATE_LIMIT_ENABLED", true),
			Points:  getIntOrDefault("RATE_LIMIT_POINTS", 10),
			Window:  getDurationOrDefault("RATE_LIMIT_WINDOW", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Scraper.FetchTimeout <= 0 || c.Scraper.FetchTimeout > maxFetchTimeout {
		return fmt.Errorf("SCRAPER_FETCH_TIMEOUT must be between 0 and %s", maxFetchTimeout)
	}

	if c.Browser.Timeout <= 0 || c.Browser.Timeout > maxFetchTimeout {
		return fmt.Errorf("BROWSER_TIMEOUT must be between 0 and %s", maxFetchTimeout)
	}

	if c.Scraper.MaxRedirects < 0 || c.Scraper.MaxRedirects > maxRedirects {
		return fmt.Errorf("SCRAPER_MAX_REDIRECTS must be between 0 and %d", maxRedirects)
	}

	if c.Cache.AnalysisTTL <= 0 || c.Cache.MarketTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}

	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}

	switch c.AI.Provider {
	case "", "openai", "ollama":
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AI.Provider)
	}

	if c.AI.Provider == "openai" && c.AI.APIKey == "" {
		return fmt.Errorf("AI_API_KEY is required for the openai provider")
	}

	if c.Database.Enabled {
		switch c.Events.Sink {
		case "redis", "kafka", "none":
		default:
			return fmt.Errorf("unknown EVENTS_SINK %q", c.Events.Sink)
		}
		if c.Events.BatchSize < 1 {
			return fmt.Errorf("EVENTS_BATCH_SIZE must be at least 1")
		}
	}

	if c.RateLimit.Enabled && (c.RateLimit.Points < 1 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("RATE_LIMIT_POINTS and RATE_LIMIT_WINDOW must be positive")
	}

	if c.RateLimit.Enabled && c.RateLimit.Window < time.Duration(c.RateLimit.Points) {
		return fmt.Errorf("RATE_LIMIT_WINDOW must allow at least 1ns per point")
	}

	return nil
}

// UsesRedis reports whether any enabled component needs a Redis client.
func (c *Config) UsesRedis() bool {
	return c.Cache.Backend == "redis" || (c.Database.Enabled && c.Events.Sink == "redis")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
