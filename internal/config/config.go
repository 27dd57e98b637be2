package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	// 1inch API configuration
	Upstream UpstreamConfig

	// Cache tier configuration
	Cache CacheConfig

	// Redis configuration (only used with CACHE_BACKEND=redis)
	Redis RedisConfig

	// Aggregation pipeline configuration
	Aggregation AggregationConfig

	// API server configuration
	API APIConfig

	// Logging configuration
	Log LogConfig
}

// UpstreamConfig holds 1inch API connection and retry settings
type UpstreamConfig struct {
	APIKey         string        `envconfig:"INCH_API_KEY" default:""`
	BaseURL        string        `envconfig:"INCH_BASE_URL" default:"https://api.1inch.dev"`
	RequestTimeout time.Duration `envconfig:"UPSTREAM_REQUEST_TIMEOUT" default:"15s"`
	MaxAttempts    int           `envconfig:"UPSTREAM_MAX_ATTEMPTS" default:"5"`
	InitialBackoff time.Duration `envconfig:"UPSTREAM_INITIAL_BACKOFF" default:"1s"`
	MaxBackoff     time.Duration `envconfig:"UPSTREAM_MAX_BACKOFF" default:"16s"`

	// Candle period used for the latest close price (300, 900, 3600, 14400, 86400, 604800)
	PriceCandleSeconds int `envconfig:"PRICE_CANDLE_SECONDS" default:"3600"`

	// Quote token per chain id, prices are expressed in this token (USDC by default)
	QuoteTokens map[string]string `envconfig:"PRICE_QUOTE_TOKENS" default:"1:0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48,56:0x8ac76a51cc950d9822d68b83fe1ad97b32cd580d,137:0x3c499c542cef5e3811e1192ce70d8cc03d5c3359,42161:0xaf88d065e77c8cc2239327c5edb3a432268e5831,10:0x0b2c639c533813f4aa9d7837caf62653d097ff85,43114:0xb97ef9ef8734c71904d8002f8b6bc66dd9c48a6e,100:0xddafbb505ad214d7b80b1f830fccc89b60fb7a83,8453:0x833589fcd6edb6e08f4c7c32d4f71b54bda02913"`
}

// CacheConfig holds the cache tier settings
type CacheConfig struct {
	Backend     string        `envconfig:"CACHE_BACKEND" default:"memory"`
	BalanceTTL  time.Duration `envconfig:"CACHE_BALANCE_TTL" default:"2m"`
	PriceTTL    time.Duration `envconfig:"CACHE_PRICE_TTL" default:"30s"`
	MetadataTTL time.Duration `envconfig:"CACHE_METADATA_TTL" default:"1h"`
	MaxEntries  int           `envconfig:"CACHE_MAX_ENTRIES" default:"10000"`
	LoadTimeout time.Duration `envconfig:"CACHE_LOAD_TIMEOUT" default:"30s"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host      string `envconfig:"REDIS_HOST" default:"localhost"`
	Port      int    `envconfig:"REDIS_PORT" default:"6379"`
	Password  string `envconfig:"REDIS_PASSWORD" default:""`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"wallet-proxy:"`
}

// AggregationConfig holds the fan-out and deadline settings of the wallet pipeline
type AggregationConfig struct {
	DetailBatchSize  int           `envconfig:"DETAIL_BATCH_SIZE" default:"5"`
	DetailBatchDelay time.Duration `envconfig:"DETAIL_BATCH_DELAY" default:"1s"`
	PriceBatchSize   int           `envconfig:"PRICE_BATCH_SIZE" default:"5"`
	PriceBatchDelay  time.Duration `envconfig:"PRICE_BATCH_DELAY" default:"1s"`
	RequestTimeout   time.Duration `envconfig:"AGGREGATION_REQUEST_TIMEOUT" default:"10s"`

	// Chains accepted by the tokens endpoint, empty accepts any numeric chain id
	SupportedChains []string `envconfig:"SUPPORTED_CHAINS" default:"1,56,137,42161,10,43114,100,8453"`
}

// APIConfig holds API server settings
type APIConfig struct {
	Host            string        `envconfig:"API_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"PORT" default:"3000"`
	AllowedOrigin   string        `envconfig:"FRONTEND_URL" default:"http://localhost:8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       int           `envconfig:"API_RATE_LIMIT" default:"20"`
	RateLimitWindow time.Duration `envconfig:"API_RATE_LIMIT_WINDOW" default:"1s"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	if c.Upstream.MaxAttempts < 1 {
		return fmt.Errorf("UPSTREAM_MAX_ATTEMPTS must be at least 1, got %d", c.Upstream.MaxAttempts)
	}
	if c.Aggregation.DetailBatchSize < 1 || c.Aggregation.PriceBatchSize < 1 {
		return fmt.Errorf("batch sizes must be at least 1")
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be at least 1, got %d", c.Cache.MaxEntries)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}
	return nil
}

// Addr returns the Redis address
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
