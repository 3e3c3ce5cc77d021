// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// LookupConfig provides settings for the postcode lookup engine.
type LookupConfig interface {
	GetPostcodesAPIURL() string
	GetPostcodesOrigin() string
	GetUpstreamTimeout() time.Duration
	GetBreakerMaxRequests() uint32
	GetBreakerInterval() time.Duration
	GetBreakerTimeout() time.Duration
	GetBreakerFailureRatio() float64
	GetBreakerMinRequests() uint32
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// RateLimitConfig provides settings for the per-IP lookup rate limiter.
type RateLimitConfig interface {
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	PostcodesAPIURL     string
	PostcodesOrigin     string
	UpstreamTimeout     time.Duration
	BreakerMaxRequests  uint32
	BreakerInterval     time.Duration
	BreakerTimeout      time.Duration
	BreakerFailureRatio float64
	BreakerMinRequests  uint32
	CORSAllowAll        bool
	CORSOrigins         []string
	RateLimitRPS        float64
	RateLimitBurst      int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// LookupConfig implementation
func (c *Config) GetPostcodesAPIURL() string        { return c.PostcodesAPIURL }
func (c *Config) GetPostcodesOrigin() string        { return c.PostcodesOrigin }
func (c *Config) GetUpstreamTimeout() time.Duration { return c.UpstreamTimeout }
func (c *Config) GetBreakerMaxRequests() uint32     { return c.BreakerMaxRequests }
func (c *Config) GetBreakerInterval() time.Duration { return c.BreakerInterval }
func (c *Config) GetBreakerTimeout() time.Duration  { return c.BreakerTimeout }
func (c *Config) GetBreakerFailureRatio() float64   { return c.BreakerFailureRatio }
func (c *Config) GetBreakerMinRequests() uint32     { return c.BreakerMinRequests }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// RateLimitConfig implementation
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		PostcodesAPIURL:     strings.TrimSpace(getEnv("POSTCODES_API_URL", "")),
		PostcodesOrigin:     strings.TrimRight(strings.TrimSpace(getEnv("POSTCODES_ORIGIN", "")), "/"),
		UpstreamTimeout:     mustDuration(getEnv("POSTCODES_UPSTREAM_TIMEOUT", "0s")),
		BreakerMaxRequests:  uint32(mustInt64(getEnv("POSTCODES_BREAKER_MAX_REQUESTS", "1"))),
		BreakerInterval:     mustDuration(getEnv("POSTCODES_BREAKER_INTERVAL", "60s")),
		BreakerTimeout:      mustDuration(getEnv("POSTCODES_BREAKER_TIMEOUT", "30s")),
		BreakerFailureRatio: mustFloat64(getEnv("POSTCODES_BREAKER_FAILURE_RATIO", "0.5")),
		BreakerMinRequests:  uint32(mustInt64(getEnv("POSTCODES_BREAKER_MIN_REQUESTS", "5"))),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		RateLimitRPS:        mustFloat64(getEnv("RATE_LIMIT_RPS", "5")),
		RateLimitBurst:      int(mustInt64(getEnv("RATE_LIMIT_BURST", "10"))),
	}

	if cfg.PostcodesAPIURL == "" {
		return nil, fmt.Errorf("POSTCODES_API_URL is required")
	}
	if !strings.HasPrefix(cfg.PostcodesAPIURL, "http") && cfg.PostcodesOrigin == "" {
		return nil, fmt.Errorf("POSTCODES_ORIGIN is required when POSTCODES_API_URL is relative")
	}
	if cfg.PostcodesOrigin != "" {
		if u, err := url.Parse(cfg.PostcodesOrigin); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("POSTCODES_ORIGIN must be an absolute origin like https://example.com")
		}
	}
	if cfg.BreakerFailureRatio <= 0 || cfg.BreakerFailureRatio > 1 {
		return nil, fmt.Errorf("POSTCODES_BREAKER_FAILURE_RATIO must be in (0, 1]")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat64(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
