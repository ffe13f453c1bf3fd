package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvRedisURL               = "ADDRSPLIT_REDIS_URL"
	EnvRedisRateLimitRequests = "ADDRSPLIT_REDIS_RATE_LIMIT_REQUESTS"
	EnvRedisRateLimitWindow   = "ADDRSPLIT_REDIS_RATE_LIMIT_WINDOW"
	EnvRedisModelCacheTTL     = "ADDRSPLIT_REDIS_MODEL_CACHE_TTL"
)

// RedisConfig holds the Redis connection used for per-user rate limiting
// and the model catalog cache. An empty URL disables both.
type RedisConfig struct {
	URL               string `toml:"url"`
	RateLimitRequests int    `toml:"rate_limit_requests"`
	RateLimitWindow   string `toml:"rate_limit_window"`
	ModelCacheTTL     string `toml:"model_cache_ttl"`
}

// Enabled reports whether a Redis URL is configured.
func (c *RedisConfig) Enabled() bool {
	return c.URL != ""
}

// RateLimitWindowDuration returns RateLimitWindow as a time.Duration.
func (c *RedisConfig) RateLimitWindowDuration() time.Duration {
	return duration(c.RateLimitWindow)
}

// ModelCacheTTLDuration returns ModelCacheTTL as a time.Duration.
func (c *RedisConfig) ModelCacheTTLDuration() time.Duration {
	return duration(c.ModelCacheTTL)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *RedisConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *RedisConfig) Merge(overlay *RedisConfig) {
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.RateLimitRequests != 0 {
		c.RateLimitRequests = overlay.RateLimitRequests
	}
	if overlay.RateLimitWindow != "" {
		c.RateLimitWindow = overlay.RateLimitWindow
	}
	if overlay.ModelCacheTTL != "" {
		c.ModelCacheTTL = overlay.ModelCacheTTL
	}
}

func (c *RedisConfig) loadDefaults() {
	if c.RateLimitRequests == 0 {
		c.RateLimitRequests = 30
	}
	if c.RateLimitWindow == "" {
		c.RateLimitWindow = "1m"
	}
	if c.ModelCacheTTL == "" {
		c.ModelCacheTTL = "1h"
	}
}

func (c *RedisConfig) loadEnv() {
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.URL = v
	}
	if v := os.Getenv(EnvRedisRateLimitRequests); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateLimitRequests = n
		}
	}
	if v := os.Getenv(EnvRedisRateLimitWindow); v != "" {
		c.RateLimitWindow = v
	}
	if v := os.Getenv(EnvRedisModelCacheTTL); v != "" {
		c.ModelCacheTTL = v
	}
}

func (c *RedisConfig) validate() error {
	if c.RateLimitRequests < 1 {
		return fmt.Errorf("rate_limit_requests must be positive")
	}
	if err := parseDuration("rate_limit_window", c.RateLimitWindow); err != nil {
		return err
	}
	return parseDuration("model_cache_ttl", c.ModelCacheTTL)
}
