// Package config loads the addrsplit service configuration from TOML with
// environment overlays and ADDRSPLIT_* variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/addrsplit/pkg/auth"
	"github.com/JaimeStill/addrsplit/pkg/database"
	"github.com/JaimeStill/addrsplit/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvAddrsplitEnv             = "ADDRSPLIT_ENV"
	EnvAddrsplitShutdownTimeout = "ADDRSPLIT_SHUTDOWN_TIMEOUT"
	EnvAddrsplitVersion         = "ADDRSPLIT_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "ADDRSPLIT_DB_HOST",
	Port:            "ADDRSPLIT_DB_PORT",
	Name:            "ADDRSPLIT_DB_NAME",
	User:            "ADDRSPLIT_DB_USER",
	Password:        "ADDRSPLIT_DB_PASSWORD",
	SSLMode:         "ADDRSPLIT_DB_SSL_MODE",
	MaxOpenConns:    "ADDRSPLIT_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "ADDRSPLIT_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "ADDRSPLIT_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "ADDRSPLIT_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "ADDRSPLIT_STORAGE_CONTAINER_NAME",
	ConnectionString: "ADDRSPLIT_STORAGE_CONNECTION_STRING",
	AccountURL:       "ADDRSPLIT_STORAGE_ACCOUNT_URL",
}

var authEnv = &auth.Env{
	Issuer:        "ADDRSPLIT_AUTH_ISSUER",
	JWKSURL:       "ADDRSPLIT_AUTH_JWKS_URL",
	ClientID:      "ADDRSPLIT_AUTH_CLIENT_ID",
	AudienceCheck: "ADDRSPLIT_AUTH_AUDIENCE_CHECK",
	DevSubject:    "ADDRSPLIT_AUTH_DEV_SUBJECT",
}

// Config is the root configuration for the addrsplit service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Auth            auth.Config     `toml:"auth"`
	Redis           RedisConfig     `toml:"redis"`
	AWS             AWSConfig       `toml:"aws"`
	Store           StoreConfig     `toml:"store"`
	Pipelines       PipelinesConfig `toml:"pipelines"`
	Geonames        GeonamesConfig  `toml:"geonames"`
	Pricing         PricingConfig   `toml:"pricing"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the ADDRSPLIT_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAddrsplitEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile is Load with an explicit base file. The overlay is resolved
// relative to the working directory.
func LoadFile(base string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Auth.Merge(&overlay.Auth)
	c.Redis.Merge(&overlay.Redis)
	c.AWS.Merge(&overlay.AWS)
	c.Store.Merge(&overlay.Store)
	c.Pipelines.Merge(&overlay.Pipelines)
	c.Geonames.Merge(&overlay.Geonames)
	c.Pricing.Merge(&overlay.Pricing)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Store.Finalize(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if c.Store.Driver == DriverPostgres {
		if err := c.Database.Finalize(databaseEnv); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if err := c.Geonames.Finalize(); err != nil {
		return fmt.Errorf("geonames: %w", err)
	}
	if c.Geonames.Source == SourceBlob || c.Storage.Configured() {
		if err := c.Storage.Finalize(storageEnv); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Redis.Finalize(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if err := c.AWS.Finalize(); err != nil {
		return fmt.Errorf("aws: %w", err)
	}
	if err := c.Pipelines.Finalize(); err != nil {
		return fmt.Errorf("pipelines: %w", err)
	}
	if longest := c.Pipelines.Longest(); c.Server.WriteTimeoutDuration() <= longest {
		return fmt.Errorf("server: write_timeout %s must exceed the longest pipeline timeout %s",
			c.Server.WriteTimeout, longest)
	}
	c.Pricing.Finalize()
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvAddrsplitShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvAddrsplitVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvAddrsplitEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func parseDuration(name, value string) error {
	if _, err := time.ParseDuration(value); err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	return nil
}

// mergeString overwrites dst when v is set.
func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func duration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}
