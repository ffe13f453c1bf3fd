package openapi

import (
	"os"
	"strconv"
)

// Config holds the document metadata. Hidden keeps the document off the
// public route.
type Config struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Hidden      bool   `toml:"hidden"`
}

// ConfigEnv names the environment variables that override Config.
type ConfigEnv struct {
	Title       string
	Description string
	Hidden      string
}

// Finalize applies defaults and environment variable overrides.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.Title == "" {
		c.Title = "Addrsplit API"
	}
	if c.Description == "" {
		c.Description = "Compares address parsing and geocoding pipelines on the same input."
	}
	if env == nil {
		return nil
	}
	if v := getenv(env.Title); v != "" {
		c.Title = v
	}
	if v := getenv(env.Description); v != "" {
		c.Description = v
	}
	if v := getenv(env.Hidden); v != "" {
		hidden, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Hidden = hidden
	}
	return nil
}

// Merge overwrites non-zero fields from overlay. Hidden always applies.
func (c *Config) Merge(overlay *Config) {
	if overlay.Title != "" {
		c.Title = overlay.Title
	}
	if overlay.Description != "" {
		c.Description = overlay.Description
	}
	c.Hidden = overlay.Hidden
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
