package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/addrsplit/pkg/formatting"
	"github.com/JaimeStill/addrsplit/pkg/middleware"
	"github.com/JaimeStill/addrsplit/pkg/openapi"
	"github.com/JaimeStill/addrsplit/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "ADDRSPLIT_CORS_ENABLED",
	Origins:          "ADDRSPLIT_CORS_ORIGINS",
	AllowedMethods:   "ADDRSPLIT_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "ADDRSPLIT_CORS_ALLOWED_HEADERS",
	AllowCredentials: "ADDRSPLIT_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "ADDRSPLIT_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultLimit: "ADDRSPLIT_PAGINATION_DEFAULT_LIMIT",
	MaxLimit:     "ADDRSPLIT_PAGINATION_MAX_LIMIT",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "ADDRSPLIT_OPENAPI_TITLE",
	Description: "ADDRSPLIT_OPENAPI_DESCRIPTION",
	Hidden:      "ADDRSPLIT_OPENAPI_HIDDEN",
}

// APIConfig holds API routing, body limits, CORS, pagination and OpenAPI settings.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxBodySize string                `toml:"max_body_size"`
	CORS        middleware.CORSConfig `toml:"cors"`
	Pagination  pagination.Config     `toml:"pagination"`
	OpenAPI     openapi.Config        `toml:"openapi"`
}

// MaxBodySizeBytes returns MaxBodySize in bytes.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxBodySize)
	if err != nil {
		return 64 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if _, err := formatting.ParseBytes(c.MaxBodySize); err != nil {
		return fmt.Errorf("invalid max_body_size: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "64KB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("ADDRSPLIT_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("ADDRSPLIT_API_MAX_BODY_SIZE"); v != "" {
		c.MaxBodySize = v
	}
}
