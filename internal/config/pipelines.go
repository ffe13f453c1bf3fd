package config

import (
	"fmt"
	"maps"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/addrsplit/internal/address"
)

const (
	EnvPipelinesTimeout     = "ADDRSPLIT_PIPELINES_TIMEOUT"
	EnvPipelinesMaxTokens   = "ADDRSPLIT_PIPELINES_MAX_TOKENS"
	EnvPipelinesBedrockRate = "ADDRSPLIT_PIPELINES_BEDROCK_RATE"
	EnvPipelinesPlaceIndex  = "ADDRSPLIT_PIPELINES_PLACE_INDEX"
	EnvLoqateBaseURL        = "ADDRSPLIT_LOQATE_BASE_URL"
	EnvLoqateKey            = "ADDRSPLIT_LOQATE_KEY"
	EnvLoqateRate           = "ADDRSPLIT_LOQATE_RATE"
)

// PipelinesConfig holds adapter timeouts and upstream settings.
// Timeouts overrides Timeout per pipeline id.
type PipelinesConfig struct {
	Timeout     string            `toml:"timeout"`
	Timeouts    map[string]string `toml:"timeouts"`
	MaxTokens   int               `toml:"max_tokens"`
	BedrockRate float64           `toml:"bedrock_rate"`
	PlaceIndex  string            `toml:"place_index"`
	Loqate      LoqateConfig      `toml:"loqate"`
}

// LoqateConfig configures the Loqate Capture Interactive client.
// An empty key leaves the loqate pipeline unavailable.
type LoqateConfig struct {
	BaseURL string  `toml:"base_url"`
	Key     string  `toml:"key"`
	Rate    float64 `toml:"rate"`
}

// TimeoutDuration returns the default adapter timeout.
func (c *PipelinesConfig) TimeoutDuration() time.Duration {
	return duration(c.Timeout)
}

// TimeoutFor returns the timeout for one pipeline, falling back to Timeout.
func (c *PipelinesConfig) TimeoutFor(id address.PipelineID) time.Duration {
	if v, ok := c.Timeouts[string(id)]; ok {
		return duration(v)
	}
	return c.TimeoutDuration()
}

// Longest returns the largest timeout any pipeline may run for.
func (c *PipelinesConfig) Longest() time.Duration {
	longest := c.TimeoutDuration()
	for _, v := range c.Timeouts {
		longest = max(longest, duration(v))
	}
	return longest
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelinesConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Per-pipeline timeouts merge
// key by key.
func (c *PipelinesConfig) Merge(overlay *PipelinesConfig) {
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if len(overlay.Timeouts) > 0 {
		if c.Timeouts == nil {
			c.Timeouts = make(map[string]string, len(overlay.Timeouts))
		}
		maps.Copy(c.Timeouts, overlay.Timeouts)
	}
	if overlay.MaxTokens != 0 {
		c.MaxTokens = overlay.MaxTokens
	}
	if overlay.BedrockRate != 0 {
		c.BedrockRate = overlay.BedrockRate
	}
	if overlay.PlaceIndex != "" {
		c.PlaceIndex = overlay.PlaceIndex
	}
	if overlay.Loqate.BaseURL != "" {
		c.Loqate.BaseURL = overlay.Loqate.BaseURL
	}
	if overlay.Loqate.Key != "" {
		c.Loqate.Key = overlay.Loqate.Key
	}
	if overlay.Loqate.Rate != 0 {
		c.Loqate.Rate = overlay.Loqate.Rate
	}
}

func (c *PipelinesConfig) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "20s"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 800
	}
	if c.Loqate.Rate == 0 {
		c.Loqate.Rate = 1
	}
}

func (c *PipelinesConfig) loadEnv() {
	if v := os.Getenv(EnvPipelinesTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvPipelinesMaxTokens); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxTokens = n
		}
	}
	if v := os.Getenv(EnvPipelinesBedrockRate); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.BedrockRate = f
		}
	}
	if v := os.Getenv(EnvPipelinesPlaceIndex); v != "" {
		c.PlaceIndex = v
	}
	if v := os.Getenv(EnvLoqateBaseURL); v != "" {
		c.Loqate.BaseURL = v
	}
	if v := os.Getenv(EnvLoqateKey); v != "" {
		c.Loqate.Key = v
	}
	if v := os.Getenv(EnvLoqateRate); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Loqate.Rate = f
		}
	}
}

func (c *PipelinesConfig) validate() error {
	if err := parseDuration("timeout", c.Timeout); err != nil {
		return err
	}
	for id, v := range c.Timeouts {
		if _, err := address.ParsePipelineID(id); err != nil {
			return fmt.Errorf("timeouts: %w", err)
		}
		if err := parseDuration("timeouts."+id, v); err != nil {
			return err
		}
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be positive")
	}
	if c.BedrockRate < 0 || c.Loqate.Rate < 0 {
		return fmt.Errorf("rates cannot be negative")
	}
	return nil
}
