package auth

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds bearer token verification parameters.
// When Issuer is empty and DevSubject is set, verification is bypassed and
// every request is attributed to DevSubject.
type Config struct {
	Issuer        string `toml:"issuer"`
	JWKSURL       string `toml:"jwks_url"`
	ClientID      string `toml:"client_id"`
	AudienceCheck bool   `toml:"audience_check"`
	DevSubject    string `toml:"dev_subject"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Issuer        string
	JWKSURL       string
	ClientID      string
	AudienceCheck string
	DevSubject    string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.JWKSURL != "" {
		c.JWKSURL = overlay.JWKSURL
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.AudienceCheck {
		c.AudienceCheck = true
	}
	if overlay.DevSubject != "" {
		c.DevSubject = overlay.DevSubject
	}
}

// Dev reports whether token verification is bypassed.
func (c *Config) Dev() bool {
	return c.Issuer == "" && c.DevSubject != ""
}

func (c *Config) loadDefaults() {
	if c.Issuer != "" && c.JWKSURL == "" {
		c.JWKSURL = strings.TrimSuffix(c.Issuer, "/") + "/.well-known/jwks.json"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.JWKSURL != "" {
		if v := os.Getenv(env.JWKSURL); v != "" {
			c.JWKSURL = v
		}
	}
	if env.ClientID != "" {
		if v := os.Getenv(env.ClientID); v != "" {
			c.ClientID = v
		}
	}
	if env.AudienceCheck != "" {
		if v := os.Getenv(env.AudienceCheck); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.AudienceCheck = b
			}
		}
	}
	if env.DevSubject != "" {
		if v := os.Getenv(env.DevSubject); v != "" {
			c.DevSubject = v
		}
	}
}

func (c *Config) validate() error {
	if c.Issuer == "" && c.DevSubject == "" {
		return fmt.Errorf("issuer required (or dev_subject for local development)")
	}
	if c.AudienceCheck && c.ClientID == "" {
		return fmt.Errorf("client_id required when audience_check is enabled")
	}
	return nil
}
