package config

import (
	"fmt"
	"os"
)

const (
	EnvAWSRegion          = "ADDRSPLIT_AWS_REGION"
	EnvAWSEndpoint        = "ADDRSPLIT_AWS_ENDPOINT"
	EnvAWSAccessKeyID     = "ADDRSPLIT_AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey = "ADDRSPLIT_AWS_SECRET_ACCESS_KEY"
	EnvAWSSessionToken    = "ADDRSPLIT_AWS_SESSION_TOKEN"
)

// AWSConfig selects the region and, for local emulators, an endpoint
// override with static credentials. Without static credentials the default
// AWS credential chain applies.
type AWSConfig struct {
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	SessionToken    string `toml:"session_token"`
}

// StaticCredentials reports whether an access key pair is configured.
func (c *AWSConfig) StaticCredentials() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AWSConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *AWSConfig) Merge(overlay *AWSConfig) {
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.AccessKeyID != "" {
		c.AccessKeyID = overlay.AccessKeyID
	}
	if overlay.SecretAccessKey != "" {
		c.SecretAccessKey = overlay.SecretAccessKey
	}
	if overlay.SessionToken != "" {
		c.SessionToken = overlay.SessionToken
	}
}

func (c *AWSConfig) loadDefaults() {
	if c.Region == "" {
		c.Region = "us-east-1"
	}
}

func (c *AWSConfig) loadEnv() {
	if v := os.Getenv(EnvAWSRegion); v != "" {
		c.Region = v
	}
	if v := os.Getenv(EnvAWSEndpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(EnvAWSAccessKeyID); v != "" {
		c.AccessKeyID = v
	}
	if v := os.Getenv(EnvAWSSecretAccessKey); v != "" {
		c.SecretAccessKey = v
	}
	if v := os.Getenv(EnvAWSSessionToken); v != "" {
		c.SessionToken = v
	}
}

func (c *AWSConfig) validate() error {
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("access_key_id and secret_access_key must be set together")
	}
	return nil
}
