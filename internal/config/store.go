package config

import (
	"fmt"
	"os"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
	DriverMemory   = "memory"
)

const (
	EnvStoreDriver           = "ADDRSPLIT_STORE_DRIVER"
	EnvStoreSubmissionsTable = "ADDRSPLIT_STORE_SUBMISSIONS_TABLE"
	EnvStoreSettingsTable    = "ADDRSPLIT_STORE_SETTINGS_TABLE"
	EnvStoreRetention        = "ADDRSPLIT_STORE_RETENTION"
	EnvStoreSweepInterval    = "ADDRSPLIT_STORE_SWEEP_INTERVAL"
)

// StoreConfig selects the persistence driver for submissions and prompt
// settings. Table names apply to the dynamodb driver.
type StoreConfig struct {
	Driver           string `toml:"driver"`
	SubmissionsTable string `toml:"submissions_table"`
	SettingsTable    string `toml:"settings_table"`
	Retention        string `toml:"retention"`
	SweepInterval    string `toml:"sweep_interval"`
}

// RetentionDuration returns Retention as a time.Duration.
func (c *StoreConfig) RetentionDuration() time.Duration {
	return duration(c.Retention)
}

// SweepIntervalDuration returns SweepInterval as a time.Duration.
func (c *StoreConfig) SweepIntervalDuration() time.Duration {
	return duration(c.SweepInterval)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *StoreConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *StoreConfig) Merge(overlay *StoreConfig) {
	if overlay.Driver != "" {
		c.Driver = overlay.Driver
	}
	if overlay.SubmissionsTable != "" {
		c.SubmissionsTable = overlay.SubmissionsTable
	}
	if overlay.SettingsTable != "" {
		c.SettingsTable = overlay.SettingsTable
	}
	if overlay.Retention != "" {
		c.Retention = overlay.Retention
	}
	if overlay.SweepInterval != "" {
		c.SweepInterval = overlay.SweepInterval
	}
}

func (c *StoreConfig) loadDefaults() {
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if c.SubmissionsTable == "" {
		c.SubmissionsTable = "addrsplit-submissions"
	}
	if c.SettingsTable == "" {
		c.SettingsTable = "addrsplit-settings"
	}
	if c.Retention == "" {
		c.Retention = "720h"
	}
	if c.SweepInterval == "" {
		c.SweepInterval = "1h"
	}
}

func (c *StoreConfig) loadEnv() {
	if v := os.Getenv(EnvStoreDriver); v != "" {
		c.Driver = v
	}
	if v := os.Getenv(EnvStoreSubmissionsTable); v != "" {
		c.SubmissionsTable = v
	}
	if v := os.Getenv(EnvStoreSettingsTable); v != "" {
		c.SettingsTable = v
	}
	if v := os.Getenv(EnvStoreRetention); v != "" {
		c.Retention = v
	}
	if v := os.Getenv(EnvStoreSweepInterval); v != "" {
		c.SweepInterval = v
	}
}

func (c *StoreConfig) validate() error {
	switch c.Driver {
	case DriverPostgres, DriverDynamoDB, DriverMemory:
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if err := parseDuration("retention", c.Retention); err != nil {
		return err
	}
	if c.RetentionDuration() <= 0 {
		return fmt.Errorf("retention must be positive")
	}
	return parseDuration("sweep_interval", c.SweepInterval)
}
