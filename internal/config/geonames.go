package config

import (
	"fmt"
	"os"
	"strings"
)

// GeoNames dump sources.
const (
	SourceDir  = "dir"
	SourceBlob = "blob"
)

const (
	EnvGeonamesSource     = "ADDRSPLIT_GEONAMES_SOURCE"
	EnvGeonamesDir        = "ADDRSPLIT_GEONAMES_DIR"
	EnvGeonamesBlobPrefix = "ADDRSPLIT_GEONAMES_BLOB_PREFIX"
	EnvGeonamesPostalFile = "ADDRSPLIT_GEONAMES_POSTAL_FILE"
	EnvGeonamesCitiesFile = "ADDRSPLIT_GEONAMES_CITIES_FILE"
	EnvGeonamesCountries  = "ADDRSPLIT_GEONAMES_COUNTRIES"
)

// GeonamesConfig locates the GeoNames dumps loaded at boot.
type GeonamesConfig struct {
	Source     string   `toml:"source"`
	Dir        string   `toml:"dir"`
	BlobPrefix string   `toml:"blob_prefix"`
	PostalFile string   `toml:"postal_file"`
	CitiesFile string   `toml:"cities_file"`
	Countries  []string `toml:"countries"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *GeonamesConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *GeonamesConfig) Merge(overlay *GeonamesConfig) {
	if overlay.Source != "" {
		c.Source = overlay.Source
	}
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.BlobPrefix != "" {
		c.BlobPrefix = overlay.BlobPrefix
	}
	if overlay.PostalFile != "" {
		c.PostalFile = overlay.PostalFile
	}
	if overlay.CitiesFile != "" {
		c.CitiesFile = overlay.CitiesFile
	}
	if overlay.Countries != nil {
		c.Countries = overlay.Countries
	}
}

func (c *GeonamesConfig) loadDefaults() {
	if c.Source == "" {
		c.Source = SourceDir
	}
	if c.Dir == "" {
		c.Dir = "data/geonames"
	}
	if c.BlobPrefix == "" {
		c.BlobPrefix = "geonames"
	}
	if c.PostalFile == "" {
		c.PostalFile = "allCountries.txt"
	}
	if c.CitiesFile == "" {
		c.CitiesFile = "cities15000.txt"
	}
}

func (c *GeonamesConfig) loadEnv() {
	if v := os.Getenv(EnvGeonamesSource); v != "" {
		c.Source = v
	}
	if v := os.Getenv(EnvGeonamesDir); v != "" {
		c.Dir = v
	}
	if v := os.Getenv(EnvGeonamesBlobPrefix); v != "" {
		c.BlobPrefix = v
	}
	if v := os.Getenv(EnvGeonamesPostalFile); v != "" {
		c.PostalFile = v
	}
	if v := os.Getenv(EnvGeonamesCitiesFile); v != "" {
		c.CitiesFile = v
	}
	if v := os.Getenv(EnvGeonamesCountries); v != "" {
		c.Countries = splitList(v)
	}
}

func (c *GeonamesConfig) validate() error {
	switch c.Source {
	case SourceDir, SourceBlob:
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
