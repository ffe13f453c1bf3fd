package config

import "os"

const EnvPricingCatalogFile = "ADDRSPLIT_PRICING_CATALOG_FILE"

// PricingConfig points at an optional pricing catalog that replaces the
// embedded default.
type PricingConfig struct {
	CatalogFile string `toml:"catalog_file"`
}

// Finalize applies environment variable overrides.
func (c *PricingConfig) Finalize() {
	if v := os.Getenv(EnvPricingCatalogFile); v != "" {
		c.CatalogFile = v
	}
}

// Merge overwrites non-zero fields from overlay.
func (c *PricingConfig) Merge(overlay *PricingConfig) {
	if overlay.CatalogFile != "" {
		c.CatalogFile = overlay.CatalogFile
	}
}
