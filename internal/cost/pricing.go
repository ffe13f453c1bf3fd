package cost

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed pricing.yaml
var defaultCatalog []byte

// Pricing holds the unit prices applied to one request. A user may save
// their own; unset fields fall back to the catalog.
type Pricing struct {
	InputPerMillion    float64 `json:"input_per_million" yaml:"input_per_million"`
	OutputPerMillion   float64 `json:"output_per_million" yaml:"output_per_million"`
	LocationPerRequest float64 `json:"location_per_request,omitempty" yaml:"location_per_request"`
	LoqatePerRequest   float64 `json:"loqate_per_request,omitempty" yaml:"loqate_per_request"`
}

// Validate rejects negative or non-finite prices.
func (p Pricing) Validate() error {
	values := map[string]float64{
		"input_per_million":    p.InputPerMillion,
		"output_per_million":   p.OutputPerMillion,
		"location_per_request": p.LocationPerRequest,
		"loqate_per_request":   p.LoqatePerRequest,
	}
	for name, v := range values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a non-negative number", name)
		}
	}
	return nil
}

// ModelPrice is the per-token price of one model family.
type ModelPrice struct {
	InputPerMillion  float64 `yaml:"input_per_million"`
	OutputPerMillion float64 `yaml:"output_per_million"`
}

// Catalog is the list-price table.
type Catalog struct {
	Services struct {
		LocationPerRequest float64 `yaml:"aws_location_per_request"`
		LoqatePerRequest   float64 `yaml:"loqate_per_request"`
	} `yaml:"services"`
	Models map[string]ModelPrice `yaml:"models"`
}

// LoadCatalog parses the catalog at path, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read pricing catalog: %w", err)
		}
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse pricing catalog: %w", err)
	}
	for key, m := range c.Models {
		if m.InputPerMillion < 0 || m.OutputPerMillion < 0 {
			return nil, fmt.Errorf("pricing catalog: negative price for %s", key)
		}
	}
	return &c, nil
}

// Model returns the price of the longest catalog key contained in modelID.
func (c *Catalog) Model(modelID string) (ModelPrice, bool) {
	best, found := "", false
	for key := range c.Models {
		if !strings.Contains(modelID, key) {
			continue
		}
		if !found || len(key) > len(best) || (len(key) == len(best) && key < best) {
			best, found = key, true
		}
	}
	if !found {
		return ModelPrice{}, false
	}
	return c.Models[best], true
}

// Resolve merges user pricing over the catalog entry for modelID.
func (c *Catalog) Resolve(user *Pricing, modelID string) Pricing {
	p := Pricing{
		LocationPerRequest: c.Services.LocationPerRequest,
		LoqatePerRequest:   c.Services.LoqatePerRequest,
	}
	if m, ok := c.Model(modelID); ok {
		p.InputPerMillion = m.InputPerMillion
		p.OutputPerMillion = m.OutputPerMillion
	}
	if user == nil {
		return p
	}

	if user.InputPerMillion > 0 || user.OutputPerMillion > 0 {
		p.InputPerMillion = user.InputPerMillion
		p.OutputPerMillion = user.OutputPerMillion
	}
	if user.LocationPerRequest > 0 {
		p.LocationPerRequest = user.LocationPerRequest
	}
	if user.LoqatePerRequest > 0 {
		p.LoqatePerRequest = user.LoqatePerRequest
	}
	return p
}
