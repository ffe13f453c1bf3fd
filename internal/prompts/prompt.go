// Package prompts stores each user's generative prompt template and optional
// pricing, and renders templates for the llm_geonames pipeline.
package prompts

import (
	"regexp"
	"strings"
	"time"

	"github.com/JaimeStill/addrsplit/internal/cost"
)

// MaxTemplateBytes bounds a saved template.
const MaxTemplateBytes = 8 << 10

// DefaultTemplate is served until a user saves their own.
const DefaultTemplate = `Take the {country} and split the following address: {address}.
The recipient is {name}.
Return ONLY JSON with the keys country_code, address_line1, address_line2, postcode, city, state_region, neighborhood, po_box, company, attention, confidence, warnings.
Use empty strings for missing fields, a confidence between 0 and 1, and a list of short warning codes.`

// Settings is a user's saved configuration. IsDefault marks the built-in
// template returned when nothing was saved.
type Settings struct {
	PromptTemplate string        `json:"prompt_template"`
	IsDefault      bool          `json:"is_default"`
	Pricing        *cost.Pricing `json:"pricing,omitempty"`
	UpdatedAt      *time.Time    `json:"updated_at,omitempty"`
}

// SaveCommand is the body of a settings update.
type SaveCommand struct {
	PromptTemplate string        `json:"prompt_template"`
	Pricing        *cost.Pricing `json:"pricing,omitempty"`
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{PromptTemplate: DefaultTemplate, IsDefault: true}
}

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

var allowed = map[string]bool{"name": true, "country": true, "address": true}

// Validate checks a template and optional pricing before they are saved.
func Validate(cmd SaveCommand) error {
	t := strings.TrimSpace(cmd.PromptTemplate)
	switch {
	case t == "":
		return invalidTemplate("prompt_template is required")
	case len(t) > MaxTemplateBytes:
		return invalidTemplate("prompt_template exceeds 8 KiB")
	case !strings.Contains(t, "{address}"):
		return invalidTemplate("prompt_template must include {address}")
	}
	for _, m := range placeholder.FindAllStringSubmatch(t, -1) {
		if !allowed[m[1]] {
			return invalidTemplate("unsupported placeholder {" + m[1] + "}")
		}
	}

	if cmd.Pricing != nil {
		if err := cmd.Pricing.Validate(); err != nil {
			return invalidPricing(err)
		}
	}
	return nil
}

// Render substitutes the placeholders and collapses whitespace within each
// line. A blank name renders as "(blank)" and a blank country as "(auto)".
func Render(template, name, country, address string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "(blank)"
	}
	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		country = "(auto)"
	}

	rendered := strings.NewReplacer(
		"{name}", name,
		"{country}", country,
		"{address}", strings.TrimSpace(address),
	).Replace(template)

	lines := strings.Split(rendered, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
