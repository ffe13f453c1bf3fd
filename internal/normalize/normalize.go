// Package normalize holds the total mapping every pipeline uses to turn its
// backend fields into an address.Normalized record. It never fails: values
// it cannot map become warnings.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/internal/country"
)

// MaxWarnings caps the warnings kept on a record.
const MaxWarnings = 10

// WarningsTruncated is appended when warnings exceed MaxWarnings.
const WarningsTruncated = "warnings_truncated"

// Fields is a backend record keyed by normalized field name.
type Fields map[string]any

var textFields = []string{
	"address_line1", "address_line2", "postcode", "city", "state_region",
	"neighborhood", "po_box", "company", "attention", "country_code",
}

// Record maps fields into a Normalized record for source. Missing text
// fields are empty, the country falls back to the input country and then to
// one inferred from the raw address, and the record starts ungeocoded.
func Record(fields Fields, source address.PipelineID, fallback address.Input) address.Normalized {
	var warnings []string
	text := make(map[string]string, len(textFields))

	for _, name := range textFields {
		v, ok := fields[name]
		if !ok {
			continue
		}
		s, mapped := Text(v)
		if !mapped {
			warnings = append(warnings, "unmappable_"+name)
			continue
		}
		text[name] = s
	}

	conf, ok := Confidence(fields["confidence"])
	if !ok {
		warnings = append(warnings, "unmappable_confidence")
	}

	backend, ok := warningList(fields["warnings"])
	if !ok {
		warnings = append(warnings, "unmappable_warnings")
	}
	warnings = append(backend, warnings...)

	n := address.Normalized{
		AddressLine1: text["address_line1"],
		AddressLine2: text["address_line2"],
		Postcode:     text["postcode"],
		City:         text["city"],
		StateRegion:  text["state_region"],
		Neighborhood: text["neighborhood"],
		POBox:        text["po_box"],
		Company:      text["company"],
		Attention:    text["attention"],
		CountryCode:  resolveCountry(text["country_code"], fallback),
		Confidence:   conf,
		Source:       source,
	}
	n.ClearPoint()
	n.Warnings = Warnings(warnings)
	return n
}

// Warn appends w to the record's warnings, keeping them deduplicated and capped.
func Warn(n *address.Normalized, w ...string) {
	n.Warnings = Warnings(append(n.Warnings, w...))
}

// Warnings trims, deduplicates (first occurrence wins) and caps ws at
// MaxWarnings, appending WarningsTruncated when entries were dropped.
func Warnings(ws []string) []string {
	out := make([]string, 0, len(ws))
	seen := make(map[string]bool, len(ws))
	truncated := false

	for _, w := range ws {
		w = strings.TrimSpace(w)
		if w == "" || seen[w] {
			continue
		}
		if w == WarningsTruncated {
			truncated = true
			continue
		}
		seen[w] = true
		out = append(out, w)
	}

	if len(out) > MaxWarnings {
		out = out[:MaxWarnings]
		truncated = true
	}
	if truncated {
		out = append(out, WarningsTruncated)
	}
	return out
}

// Clamp bounds c to [0,1]; NaN becomes 0.
func Clamp(c float64) float64 {
	switch {
	case math.IsNaN(c):
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

// Confidence coerces v to a clamped confidence. Absent values are 0 and ok;
// values that are neither numbers nor numeric strings are 0 and not ok.
func Confidence(v any) (float64, bool) {
	switch c := v.(type) {
	case nil:
		return 0, true
	case float64:
		return Clamp(c), true
	case float32:
		return Clamp(float64(c)), true
	case int:
		return Clamp(float64(c)), true
	case int64:
		return Clamp(float64(c)), true
	case json.Number:
		f, err := c.Float64()
		if err != nil {
			return 0, false
		}
		return Clamp(f), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return 0, false
		}
		return Clamp(f), true
	}
	return 0, false
}

// Text coerces a scalar to a trimmed string. Objects and arrays are not
// mappable and report false.
func Text(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(s), true
	case bool:
		return strconv.FormatBool(s), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case json.Number:
		return s.String(), true
	case fmt.Stringer:
		return strings.TrimSpace(s.String()), true
	}
	return "", false
}

func warningList(v any) ([]string, bool) {
	switch w := v.(type) {
	case nil:
		return nil, true
	case []string:
		return w, true
	case string:
		return []string{w}, true
	case []any:
		out := make([]string, 0, len(w))
		for _, item := range w {
			if s, ok := Text(item); ok {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}

func resolveCountry(parsed string, fallback address.Input) string {
	if cc := strings.ToUpper(strings.TrimSpace(parsed)); cc != "" {
		if country.Valid(cc) {
			return cc
		}
		if code, ok := country.Lookup(parsed); ok {
			return code
		}
	}
	if cc := strings.ToUpper(strings.TrimSpace(fallback.CountryCode)); cc != "" {
		return cc
	}
	if code, ok := country.Infer(fallback.RawAddress); ok {
		return code
	}
	return ""
}
