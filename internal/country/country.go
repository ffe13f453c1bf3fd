// Package country maps free-text country names to ISO 3166-1 codes using the
// CLDR region names shipped with golang.org/x/text.
package country

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/JaimeStill/addrsplit/internal/geocode"
)

// Names are indexed in these display languages.
var locales = []language.Tag{
	language.English, language.French, language.German, language.Italian,
	language.Spanish, language.Portuguese, language.Dutch,
}

var aliases = map[string]string{
	"usa":                      "US",
	"united states of america": "US",
	"uk":                       "GB",
	"great britain":            "GB",
	"england":                  "GB",
	"scotland":                 "GB",
	"wales":                    "GB",
	"northern ireland":         "GB",
	"holland":                  "NL",
	"confederation suisse":     "CH",

	"schweizerische eidgenossenschaft": "CH",
}

var index = sync.OnceValue(build)

func build() map[string]string {
	names := make(map[string]string)
	for name, code := range aliases {
		names[name] = code
	}

	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			code := string([]rune{a, b})
			if !Valid(code) {
				continue
			}
			region, _ := language.ParseRegion(code)
			for _, tag := range locales {
				if name := geocode.Key(display.Regions(tag).Name(region)); name != "" {
					if _, taken := names[name]; !taken {
						names[name] = code
					}
				}
			}
		}
	}
	return names
}

// Withdrawn ISO 3166-1 codes that CLDR still names.
var withdrawn = map[string]bool{
	"AN": true, "BU": true, "CS": true, "DD": true, "FX": true,
	"NT": true, "SU": true, "TP": true, "YD": true, "YU": true, "ZR": true,
}

// Valid reports whether code is an assigned ISO 3166-1 alpha-2 country code.
// Kosovo's user-assigned XK is accepted since GeoNames uses it.
func Valid(code string) bool {
	if len(code) != 2 {
		return false
	}
	code = strings.ToUpper(code)
	if code == "XK" {
		return true
	}
	if withdrawn[code] {
		return false
	}
	region, err := language.ParseRegion(code)
	if err != nil || region.String() != code || region.Canonicalize().String() != code {
		return false
	}
	return region.IsCountry() && !region.IsPrivateUse()
}

// Lookup returns the alpha-2 code for a country name in any indexed language
// ("Suisse", "Schweiz", "Switzerland"), or for an alpha-2/alpha-3 code.
func Lookup(name string) (string, bool) {
	key := geocode.Key(name)
	if key == "" {
		return "", false
	}
	if code, ok := index()[key]; ok {
		return code, true
	}

	trimmed := strings.TrimSpace(name)
	if len(trimmed) == 2 || len(trimmed) == 3 {
		if trimmed != strings.ToUpper(trimmed) {
			return "", false
		}
		region, err := language.ParseRegion(trimmed)
		if err == nil && region.IsCountry() && Valid(region.String()) {
			return region.String(), true
		}
	}
	return "", false
}

var chunkSplit = regexp.MustCompile(`[\n\r,;]+`)

// Infer looks for a country name in the last chunk of a free-text address.
func Infer(raw string) (string, bool) {
	chunks := chunkSplit.Split(raw, -1)
	for i := len(chunks) - 1; i >= 0; i-- {
		chunk := strings.TrimSpace(chunks[i])
		if chunk == "" {
			continue
		}
		return Lookup(chunk)
	}
	return "", false
}

// ISO3 returns the alpha-3 code for an alpha-2 code.
func ISO3(code string) (string, bool) {
	if !Valid(code) {
		return "", false
	}
	region, _ := language.ParseRegion(strings.ToUpper(code))
	iso3 := region.ISO3()
	if iso3 == "" || iso3 == "ZZZ" {
		return "", false
	}
	return iso3, true
}

// Name returns the English display name for an alpha-2 code.
func Name(code string) string {
	if !Valid(code) {
		return ""
	}
	region, _ := language.ParseRegion(strings.ToUpper(code))
	return display.English.Regions().Name(region)
}
