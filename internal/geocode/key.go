package geocode

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var residual = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "œ", "oe", "ø", "o", "ł", "l", "đ", "d", "þ", "th", "ı", "i",
)

// Key folds a place or postcode for matching: casefold, strip diacritics,
// ASCII-fold residual letters, punctuation to space, collapse whitespace.
// "Genève", "GENEVE" and "  geneve. " share one key.
func Key(name string) string {
	if name == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, cases.Fold().String(name))
	if err != nil {
		folded = strings.ToLower(name)
	}
	folded = residual.Replace(folded)

	var b strings.Builder
	b.Grow(len(folded))
	space := true
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// PostcodeKey normalizes a postcode: uppercase, internal whitespace collapsed.
func PostcodeKey(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), " "))
}
