package rulebased

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/JaimeStill/addrsplit/internal/country"
	"github.com/JaimeStill/addrsplit/internal/normalize"
)

var (
	lineSplit  = regexp.MustCompile(`[\r\n]+`)
	attention  = regexp.MustCompile(`(?i)^(?:c/o|attn\.?|attention)[:\s]+(.+)$`)
	poBox      = regexp.MustCompile(`(?i)^(?:p\.?\s*o\.?\s*box|postfach|case postale|casella postale|bo[iî]te postale|apartado|bp)\s*\d+`)
	unitLine   = regexp.MustCompile(`(?i)^(?:\d+\.\s*)?(?:apt|apartment|suite|unit|flat|floor|fl|room|rm|bldg|building|b[aâ]timent|etage|étage|stock|piso|#)\b`)
	company    = regexp.MustCompile(`(?i)\b(?:gmbh|ag|sa|s[aà]rl|ltd|llc|inc|plc|bv|srl|spa|corp)\.?$`)
	coded      = regexp.MustCompile(`^([A-Z]{1,3})-(\d.*)$`)
	tokenClass = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	dutch      = regexp.MustCompile(`^\d{4}$`)
	stateAbbr  = regexp.MustCompile(`^[A-Z]{2,3}$`)
)

// Parse splits a free-text address into normalized fields with a
// deterministic set of rules. It never fails; the confidence reflects how
// many of line1, city and postcode were found. A valid countryHint wins over
// a trailing country line.
func Parse(raw, countryHint string) normalize.Fields {
	chunks := split(raw)
	fields := normalize.Fields{"country_code": countryHint}
	if len(chunks) == 0 {
		fields["confidence"] = 0.0
		return fields
	}

	if len(chunks) > 1 {
		if cc, ok := country.Lookup(chunks[len(chunks)-1]); ok {
			if !country.Valid(countryHint) {
				fields["country_code"] = cc
			}
			chunks = chunks[:len(chunks)-1]
		}
	}

	var rest []string
	var units []string
	for _, c := range chunks {
		switch {
		case attention.MatchString(c):
			fields["attention"] = attention.FindStringSubmatch(c)[1]
		case poBox.MatchString(c):
			fields["po_box"] = c
		case unitLine.MatchString(c):
			units = append(units, c)
		case company.MatchString(c) && len(chunks) > 1 && fields["company"] == nil:
			fields["company"] = c
		default:
			rest = append(rest, c)
		}
	}

	used := make(map[int]bool)
	last := len(rest) - 1
	for i := last; i >= 0; i-- {
		if i == 0 && last > 0 {
			break
		}
		if code, city, ok := postcodeCity(rest[i]); ok {
			fields["postcode"], fields["city"] = code, city
			used[i] = true
			break
		}
		if i != last {
			continue
		}
		head, code, ok := cityPostcode(rest[i])
		if !ok {
			continue
		}
		fields["postcode"] = code
		used[i] = true
		prev := i - 1
		switch {
		case (head == "" || stateAbbr.MatchString(head)) && prev >= 1 && !hasDigit(rest[prev]):
			if head != "" {
				fields["state_region"] = head
			}
			fields["city"] = rest[prev]
			used[prev] = true
		case head != "":
			city, state := splitState(head)
			fields["city"] = city
			if state != "" {
				fields["state_region"] = state
			}
		}
		break
	}

	var leftovers []string
	for i, c := range rest {
		if used[i] {
			continue
		}
		if i == 0 {
			fields["address_line1"] = c
			continue
		}
		leftovers = append(leftovers, c)
	}

	if fields["city"] == nil && len(leftovers) > 0 && len(used) == 0 {
		if tail := leftovers[len(leftovers)-1]; !hasDigit(tail) {
			fields["city"] = tail
			leftovers = leftovers[:len(leftovers)-1]
		}
	}

	if line2 := append(units, leftovers...); len(line2) > 0 {
		fields["address_line2"] = strings.Join(line2, ", ")
	}

	fields["confidence"] = score(fields)
	return fields
}

// split breaks raw into lines, or into comma chunks when it is one line.
func split(raw string) []string {
	lines := nonEmpty(lineSplit.Split(raw, -1))
	if len(lines) <= 1 {
		return nonEmpty(strings.Split(raw, ","))
	}
	return lines
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// postcodeCity matches "<postcode> <city>", the common European layout.
func postcodeCity(chunk string) (code, city string, ok bool) {
	tokens := strings.Fields(chunk)
	for n := 2; n >= 1; n-- {
		if len(tokens) <= n {
			continue
		}
		code, ok := postcode(tokens[:n])
		if !ok {
			continue
		}
		city := strings.Join(tokens[n:], " ")
		if !hasLetter(city) {
			continue
		}
		return code, city, true
	}
	return "", "", false
}

// cityPostcode matches "<city> <postcode>", with an empty city when the
// chunk is only a postcode.
func cityPostcode(chunk string) (city, code string, ok bool) {
	tokens := strings.Fields(chunk)
	for n := 2; n >= 1; n-- {
		if len(tokens) < n {
			continue
		}
		code, ok := postcode(tokens[len(tokens)-n:])
		if !ok {
			continue
		}
		return strings.Join(tokens[:len(tokens)-n], " "), code, true
	}
	return "", "", false
}

// postcode validates one or two tokens as a postcode: 3 to 11 characters of
// [A-Za-z0-9- ], at least 4 of them not spaces, the first token carrying a
// digit and the second either a digit or the two letters of a Dutch code.
func postcode(tokens []string) (string, bool) {
	for _, t := range tokens {
		if !tokenClass.MatchString(t) {
			return "", false
		}
	}
	if !hasDigit(tokens[0]) {
		return "", false
	}
	if len(tokens) == 2 && !hasDigit(tokens[1]) {
		if !dutch.MatchString(tokens[0]) || len(tokens[1]) != 2 || strings.ToUpper(tokens[1]) != tokens[1] {
			return "", false
		}
	}

	code := strings.Join(tokens, " ")
	if m := coded.FindStringSubmatch(code); m != nil {
		if _, isCountry := country.Lookup(m[1]); isCountry || len(m[1]) == 1 {
			code = m[2]
		}
	}
	if len(code) < 3 || len(code) > 11 || len(strings.ReplaceAll(code, " ", "")) < 4 {
		return "", false
	}
	return code, true
}

// splitState peels a trailing state abbreviation off "Portland OR".
func splitState(head string) (city, state string) {
	tokens := strings.Fields(head)
	if len(tokens) > 1 && stateAbbr.MatchString(tokens[len(tokens)-1]) {
		return strings.Join(tokens[:len(tokens)-1], " "), tokens[len(tokens)-1]
	}
	return head, ""
}

// score works in hundredths so the sums stay exact.
func score(f normalize.Fields) float64 {
	c := 40
	if f["address_line1"] != nil {
		c += 25
	}
	if f["city"] != nil {
		c += 15
	}
	if f["postcode"] != nil {
		c += 15
	}
	return min(float64(c)/100, 0.95)
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
