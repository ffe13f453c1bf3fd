// Package formatting converts between byte counts and their human-readable
// form and extracts JSON payloads from free-form model output.
package formatting

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Base-1024 units, so "KB" and "KiB" both mean 1024 bytes.
var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n with the largest unit that keeps the value at or
// above one. Negative counts render as "unknown" and negative precision
// is treated as zero.
func FormatBytes(n int64, precision int) string {
	if n < 0 {
		return "unknown"
	}
	precision = max(precision, 0)

	size := float64(n)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return strconv.FormatInt(n, 10) + " B"
	}
	return strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes reads sizes such as "64KB", "1.5 mb", or "2GiB". A bare
// number is a byte count.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	num, unit := s, ""
	if split >= 0 {
		num, unit = s[:split], strings.TrimSpace(s[split:])
	}
	if num == "" {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}
	if unit == "" {
		return int64(value), nil
	}

	unit = strings.ToUpper(unit)
	if len(unit) == 3 && unit[1] == 'I' && unit[2] == 'B' {
		unit = unit[:1] + "B"
	}
	idx := slices.Index(units, unit)
	if idx == -1 {
		return 0, fmt.Errorf("unknown byte size unit: %q", unit)
	}

	for range idx {
		value *= 1024
	}
	return int64(value), nil
}
