package shared

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var durationPattern = regexp.MustCompile(`(\d+)([wdhms])`)

var durationUnits = map[string]time.Duration{
	"w": 7 * 24 * time.Hour,
	"d": 24 * time.Hour,
	"h": time.Hour,
	"m": time.Minute,
	"s": time.Second,
}

// ConvertTime parses a TTL such as "30d", "1w2d", "15m" or a bare number of seconds.
//
// Each unit may appear once; a repeated unit replaces the earlier value.
func ConvertTime(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidDuration)
	}

	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}

	matches := durationPattern.FindAllStringSubmatch(value, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
	}

	parts := make(map[string]int, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, value)
		}
		parts[m[2]] = n
	}

	var d time.Duration
	for unit, n := range parts {
		d += time.Duration(n) * durationUnits[unit]
	}
	return d, nil
}

// ParseBool reads the truthy spellings accepted in environment files.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

// SplitList splits a comma or whitespace separated list, dropping empty items.
func SplitList(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
