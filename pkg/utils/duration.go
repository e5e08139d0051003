package utils

import (
	"strconv"
	"strings"
)

// DefaultDurationMs is assumed for tracks whose duration cannot be parsed.
const DefaultDurationMs = 180000

// ParseDurationMs converts the catalog's mixed duration encodings to ms.
// "m:ss" strings are minutes and seconds. Plain numbers above 10000 are
// already ms, smaller ones are seconds.
func ParseDurationMs(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultDurationMs
	}

	if parts := strings.Split(value, ":"); len(parts) == 2 {
		minutes, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		seconds, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil || minutes < 0 || seconds < 0 {
			return DefaultDurationMs
		}
		return (minutes*60 + seconds) * 1000
	}

	n, err := strconv.ParseFloat(value, 64)
	if err != nil || n <= 0 {
		return DefaultDurationMs
	}
	if n > 10000 {
		return int(n)
	}
	return int(n * 1000)
}
