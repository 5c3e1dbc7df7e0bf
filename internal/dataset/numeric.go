package dataset

import (
	"strconv"
	"strings"
)

// CleanNumber parses a numeric cell as exported by the upstream providers,
// who format quantities with thousands separators and stray whitespace.
// An empty cell returns ok=false rather than zero.
func CleanNumber(raw string) (value float64, ok bool, err error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return 0, false, nil
	}

	value, err = strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}
