package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reThousandDots   = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+(?:,\d+)?$`)
	reThousandSpaces = regexp.MustCompile(`^\d{1,3}(?: \d{3})+(?:,\d+)?$`)
	reAmountToken    = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
)

// ParseAmount parses a numeric token under the thousands-dot/decimal-comma
// convention used by local suppliers: "1.234,56" -> 1234.56, "5,00" -> 5.
// Returns nil for anything that does not parse; malformed amounts are an
// absent value, never an error.
func ParseAmount(input string) *float64 {
	token := strings.TrimSpace(strings.ReplaceAll(input, "\u00A0", " "))
	if token == "" {
		return nil
	}

	switch {
	case reThousandDots.MatchString(token):
		token = strings.ReplaceAll(token, ".", "")
		token = strings.ReplaceAll(token, ",", ".")
	case reThousandSpaces.MatchString(token):
		token = strings.ReplaceAll(token, " ", "")
		token = strings.ReplaceAll(token, ",", ".")
	case reAmountToken.MatchString(token):
		token = strings.ReplaceAll(token, ",", ".")
	default:
		return nil
	}

	parsed, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil
	}
	return FloatPtr(parsed)
}

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }

func IntPtr(v int) *int { return &v }
