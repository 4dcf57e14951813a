// Package core provides money parsing and formatting utilities.
//
// Amounts are carried as float64 pounds because tax parameters and results
// are fractional (rates are percentages of thresholds). Rounding to pence
// happens only at presentation time.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a user-typed pound amount to a float64.
//
// It tolerates a leading "£", thousands separators and surrounding spaces.
// Negative, empty and malformed values are rejected with ErrInvalidInput;
// zero is accepted here and rejected by the calculator where it matters.
//
// Examples:
//
//	ParseAmount("60000")      -> 60000, nil
//	ParseAmount("£60,000.50") -> 60000.5, nil
//	ParseAmount("-1")         -> 0, ErrInvalidInput
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "£")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidInput
	}
	dots := 0
	for _, r := range s {
		switch {
		case r == '.':
			dots++
		case !unicode.IsDigit(r):
			return 0, ErrInvalidInput
		}
	}
	if dots > 1 {
		return 0, ErrInvalidInput
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, ErrInvalidInput
	}
	return v, nil
}

// RoundPence rounds half away from zero to two decimal places.
func RoundPence(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatPounds formats an amount as "£12,345.67".
func FormatPounds(v float64) string {
	neg := v < 0
	pence := int64(math.Round(math.Abs(v) * 100))
	whole := strconv.FormatInt(pence/100, 10)

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	frac := strconv.FormatInt(pence%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	if neg {
		return "-£" + b.String() + "." + frac
	}
	return "£" + b.String() + "." + frac
}
