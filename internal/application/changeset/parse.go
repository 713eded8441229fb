package changeset

import (
	"regexp"
	"strconv"
	"strings"
)

// Upstream cost and schedule strings are free text ("$15,000 - $20,000",
// "+2 Days", "TBD").  They stay raw in the records; these parsers extract
// numbers on demand for filtering and rollups only.

var (
	numberPat = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	signedInt = regexp.MustCompile(`[+-]?\d+`)
)

// ParseCost extracts a single representative dollar value from a raw cost
// string.  A lone number is taken as-is; a range takes the midpoint of its
// first two numbers.  Thousands separators are stripped first so "15,000"
// is one number, not two.  ok is false when no number is present.
func ParseCost(raw string) (value float64, ok bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	matches := numberPat.FindAllString(cleaned, 2)
	if len(matches) == 0 {
		return 0, false
	}
	first, err := strconv.ParseFloat(matches[0], 64)
	if err != nil {
		return 0, false
	}
	if len(matches) == 1 {
		return first, true
	}
	second, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return first, true
	}
	return (first + second) / 2, true
}

// ParseScheduleDays extracts the signed day count from a raw schedule-impact
// string ("+2 Days" → 2, "-1 day" → -1).  ok is false when no number is
// present.
func ParseScheduleDays(raw string) (days int, ok bool) {
	m := signedInt.FindString(raw)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(m, "+"))
	if err != nil {
		return 0, false
	}
	return n, true
}
