package source

import (
	"math"
	"strconv"
	"strings"
)

// missingTokens are cell values that mean "no value" rather than zero.
var missingTokens = map[string]struct{}{
	"":     {},
	"-":    {},
	"--":   {},
	"na":   {},
	"n.a.": {},
	"n/a":  {},
	"nan":  {},
	"null": {},
}

// ParseNumber reads a numeric cell written with either decimal convention.
//
// When both '.' and ',' appear, the rightmost one is the decimal separator
// and the other groups thousands ("1.234,5" and "1,234.5" are both 1234.5).
// A single ',' is a decimal comma. A separator repeated without the other is
// a thousands separator ("1.234.567"). Surrounding and inner spaces are
// ignored. Missing tokens and anything unparsable report ok=false; the caller
// must treat that as Missing, never as zero.
func ParseNumber(s string) (float64, bool) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, s)
	if _, ok := missingTokens[strings.ToLower(s)]; ok {
		return 0, false
	}

	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
