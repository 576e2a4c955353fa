package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	priceJunk  = regexp.MustCompile(`[^0-9.,\skKmMbB]`)
	unitSuffix = regexp.MustCompile(`(?i)^([\d.,\s]+?)\s*([kmb])$`)
)

// ParsePrice turns a recognized price fragment into a gp amount. It strips
// OCR artifacts, expands a trailing k/m/b unit suffix, and otherwise drops
// thousands separators and parses an integer. Returns false unless the
// result is a positive integer.
func ParsePrice(raw string) (int64, bool) {
	s := strings.TrimSpace(priceJunk.ReplaceAllString(raw, ""))
	if s == "" {
		return 0, false
	}

	if m := unitSuffix.FindStringSubmatch(s); m != nil {
		numStr := stripSeparators(m[1])
		num, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			return 0, false
		}
		var mult float64
		switch strings.ToLower(m[2]) {
		case "k":
			mult = 1_000
		case "m":
			mult = 1_000_000
		case "b":
			mult = 1_000_000_000
		}
		v := int64(math.Floor(num * mult))
		if v <= 0 {
			return 0, false
		}
		return v, true
	}

	v, err := strconv.ParseInt(stripSeparators(s), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ',' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
}
