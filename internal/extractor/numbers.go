package extractor

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numberFragment captures a count plus an optional magnitude marker that is
// part of the same span: group 1 digits, group 2 K/M, group 3 萬/万.
const numberFragment = `([0-9][0-9,，.]*)\s*(?:([KkMm])\b|([萬万]))?`

var (
	countSpanPattern   = regexp.MustCompile(numberFragment)
	thousandsSeparator = strings.NewReplacer(",", "", "，", "")
)

// ParseCount reads the first count in s, honoring separators and K/M/萬
// markers. It reports false when s holds no digits.
func ParseCount(s string) (int, bool) {
	match := countSpanPattern.FindStringSubmatch(s)
	if match == nil {
		return 0, false
	}
	return parseCount(match[1], match[2]+match[3])
}

func parseCount(digits, marker string) (int, bool) {
	digits = thousandsSeparator.Replace(digits)
	digits = strings.TrimRight(digits, ".")
	if digits == "" {
		return 0, false
	}

	if multiplier := markerMultiplier(marker); multiplier > 1 {
		value, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			value, err = strconv.ParseFloat(strings.ReplaceAll(digits, ".", ""), 64)
			if err != nil {
				return 0, false
			}
		}
		return int(math.Round(value * multiplier)), true
	}

	value, err := strconv.Atoi(strings.ReplaceAll(digits, ".", ""))
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

func markerMultiplier(marker string) float64 {
	switch marker {
	case "K", "k":
		return 1_000
	case "M", "m":
		return 1_000_000
	case "萬", "万":
		return 10_000
	default:
		return 1
	}
}
