package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// NotAvailable is the sentinel stored for absent or null-like categorical values.
const NotAvailable = "N/A"

var nullTokens = map[string]struct{}{
	"nan":  {},
	"None": {},
	"NaN":  {},
	"":     {},
}

// currencyStripper removes the rupee sign, its mis-decoded byte sequence, other common
// currency symbols and thousands separators.
var currencyStripper = strings.NewReplacer(
	"₹", "",
	"â", "",
	"‚", "",
	"¹", "",
	"$", "",
	"€", "",
	"£", "",
	",", "",
	" ", "",
	"\u00a0", "",
)

// ParseCurrency parses strings such as "₹ 1,20,000.50". Anything that is not a finite
// number after stripping symbols and separators is missing.
func ParseCurrency(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	lower := strings.ToLower(s)
	for _, prefix := range []string{"inr", "rs."} {
		if strings.HasPrefix(lower, prefix) {
			s = s[len(prefix):]
			break
		}
	}

	v, ok := parseFinite(currencyStripper.Replace(s))
	if !ok {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

// ParsePercentage parses "12.5%" as 12.5. The value keeps the scale it was written in.
func ParsePercentage(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	return parseFinite(s)
}

// ParseNumber parses a plain number, tolerating thousands separators.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	return parseFinite(s)
}

func parseFinite(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// dayFirstLayouts are tried first; day-before-month wins for ambiguous dates.
var dayFirstLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006-01-02",
	"2006/01/02",
	"2 Jan 2006",
	"2-Jan-2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 06",
	"2-Jan-06",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339,
	"2/1/06",
}

// monthFirstLayouts catch dates that only make sense month-first, like 1/13/2024.
var monthFirstLayouts = []string{
	"1/2/2006",
	"1-2-2006",
	"1.2.2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1-2-2006 15:04:05",
	"1-2-2006 15:04",
	"1/2/06",
}

// ParseDate parses a calendar date preferring day-first ordering and falling back to
// month-first. The result is truncated to midnight UTC.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layouts := range [][]string{dayFirstLayouts, monthFirstLayouts} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				y, m, d := t.Date()
				return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
			}
		}
	}
	return time.Time{}, false
}

// Categorical canonicalizes a label: null-like tokens become NotAvailable.
func Categorical(raw string) string {
	s := strings.TrimSpace(raw)
	if _, ok := nullTokens[s]; ok {
		return NotAvailable
	}
	return s
}

// Identifier keeps ids as trimmed strings so leading zeros survive.
func Identifier(raw string) string {
	return strings.TrimSpace(raw)
}
