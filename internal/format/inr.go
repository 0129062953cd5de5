// Package format renders numbers for display.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	rupee = "₹ "
	// MissingINR is shown for a value that could not be computed.
	MissingINR = "₹ -"
	// MissingValue is shown for a missing non-currency KPI.
	MissingValue = "-"
)

// INR formats v as whole rupees with Indian digit grouping: the last three digits, then
// groups of two ("₹ 12,34,567"). Halves round to even; negatives read "- ₹ 500".
func INR(v float64) string {
	if !finite(v) {
		return MissingINR
	}
	rounded := decimal.NewFromFloat(v).RoundBank(0)
	prefix := rupee
	if rounded.IsNegative() {
		prefix = "- " + rupee
		rounded = rounded.Abs()
	}
	return prefix + groupIndian(rounded.String())
}

// INROf formats an optional value, MissingINR when ok is false.
func INROf(v float64, ok bool) string {
	if !ok {
		return MissingINR
	}
	return INR(v)
}

// Percent formats v, already on the 0-100 scale, with two decimals: "12.50%".
func Percent(v float64) string {
	if !finite(v) {
		return MissingValue
	}
	return fmt.Sprintf("%.2f%%", v)
}

// Grouped formats the integer part of v with western thousands separators: "12,345".
func Grouped(v float64) string {
	if !finite(v) {
		return MissingValue
	}
	d := decimal.NewFromFloat(v).Truncate(0)
	if d.IsNegative() {
		return "-" + groupWestern(d.Abs().String())
	}
	return groupWestern(d.String())
}

// Decimal2 formats v with western grouping and two decimals: "1,234.50".
func Decimal2(v float64) string {
	if !finite(v) {
		return MissingValue
	}
	d := decimal.NewFromFloat(v)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + groupWestern(intPart) + "." + frac
}

// Days formats a day count with one decimal.
func Days(v float64) string {
	if !finite(v) {
		return MissingValue
	}
	return fmt.Sprintf("%.1f", v)
}

// Ratio formats a plain ratio such as inventory turnover with two decimals.
func Ratio(v float64) string {
	if !finite(v) {
		return MissingValue
	}
	return fmt.Sprintf("%.2f", v)
}

// finite reports whether v can be shown; decimal.NewFromFloat panics on NaN and ±Inf.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, lastThree := digits[:len(digits)-3], digits[len(digits)-3:]

	var buf []byte
	for i := 0; i < len(head); i++ {
		buf = append(buf, head[i])
		// a separator after every pair counted from the right end of head
		if (len(head)-1-i)%2 == 0 && i != len(head)-1 {
			buf = append(buf, ',')
		}
	}
	return string(buf) + "," + lastThree
}

func groupWestern(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var buf []byte
	count := 0
	for i := len(digits) - 1; i >= 0; i-- {
		buf = append(buf, digits[i])
		count++
		if count == 3 && i != 0 {
			buf = append(buf, ',')
			count = 0
		}
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}
