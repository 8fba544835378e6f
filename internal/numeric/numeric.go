// Package numeric extracts magnitudes from noisy text and renders them
// into fixed-width readouts.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// Parse extracts a number from s. Only digits and '.' are kept; everything
// else is discarded. A leading '-' on s negates the result. Input with no
// digits, or whose kept characters do not form a valid number (such as
// "1.2.3"), yields 0.
func Parse(s string) float64 {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; (c >= '0' && c <= '9') || c == '.' {
			b.WriteByte(c)
		}
	}

	if b.Len() == 0 {
		return 0
	}

	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}

	if s[0] == '-' {
		return -v
	}
	return v
}

// Format renders v the way the readout expects: shortest decimal form,
// always carrying a fractional part ("50" becomes "50.0").
func Format(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return s
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// FixedWidth renders the numeric string s into length characters. Values
// whose magnitude reaches 10^length switch to a short scientific form
// ("1.2e7"), which is not padded to length. Otherwise s is truncated or
// right-padded with '0'.
func FixedWidth(s string, length int) string {
	if length < 0 {
		length = 0
	}

	if num := Parse(s); num >= math.Pow10(length) {
		pwr := 0
		for num >= 10 {
			pwr++
			num /= 10
		}

		mantissa := Format(num)
		if len(mantissa) > 3 {
			mantissa = mantissa[:3]
		}
		return mantissa + "e" + strconv.Itoa(pwr)
	}

	if len(s) >= length {
		return s[:length]
	}
	return s + strings.Repeat("0", length-len(s))
}
