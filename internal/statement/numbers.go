package statement

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount strips everything but digits and minus signs and reads the leading
// integer. A decimal point is dropped, so "12.50" reads as 1250; broker amounts
// are kept as the raw digit string rather than interpreted in a currency unit.
func Amount(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return leadingInt(b.String())
}

// leadingInt parses an optional minus followed by digits and ignores the rest.
// Values past the int64 range saturate.
func leadingInt(s string) int64 {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		d := int64(r - '0')
		if n > (math.MaxInt64-d)/10 {
			n = math.MaxInt64
			break
		}
		n = n*10 + d
	}
	if neg {
		return -n
	}
	return n
}

// Decimal keeps digits, dots and minus signs. Empty or unparseable input is nil.
func Decimal(s string) *decimal.Decimal {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return nil
	}
	return &d
}
