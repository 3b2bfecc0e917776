// Package core holds the domain types shared by the API client and the
// web views: money as integer cents, the remote records, and the chart
// aggregation helpers.
//
// This file contains parsing and formatting of monetary amounts. All
// arithmetic happens on cents; floating point appears only at the JSON
// boundary, where the remote API is free to send numbers or strings.
package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Cents is a monetary amount in minor currency units.
type Cents int64

// ParseDecimalToCents converts a user-entered decimal string to cents with
// half-up rounding on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. The
// result must be strictly positive; form amounts carry no sign, the
// transaction type does. Returns ErrInvalidAmount for anything else.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1234, nil (rounds down)
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (Cents, error) {
	if strings.HasPrefix(strings.TrimSpace(s), "+") {
		return 0, ErrInvalidAmount
	}
	c, err := parseSignedCents(s)
	if err != nil {
		return 0, err
	}
	if c <= 0 {
		return 0, ErrInvalidAmount
	}
	return c, nil
}

// parseSignedCents is the transport-side variant: sign and zero are legal
// because aggregate totals coming back from the API can be either.
func parseSignedCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return Cents(cents), nil
}

// Abs returns the absolute value.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// Decimal renders the amount as a plain two-decimal string ("123.45",
// "-0.05"), the representation the remote API expects in request bodies.
func (c Cents) Decimal() string {
	v := int64(c)
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v/100, 10) + "." + fmt.Sprintf("%02d", v%100)
	if neg {
		return "-" + s
	}
	return s
}

// BRL formats the amount for display, comma decimal separator and a
// currency prefix ("R$ 123,45").
func (c Cents) BRL() string {
	v := int64(c)
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v/100, 10) + "," + fmt.Sprintf("%02d", v%100)
	if neg {
		return "-R$ " + s
	}
	return "R$ " + s
}

// MarshalJSON emits a bare two-decimal number, which is what the remote
// API stores for amounts.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.Decimal()), nil
}

// UnmarshalJSON accepts the transport representations observed in the
// wild: a JSON number (123.45) or a quoted decimal string ("123.45").
// Null leaves the value at zero.
func (c *Cents) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
		if s == "" {
			*c = 0
			return nil
		}
	}
	v, err := parseSignedCents(s)
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	*c = v
	return nil
}
