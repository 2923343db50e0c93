package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Cents is a fixed-point currency amount stored as integer cents. It
// marshals as a plain two-decimal JSON number so gateway payloads carry
// exact values with no binary-float drift.
type Cents int64

var ErrBadAmount = errors.New("invalid currency amount")

// ParseCents parses a decimal string such as "297", "297.5" or "297.00".
// More than two fraction digits is an error, never a silent rounding.
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrBadAmount
	}

	negative := false
	if s[0] == '-' {
		negative = true
		s = s[1:]
	}

	whole := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
		// "297." is malformed, a dot requires fraction digits.
		if frac == "" {
			return 0, ErrBadAmount
		}
	}
	if whole == "" || len(frac) > 2 {
		return 0, ErrBadAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}

	wholeN, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrBadAmount
	}
	fracN, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrBadAmount
	}

	total := wholeN*100 + fracN
	if negative {
		total = -total
	}
	return Cents(total), nil
}

// String renders the amount with exactly two decimal places.
func (c Cents) String() string {
	n := int64(c)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cents) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseCents(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
