// Package taxid validates Brazilian tax identifiers (CPF for persons,
// CNPJ for organizations) using their modulo-11 check digit algorithms.
package taxid

import (
	"errors"
	"strings"
)

var ErrInvalid = errors.New("invalid tax id")

// Normalize strips every non-digit character from raw.
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate normalizes raw and checks it as a CPF (11 digits) or CNPJ
// (14 digits). It returns the normalized digits on success.
func Validate(raw string) (string, error) {
	digits := Normalize(raw)
	switch len(digits) {
	case 11:
		if IsValidCPF(digits) {
			return digits, nil
		}
	case 14:
		if IsValidCNPJ(digits) {
			return digits, nil
		}
	}
	return "", ErrInvalid
}

// IsValidCPF reports whether digits is a well-formed CPF. The input must
// already be digits-only; use Normalize first for raw user input.
func IsValidCPF(digits string) bool {
	if len(digits) != 11 || !allDigits(digits) || allSame(digits) {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(digits[i]-'0') * (10 - i)
	}
	if cpfCheckDigit(sum) != int(digits[9]-'0') {
		return false
	}

	sum = 0
	for i := 0; i < 10; i++ {
		sum += int(digits[i]-'0') * (11 - i)
	}
	return cpfCheckDigit(sum) == int(digits[10]-'0')
}

// IsValidCNPJ reports whether digits is a well-formed CNPJ.
func IsValidCNPJ(digits string) bool {
	if len(digits) != 14 || !allDigits(digits) || allSame(digits) {
		return false
	}

	if cnpjCheckDigit(digits[:12]) != int(digits[12]-'0') {
		return false
	}
	return cnpjCheckDigit(digits[:13]) == int(digits[13]-'0')
}

// cpfCheckDigit computes a CPF check digit from a weighted sum. A raw
// result of 10 or 11 collapses to 0.
func cpfCheckDigit(sum int) int {
	d := (sum * 10) % 11
	if d == 10 || d == 11 {
		d = 0
	}
	return d
}

// cnpjCheckDigit applies the cyclic 2..9 weights right-to-left over prefix.
func cnpjCheckDigit(prefix string) int {
	sum := 0
	weight := 2
	for i := len(prefix) - 1; i >= 0; i-- {
		sum += int(prefix[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
