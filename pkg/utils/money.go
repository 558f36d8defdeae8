package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxAmount is the largest decimal amount accepted on the wire. Below it every
// two-decimal amount converts to cents exactly.
const MaxAmount = 1e12

var ErrInvalidAmount = errors.New("invalid amount")

// ToCents converts a decimal amount into integer cents. Negative amounts, amounts
// above MaxAmount and amounts with more than two decimals are rejected.
func ToCents(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 || amount > MaxAmount {
		return 0, fmt.Errorf("%v: %w", amount, ErrInvalidAmount)
	}

	s := strconv.FormatFloat(amount, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s)-dot-1 > 2 {
		return 0, fmt.Errorf("%s has more than two decimals: %w", s, ErrInvalidAmount)
	}

	return int64(math.Round(amount * 100)), nil
}

// FromCents renders cents as a decimal amount for responses.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// FormatCents renders cents as "1234.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
