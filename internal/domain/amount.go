package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a user-supplied amount. Amounts are decimal, never
// floats, and must be strictly positive.
func ParseAmount(input string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}
	return amount, nil
}

// ParseWithdrawalInput splits the free-text withdrawal submission into payout
// details and an amount. The expected format is "details, amount"; a missing
// separator or empty details field is malformed input.
func ParseWithdrawalInput(input string) (details string, amount decimal.Decimal, err error) {
	parts := strings.SplitN(input, ",", 2)
	if len(parts) < 2 {
		return "", decimal.Zero, fmt.Errorf("%w: expected \"details, amount\"", ErrMalformedInput)
	}
	details = strings.TrimSpace(parts[0])
	if details == "" {
		return "", decimal.Zero, fmt.Errorf("%w: payout details are required", ErrMalformedInput)
	}
	amount, err = ParseAmount(parts[1])
	if err != nil {
		return "", decimal.Zero, err
	}
	return details, amount, nil
}

// FormatAmount renders an amount for user-facing messages.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
