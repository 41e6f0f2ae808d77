package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("150.50")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("150.50")))

	amount, err = ParseAmount("  42 ")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(42)))
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "abc", "10.5.5", "10,5"} {
		_, err := ParseAmount(input)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", input)
	}
}

func TestParseAmountRejectsNonPositive(t *testing.T) {
	for _, input := range []string{"0", "-5", "-0.01"} {
		_, err := ParseAmount(input)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", input)
	}
}

func TestParseWithdrawalInput(t *testing.T) {
	details, amount, err := ParseWithdrawalInput("card 4276 1234 5678 9010, 250.50")
	require.NoError(t, err)
	assert.Equal(t, "card 4276 1234 5678 9010", details)
	assert.True(t, amount.Equal(decimal.RequireFromString("250.50")))
}

func TestParseWithdrawalInputMissingSeparator(t *testing.T) {
	_, _, err := ParseWithdrawalInput("card 4276 100")
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestParseWithdrawalInputEmptyDetails(t *testing.T) {
	_, _, err := ParseWithdrawalInput("  , 100")
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestParseWithdrawalInputBadAmount(t *testing.T) {
	_, _, err := ParseWithdrawalInput("card 4276, lots")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "250.50", FormatAmount(decimal.RequireFromString("250.5")))
	assert.Equal(t, "42.00", FormatAmount(decimal.NewFromInt(42)))
}
