package wallet

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientBalance occurs when a withdrawal exceeds the current balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount rejects negative or unrepresentable movement amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Amounts and balances share the range of a 96-bit decimal: at most 28
// fractional digits and a magnitude no larger than 2^96-1.
const (
	maxScale       = 28
	maxCoefficient = 57 // 29 integral + 28 fractional digits
)

var maxAmount = decimal.RequireFromString("79228162514264337593543950335")

// representable reports whether d fits the wallet's decimal range. The
// exponent and digit checks run first so oversized inputs are rejected
// before any arithmetic expands them.
func representable(d decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	exp := d.Exponent()
	if exp < -maxScale || exp > maxScale {
		return false
	}
	if d.NumDigits() > maxCoefficient {
		return false
	}
	return d.Abs().LessThanOrEqual(maxAmount)
}

// Balance is the wallet balance as of a point in time.
type Balance struct {
	Amount decimal.Decimal
	AsOf   time.Time
}
