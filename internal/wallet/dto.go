package wallet

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MovementRequest is the body of deposit and withdrawal requests.
type MovementRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// BalanceResponse carries the current or resulting wallet balance as a JSON
// number, written from the exact decimal text.
type BalanceResponse struct {
	Amount json.Number `json:"amount"`
}

func newBalanceResponse(b Balance) BalanceResponse {
	return BalanceResponse{Amount: json.Number(b.Amount.String())}
}

const (
	fieldAmount          = "Amount"
	msgAmountRequired    = "'Amount' must not be empty."
	msgAmountNonNegative = "'Amount' must be greater than or equal to '0'."
	msgAmountInvalid     = "'Amount' must be a decimal number."
)

// validate returns the invalid fields of the request, keyed by field name.
func (r MovementRequest) validate() map[string][]string {
	switch {
	case r.Amount == nil:
		return map[string][]string{fieldAmount: {msgAmountRequired}}
	case !representable(*r.Amount):
		return map[string][]string{fieldAmount: {msgAmountInvalid}}
	case r.Amount.IsNegative():
		return map[string][]string{fieldAmount: {msgAmountNonNegative}}
	}
	return nil
}
