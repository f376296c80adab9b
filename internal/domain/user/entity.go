package user

import "github.com/shopspring/decimal"

// User represents an account holder in the ledger.
type User struct {
	ID      int64           `json:"id"`      // ID is the unique identifier for the user
	Nombre  string          `json:"nombre"`  // Nombre is the display name, also used to address transfers
	Balance decimal.Decimal `json:"balance"` // Balance is the current account balance
}

// Scale is the number of decimal places kept for balances and amounts.
const Scale = 2

// FitsScale reports whether d can be stored without rounding.
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(Scale))
}
