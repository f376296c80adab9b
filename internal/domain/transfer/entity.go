package transfer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is an immutable ledger entry recording money moved between two users.
type Transfer struct {
	ID       int64           `json:"id"`
	Emisor   int64           `json:"emisor"`   // sender user id
	Receptor int64           `json:"receptor"` // receiver user id
	Monto    decimal.Decimal `json:"monto"`
	Fecha    time.Time       `json:"fecha"`
}
