package transfer

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferRequest represents a request to move Monto from the user named
// Emisor to the user named Receptor.
type TransferRequest struct {
	Emisor   string           `validate:"required"`
	Receptor string           `validate:"required"`
	Monto    *decimal.Decimal `validate:"required"`
}

// TransferResponse is the ledger row recorded by a settled transfer.
type TransferResponse struct {
	Transfer Transfer
}

// ListTransfersResponse represents the response payload for transfer listing.
type ListTransfersResponse struct {
	Transfers []Transfer
}

// Transfer represents a transfer DTO for API responses.
type Transfer struct {
	ID       int64
	Emisor   int64
	Receptor int64
	Monto    decimal.Decimal
	Fecha    time.Time
}
