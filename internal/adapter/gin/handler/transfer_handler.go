package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"account-ledger-service/internal/usecase/transfer"
	apperrors "account-ledger-service/pkg/errors"
)

// Plain-text bodies of the transfer routes.
const (
	MsgTransferFailed      = "Error 500"
	MsgListTransfersFailed = "Error al obtener transferencias"
)

// TransferHandler handles HTTP requests for transfers
type TransferHandler struct {
	uc transfer.TransferUsecase
	responder
}

// NewTransferHandler creates a new TransferHandler instance
func NewTransferHandler(uc transfer.TransferUsecase, status StatusMapper, log *zap.Logger) *TransferHandler {
	return &TransferHandler{
		uc:        uc,
		responder: newResponder(status, log),
	}
}

// TransferRequest represents the HTTP request body for a transfer
type TransferRequest struct {
	Emisor   string           `json:"emisor"`
	Receptor string           `json:"receptor"`
	Monto    *decimal.Decimal `json:"monto"`
}

// TransferResponse represents a recorded transfer
type TransferResponse struct {
	ID       int64           `json:"id"`
	Emisor   int64           `json:"emisor"`
	Receptor int64           `json:"receptor"`
	Monto    decimal.Decimal `json:"monto"`
	Fecha    time.Time       `json:"fecha"`
}

// Transfer handles POST /transferencia
func (h *TransferHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperrors.NewValidationError("", transfer.MsgInvalidInput), MsgTransferFailed)
		return
	}

	resp, err := h.uc.Transfer(c.Request.Context(), transfer.TransferRequest{
		Emisor:   req.Emisor,
		Receptor: req.Receptor,
		Monto:    req.Monto,
	})
	if err != nil {
		h.respondError(c, err, MsgTransferFailed)
		return
	}

	c.JSON(http.StatusOK, toTransferResponse(resp.Transfer))
}

// ListTransfers handles GET /transferencias
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	resp, err := h.uc.ListTransfers(c.Request.Context())
	if err != nil {
		h.respondError(c, err, MsgListTransfersFailed)
		return
	}

	transfers := make([]TransferResponse, len(resp.Transfers))
	for i, t := range resp.Transfers {
		transfers[i] = toTransferResponse(t)
	}

	c.JSON(http.StatusOK, transfers)
}

func toTransferResponse(t transfer.Transfer) TransferResponse {
	return TransferResponse{
		ID:       t.ID,
		Emisor:   t.Emisor,
		Receptor: t.Receptor,
		Monto:    t.Monto,
		Fecha:    t.Fecha,
	}
}
