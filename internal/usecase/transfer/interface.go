package transfer

import (
	"context"

	"github.com/shopspring/decimal"

	domain "account-ledger-service/internal/domain/transfer"
	"account-ledger-service/internal/domain/user"
)

// TransferUsecase defines the interface for transfer business logic operations.
type TransferUsecase interface {
	Transfer(ctx context.Context, in TransferRequest) (*TransferResponse, error)
	ListTransfers(ctx context.Context) (*ListTransfersResponse, error)
}

// Repository defines data access for transfers.
type Repository interface {
	// List returns every recorded transfer in database order.
	List(ctx context.Context) ([]domain.Transfer, error)
	// Begin opens a transaction. The caller must end it with Commit or Rollback.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a database transaction scoped to one transfer settlement.
type Tx interface {
	// FindUserByName returns the single user named nombre. It returns a
	// NotFoundError when none exists and a ConflictError when several do.
	FindUserByName(ctx context.Context, nombre string) (*user.User, error)
	UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error
	InsertTransfer(ctx context.Context, t *domain.Transfer) (*domain.Transfer, error)
	Commit() error
	Rollback() error
}

// CacheInvalidator drops cached copies of users whose balance changed.
type CacheInvalidator interface {
	DeleteMultiple(ctx context.Context, ids ...int64) error
}

var _ TransferUsecase = (*Usecase)(nil)
