package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "account-ledger-service/internal/domain/transfer"
	"account-ledger-service/internal/domain/user"
	usecase "account-ledger-service/internal/usecase/transfer"
	apperrors "account-ledger-service/pkg/errors"
)

// TransferRepoPG implements the transfer Repository interface using GORM.
type TransferRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewTransferRepoPG creates a new instance of TransferRepoPG.
func NewTransferRepoPG(db *gorm.DB, log *zap.Logger) *TransferRepoPG {
	return &TransferRepoPG{db: db, log: log}
}

// TransferSchema represents the database schema for the transferencias table.
type TransferSchema struct {
	ID       int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Emisor   int64           `gorm:"column:emisor;not null"`
	Receptor int64           `gorm:"column:receptor;not null"`
	Monto    decimal.Decimal `gorm:"column:monto;type:numeric(14,2);not null"`
	Fecha    time.Time       `gorm:"column:fecha;not null"`
}

// TableName specifies the table name for the TransferSchema model.
func (TransferSchema) TableName() string {
	return "transferencias"
}

func (m TransferSchema) toDomain() domain.Transfer {
	return domain.Transfer{
		ID:       m.ID,
		Emisor:   m.Emisor,
		Receptor: m.Receptor,
		Monto:    m.Monto,
		Fecha:    m.Fecha,
	}
}

// List retrieves every transfer in database order.
func (r *TransferRepoPG) List(ctx context.Context) ([]domain.Transfer, error) {
	var models []TransferSchema
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		r.log.Error("failed to list transfers from db", zap.Error(err))
		return nil, apperrors.NewPersistenceError("failed to list transfers", err)
	}

	transfers := make([]domain.Transfer, len(models))
	for i, model := range models {
		transfers[i] = model.toDomain()
	}
	return transfers, nil
}

// Begin opens a database transaction for a transfer settlement.
func (r *TransferRepoPG) Begin(ctx context.Context) (usecase.Tx, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		r.log.Error("failed to begin transaction", zap.Error(tx.Error))
		return nil, apperrors.NewPersistenceError("failed to begin transaction", tx.Error)
	}
	return &transferTx{tx: tx, log: r.log}, nil
}

// transferTx runs the statements of one transfer inside a single transaction.
type transferTx struct {
	tx  *gorm.DB
	log *zap.Logger
}

// FindUserByName returns the only user called nombre, locking its row where
// the dialect supports it.
func (t *transferTx) FindUserByName(ctx context.Context, nombre string) (*user.User, error) {
	var models []UserSchema
	q := t.tx.WithContext(ctx)
	if supportsRowLocks(q) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("nombre = ?", nombre).Order("id").Limit(2).Find(&models).Error; err != nil {
		t.log.Error("failed to look up user by name", zap.Error(err), zap.String("nombre", nombre))
		return nil, apperrors.NewPersistenceError("failed to look up user", err)
	}

	switch len(models) {
	case 0:
		return nil, apperrors.NewNotFoundError("user",
			fmt.Sprintf("El usuario %q no existe en la base de datos", nombre))
	case 1:
		u := models[0].toDomain()
		return &u, nil
	default:
		return nil, apperrors.NewConflictError("user",
			fmt.Sprintf("El nombre %q corresponde a más de un usuario", nombre))
	}
}

// UpdateBalance stores the new balance of user id.
func (t *transferTx) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	result := t.tx.WithContext(ctx).
		Model(&UserSchema{}).
		Where("id = ?", id).
		Update("balance", balance)
	if result.Error != nil {
		t.log.Error("failed to update balance", zap.Error(result.Error), zap.Int64("id", id))
		return apperrors.NewPersistenceError("failed to update balance", result.Error)
	}
	if result.RowsAffected != 1 {
		return apperrors.NewPersistenceError("failed to update balance",
			fmt.Errorf("user %d: %d rows affected", id, result.RowsAffected))
	}
	return nil
}

// InsertTransfer records the ledger entry and returns the stored row.
func (t *transferTx) InsertTransfer(ctx context.Context, in *domain.Transfer) (*domain.Transfer, error) {
	if in == nil {
		return nil, errors.New("transfer cannot be nil")
	}

	// Postgres timestamps keep microseconds; the returned row must match the stored one
	model := TransferSchema{
		Emisor:   in.Emisor,
		Receptor: in.Receptor,
		Monto:    in.Monto,
		Fecha:    in.Fecha.Truncate(time.Microsecond),
	}
	if err := t.tx.WithContext(ctx).Create(&model).Error; err != nil {
		t.log.Error("failed to insert transfer", zap.Error(err))
		return nil, apperrors.NewPersistenceError("failed to record transfer", err)
	}

	out := model.toDomain()
	return &out, nil
}

// Commit commits the transaction.
func (t *transferTx) Commit() error {
	if err := t.tx.Commit().Error; err != nil {
		return apperrors.NewPersistenceError("failed to commit transfer", err)
	}
	return nil
}

// Rollback aborts the transaction.
func (t *transferTx) Rollback() error {
	if err := t.tx.Rollback().Error; err != nil {
		return fmt.Errorf("failed to roll back transfer: %w", err)
	}
	return nil
}

// supportsRowLocks reports whether SELECT ... FOR UPDATE is understood by db's dialect.
func supportsRowLocks(db *gorm.DB) bool {
	return db.Dialector != nil && db.Dialector.Name() == "postgres"
}
