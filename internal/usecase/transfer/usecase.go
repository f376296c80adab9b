package transfer

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domain "account-ledger-service/internal/domain/transfer"
	"account-ledger-service/internal/domain/user"
	apperrors "account-ledger-service/pkg/errors"
	"account-ledger-service/pkg/logger"
)

// Messages returned to callers when an error is raised explicitly.
const (
	MsgInvalidInput      = "Los datos de entrada son inválidos"
	MsgSameParty         = "El emisor y el receptor deben ser distintos"
	MsgInsufficientFunds = "Saldo insuficiente para realizar la transferencia"
	MsgRollbackFailed    = "Error al revertir la transferencia"
)

// Usecase settles transfers between users and lists the ledger.
type Usecase struct {
	repo     Repository
	cache    CacheInvalidator
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

// New creates a new transfer Usecase. cache may be nil, in which case no
// cache invalidation happens after a transfer.
func New(r Repository, cache CacheInvalidator, log *zap.Logger) *Usecase {
	return &Usecase{
		repo:     r,
		cache:    cache,
		log:      log,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Transfer moves in.Monto from the user named in.Emisor to the user named
// in.Receptor and records the ledger entry. Either both balance updates and
// the entry are committed together or the transaction is rolled back.
func (uc *Usecase) Transfer(ctx context.Context, in TransferRequest) (*TransferResponse, error) {
	st := &tracker{
		state: domain.StateValidating,
		log: logger.WithContext(ctx, uc.log).With(
			zap.String("emisor", in.Emisor),
			zap.String("receptor", in.Receptor),
		),
	}

	monto, err := uc.validateRequest(in)
	if err != nil {
		st.fail(err)
		return nil, err
	}
	st.log.Info("transfer requested", zap.Stringer("monto", monto))
	st.advance()

	tx, err := uc.repo.Begin(ctx)
	if err != nil {
		st.fail(err)
		return nil, err
	}

	record, err := uc.settle(ctx, tx, st, in, monto)
	if err != nil {
		return nil, uc.abort(tx, st, err)
	}

	// A failed commit ends the transaction on its own; nothing is left to roll back.
	if err := tx.Commit(); err != nil {
		st.end(domain.StateCommitFailed, "transfer commit failed", err)
		return nil, err
	}
	st.advance()

	if uc.cache != nil {
		if err := uc.cache.DeleteMultiple(ctx, record.Emisor, record.Receptor); err != nil {
			st.log.Warn("failed to invalidate cache after transfer", zap.Error(err))
		}
	}

	st.log.Info("transfer settled", zap.Int64("transfer_id", record.ID))
	return &TransferResponse{Transfer: toDTO(*record)}, nil
}

// settle runs the lookup, balance check, debit, credit and ledger steps in tx.
// It starts in LOOKUP_SENDER and ends in RECORD_LEDGER.
func (uc *Usecase) settle(ctx context.Context, tx Tx, st *tracker, in TransferRequest, monto decimal.Decimal) (*domain.Transfer, error) {
	sender, err := tx.FindUserByName(ctx, in.Emisor)
	if err != nil {
		return nil, err
	}

	st.advance()
	receiver, err := tx.FindUserByName(ctx, in.Receptor)
	if err != nil {
		return nil, err
	}

	st.advance()
	if sender.Balance.LessThan(monto) {
		return nil, apperrors.NewBusinessRuleError("sufficient_balance", MsgInsufficientFunds)
	}

	st.advance()
	if err := tx.UpdateBalance(ctx, sender.ID, sender.Balance.Sub(monto)); err != nil {
		return nil, err
	}

	st.advance()
	if err := tx.UpdateBalance(ctx, receiver.ID, receiver.Balance.Add(monto)); err != nil {
		return nil, err
	}

	st.advance()
	return tx.InsertTransfer(ctx, &domain.Transfer{
		Emisor:   sender.ID,
		Receptor: receiver.ID,
		Monto:    monto,
		Fecha:    uc.now(),
	})
}

// abort rolls tx back after cause. When the rollback fails too, both errors
// are logged and a RollbackError is returned in place of cause.
func (uc *Usecase) abort(tx Tx, st *tracker, cause error) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		st.log.Error("transfer rollback failed",
			zap.String("state", string(st.state)),
			zap.NamedError("cause", cause),
			zap.NamedError("rollback_error", rbErr),
		)
		return apperrors.NewRollbackError(MsgRollbackFailed, cause, rbErr)
	}
	st.fail(cause)
	return cause
}

// validateRequest checks the request before any database interaction and
// returns the amount to move.
func (uc *Usecase) validateRequest(in TransferRequest) (decimal.Decimal, error) {
	if err := uc.validate.Struct(in); err != nil {
		return decimal.Zero, apperrors.NewValidationError("", MsgInvalidInput)
	}
	// Amounts must be storable without rounding
	if !in.Monto.IsPositive() || !user.FitsScale(*in.Monto) {
		return decimal.Zero, apperrors.NewValidationError("monto", MsgInvalidInput)
	}
	if in.Emisor == in.Receptor {
		return decimal.Zero, apperrors.NewValidationError("receptor", MsgSameParty)
	}
	return *in.Monto, nil
}

// ListTransfers retrieves every recorded transfer.
func (uc *Usecase) ListTransfers(ctx context.Context) (*ListTransfersResponse, error) {
	transfers, err := uc.repo.List(ctx)
	if err != nil {
		logger.WithContext(ctx, uc.log).Error("failed to list transfers", zap.Error(err))
		return nil, err
	}

	out := make([]Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = toDTO(t)
	}
	return &ListTransfersResponse{Transfers: out}, nil
}

func toDTO(t domain.Transfer) Transfer {
	return Transfer{
		ID:       t.ID,
		Emisor:   t.Emisor,
		Receptor: t.Receptor,
		Monto:    t.Monto,
		Fecha:    t.Fecha,
	}
}

// tracker follows a transfer through its states and logs every transition.
type tracker struct {
	state domain.State
	log   *zap.Logger
}

func (t *tracker) advance() {
	from := t.state
	t.state = t.state.Next()
	t.log.Debug("transfer state", zap.String("from", string(from)), zap.String("to", string(t.state)))
}

// fail moves to the failure state reached from the current one.
func (t *tracker) fail(err error) {
	t.end(t.state.Fail(), "transfer failed", err)
}

// end moves to the terminal state to and logs err at a level matching its kind.
func (t *tracker) end(to domain.State, msg string, err error) {
	from := t.state
	t.state = to
	fields := []zap.Field{
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Error(err),
	}

	var pe *apperrors.PersistenceError
	if errors.As(err, &pe) {
		t.log.Error(msg, fields...)
		return
	}
	t.log.Warn(msg, fields...)
}
