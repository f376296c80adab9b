package transfer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	domain "account-ledger-service/internal/domain/transfer"
	"account-ledger-service/internal/domain/user"
	apperrors "account-ledger-service/pkg/errors"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context) ([]domain.Transfer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transfer), args.Error(1)
}

func (m *MockRepository) Begin(ctx context.Context) (Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Tx), args.Error(1)
}

// MockTx is a mock implementation of Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) FindUserByName(ctx context.Context, nombre string) (*user.User, error) {
	args := m.Called(ctx, nombre)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockTx) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	return m.Called(ctx, id, balance.String()).Error(0)
}

func (m *MockTx) InsertTransfer(ctx context.Context, t *domain.Transfer) (*domain.Transfer, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transfer), args.Error(1)
}

func (m *MockTx) Commit() error {
	return m.Called().Error(0)
}

func (m *MockTx) Rollback() error {
	return m.Called().Error(0)
}

// MockCache is a mock implementation of CacheInvalidator
type MockCache struct {
	mock.Mock
}

func (m *MockCache) DeleteMultiple(ctx context.Context, ids ...int64) error {
	return m.Called(ctx, ids).Error(0)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	uc    *Usecase
	repo  *MockRepository
	tx    *MockTx
	cache *MockCache
	ctx   context.Context
}

func setupFixture(t *testing.T) *fixture {
	f := &fixture{
		repo:  new(MockRepository),
		tx:    new(MockTx),
		cache: new(MockCache),
		ctx:   context.Background(),
	}
	f.uc = New(f.repo, f.cache, zaptest.NewLogger(t))
	f.uc.now = func() time.Time { return fixedNow }
	return f
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

var (
	ana  = &user.User{ID: 1, Nombre: "Ana", Balance: decimal.NewFromInt(100)}
	beto = &user.User{ID: 2, Nombre: "Beto", Balance: decimal.NewFromInt(0)}
)

func TestTransfer_Success(t *testing.T) {
	f := setupFixture(t)

	f.repo.On("Begin", f.ctx).Return(f.tx, nil)
	f.tx.On("FindUserByName", f.ctx, "Ana").Return(ana, nil)
	f.tx.On("FindUserByName", f.ctx, "Beto").Return(beto, nil)
	f.tx.On("UpdateBalance", f.ctx, int64(1), "60").Return(nil).Once()
	f.tx.On("UpdateBalance", f.ctx, int64(2), "40").Return(nil).Once()
	f.tx.On("InsertTransfer", f.ctx, mock.MatchedBy(func(tr *domain.Transfer) bool {
		return tr.Emisor == 1 && tr.Receptor == 2 && tr.Monto.Equal(decimal.NewFromInt(40)) && tr.Fecha.Equal(fixedNow)
	})).Return(&domain.Transfer{ID: 10, Emisor: 1, Receptor: 2, Monto: decimal.NewFromInt(40), Fecha: fixedNow}, nil)
	f.tx.On("Commit").Return(nil)
	f.cache.On("DeleteMultiple", f.ctx, []int64{1, 2}).Return(nil)

	resp, err := f.uc.Transfer(f.ctx, TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("40")})
	require.NoError(t, err)

	assert.Equal(t, int64(10), resp.Transfer.ID)
	assert.Equal(t, int64(1), resp.Transfer.Emisor)
	assert.Equal(t, int64(2), resp.Transfer.Receptor)
	assert.True(t, resp.Transfer.Monto.Equal(decimal.NewFromInt(40)))

	f.tx.AssertExpectations(t)
	f.tx.AssertNotCalled(t, "Rollback")
	f.cache.AssertExpectations(t)
}

func TestTransfer_DebitBeforeCredit(t *testing.T) {
	f := setupFixture(t)

	var order []int64
	f.repo.On("Begin", f.ctx).Return(f.tx, nil)
	f.tx.On("FindUserByName", f.ctx, "Ana").Return(ana, nil)
	f.tx.On("FindUserByName", f.ctx, "Beto").Return(beto, nil)
	f.tx.On("UpdateBalance", f.ctx, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { order = append(order, args.Get(1).(int64)) }).
		Return(nil)
	f.tx.On("InsertTransfer", f.ctx, mock.Anything).Return(&domain.Transfer{ID: 1}, nil)
	f.tx.On("Commit").Return(nil)
	f.cache.On("DeleteMultiple", f.ctx, mock.Anything).Return(nil)

	_, err := f.uc.Transfer(f.ctx, TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("1")})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, order)
}

func TestTransfer_ExactBalanceIsAllowed(t *testing.T) {
	f := setupFixture(t)

	f.repo.On("Begin", f.ctx).Return(f.tx, nil)
	f.tx.On("FindUserByName", f.ctx, "Ana").Return(ana, nil)
	f.tx.On("FindUserByName", f.ctx, "Beto").Return(beto, nil)
	f.tx.On("UpdateBalance", f.ctx, int64(1), "0").Return(nil)
	f.tx.On("UpdateBalance", f.ctx, int64(2), "100").Return(nil)
	f.tx.On("InsertTransfer", f.ctx, mock.Anything).Return(&domain.Transfer{ID: 1}, nil)
	f.tx.On("Commit").Return(nil)
	f.cache.On("DeleteMultiple", f.ctx, mock.Anything).Return(nil)

	_, err := f.uc.Transfer(f.ctx, TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("100")})
	assert.NoError(t, err)
}

func TestTransfer_ValidationFailsBeforeBegin(t *testing.T) {
	tests := []struct {
		name string
		in   TransferRequest
		msg  string
	}{
		{"missing emisor", TransferRequest{Receptor: "Beto", Monto: amount("1")}, MsgInvalidInput},
		{"missing receptor", TransferRequest{Emisor: "Ana", Monto: amount("1")}, MsgInvalidInput},
		{"missing monto", TransferRequest{Emisor: "Ana", Receptor: "Beto"}, MsgInvalidInput},
		{"zero monto", TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("0")}, MsgInvalidInput},
		{"negative monto", TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("-5")}, MsgInvalidInput},
		{"sub-cent monto", TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("0.005")}, MsgInvalidInput},
		{"tenth of a cent", TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("0.001")}, MsgInvalidInput},
		{"self transfer", TransferRequest{Emisor: "Ana", Receptor: "Ana", Monto: amount("5")}, MsgSameParty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t)

			resp, err := f.uc.Transfer(f.ctx, tt.in)
			assert.Nil(t, resp)

			var ve *apperrors.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.msg, ve.Error())
			f.repo.AssertNotCalled(t, "Begin", mock.Anything)
		})
	}
}

func TestTransfer_InsufficientFundsRollsBack(t *testing.T) {
	f := setupFixture(t)

	f.repo.On("Begin", f.ctx).Return(f.tx, nil)
	f.tx.On("FindUserByName", f.ctx, "Ana").Return(ana, nil)
	f.tx.On("FindUserByName", f.ctx, "Beto").Return(beto, nil)
	f.tx.On("Rollback").Return(nil)

	_, err := f.uc.Transfer(f.ctx, TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("100.01")})

	var br *apperrors.BusinessRuleError
	require.ErrorAs(t, err, &br)
	assert.Equal(t, MsgInsufficientFunds, br.Error())
	f.tx.AssertCalled(t, "Rollback")
	f.tx.AssertNotCalled(t, "UpdateBalance", mock.Anything, mock.Anything, mock.Anything)
	f.tx.AssertNotCalled(t, "Commit")
	f.cache.AssertNotCalled(t, "DeleteMultiple", mock.Anything, mock.Anything)
}

func TestTransfer_UnknownSenderRollsBack(t *testing.T) {
	f := setupFixture(t)
	notFound := apperrors.NewNotFoundError("user", `El usuario "Nadie" no existe en la base de datos`)

	f.repo.On("Begin", f.ctx).Return(f.tx, nil)
	f.tx.On("FindUserByName", f.ctx, "Nadie").Return(nil, notFound)
	f.tx.On("Rollback").Return(nil)

	_, err := f.uc.Transfer(f.ctx, TransferRequest{Emisor: "Nadie", Receptor: "Beto", Monto: amount("1")})

	assert.ErrorIs(t, err, notFound)
	assert.Contains(t, apperrors.PublicMessage(err, "Error 500"), "no existe")
	f.tx.AssertCalled(t, "Rollback")
	f.tx.AssertNotCalled(t, "FindUserByName", mock.Anything, "Beto")
}

func TestTransfer_AmbiguousReceiverRollsBack(t *testing.T) {
	f := setupFixture(t)
	conflict := apperrors.NewConflictError("user", `El nombre "Beto" corresponde a más de un usuario`)

	f.repo.On("Begin", f.ctx).Return(f.tx, nil)
	f.tx.On("FindUserByName", f.ctx, "Ana").Return(ana, nil)
	f.tx.On("FindUserByName", f.ctx, "Beto").Return(nil, conflict)
	f.tx.On("Rollback").Return(nil)

	_, err := f.uc.Transfer(f.ctx, TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("1")})

	var ce *apperrors.ConflictError
	assert.ErrorAs(t, err, &ce)
	f.tx.AssertCalled(t, "Rollback")
}

func TestTransfer_CreditFailureRollsBack(t *testing.T) {
	f := setupFixture(t)
	dbErr := apperrors.NewPersistenceError("failed to update balance", errors.New("deadlock"))

	f.repo.On("Begin", f.ctx).Return(f.tx, nil)
	f.tx.On("FindUserByName", f.ctx, "Ana").Return(ana, nil)
	f.tx.On("FindUserByName", f.ctx, "Beto").Return(beto, nil)
	f.tx.On("UpdateBalance", f.ctx, int64(1), "90").Return(nil)
	f.tx.On("UpdateBalance", f.ctx, int64(2), "10").Return(dbErr)
	f.tx.On("Rollback").Return(nil)

	_, err := f.uc.Transfer(f.ctx, TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("10")})

	assert.ErrorIs(t, err, dbErr)
	assert.Equal(t, "Error 500", apperrors.PublicMessage(err, "Error 500"))
	f.tx.AssertCalled(t, "Rollback")
	f.tx.AssertNotCalled(t, "InsertTransfer", mock.Anything, mock.Anything)
}

func TestTransfer_RollbackFailure(t *testing.T) {
	f := setupFixture(t)
	dbErr := apperrors.NewPersistenceError("failed to record transfer", errors.New("disk full"))
	rbErr := errors.New("connection reset")

	f.repo.On("Begin", f.ctx).Return(f.tx, nil)
	f.tx.On("FindUserByName", f.ctx, "Ana").Return(ana, nil)
	f.tx.On("FindUserByName", f.ctx, "Beto").Return(beto, nil)
	f.tx.On("UpdateBalance", f.ctx, mock.Anything, mock.Anything).Return(nil)
	f.tx.On("InsertTransfer", f.ctx, mock.Anything).Return(nil, dbErr)
	f.tx.On("Rollback").Return(rbErr)

	_, err := f.uc.Transfer(f.ctx, TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("10")})

	var re *apperrors.RollbackError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, MsgRollbackFailed, apperrors.PublicMessage(err, "Error 500"))
	assert.ErrorIs(t, err, dbErr)
	assert.ErrorIs(t, err, rbErr)
}

func TestTransfer_BeginFailure(t *testing.T) {
	f := setupFixture(t)
	dbErr := apperrors.NewPersistenceError("failed to begin transaction", errors.New("pool exhausted"))

	f.repo.On("Begin", f.ctx).Return(nil, dbErr)

	_, err := f.uc.Transfer(f.ctx, TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("10")})
	assert.ErrorIs(t, err, dbErr)
}

func TestTransfer_CommitFailureDoesNotRollBack(t *testing.T) {
	f := setupFixture(t)
	commitErr := apperrors.NewPersistenceError("failed to commit transfer", errors.New("serialization failure"))

	f.repo.On("Begin", f.ctx).Return(f.tx, nil)
	f.tx.On("FindUserByName", f.ctx, "Ana").Return(ana, nil)
	f.tx.On("FindUserByName", f.ctx, "Beto").Return(beto, nil)
	f.tx.On("UpdateBalance", f.ctx, mock.Anything, mock.Anything).Return(nil)
	f.tx.On("InsertTransfer", f.ctx, mock.Anything).Return(&domain.Transfer{ID: 1}, nil)
	f.tx.On("Commit").Return(commitErr)

	core, logs := observer.New(zapcore.DebugLevel)
	f.uc.log = zap.New(core)

	_, err := f.uc.Transfer(f.ctx, TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("10")})

	assert.ErrorIs(t, err, commitErr)
	f.tx.AssertNotCalled(t, "Rollback")
	f.cache.AssertNotCalled(t, "DeleteMultiple", mock.Anything, mock.Anything)

	entries := logs.FilterMessage("transfer commit failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, string(domain.StateRecordLedger), entries[0].ContextMap()["from"])
	assert.Equal(t, string(domain.StateCommitFailed), entries[0].ContextMap()["to"])
	assert.Zero(t, logs.FilterMessage("transfer failed").Len())
	assert.Zero(t, logs.FilterField(zap.String("to", string(domain.StateRolledBack))).Len())
}

func TestTransfer_CacheFailureDoesNotFailTransfer(t *testing.T) {
	f := setupFixture(t)

	f.repo.On("Begin", f.ctx).Return(f.tx, nil)
	f.tx.On("FindUserByName", f.ctx, "Ana").Return(ana, nil)
	f.tx.On("FindUserByName", f.ctx, "Beto").Return(beto, nil)
	f.tx.On("UpdateBalance", f.ctx, mock.Anything, mock.Anything).Return(nil)
	f.tx.On("InsertTransfer", f.ctx, mock.Anything).Return(&domain.Transfer{ID: 3, Emisor: 1, Receptor: 2}, nil)
	f.tx.On("Commit").Return(nil)
	f.cache.On("DeleteMultiple", f.ctx, []int64{1, 2}).Return(errors.New("redis down"))

	resp, err := f.uc.Transfer(f.ctx, TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("10")})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Transfer.ID)
}

func TestTransfer_NilCache(t *testing.T) {
	repo := new(MockRepository)
	tx := new(MockTx)
	uc := New(repo, nil, zaptest.NewLogger(t))
	ctx := context.Background()

	repo.On("Begin", ctx).Return(tx, nil)
	tx.On("FindUserByName", ctx, "Ana").Return(ana, nil)
	tx.On("FindUserByName", ctx, "Beto").Return(beto, nil)
	tx.On("UpdateBalance", ctx, mock.Anything, mock.Anything).Return(nil)
	tx.On("InsertTransfer", ctx, mock.Anything).Return(&domain.Transfer{ID: 4}, nil)
	tx.On("Commit").Return(nil)

	_, err := uc.Transfer(ctx, TransferRequest{Emisor: "Ana", Receptor: "Beto", Monto: amount("10")})
	assert.NoError(t, err)
}

func TestListTransfers(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := setupFixture(t)

		f.repo.On("List", f.ctx).Return([]domain.Transfer{
			{ID: 1, Emisor: 1, Receptor: 2, Monto: decimal.NewFromInt(40), Fecha: fixedNow},
		}, nil)

		resp, err := f.uc.ListTransfers(f.ctx)
		require.NoError(t, err)
		require.Len(t, resp.Transfers, 1)
		assert.Equal(t, fixedNow, resp.Transfers[0].Fecha)
	})

	t.Run("Repository error", func(t *testing.T) {
		f := setupFixture(t)

		f.repo.On("List", f.ctx).Return(nil, errors.New("db down"))

		_, err := f.uc.ListTransfers(f.ctx)
		assert.Error(t, err)
	})
}
