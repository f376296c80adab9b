package cached

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"account-ledger-service/internal/adapter/cache"
	domain "account-ledger-service/internal/domain/user"
	apperrors "account-ledger-service/pkg/errors"
)

// MockRepository is a mock implementation of user.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, u *domain.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

// MockCache is a mock implementation of cache.UserCache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockCache) Generation(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, u *domain.User, gen int64) (bool, error) {
	args := m.Called(ctx, u, gen)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCache) DeleteMultiple(ctx context.Context, ids ...int64) error {
	return m.Called(ctx, ids).Error(0)
}

func setup(t *testing.T) (*UserRepository, *MockRepository, *MockCache) {
	db := new(MockRepository)
	c := new(MockCache)
	return NewUserRepository(db, c, zaptest.NewLogger(t)), db, c
}

func TestGetByID_CacheHit(t *testing.T) {
	repo, db, c := setup(t)
	ctx := context.Background()
	cachedUser := &domain.User{ID: 1, Nombre: "Ana", Balance: decimal.NewFromInt(10)}

	c.On("Get", ctx, int64(1)).Return(cachedUser, nil)

	got, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, cachedUser, got)
	db.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestGetByID_CacheMissPopulatesCache(t *testing.T) {
	repo, db, c := setup(t)
	ctx := context.Background()
	dbUser := &domain.User{ID: 2, Nombre: "Beto", Balance: decimal.NewFromInt(5)}

	c.On("Get", ctx, int64(2)).Return(nil, nil)
	c.On("Generation", ctx, int64(2)).Return(int64(4), nil)
	db.On("GetByID", ctx, int64(2)).Return(dbUser, nil)
	c.On("Set", ctx, dbUser, int64(4)).Return(true, nil)

	got, err := repo.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, *dbUser, *got)
	c.AssertExpectations(t)
	db.AssertExpectations(t)
}

func TestGetByID_CacheErrorFallsBackToDatabase(t *testing.T) {
	repo, db, c := setup(t)
	ctx := context.Background()
	dbUser := &domain.User{ID: 3, Nombre: "Caro"}

	c.On("Get", ctx, int64(3)).Return(nil, errors.New("redis down"))
	c.On("Generation", ctx, int64(3)).Return(int64(0), errors.New("redis down"))
	db.On("GetByID", ctx, int64(3)).Return(dbUser, nil)

	got, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Caro", got.Nombre)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetByID_CacheSetErrorStillReturnsUser(t *testing.T) {
	repo, db, c := setup(t)
	ctx := context.Background()
	dbUser := &domain.User{ID: 3, Nombre: "Caro"}

	c.On("Get", ctx, int64(3)).Return(nil, nil)
	c.On("Generation", ctx, int64(3)).Return(int64(0), nil)
	db.On("GetByID", ctx, int64(3)).Return(dbUser, nil)
	c.On("Set", ctx, dbUser, int64(0)).Return(false, errors.New("redis down"))

	got, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Caro", got.Nombre)
}

func TestGetByID_NotFoundIsNotCached(t *testing.T) {
	repo, db, c := setup(t)
	ctx := context.Background()

	c.On("Get", ctx, int64(9)).Return(nil, nil)
	c.On("Generation", ctx, int64(9)).Return(int64(0), nil)
	db.On("GetByID", ctx, int64(9)).Return(nil, apperrors.NewNotFoundError("user", "El usuario 9 no existe"))

	_, err := repo.GetByID(ctx, 9)
	var nf *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetByID_ConcurrentMissesShareOneRead(t *testing.T) {
	repo, db, c := setup(t)
	ctx := context.Background()
	dbUser := &domain.User{ID: 4, Nombre: "Dani"}

	release := make(chan time.Time)
	c.On("Get", ctx, int64(4)).Return(nil, nil)
	c.On("Generation", ctx, int64(4)).Return(int64(0), nil)
	db.On("GetByID", ctx, int64(4)).WaitUntil(release).Return(dbUser, nil)
	c.On("Set", ctx, dbUser, int64(0)).Return(true, nil)

	const callers = 5
	var wg sync.WaitGroup
	var started sync.WaitGroup
	started.Add(callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			u, err := repo.GetByID(ctx, 4)
			assert.NoError(t, err)
			assert.Equal(t, "Dani", u.Nombre)
		}()
	}
	started.Wait()
	close(release)
	wg.Wait()

	// Callers that arrive after the first read completes may start a second one
	calls := 0
	for _, call := range db.Calls {
		if call.Method == "GetByID" {
			calls++
		}
	}
	assert.GreaterOrEqual(t, calls, 1)
	assert.Less(t, calls, callers+1)
}

func TestGetByID_ReadOverlappingEvictionIsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zaptest.NewLogger(t)
	userCache := cache.NewRedisUserCache(client, time.Minute, log)
	db := new(MockRepository)
	repo := NewUserRepository(db, userCache, log)
	ctx := context.Background()

	before := &domain.User{ID: 1, Nombre: "Ana", Balance: decimal.NewFromInt(100)}
	after := &domain.User{ID: 1, Nombre: "Ana", Balance: decimal.NewFromInt(60)}

	// A transfer commits and evicts while the first read is in flight
	db.On("GetByID", ctx, int64(1)).
		Run(func(mock.Arguments) { require.NoError(t, userCache.DeleteMultiple(ctx, 1)) }).
		Return(before, nil).Once()
	db.On("GetByID", ctx, int64(1)).Return(after, nil).Once()

	got, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))
	assert.False(t, mr.Exists(cache.Key(1)))

	got, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(60)))
	assert.True(t, mr.Exists(cache.Key(1)))

	got, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(60)))
	db.AssertNumberOfCalls(t, "GetByID", 2)
}

func TestUpdate_EvictsCache(t *testing.T) {
	repo, db, c := setup(t)
	ctx := context.Background()
	u := &domain.User{ID: 5, Nombre: "Eva", Balance: decimal.NewFromInt(1)}

	db.On("Update", ctx, u).Return(int64(1), nil)
	c.On("Delete", ctx, int64(5)).Return(nil)

	rows, err := repo.Update(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	c.AssertExpectations(t)
}

func TestUpdate_ErrorSkipsEviction(t *testing.T) {
	repo, db, c := setup(t)
	ctx := context.Background()
	u := &domain.User{ID: 5}

	db.On("Update", ctx, u).Return(int64(0), apperrors.NewPersistenceError("failed to update user", errors.New("x")))

	_, err := repo.Update(ctx, u)
	assert.Error(t, err)
	c.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_EvictsCacheEvenIfEvictionFails(t *testing.T) {
	repo, db, c := setup(t)
	ctx := context.Background()

	db.On("Delete", ctx, int64(6)).Return(int64(1), nil)
	c.On("Delete", ctx, int64(6)).Return(errors.New("redis down"))

	rows, err := repo.Delete(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
}

func TestCreateAndList_Delegate(t *testing.T) {
	repo, db, _ := setup(t)
	ctx := context.Background()
	u := &domain.User{Nombre: "Fer"}

	db.On("Create", ctx, u).Return(int64(7), nil)
	db.On("List", ctx).Return([]domain.User{{ID: 7, Nombre: "Fer"}}, nil)

	id, err := repo.Create(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
