package cached

import (
	"context"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"account-ledger-service/internal/adapter/cache"
	domain "account-ledger-service/internal/domain/user"
	"account-ledger-service/internal/usecase/user"
)

// UserRepository decorates a persistent user.Repository with a cache-aside
// read path for GetByID and cache eviction on writes.
type UserRepository struct {
	dbRepo user.Repository
	cache  cache.UserCache
	log    *zap.Logger
	group  singleflight.Group
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(dbRepo user.Repository, cache cache.UserCache, log *zap.Logger) *UserRepository {
	return &UserRepository{
		dbRepo: dbRepo,
		cache:  cache,
		log:    log,
	}
}

// Create delegates to the DB repository.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (int64, error) {
	return r.dbRepo.Create(ctx, u)
}

// GetByID serves the user from cache, falling back to the database on a miss.
// Concurrent misses for the same id share one database read. A value read
// while the user was being changed is returned but not cached.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	cachedUser, err := r.cache.Get(ctx, id)
	if err != nil {
		r.log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
	} else if cachedUser != nil {
		return cachedUser, nil
	}

	result, err, shared := r.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		// Taken before the read so an eviction during the read wins
		gen, genErr := r.cache.Generation(ctx, id)

		u, err := r.dbRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if genErr != nil {
			r.log.Warn("cache generation unavailable, not caching user", zap.Int64("id", id), zap.Error(genErr))
			return u, nil
		}
		if _, err := r.cache.Set(ctx, u, gen); err != nil {
			r.log.Warn("failed to cache user", zap.Int64("id", id), zap.Error(err))
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.log.Debug("user read shared by concurrent callers", zap.Int64("id", id))
	}

	// Callers get their own copy; the shared value stays untouched
	u := *result.(*domain.User)
	return &u, nil
}

// Update updates the user in DB and evicts it from the cache.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (int64, error) {
	rows, err := r.dbRepo.Update(ctx, u)
	if err != nil {
		return 0, err
	}

	r.evict(ctx, u.ID)
	return rows, nil
}

// Delete deletes the user from DB and evicts it from the cache.
func (r *UserRepository) Delete(ctx context.Context, id int64) (int64, error) {
	rows, err := r.dbRepo.Delete(ctx, id)
	if err != nil {
		return 0, err
	}

	r.evict(ctx, id)
	return rows, nil
}

// List delegates to the DB repository.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.dbRepo.List(ctx)
}

func (r *UserRepository) evict(ctx context.Context, id int64) {
	if err := r.cache.Delete(ctx, id); err != nil {
		r.log.Warn("failed to evict user from cache", zap.Int64("id", id), zap.Error(err))
	}
}
