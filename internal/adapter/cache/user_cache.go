package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domain "account-ledger-service/internal/domain/user"
)

const keyPrefix = "usuario:"

// entryVersion changes whenever the cached layout does; older entries are treated as misses.
const entryVersion = 1

// entry is the cached form of a user.
type entry struct {
	V       int             `json:"v"`
	ID      int64           `json:"id"`
	Nombre  string          `json:"nombre"`
	Balance decimal.Decimal `json:"balance"`
}

func newEntry(u *domain.User) entry {
	return entry{V: entryVersion, ID: u.ID, Nombre: u.Nombre, Balance: u.Balance}
}

func (e entry) user() *domain.User {
	return &domain.User{ID: e.ID, Nombre: e.Nombre, Balance: e.Balance}
}

// setIfGeneration writes KEYS[1] only while the generation in KEYS[2] still
// equals ARGV[3]. A missing generation counts as 0.
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[3] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// UserCache defines the interface for user caching operations.
//
// Every eviction bumps a per-user generation. A reader takes the generation
// before loading from the database and passes it to Set, so a value read
// before a concurrent write is never cached after that write's eviction.
type UserCache interface {
	// Get retrieves a user from cache by ID.
	// Returns nil if user is not found in cache.
	Get(ctx context.Context, id int64) (*domain.User, error)

	// Generation returns the current eviction generation of id.
	Generation(ctx context.Context, id int64) (int64, error)

	// Set stores user with the configured TTL if its generation is still gen.
	// It reports whether the entry was written.
	Set(ctx context.Context, user *domain.User, gen int64) (bool, error)

	// Delete removes a user from cache by ID.
	Delete(ctx context.Context, id int64) error

	// DeleteMultiple removes multiple users from cache by IDs.
	DeleteMultiple(ctx context.Context, ids ...int64) error
}

var _ UserCache = (*RedisUserCache)(nil)

// RedisUserCache implements UserCache using Redis as the backing store.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserCache creates a new Redis-backed user cache.
func NewRedisUserCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Key returns the Redis key holding user id.
func Key(id int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, id)
}

// GenerationKey returns the Redis key holding the eviction generation of user id.
func GenerationKey(id int64) string {
	return fmt.Sprintf("%s%d:gen", keyPrefix, id)
}

// generationTTL outlives any entry written under the generation it guards.
func (c *RedisUserCache) generationTTL() time.Duration {
	return max(2*c.ttl, time.Minute)
}

// Get retrieves a user from Redis cache.
func (c *RedisUserCache) Get(ctx context.Context, id int64) (*domain.User, error) {
	data, err := c.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("cache miss", zap.Int64("user_id", id))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %d: %w", id, err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		// A corrupt entry is dropped so the next read repopulates it
		_ = c.client.Del(ctx, Key(id)).Err()
		return nil, fmt.Errorf("cache decode %d: %w", id, err)
	}
	if e.V != entryVersion || e.ID != id {
		c.log.Debug("stale cache entry", zap.Int64("user_id", id), zap.Int("version", e.V))
		_ = c.client.Del(ctx, Key(id)).Err()
		return nil, nil
	}

	c.log.Debug("cache hit", zap.Int64("user_id", id))
	return e.user(), nil
}

// Generation returns the eviction generation of user id, 0 if it was never evicted.
func (c *RedisUserCache) Generation(ctx context.Context, id int64) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation %d: %w", id, err)
	}
	return gen, nil
}

// Set stores a user in Redis cache with TTL unless it was evicted after gen was read.
func (c *RedisUserCache) Set(ctx context.Context, user *domain.User, gen int64) (bool, error) {
	if user == nil {
		return false, errors.New("cannot cache nil user")
	}

	data, err := json.Marshal(newEntry(user))
	if err != nil {
		return false, fmt.Errorf("cache encode %d: %w", user.ID, err)
	}

	written, err := setIfGeneration.Run(ctx, c.client,
		[]string{Key(user.ID), GenerationKey(user.ID)},
		data, c.ttl.Milliseconds(), gen,
	).Int()
	if err != nil {
		return false, fmt.Errorf("cache set %d: %w", user.ID, err)
	}
	if written == 0 {
		c.log.Debug("user evicted during read, not cached", zap.Int64("user_id", user.ID), zap.Int64("generation", gen))
		return false, nil
	}

	c.log.Debug("cached user", zap.Int64("user_id", user.ID), zap.Duration("ttl", c.ttl))
	return true, nil
}

// Delete removes a user from Redis cache.
func (c *RedisUserCache) Delete(ctx context.Context, id int64) error {
	return c.DeleteMultiple(ctx, id)
}

// DeleteMultiple removes multiple users from Redis cache and bumps their
// generations in one MULTI/EXEC round trip.
func (c *RedisUserCache) DeleteMultiple(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	genTTL := c.generationTTL()
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Del(ctx, Key(id))
			pipe.Incr(ctx, GenerationKey(id))
			pipe.PExpire(ctx, GenerationKey(id), genTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache delete %v: %w", ids, err)
	}

	c.log.Debug("evicted users from cache", zap.Int64s("user_ids", ids))
	return nil
}
