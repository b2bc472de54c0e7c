// Read-through Redis cache in front of the listing store. Base fields only are
// cached; prices are always derived at read time.
package listing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"foodbridge/internal/types"
)

type Repository interface {
	Create(ctx context.Context, l *Listing) error
	Get(ctx context.Context, id types.ID) (*Listing, error)
	ListActive(ctx context.Context) ([]*Listing, error)
	Transition(ctx context.Context, id types.ID, fromExpected *Status, to Status) error
}

type CachedRepository struct {
	primary Repository
	redis   *redis.Client
	ttl     time.Duration
}

func NewCachedRepository(primary Repository, redisClient *redis.Client, ttl time.Duration) *CachedRepository {
	return &CachedRepository{primary: primary, redis: redisClient, ttl: ttl}
}

func (r *CachedRepository) Get(ctx context.Context, id types.ID) (*Listing, error) {
	key := cacheKey(id)

	cached, err := r.redis.Get(ctx, key).Bytes()
	if err == nil {
		var l Listing
		if err := json.Unmarshal(cached, &l); err == nil {
			return &l, nil
		}
	}

	l, err := r.primary.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(l); err == nil {
		r.redis.Set(ctx, key, data, r.ttl)
	}
	return l, nil
}

func (r *CachedRepository) Create(ctx context.Context, l *Listing) error {
	return r.primary.Create(ctx, l)
}

func (r *CachedRepository) ListActive(ctx context.Context) ([]*Listing, error) {
	return r.primary.ListActive(ctx)
}

func (r *CachedRepository) Transition(ctx context.Context, id types.ID, fromExpected *Status, to Status) error {
	defer r.redis.Del(ctx, cacheKey(id))
	return r.primary.Transition(ctx, id, fromExpected, to)
}

// Invalidate drops the cached row after an out-of-band status write (the
// fulfillment store mutates listings inside its own transaction).
func (r *CachedRepository) Invalidate(ctx context.Context, id types.ID) {
	r.redis.Del(ctx, cacheKey(id))
}

func cacheKey(id types.ID) string {
	return "listing:" + string(id)
}
