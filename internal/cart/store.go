package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/vmelnikov/food_ordering/internal/cache"
	"github.com/vmelnikov/food_ordering/internal/errs"
)

// Store is the TTL-backed key-value home of carts. Get returns (nil, nil)
// on a miss; Save resets the expiry window.
type Store interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

const keyPrefix = "cart:"

// RedisStore keeps carts as JSON values under cart:<sessionID>.
type RedisStore struct {
	Cache *cache.Cache
}

func cartKey(sessionID string) string { return keyPrefix + sessionID }

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Cart, error) {
	var c Cart
	found, err := s.Cache.Get(ctx, cartKey(sessionID), &c)
	if err != nil {
		return nil, fmt.Errorf("%w: cart read failed: %v", errs.ErrInternal, err)
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

func (s *RedisStore) Save(ctx context.Context, c *Cart) error {
	c.ExpiresAt = time.Now().UTC().Add(TTL)
	if err := s.Cache.Set(ctx, cartKey(c.SessionID), c, TTL); err != nil {
		return fmt.Errorf("%w: cart write failed: %v", errs.ErrInternal, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.Cache.Delete(ctx, cartKey(sessionID)); err != nil {
		return fmt.Errorf("%w: cart delete failed: %v", errs.ErrInternal, err)
	}
	return nil
}
