package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// cartTTL is how long an untouched cart survives. Every write refreshes it.
const cartTTL = 24 * time.Hour

type redisRepo struct{ client *redis.Client }

// NewRedisRepository creates a Redis-backed cart repository.
// Carts are session-scoped: they live under a per-customer key with a
// sliding TTL rather than in Postgres.
func NewRedisRepository(client *redis.Client) Repository {
	return &redisRepo{client: client}
}

func cartKey(customerID string) string { return "cart:" + customerID }

func (r *redisRepo) Get(ctx context.Context, customerID string) (*Cart, error) {
	data, err := r.client.Get(ctx, cartKey(customerID)).Bytes()
	if err == redis.Nil {
		return &Cart{CustomerID: customerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	c := &Cart{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}

func (r *redisRepo) Save(ctx context.Context, c *Cart) error {
	c.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.client.Set(ctx, cartKey(c.CustomerID), data, cartTTL).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *redisRepo) Delete(ctx context.Context, customerID string) error {
	if err := r.client.Del(ctx, cartKey(customerID)).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
