package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// QuoteStore holds short-lived price quotes.
type QuoteStore interface {
	Save(ctx context.Context, q *PriceQuote) error
	Get(ctx context.Context, customerID, quoteID string) (*PriceQuote, error)
	Delete(ctx context.Context, customerID, quoteID string) error
}

// ErrQuoteNotFound is returned when a quote has expired or never existed.
var ErrQuoteNotFound = errors.New("quote not found or expired")

type redisQuoteStore struct {
	client *redis.Client
}

// NewRedisQuoteStore creates a QuoteStore backed by Redis. Quotes expire with
// their key, so staleness needs no sweeper.
func NewRedisQuoteStore(client *redis.Client) QuoteStore {
	return &redisQuoteStore{client: client}
}

func quoteKey(customerID, quoteID string) string {
	return fmt.Sprintf("quote:%s:%s", customerID, quoteID)
}

func (s *redisQuoteStore) Save(ctx context.Context, q *PriceQuote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}
	if err := s.client.Set(ctx, quoteKey(q.CustomerID, q.ID.String()), data, quoteTTL).Err(); err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

func (s *redisQuoteStore) Get(ctx context.Context, customerID, quoteID string) (*PriceQuote, error) {
	data, err := s.client.Get(ctx, quoteKey(customerID, quoteID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to load quote: %w", err)
	}
	var q PriceQuote
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote: %w", err)
	}
	return &q, nil
}

func (s *redisQuoteStore) Delete(ctx context.Context, customerID, quoteID string) error {
	return s.client.Del(ctx, quoteKey(customerID, quoteID)).Err()
}
