package repository

import (
	"context"
	"time"

	"github.com/go-redis/cache/v8"

	"github.com/dkravchuk/papertrader/internal/model"
)

// QuoteCache keeps recent quotes in redis so repeated lookups for the
// same symbol skip the price source
type QuoteCache struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewQuoteCache is constructor
func NewQuoteCache(cache *cache.Cache, ttl time.Duration) *QuoteCache {
	return &QuoteCache{cache: cache, ttl: ttl}
}

// Set puts a quote into the cache
func (c *QuoteCache) Set(ctx context.Context, quote *model.Quote) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	err := c.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   quote.Symbol,
		Value: quote,
		TTL:   c.ttl,
	})
	if err != nil {
		return err
	}
	return nil
}

// Get returns the cached quote for a symbol, or an error on a miss
func (c *QuoteCache) Get(ctx context.Context, symbol string) (*model.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	var quote model.Quote
	err := c.cache.Get(ctx, symbol, &quote)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}
