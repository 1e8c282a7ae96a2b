// Package prices supplies per-symbol quotes. It knows nothing about
// accounts or trading; the ledger takes prices as plain arguments.
package prices

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"

	"github.com/dkravchuk/papertrader/internal/ledger"
	"github.com/dkravchuk/papertrader/internal/model"
	"github.com/dkravchuk/papertrader/internal/repository"
)

// ErrPriceUnavailable indicates the source could not produce a quote
var ErrPriceUnavailable = errors.New("price unavailable")

// Source returns a positive decimal price per symbol
type Source interface {
	GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Static serves quotes from a fixed in-memory table. It stands in for a
// real market-data feed in the demo.
type Static struct {
	mu     sync.RWMutex
	quotes map[string]decimal.Decimal
}

// NewStatic returns a source seeded with a handful of well known tickers
func NewStatic() *Static {
	quotes := map[string]string{
		"AAPL": "100.00",
		"MSFT": "310.25",
		"TSLA": "201.10",
		"GOOG": "142.50",
		"AMZN": "133.75",
		"NVDA": "465.30",
	}
	s := Static{quotes: make(map[string]decimal.Decimal, len(quotes))}
	for symbol, price := range quotes {
		s.quotes[symbol] = decimal.RequireFromString(price)
	}
	return &s
}

// GetPrice returns the table price for a symbol
func (s *Static) GetPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	symbol, err := ledger.NormalizeSymbol(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.quotes[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no quote for %s", ledger.ErrUnknownSymbol, symbol)
	}
	return price, nil
}

// SetPrice adds or replaces a quote
func (s *Static) SetPrice(symbol string, price decimal.Decimal) error {
	symbol, err := ledger.NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	if price.Sign() <= 0 {
		return fmt.Errorf("%w: %s", ledger.ErrInvalidPrice, price)
	}
	s.mu.Lock()
	s.quotes[symbol] = price
	s.mu.Unlock()
	return nil
}

// Cached decorates a source with the redis quote cache. A cache failure
// falls through to the source, never to the caller.
type Cached struct {
	src   Source
	cache *repository.QuoteCache
}

// NewCached is constructor
func NewCached(src Source, cache *repository.QuoteCache) *Cached {
	return &Cached{src: src, cache: cache}
}

// GetPrice returns the cached quote when fresh, otherwise asks the
// source and caches the answer
func (c *Cached) GetPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol, err := ledger.NormalizeSymbol(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if quote, err := c.cache.Get(ctx, symbol); err == nil {
		return quote.Price, nil
	}
	price, err := c.src.GetPrice(ctx, symbol)
	if err != nil {
		if errors.Is(err, ledger.ErrUnknownSymbol) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	err = c.cache.Set(ctx, &model.Quote{Symbol: symbol, Price: price, Update: time.Now().UTC()})
	if err != nil {
		log.Errorf("cache quote for %s: %v", symbol, err)
	}
	return price, nil
}
