// Package service has business logic: it glues the ledger core to
// storage, the price source and the event bus
package service

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"

	"github.com/dkravchuk/papertrader/internal/events"
	"github.com/dkravchuk/papertrader/internal/ledger"
	"github.com/dkravchuk/papertrader/internal/model"
	"github.com/dkravchuk/papertrader/internal/prices"
	"github.com/dkravchuk/papertrader/internal/tradelog"
)

// Storage is the durable store behind the service. ApplyTrade is the
// single atomic write of every mutation (see tradelog.Store).
type Storage interface {
	CreateUser(ctx context.Context, u *model.User) error
	UserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateAccount(ctx context.Context, acc *model.Account) error
	LoadAccount(ctx context.Context, ownerID string) (*model.Account, error)
	tradelog.Store
}

// Service executes account operations. Mutations on one owner are
// serialized through a per-owner mutex; different owners run in parallel.
type Service struct {
	store    Storage
	log      *tradelog.Log
	prices   prices.Source
	pub      events.Publisher
	muOwners sync.Mutex
	owners   map[string]*sync.Mutex

	muSessions sync.RWMutex
	sessions   map[string]string // token -> ownerID
}

// NewService is constructor. pub may be nil when no event bus is wired.
func NewService(store Storage, tradeLog *tradelog.Log, src prices.Source, pub events.Publisher) *Service {
	return &Service{
		store:    store,
		log:      tradeLog,
		prices:   src,
		pub:      pub,
		owners:   make(map[string]*sync.Mutex),
		sessions: make(map[string]string),
	}
}

// Deposit adds cash to the owner's account
func (s *Service) Deposit(ctx context.Context, ownerID string, amount decimal.Decimal) (*model.Account, error) {
	return s.mutate(ctx, ownerID, func(l *ledger.Ledger) (*model.TradeEntry, error) {
		return l.Deposit(amount)
	})
}

// Buy purchases shares at the given price. The price is the caller's:
// the handler resolves it from the price source when the client omits it.
func (s *Service) Buy(ctx context.Context, ownerID, symbol string, quantity int64, price decimal.Decimal) (*model.Account, error) {
	return s.mutate(ctx, ownerID, func(l *ledger.Ledger) (*model.TradeEntry, error) {
		return l.Buy(symbol, quantity, price)
	})
}

// Sell sells shares at the given price
func (s *Service) Sell(ctx context.Context, ownerID, symbol string, quantity int64, price decimal.Decimal) (*model.Account, error) {
	return s.mutate(ctx, ownerID, func(l *ledger.Ledger) (*model.TradeEntry, error) {
		return l.Sell(symbol, quantity, price)
	})
}

// Portfolio returns the current account state
func (s *Service) Portfolio(ctx context.Context, ownerID string) (*model.Account, error) {
	return s.store.LoadAccount(ctx, ownerID)
}

// History returns the owner's trade log, oldest first
func (s *Service) History(ctx context.Context, ownerID string) ([]model.TradeEntry, error) {
	return s.log.History(ctx, ownerID)
}

// Quote resolves the current price for a symbol
func (s *Service) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return s.prices.GetPrice(ctx, symbol)
}

// Reconcile replays the owner's trade log from a zero balance and
// reports whether it reproduces the stored account
func (s *Service) Reconcile(ctx context.Context, ownerID string) (bool, error) {
	lock := s.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	acc, err := s.store.LoadAccount(ctx, ownerID)
	if err != nil {
		return false, err
	}
	entries, err := s.log.History(ctx, ownerID)
	if err != nil {
		return false, err
	}
	replayed, err := tradelog.Replay(ownerID, decimal.Zero, entries)
	if err != nil {
		return false, err
	}
	if !replayed.Cash.Equal(acc.Cash) || len(replayed.Holdings) != len(acc.Holdings) {
		return false, nil
	}
	for symbol, quantity := range acc.Holdings {
		if replayed.Holdings[symbol] != quantity {
			return false, nil
		}
	}
	return true, nil
}

// mutate runs one ledger operation under the owner's lock: load the
// account, apply the operation to a working copy, then commit state and
// entry in one durable write. On any error nothing is applied.
func (s *Service) mutate(ctx context.Context, ownerID string,
	op func(l *ledger.Ledger) (*model.TradeEntry, error)) (*model.Account, error) {
	lock := s.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	acc, err := s.store.LoadAccount(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	l := ledger.FromAccount(acc)
	entry, err := op(l)
	if err != nil {
		return nil, err
	}
	updated := l.Account()
	if err = s.log.Append(ctx, updated, entry); err != nil {
		return nil, err
	}

	s.publish(entry)
	log.Infof("executed %s for owner %s: symbol=%s quantity=%d delta=%s cash=%s",
		entry.Side, ownerID, entry.Symbol, entry.Quantity, entry.CashDelta, updated.Cash)
	return updated, nil
}

func (s *Service) ownerLock(ownerID string) *sync.Mutex {
	s.muOwners.Lock()
	defer s.muOwners.Unlock()
	if _, ok := s.owners[ownerID]; !ok {
		s.owners[ownerID] = &sync.Mutex{}
	}
	return s.owners[ownerID]
}

// publish sends the trade event. Delivery is best effort: the trade is
// already committed, so a bus failure only gets logged.
func (s *Service) publish(entry *model.TradeEntry) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(entry.OwnerID, events.FromEntry(entry)); err != nil {
		log.Errorf("publish trade %d: %v", entry.ID, err)
	}
}
