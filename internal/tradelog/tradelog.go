// Package tradelog keeps the append-only history of executed ledger
// operations and can rebuild an account from it.
package tradelog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkravchuk/papertrader/internal/ledger"
	"github.com/dkravchuk/papertrader/internal/model"
)

// Store is the durable side of the log. ApplyTrade must persist the
// account state and the entry in one atomic write and assign the entry ID.
type Store interface {
	ApplyTrade(ctx context.Context, acc *model.Account, entry *model.TradeEntry) error
	TradesByOwner(ctx context.Context, ownerID string) ([]model.TradeEntry, error)
}

// Log appends trade entries and serves ordered history. Entries are never
// mutated or reordered after append.
type Log struct {
	store  Store
	mu     sync.Mutex
	lastTS map[string]time.Time
}

// NewLog is constructor
func NewLog(store Store) *Log {
	return &Log{store: store, lastTS: make(map[string]time.Time)}
}

// Append records one executed mutation together with the account state it
// produced. Timestamps are clamped so they never decrease for one owner.
func (l *Log) Append(ctx context.Context, acc *model.Account, entry *model.TradeEntry) error {
	l.mu.Lock()
	if last, ok := l.lastTS[entry.OwnerID]; ok && entry.Timestamp.Before(last) {
		entry.Timestamp = last
	}
	l.lastTS[entry.OwnerID] = entry.Timestamp
	l.mu.Unlock()

	if err := l.store.ApplyTrade(ctx, acc, entry); err != nil {
		return err
	}
	return nil
}

// History returns all entries for one owner ordered by timestamp
// ascending, ties broken by ID ascending
func (l *Log) History(ctx context.Context, ownerID string) ([]model.TradeEntry, error) {
	entries, err := l.store.TradesByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

// Replay folds entries over an initial cash balance and empty holdings,
// yielding the account state after the last entry. It is pure and only
// used for reconciliation and tests.
func Replay(ownerID string, initialCash decimal.Decimal, entries []model.TradeEntry) (*model.Account, error) {
	cash := initialCash
	holdings := make(map[string]int64)
	for _, entry := range entries {
		cash = cash.Add(entry.CashDelta)
		switch entry.Side {
		case model.SideBuy:
			holdings[entry.Symbol] += entry.Quantity
		case model.SideSell:
			holdings[entry.Symbol] -= entry.Quantity
			if holdings[entry.Symbol] < 0 {
				return nil, fmt.Errorf("%w: negative holding of %s replaying entry %d",
					ledger.ErrInvariantViolation, entry.Symbol, entry.ID)
			}
			if holdings[entry.Symbol] == 0 {
				delete(holdings, entry.Symbol)
			}
		case model.SideDeposit:
		default:
			return nil, fmt.Errorf("%w: unknown side %q in entry %d",
				ledger.ErrInvariantViolation, entry.Side, entry.ID)
		}
		if cash.Sign() < 0 {
			return nil, fmt.Errorf("%w: negative cash replaying entry %d",
				ledger.ErrInvariantViolation, entry.ID)
		}
	}
	return &model.Account{OwnerID: ownerID, Cash: cash, Holdings: holdings}, nil
}
