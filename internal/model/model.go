// Package model has domain entities shared by all layers
package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Side says what a trade entry did to the account
type Side string

const (
	SideBuy     Side = "buy"
	SideSell    Side = "sell"
	SideDeposit Side = "deposit"
)

var (
	// ErrAccountNotFound indicates that no account exists for the owner
	ErrAccountNotFound = errors.New("account not found")
	// ErrUserNotFound indicates that no user exists with the given username
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists indicates that the username is taken
	ErrUserAlreadyExists = errors.New("user already exists")
)

// Account is the financial state of one owner: exact decimal cash and
// integer share counts per symbol. Holdings never keeps a zero entry.
type Account struct {
	OwnerID  string           `json:"owner_id"`
	Cash     decimal.Decimal  `json:"cash"`
	Holdings map[string]int64 `json:"holdings"`
}

// Clone returns a deep copy so callers can mutate freely
func (a *Account) Clone() *Account {
	holdings := make(map[string]int64, len(a.Holdings))
	for symbol, quantity := range a.Holdings {
		holdings[symbol] = quantity
	}
	return &Account{OwnerID: a.OwnerID, Cash: a.Cash, Holdings: holdings}
}

// TradeEntry is one immutable record of an executed ledger mutation.
// ID is assigned by the store at append time. Quantity and Price are zero
// for deposits. CashDelta is signed: negative for buys, positive otherwise.
type TradeEntry struct {
	ID        int64           `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	CashDelta decimal.Decimal `json:"cash_delta"`
	Timestamp time.Time       `json:"timestamp"`
}

// User is a person who can log in and owns one account
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
}

// Quote is a price for one symbol from the price source
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Update time.Time       `json:"update"`
}
