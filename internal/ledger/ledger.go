// Package ledger enforces the mutation rules of one account: cash never
// goes negative, holdings never go negative and never keep a zero entry,
// and every successful mutation yields exactly one trade entry.
package ledger

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkravchuk/papertrader/internal/model"
)

var symbolRe = regexp.MustCompile(`^[A-Z][A-Z0-9.]{0,7}$`)

// Ledger holds the state of one account and executes deposit, buy and
// sell against it. The three operations are all-or-nothing: on any error
// the state is exactly as it was before the call.
//
// A Ledger is not safe for concurrent use. Callers serialize operations
// per owner (see service.Service).
type Ledger struct {
	ownerID  string
	cash     decimal.Decimal
	holdings map[string]int64
}

// New creates a ledger for a fresh account with an initial cash balance
func New(ownerID string, initialCash decimal.Decimal) (*Ledger, error) {
	if initialCash.Sign() < 0 {
		return nil, fmt.Errorf("%w: initial cash %s", ErrInvalidAmount, initialCash)
	}
	return &Ledger{
		ownerID:  ownerID,
		cash:     initialCash,
		holdings: make(map[string]int64),
	}, nil
}

// FromAccount builds a ledger over a copy of a stored account
func FromAccount(acc *model.Account) *Ledger {
	c := acc.Clone()
	return &Ledger{ownerID: c.OwnerID, cash: c.Cash, holdings: c.Holdings}
}

// Deposit adds a positive amount to cash
func (l *Ledger) Deposit(amount decimal.Decimal) (*model.TradeEntry, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: deposit of %s", ErrInvalidAmount, amount)
	}
	l.cash = l.cash.Add(amount)
	return l.entry(model.SideDeposit, "", 0, decimal.Zero, amount), nil
}

// Buy exchanges cash for quantity shares of symbol at the given price.
// The price comes from the caller; the ledger only validates and applies.
func (l *Ledger) Buy(symbol string, quantity int64, price decimal.Decimal) (*model.TradeEntry, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if err = validateOrder(quantity, price); err != nil {
		return nil, err
	}
	cost := price.Mul(decimal.NewFromInt(quantity))
	if l.cash.Cmp(cost) < 0 {
		return nil, fmt.Errorf("%w: have %s, need %s", ErrInsufficientFunds, l.cash, cost)
	}
	l.cash = l.cash.Sub(cost)
	l.holdings[symbol] += quantity
	if l.cash.Sign() < 0 {
		// Unreachable given the funds check above. Undo and report a bug.
		l.cash = l.cash.Add(cost)
		l.reduceHolding(symbol, quantity)
		return nil, fmt.Errorf("%w: cash went negative on buy", ErrInvariantViolation)
	}
	return l.entry(model.SideBuy, symbol, quantity, price, cost.Neg()), nil
}

// Sell exchanges quantity shares of symbol for cash at the given price.
// The holding entry is removed, not zeroed, when the last share is sold.
func (l *Ledger) Sell(symbol string, quantity int64, price decimal.Decimal) (*model.TradeEntry, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if err = validateOrder(quantity, price); err != nil {
		return nil, err
	}
	held, ok := l.holdings[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not held", ErrUnknownSymbol, symbol)
	}
	if held < quantity {
		return nil, fmt.Errorf("%w: have %d, selling %d", ErrInsufficientHoldings, held, quantity)
	}
	l.reduceHolding(symbol, quantity)
	proceeds := price.Mul(decimal.NewFromInt(quantity))
	l.cash = l.cash.Add(proceeds)
	return l.entry(model.SideSell, symbol, quantity, price, proceeds), nil
}

// Cash returns the current cash balance
func (l *Ledger) Cash() decimal.Decimal {
	return l.cash
}

// Holding returns the share count for symbol, zero if not held
func (l *Ledger) Holding(symbol string) int64 {
	return l.holdings[symbol]
}

// Account returns a snapshot of the ledger state for persistence
func (l *Ledger) Account() *model.Account {
	acc := model.Account{OwnerID: l.ownerID, Cash: l.cash, Holdings: l.holdings}
	return acc.Clone()
}

// NormalizeSymbol uppercases a ticker and rejects anything that does not
// look like one
func NormalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolRe.MatchString(symbol) {
		return "", fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	return symbol, nil
}

func validateOrder(quantity int64, price decimal.Decimal) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if price.Sign() <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPrice, price)
	}
	return nil
}

func (l *Ledger) reduceHolding(symbol string, quantity int64) {
	l.holdings[symbol] -= quantity
	if l.holdings[symbol] <= 0 {
		delete(l.holdings, symbol)
	}
}

func (l *Ledger) entry(side model.Side, symbol string, quantity int64, price, cashDelta decimal.Decimal) *model.TradeEntry {
	return &model.TradeEntry{
		OwnerID:   l.ownerID,
		Symbol:    symbol,
		Side:      side,
		Quantity:  quantity,
		Price:     price,
		CashDelta: cashDelta,
		Timestamp: time.Now().UTC(),
	}
}
