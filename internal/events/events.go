// Package events defines the outbound trade event contract
package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkravchuk/papertrader/internal/model"
)

// Publisher delivers an event to an external bus. Key groups events of
// one owner so their order is preserved.
type Publisher interface {
	Publish(key string, event any) error
}

// TradeExecuted is emitted after every successful ledger mutation
type TradeExecuted struct {
	TradeID    int64           `json:"trade_id"`
	OwnerID    string          `json:"owner_id"`
	Symbol     string          `json:"symbol,omitempty"`
	Side       model.Side      `json:"side"`
	Quantity   int64           `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	CashDelta  decimal.Decimal `json:"cash_delta"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// FromEntry maps a trade entry to its event
func FromEntry(entry *model.TradeEntry) TradeExecuted {
	return TradeExecuted{
		TradeID:    entry.ID,
		OwnerID:    entry.OwnerID,
		Symbol:     entry.Symbol,
		Side:       entry.Side,
		Quantity:   entry.Quantity,
		Price:      entry.Price,
		CashDelta:  entry.CashDelta,
		OccurredAt: entry.Timestamp,
	}
}
