package server

import (
	"github.com/shopspring/decimal"

	"github.com/dkravchuk/papertrader/internal/model"
)

type SignUpSchema struct {
	Username       string           `json:"username" validate:"required,min=3,max=32"`
	Password       string           `json:"password" validate:"required,min=8"`
	InitialDeposit *decimal.Decimal `json:"initial_deposit"`
}

type SignUpResponseSchema struct {
	OwnerID string `json:"owner_id"`
}

type LoginSchema struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponseSchema struct {
	Token string `json:"token"`
}

type DepositSchema struct {
	Amount *decimal.Decimal `json:"amount" validate:"required"`
}

// OrderSchema carries a buy or sell request. Price is optional: when
// omitted the server fills it from the price source.
type OrderSchema struct {
	Symbol   string           `json:"symbol" validate:"required"`
	Quantity *int64           `json:"quantity" validate:"required"`
	Price    *decimal.Decimal `json:"price"`
}

type AccountSchema struct {
	OwnerID  string           `json:"owner_id"`
	Cash     decimal.Decimal  `json:"cash"`
	Holdings map[string]int64 `json:"holdings"`
}

type QuoteSchema struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

type ReconcileSchema struct {
	OwnerID    string `json:"owner_id"`
	Consistent bool   `json:"consistent"`
}

func accountSchema(acc *model.Account) AccountSchema {
	return AccountSchema{OwnerID: acc.OwnerID, Cash: acc.Cash, Holdings: acc.Holdings}
}
