package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkravchuk/papertrader/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newLedger(t *testing.T, cash string) *Ledger {
	t.Helper()
	l, err := New("owner-1", dec(cash))
	require.NoError(t, err)
	return l
}

func TestLedger_New(t *testing.T) {
	_, err := New("owner-1", dec("-0.01"))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	l, err := New("owner-1", decimal.Zero)
	require.NoError(t, err)
	assert.True(t, l.Cash().IsZero())
}

func TestLedger_Deposit(t *testing.T) {
	testTable := []struct {
		name      string
		amount    string
		expectErr error
		expectSum string
	}{
		{
			name:      "OK positive amount",
			amount:    "250.50",
			expectSum: "350.50",
		},
		{
			name:      "Failed zero amount",
			amount:    "0",
			expectErr: ErrInvalidAmount,
			expectSum: "100.00",
		},
		{
			name:      "Failed negative amount",
			amount:    "-5.00",
			expectErr: ErrInvalidAmount,
			expectSum: "100.00",
		},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			l := newLedger(t, "100.00")
			entry, err := l.Deposit(dec(testCase.amount))
			if testCase.expectErr != nil {
				assert.ErrorIs(t, err, testCase.expectErr)
				assert.Nil(t, entry)
			} else {
				require.NoError(t, err)
				assert.Equal(t, model.SideDeposit, entry.Side)
				assert.True(t, entry.CashDelta.Equal(dec(testCase.amount)))
				assert.Equal(t, int64(0), entry.Quantity)
			}
			assert.True(t, l.Cash().Equal(dec(testCase.expectSum)), "cash is %s", l.Cash())
		})
	}
}

func TestLedger_Buy(t *testing.T) {
	testTable := []struct {
		name       string
		cash       string
		symbol     string
		quantity   int64
		price      string
		expectErr  error
		expectCash string
	}{
		{
			name:       "OK buys five shares",
			cash:       "1000.00",
			symbol:     "AAPL",
			quantity:   5,
			price:      "100.00",
			expectCash: "500.00",
		},
		{
			name:       "OK lowercase symbol is normalized",
			cash:       "1000.00",
			symbol:     "aapl",
			quantity:   5,
			price:      "100.00",
			expectCash: "500.00",
		},
		{
			name:       "OK spends the whole balance",
			cash:       "500.00",
			symbol:     "AAPL",
			quantity:   5,
			price:      "100.00",
			expectCash: "0",
		},
		{
			name:       "Failed not enough money",
			cash:       "50.00",
			symbol:     "MSFT",
			quantity:   1,
			price:      "100.00",
			expectErr:  ErrInsufficientFunds,
			expectCash: "50.00",
		},
		{
			name:       "Failed zero quantity",
			cash:       "1000.00",
			symbol:     "AAPL",
			quantity:   0,
			price:      "100.00",
			expectErr:  ErrInvalidQuantity,
			expectCash: "1000.00",
		},
		{
			name:       "Failed negative quantity",
			cash:       "1000.00",
			symbol:     "AAPL",
			quantity:   -3,
			price:      "100.00",
			expectErr:  ErrInvalidQuantity,
			expectCash: "1000.00",
		},
		{
			name:       "Failed zero price",
			cash:       "1000.00",
			symbol:     "AAPL",
			quantity:   1,
			price:      "0",
			expectErr:  ErrInvalidPrice,
			expectCash: "1000.00",
		},
		{
			name:       "Failed empty symbol",
			cash:       "1000.00",
			symbol:     "",
			quantity:   1,
			price:      "100.00",
			expectErr:  ErrUnknownSymbol,
			expectCash: "1000.00",
		},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			l := newLedger(t, testCase.cash)
			entry, err := l.Buy(testCase.symbol, testCase.quantity, dec(testCase.price))
			if testCase.expectErr != nil {
				assert.ErrorIs(t, err, testCase.expectErr)
				assert.Nil(t, entry)
				assert.Equal(t, int64(0), l.Holding("AAPL"))
			} else {
				require.NoError(t, err)
				assert.Equal(t, model.SideBuy, entry.Side)
				assert.Equal(t, "AAPL", entry.Symbol)
				assert.True(t, entry.CashDelta.Equal(dec("-500.00")))
				assert.Equal(t, testCase.quantity, l.Holding("AAPL"))
			}
			assert.True(t, l.Cash().Equal(dec(testCase.expectCash)), "cash is %s", l.Cash())
		})
	}
}

func TestLedger_Sell(t *testing.T) {
	testTable := []struct {
		name          string
		symbol        string
		quantity      int64
		price         string
		expectErr     error
		expectCash    string
		expectHolding int64
	}{
		{
			name:          "OK sells part of the holding",
			symbol:        "AAPL",
			quantity:      2,
			price:         "120.00",
			expectCash:    "740.00",
			expectHolding: 3,
		},
		{
			name:          "OK selling out removes the entry",
			symbol:        "AAPL",
			quantity:      5,
			price:         "120.00",
			expectCash:    "1100.00",
			expectHolding: 0,
		},
		{
			name:          "Failed symbol is not held",
			symbol:        "TSLA",
			quantity:      1,
			price:         "200.00",
			expectErr:     ErrUnknownSymbol,
			expectCash:    "500.00",
			expectHolding: 5,
		},
		{
			name:          "Failed more than held",
			symbol:        "AAPL",
			quantity:      6,
			price:         "120.00",
			expectErr:     ErrInsufficientHoldings,
			expectCash:    "500.00",
			expectHolding: 5,
		},
		{
			name:          "Failed zero quantity",
			symbol:        "AAPL",
			quantity:      0,
			price:         "120.00",
			expectErr:     ErrInvalidQuantity,
			expectCash:    "500.00",
			expectHolding: 5,
		},
		{
			name:          "Failed negative price",
			symbol:        "AAPL",
			quantity:      1,
			price:         "-1.00",
			expectErr:     ErrInvalidPrice,
			expectCash:    "500.00",
			expectHolding: 5,
		},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			// Scenario base: 1000.00 cash, then buy 5 AAPL at 100.00
			l := newLedger(t, "1000.00")
			_, err := l.Buy("AAPL", 5, dec("100.00"))
			require.NoError(t, err)

			entry, err := l.Sell(testCase.symbol, testCase.quantity, dec(testCase.price))
			if testCase.expectErr != nil {
				assert.ErrorIs(t, err, testCase.expectErr)
				assert.Nil(t, entry)
			} else {
				require.NoError(t, err)
				assert.Equal(t, model.SideSell, entry.Side)
				assert.True(t, entry.CashDelta.Sign() > 0)
			}
			assert.True(t, l.Cash().Equal(dec(testCase.expectCash)), "cash is %s", l.Cash())
			assert.Equal(t, testCase.expectHolding, l.Holding("AAPL"))
		})
	}
}

func TestLedger_SellOutDropsHoldingEntry(t *testing.T) {
	l := newLedger(t, "1000.00")
	_, err := l.Buy("AAPL", 5, dec("100.00"))
	require.NoError(t, err)
	_, err = l.Sell("AAPL", 5, dec("120.00"))
	require.NoError(t, err)

	acc := l.Account()
	_, ok := acc.Holdings["AAPL"]
	assert.False(t, ok, "sold-out symbol must be removed, not zeroed")
	assert.Empty(t, acc.Holdings)
}

func TestLedger_RejectionIsIdempotent(t *testing.T) {
	l := newLedger(t, "100.00")
	for i := 0; i < 3; i++ {
		_, err := l.Buy("AAPL", -1, dec("10.00"))
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		_, err = l.Sell("AAPL", 1, dec("0"))
		assert.ErrorIs(t, err, ErrInvalidPrice)
	}
	assert.True(t, l.Cash().Equal(dec("100.00")))
	assert.Empty(t, l.Account().Holdings)
}

func TestLedger_ExactDecimalArithmetic(t *testing.T) {
	l := newLedger(t, "10.00")
	for i := 0; i < 100; i++ {
		_, err := l.Buy("AAPL", 1, dec("0.10"))
		require.NoError(t, err)
	}
	// 100 buys of 0.10 leave exactly zero, no float drift
	assert.True(t, l.Cash().IsZero(), "cash is %s", l.Cash())
	assert.Equal(t, int64(100), l.Holding("AAPL"))

	_, err := l.Buy("AAPL", 1, dec("0.10"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestNormalizeSymbol(t *testing.T) {
	testTable := []struct {
		name      string
		symbol    string
		expect    string
		expectErr bool
	}{
		{name: "OK plain ticker", symbol: "AAPL", expect: "AAPL"},
		{name: "OK lowercase", symbol: "tsla", expect: "TSLA"},
		{name: "OK with class suffix", symbol: "brk.b", expect: "BRK.B"},
		{name: "OK surrounding spaces", symbol: " msft ", expect: "MSFT"},
		{name: "Failed empty", symbol: "", expectErr: true},
		{name: "Failed leading digit", symbol: "1AAPL", expectErr: true},
		{name: "Failed too long", symbol: "ABCDEFGHI", expectErr: true},
		{name: "Failed garbage", symbol: "AA PL", expectErr: true},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := NormalizeSymbol(testCase.symbol)
			if testCase.expectErr {
				assert.ErrorIs(t, err, ErrUnknownSymbol)
			} else {
				require.NoError(t, err)
				assert.Equal(t, testCase.expect, got)
			}
		})
	}
}
