package ledger

import "errors"

var (
	// ErrInvalidAmount indicates a deposit amount that is not positive
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidQuantity indicates a quantity that is not a positive integer
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrInvalidPrice indicates a price that is not positive
	ErrInvalidPrice = errors.New("price must be positive")
	// ErrInsufficientFunds indicates that cash does not cover the purchase
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientHoldings indicates that the owner holds fewer shares than offered for sale
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	// ErrUnknownSymbol indicates a symbol that is malformed or not held/quoted
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrStorageUnavailable indicates that the durable store failed
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvariantViolation is internal only. If it surfaces there is a bug
	// in the ledger, not a user error.
	ErrInvariantViolation = errors.New("ledger invariant violation")
)
