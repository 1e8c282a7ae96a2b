// Package repository stores accounts, users and trades in the database
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"

	"github.com/dkravchuk/papertrader/internal/ledger"
	"github.com/dkravchuk/papertrader/internal/model"
)

// Schema creates the tables the repository needs. Cash and prices are
// stored as text so decimals round-trip losslessly; holdings are one
// JSONB document per account.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id       TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	owner_id TEXT PRIMARY KEY,
	cash     TEXT NOT NULL,
	holdings JSONB NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS trades (
	id         BIGSERIAL PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	symbol     TEXT NOT NULL,
	side       TEXT NOT NULL,
	quantity   BIGINT NOT NULL,
	price      TEXT NOT NULL,
	cash_delta TEXT NOT NULL,
	ts         TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_owner ON trades(owner_id, ts, id);
`

const uniqueViolation = "23505"

// Repository works with postgres
type Repository struct {
	conn *pgx.Conn
}

// NewRepository is constructor
func NewRepository(conn *pgx.Conn) *Repository {
	return &Repository{conn: conn}
}

// EnsureSchema creates missing tables
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.conn.Exec(ctx, Schema); err != nil {
		return storageErr(err)
	}
	return nil
}

// CreateUser inserts a new user
func (r *Repository) CreateUser(ctx context.Context, u *model.User) error {
	_, err := r.conn.Exec(ctx, "INSERT INTO users (id, username, password) VALUES ($1, $2, $3)",
		u.ID, u.Username, string(u.PasswordHash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrUserAlreadyExists
		}
		return storageErr(err)
	}
	return nil
}

// UserByUsername finds a user by username
func (r *Repository) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	var password string
	err := r.conn.QueryRow(ctx, "SELECT id, username, password FROM users WHERE username = $1", username).
		Scan(&u.ID, &u.Username, &password)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, storageErr(err)
	}
	u.PasswordHash = []byte(password)
	return &u, nil
}

// CreateAccount inserts a fresh account
func (r *Repository) CreateAccount(ctx context.Context, acc *model.Account) error {
	holdings, err := json.Marshal(acc.Holdings)
	if err != nil {
		return storageErr(err)
	}
	_, err = r.conn.Exec(ctx, "INSERT INTO accounts (owner_id, cash, holdings) VALUES ($1, $2, $3)",
		acc.OwnerID, acc.Cash.String(), holdings)
	if err != nil {
		return storageErr(err)
	}
	return nil
}

// LoadAccount reads the account of one owner
func (r *Repository) LoadAccount(ctx context.Context, ownerID string) (*model.Account, error) {
	var cash string
	var holdings []byte
	err := r.conn.QueryRow(ctx, "SELECT cash, holdings FROM accounts WHERE owner_id = $1", ownerID).
		Scan(&cash, &holdings)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, storageErr(err)
	}
	acc := model.Account{OwnerID: ownerID, Holdings: make(map[string]int64)}
	acc.Cash, err = decimal.NewFromString(cash)
	if err != nil {
		return nil, storageErr(err)
	}
	if err = json.Unmarshal(holdings, &acc.Holdings); err != nil {
		return nil, storageErr(err)
	}
	return &acc, nil
}

// ApplyTrade persists the mutated account and appends the trade entry in
// one transaction, so the balance change and the log record commit
// together or not at all. The entry gets its ID here.
func (r *Repository) ApplyTrade(ctx context.Context, acc *model.Account, entry *model.TradeEntry) error {
	holdings, err := json.Marshal(acc.Holdings)
	if err != nil {
		return storageErr(err)
	}

	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return storageErr(err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, "UPDATE accounts SET cash = $1, holdings = $2 WHERE owner_id = $3",
		acc.Cash.String(), holdings, acc.OwnerID)
	if err != nil {
		return storageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAccountNotFound
	}

	err = tx.QueryRow(ctx, "INSERT INTO trades (owner_id, symbol, side, quantity, price, cash_delta, ts) "+
		"VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id",
		entry.OwnerID, entry.Symbol, string(entry.Side), entry.Quantity,
		entry.Price.String(), entry.CashDelta.String(), entry.Timestamp).Scan(&entry.ID)
	if err != nil {
		return storageErr(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return storageErr(err)
	}
	return nil
}

// TradesByOwner returns all trade entries of one owner, oldest first
func (r *Repository) TradesByOwner(ctx context.Context, ownerID string) ([]model.TradeEntry, error) {
	rows, err := r.conn.Query(ctx, "SELECT id, owner_id, symbol, side, quantity, price, cash_delta, ts "+
		"FROM trades WHERE owner_id = $1 ORDER BY ts, id", ownerID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var entries []model.TradeEntry
	for rows.Next() {
		var entry model.TradeEntry
		var side, price, cashDelta string
		err = rows.Scan(&entry.ID, &entry.OwnerID, &entry.Symbol, &side,
			&entry.Quantity, &price, &cashDelta, &entry.Timestamp)
		if err != nil {
			return nil, storageErr(err)
		}
		entry.Side = model.Side(side)
		if entry.Price, err = decimal.NewFromString(price); err != nil {
			return nil, storageErr(err)
		}
		if entry.CashDelta, err = decimal.NewFromString(cashDelta); err != nil {
			return nil, storageErr(err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return entries, nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ledger.ErrStorageUnavailable, err)
}
