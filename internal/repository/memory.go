package repository

import (
	"context"
	"sync"

	"github.com/dkravchuk/papertrader/internal/model"
)

// Memory is an in-memory storage with the same behavior as Repository.
// It backs tests and STORAGE=memory demo runs.
type Memory struct {
	mu          sync.Mutex
	users       map[string]*model.User
	accounts    map[string]*model.Account
	trades      []model.TradeEntry
	nextTradeID int64
}

// NewMemory is constructor
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]*model.User),
		accounts: make(map[string]*model.Account),
	}
}

// CreateUser inserts a new user
func (m *Memory) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return model.ErrUserAlreadyExists
	}
	copied := *u
	m.users[u.Username] = &copied
	return nil
}

// UserByUsername finds a user by username
func (m *Memory) UserByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

// CreateAccount inserts a fresh account
func (m *Memory) CreateAccount(_ context.Context, acc *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acc.OwnerID] = acc.Clone()
	return nil
}

// LoadAccount reads the account of one owner
func (m *Memory) LoadAccount(_ context.Context, ownerID string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[ownerID]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return acc.Clone(), nil
}

// ApplyTrade stores the account state and the entry under one lock,
// assigning the next trade ID
func (m *Memory) ApplyTrade(_ context.Context, acc *model.Account, entry *model.TradeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[acc.OwnerID]; !ok {
		return model.ErrAccountNotFound
	}
	m.nextTradeID++
	entry.ID = m.nextTradeID
	m.accounts[acc.OwnerID] = acc.Clone()
	m.trades = append(m.trades, *entry)
	return nil
}

// TradesByOwner returns all trade entries of one owner in append order
func (m *Memory) TradesByOwner(_ context.Context, ownerID string) ([]model.TradeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []model.TradeEntry
	for _, entry := range m.trades {
		if entry.OwnerID == ownerID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
