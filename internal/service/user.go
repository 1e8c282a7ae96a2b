package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkravchuk/papertrader/internal/ledger"
	"github.com/dkravchuk/papertrader/internal/model"
)

// ErrWrongPassword indicates a failed login
var ErrWrongPassword = errors.New("wrong password")

// SignUp registers a user and creates their account. The account starts
// at zero cash; a positive initial deposit goes through Deposit so it is
// on the trade log and replay starts from zero.
func (s *Service) SignUp(ctx context.Context, username, password string, initialDeposit decimal.Decimal) (string, error) {
	if initialDeposit.Sign() < 0 {
		return "", ledger.ErrInvalidAmount
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	u := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
	}
	if err = s.store.CreateUser(ctx, &u); err != nil {
		return "", err
	}
	acc := model.Account{OwnerID: u.ID, Cash: decimal.Zero, Holdings: make(map[string]int64)}
	if err = s.store.CreateAccount(ctx, &acc); err != nil {
		return "", err
	}
	if initialDeposit.Sign() > 0 {
		if _, err = s.Deposit(ctx, u.ID, initialDeposit); err != nil {
			return "", err
		}
	}
	return u.ID, nil
}

// Login checks the password and mints a session token
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if err = bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return "", ErrWrongPassword
	}
	token := uuid.NewString()
	s.muSessions.Lock()
	s.sessions[token] = u.ID
	s.muSessions.Unlock()
	return token, nil
}

// OwnerByToken resolves a session token to the owner it belongs to
func (s *Service) OwnerByToken(token string) (string, bool) {
	s.muSessions.RLock()
	defer s.muSessions.RUnlock()
	ownerID, ok := s.sessions[token]
	return ownerID, ok
}

// Logout drops a session token
func (s *Service) Logout(token string) {
	s.muSessions.Lock()
	delete(s.sessions, token)
	s.muSessions.Unlock()
}
