package service

import (
	"log/slog"

	"account-transfers/internal/domain"
	"account-transfers/internal/errors"
)

// AccountService is the read-only query facade over the account store.
type AccountService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewAccountService(store domain.Store, logger *slog.Logger) *AccountService {
	return &AccountService{
		store:  store,
		logger: logger,
	}
}

func (s *AccountService) ListAccounts() ([]*domain.Account, error) {
	return s.store.Accounts().ListAccounts()
}

func (s *AccountService) GetAccount(accountNumber string) (*domain.Account, error) {
	if accountNumber == "" {
		return nil, errors.ErrMissingFields
	}
	return s.store.Accounts().GetAccount(accountNumber)
}
