package service

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"account-transfers/internal/domain"
	"account-transfers/internal/errors"
)

type TransferService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewTransferService(store domain.Store, logger *slog.Logger) *TransferService {
	return &TransferService{
		store:  store,
		logger: logger,
	}
}

// TransferResult is the confirmation for a committed transfer.
type TransferResult struct {
	Amount          decimal.Decimal
	FromAccountName string
	ToAccountName   string
}

func (r *TransferResult) Message() string {
	return fmt.Sprintf("Successfully transferred %s from %s to %s.", r.Amount, r.FromAccountName, r.ToAccountName)
}

// Transfer moves amount from one account to another inside a single
// transaction. Both rows are locked in ascending account-number order
// regardless of direction, so two concurrent transfers on the same pair can
// never deadlock; transfers on disjoint pairs do not contend at all. Either
// both balances change or neither does.
func (s *TransferService) Transfer(fromAccountNumber, toAccountNumber, amountStr string) (*TransferResult, error) {
	if fromAccountNumber == "" || toAccountNumber == "" || amountStr == "" {
		return nil, errors.ErrMissingFields
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, errors.ErrInvalidAmount
	}

	s.logger.Info("Processing transfer",
		"from_account", fromAccountNumber,
		"to_account", toAccountNumber,
		"amount", amount)

	var result *TransferResult
	err = s.store.WithTransaction(func(tx domain.Store) error {
		accounts := tx.Accounts()

		locked, err := lockPair(accounts, fromAccountNumber, toAccountNumber)
		if err != nil {
			return err
		}
		from, to := locked[fromAccountNumber], locked[toAccountNumber]

		if !amount.IsPositive() {
			return errors.ErrAmountNotPositive
		}

		if from.Balance.LessThan(amount) {
			return errors.ErrInsufficientFunds
		}

		// A self-transfer nets to zero; skip the writes so the single locked
		// row is not debited and credited out of one stale snapshot.
		if fromAccountNumber != toAccountNumber {
			if err := accounts.SaveBalance(fromAccountNumber, from.Balance.Sub(amount)); err != nil {
				return err
			}
			if err := accounts.SaveBalance(toAccountNumber, to.Balance.Add(amount)); err != nil {
				return err
			}
		}

		result = &TransferResult{
			Amount:          amount,
			FromAccountName: from.AccountName,
			ToAccountName:   to.AccountName,
		}
		return nil
	})

	if err != nil {
		s.logger.Warn("Transfer failed",
			"from_account", fromAccountNumber,
			"to_account", toAccountNumber,
			"error", err)
		return nil, err
	}

	s.logger.Info("Transfer completed",
		"from_account", fromAccountNumber,
		"to_account", toAccountNumber,
		"amount", amount)
	return result, nil
}

// lockPair acquires exclusive locks on both accounts in canonical
// (lexicographic) order and returns them keyed by account number. Identical
// numbers lock once.
func lockPair(accounts domain.AccountRepository, first, second string) (map[string]*domain.Account, error) {
	if second < first {
		first, second = second, first
	}

	locked := make(map[string]*domain.Account, 2)
	for _, accountNumber := range []string{first, second} {
		if _, ok := locked[accountNumber]; ok {
			continue
		}
		account, err := accounts.GetAccountForUpdate(accountNumber)
		if err != nil {
			return nil, err
		}
		locked[accountNumber] = account
	}
	return locked, nil
}
