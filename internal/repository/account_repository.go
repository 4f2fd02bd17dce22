package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"account-transfers/internal/domain"
	"account-transfers/internal/errors"
)

type accountRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

func (r *accountRepository) GetAccount(accountNumber string) (*domain.Account, error) {
	query := `
		SELECT account_number, account_name, balance, created_at, updated_at
		FROM accounts WHERE account_number = $1
	`

	return r.scanAccount(query, accountNumber)
}

func (r *accountRepository) GetAccountForUpdate(accountNumber string) (*domain.Account, error) {
	query := `
		SELECT account_number, account_name, balance, created_at, updated_at
		FROM accounts WHERE account_number = $1 FOR UPDATE
	`

	return r.scanAccount(query, accountNumber)
}

func (r *accountRepository) scanAccount(query string, accountNumber string) (*domain.Account, error) {
	var account domain.Account
	var balanceStr string

	err := r.db.QueryRow(query, accountNumber).Scan(
		&account.AccountNumber,
		&account.AccountName,
		&balanceStr,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			r.logger.Warn("Account not found", "account_number", accountNumber)
			return nil, errors.ErrAccountNotFound
		}
		r.logger.Error("Failed to get account", "account_number", accountNumber, "error", err)
		return nil, mapStorageError(err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		r.logger.Error("Failed to parse balance", "account_number", accountNumber, "balance_str", balanceStr, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
	}

	account.Balance = balance
	return &account, nil
}

func (r *accountRepository) UpsertAccount(accountNumber, accountName string, balance decimal.Decimal) error {
	query := `
		INSERT INTO accounts (account_number, account_name, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (account_number) DO UPDATE
		SET account_name = EXCLUDED.account_name,
		    balance = EXCLUDED.balance,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(query, accountNumber, accountName, balance.String(), time.Now())
	if err != nil {
		r.logger.Error("Failed to upsert account", "account_number", accountNumber, "error", err)
		return mapStorageError(err)
	}

	r.logger.Info("Account upserted", "account_number", accountNumber, "account_name", accountName)
	return nil
}

func (r *accountRepository) SaveBalance(accountNumber string, balance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $1, updated_at = $2
		WHERE account_number = $3
	`

	result, err := r.db.Exec(query, balance.String(), time.Now(), accountNumber)
	if err != nil {
		r.logger.Error("Failed to save balance", "account_number", accountNumber, "error", err)
		return mapStorageError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to get rows affected").WithDetails(err.Error())
	}

	if rowsAffected == 0 {
		r.logger.Warn("No account found to update", "account_number", accountNumber)
		return errors.ErrAccountNotFound
	}

	return nil
}

func (r *accountRepository) ListAccounts() ([]*domain.Account, error) {
	query := `
		SELECT account_number, account_name, balance, created_at, updated_at
		FROM accounts ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list accounts", "error", err)
		return nil, mapStorageError(err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		var account domain.Account
		var balanceStr string

		if err := rows.Scan(
			&account.AccountNumber,
			&account.AccountName,
			&balanceStr,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan account").WithDetails(err.Error())
		}

		balance, err := decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse balance").WithDetails(err.Error())
		}
		account.Balance = balance

		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, mapStorageError(err)
	}

	return accounts, nil
}
