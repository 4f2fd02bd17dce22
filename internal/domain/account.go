package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a ledger record keyed by its externally supplied account number.
type Account struct {
	AccountNumber string          `json:"account_number"`
	AccountName   string          `json:"account_name"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AccountRepository is the storage contract for account records.
// GetAccountForUpdate acquires an exclusive row lock held until the enclosing
// transaction commits or rolls back; it only works inside a
// Store.WithTransaction callback. UpsertAccount is a full replace keyed on
// account number and creates the record if absent.
type AccountRepository interface {
	GetAccount(accountNumber string) (*Account, error)
	GetAccountForUpdate(accountNumber string) (*Account, error)
	UpsertAccount(accountNumber, accountName string, balance decimal.Decimal) error
	SaveBalance(accountNumber string, balance decimal.Decimal) error
	ListAccounts() ([]*Account, error)
}

// Store is a unit-of-work factory over account storage. WithTransaction runs
// fn against a transactional view of the store: a nil return commits, any
// error (or panic) rolls back, and all row locks taken inside fn are released
// on either exit path.
type Store interface {
	Accounts() AccountRepository
	WithTransaction(fn func(Store) error) error
}
