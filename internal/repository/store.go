package repository

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"account-transfers/internal/domain"
	"account-transfers/internal/errors"
)

// SQLExecutor is the query surface shared by *sql.DB and *sql.Tx, so the
// account repository can run either inside or outside a transaction.
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Store is the Postgres-backed unit of work over account storage.
type Store struct {
	executor    SQLExecutor
	lockTimeout time.Duration
	logger      *slog.Logger
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a Store on top of an open database handle. lockTimeout
// bounds row-lock waits inside WithTransaction; values <= 0 fall back to 5s.
func NewStore(db *sql.DB, lockTimeout time.Duration, logger *slog.Logger) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &Store{
		executor:    db,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

// Accounts returns an AccountRepository bound to the current executor. Inside
// a WithTransaction callback that executor is the transaction, so row locks
// taken by GetAccountForUpdate live until commit or rollback.
func (s *Store) Accounts() domain.AccountRepository {
	return &accountRepository{
		db:     s.executor,
		logger: s.logger,
	}
}

// WithTransaction runs fn inside a single database transaction. The
// transaction-scoped lock_timeout turns unbounded row-lock waits into a
// timeout error instead of blocking forever.
func (s *Store) WithTransaction(fn func(domain.Store) error) error {
	db, ok := s.executor.(*sql.DB)
	if !ok {
		return errors.NewAppError(errors.InternalError, "nested transactions are not supported")
	}

	tx, err := db.Begin()
	if err != nil {
		return mapStorageError(err)
	}

	// SET LOCAL scopes the setting to this transaction only.
	if _, err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())); err != nil {
		tx.Rollback()
		return mapStorageError(err)
	}

	txStore := &Store{
		executor:    tx,
		lockTimeout: s.lockTimeout,
		logger:      s.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapStorageError(err)
	}
	return nil
}

// mapStorageError translates driver failures into the application taxonomy.
// App errors pass through untouched.
func mapStorageError(err error) error {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "55P03": // lock_not_available, raised when lock_timeout elapses
			return errors.ErrLockTimeout
		case "23514": // check_violation, the balance >= 0 backstop
			return errors.ErrInsufficientFunds
		}
	}
	return errors.NewAppError(errors.InternalError, "storage error").WithDetails(err.Error())
}
