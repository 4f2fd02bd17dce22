package repository

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"account-transfers/internal/domain"
	"account-transfers/internal/errors"
)

// MemStore is an in-process implementation of domain.Store. It mirrors the
// Postgres store's contract: per-account exclusive locks with a bounded wait,
// writes staged inside a transaction and applied atomically on commit, and
// everything discarded on rollback. It backs unit tests and database-less
// runs.
type MemStore struct {
	mu          sync.Mutex
	accounts    map[string]*domain.Account
	order       []string // account numbers in insertion order
	locks       map[string]chan struct{}
	lockTimeout time.Duration
}

var _ domain.Store = (*MemStore)(nil)

func NewMemStore(lockTimeout time.Duration) *MemStore {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &MemStore{
		accounts:    make(map[string]*domain.Account),
		locks:       make(map[string]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

func (m *MemStore) Accounts() domain.AccountRepository {
	return &memAccountRepository{root: m}
}

func (m *MemStore) WithTransaction(fn func(domain.Store) error) error {
	tx := &memTx{
		held:   make(map[string]struct{}),
		staged: make(map[string]*domain.Account),
	}

	defer func() {
		if p := recover(); p != nil {
			m.rollback(tx)
			panic(p)
		}
	}()

	if err := fn(&memTxStore{root: m, tx: tx}); err != nil {
		m.rollback(tx)
		return err
	}

	m.commit(tx)
	return nil
}

// memTx tracks the locks held and writes staged by one transaction.
type memTx struct {
	held   map[string]struct{}
	staged map[string]*domain.Account
}

// memTxStore is the transactional view handed to WithTransaction callbacks.
type memTxStore struct {
	root *MemStore
	tx   *memTx
}

func (t *memTxStore) Accounts() domain.AccountRepository {
	return &memAccountRepository{root: t.root, tx: t.tx}
}

func (t *memTxStore) WithTransaction(fn func(domain.Store) error) error {
	return errors.NewAppError(errors.InternalError, "nested transactions are not supported")
}

// rowLock returns the lock channel for an account number, creating it on
// first use. A buffered channel of size one acts as a mutex that can be
// acquired with a timeout.
func (m *MemStore) rowLock(accountNumber string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.locks[accountNumber]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[accountNumber] = ch
	}
	return ch
}

// acquire takes the row lock for the transaction. Re-acquiring a lock the
// transaction already holds is a no-op, which keeps self-transfers safe.
func (m *MemStore) acquire(tx *memTx, accountNumber string) error {
	if _, ok := tx.held[accountNumber]; ok {
		return nil
	}

	select {
	case m.rowLock(accountNumber) <- struct{}{}:
		tx.held[accountNumber] = struct{}{}
		return nil
	case <-time.After(m.lockTimeout):
		return errors.ErrLockTimeout
	}
}

func (m *MemStore) commit(tx *memTx) {
	m.mu.Lock()
	for accountNumber, staged := range tx.staged {
		if existing, ok := m.accounts[accountNumber]; ok {
			*existing = *staged
		} else {
			clone := *staged
			m.accounts[accountNumber] = &clone
			m.order = append(m.order, accountNumber)
		}
	}
	m.mu.Unlock()

	m.release(tx)
}

func (m *MemStore) rollback(tx *memTx) {
	tx.staged = nil
	m.release(tx)
}

func (m *MemStore) release(tx *memTx) {
	for accountNumber := range tx.held {
		<-m.rowLock(accountNumber)
	}
	tx.held = nil
}

type memAccountRepository struct {
	root *MemStore
	tx   *memTx // nil outside a transaction
}

func (r *memAccountRepository) GetAccount(accountNumber string) (*domain.Account, error) {
	if r.tx != nil {
		if staged, ok := r.tx.staged[accountNumber]; ok {
			clone := *staged
			return &clone, nil
		}
	}

	r.root.mu.Lock()
	defer r.root.mu.Unlock()

	account, ok := r.root.accounts[accountNumber]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	clone := *account
	return &clone, nil
}

func (r *memAccountRepository) GetAccountForUpdate(accountNumber string) (*domain.Account, error) {
	if r.tx == nil {
		return nil, errors.NewAppError(errors.InternalError, "row locks require a transaction")
	}
	if err := r.root.acquire(r.tx, accountNumber); err != nil {
		return nil, err
	}
	return r.GetAccount(accountNumber)
}

func (r *memAccountRepository) UpsertAccount(accountNumber, accountName string, balance decimal.Decimal) error {
	if balance.Sign() < 0 {
		return errors.ErrInsufficientFunds
	}

	now := time.Now()

	if r.tx != nil {
		if err := r.root.acquire(r.tx, accountNumber); err != nil {
			return err
		}
		staged := &domain.Account{
			AccountNumber: accountNumber,
			AccountName:   accountName,
			Balance:       balance,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if current, err := r.GetAccount(accountNumber); err == nil {
			staged.CreatedAt = current.CreatedAt
		}
		r.tx.staged[accountNumber] = staged
		return nil
	}

	// Outside a transaction each upsert commits on its own, serialized with
	// any in-flight transfer touching the same row.
	lock := r.root.rowLock(accountNumber)
	select {
	case lock <- struct{}{}:
	case <-time.After(r.root.lockTimeout):
		return errors.ErrLockTimeout
	}
	defer func() { <-lock }()

	r.root.mu.Lock()
	defer r.root.mu.Unlock()

	if existing, ok := r.root.accounts[accountNumber]; ok {
		existing.AccountName = accountName
		existing.Balance = balance
		existing.UpdatedAt = now
		return nil
	}

	r.root.accounts[accountNumber] = &domain.Account{
		AccountNumber: accountNumber,
		AccountName:   accountName,
		Balance:       balance,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.root.order = append(r.root.order, accountNumber)
	return nil
}

func (r *memAccountRepository) SaveBalance(accountNumber string, balance decimal.Decimal) error {
	if balance.Sign() < 0 {
		return errors.ErrInsufficientFunds
	}

	now := time.Now()

	if r.tx != nil {
		if staged, ok := r.tx.staged[accountNumber]; ok {
			staged.Balance = balance
			staged.UpdatedAt = now
			return nil
		}
		current, err := r.GetAccount(accountNumber)
		if err != nil {
			return err
		}
		current.Balance = balance
		current.UpdatedAt = now
		r.tx.staged[accountNumber] = current
		return nil
	}

	r.root.mu.Lock()
	defer r.root.mu.Unlock()

	account, ok := r.root.accounts[accountNumber]
	if !ok {
		return errors.ErrAccountNotFound
	}
	account.Balance = balance
	account.UpdatedAt = now
	return nil
}

func (r *memAccountRepository) ListAccounts() ([]*domain.Account, error) {
	r.root.mu.Lock()
	defer r.root.mu.Unlock()

	accounts := make([]*domain.Account, 0, len(r.root.order))
	for _, accountNumber := range r.root.order {
		clone := *r.root.accounts[accountNumber]
		accounts = append(accounts, &clone)
	}
	return accounts, nil
}
