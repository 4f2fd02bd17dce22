package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-transfers/internal/errors"
	"account-transfers/internal/repository"
)

func TestImportAccountsValid(t *testing.T) {
	store := repository.NewMemStore(2 * time.Second)
	svc := NewImportService(store, testLogger())

	summary, err := svc.ImportAccounts(strings.NewReader("ID,Name,Balance\n123,Alice,1000\n456,Bob,500\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Empty(t, summary.Errors)
	assert.Equal(t, "Successfully processed 2 accounts.", summary.Message())

	alice, err := store.Accounts().GetAccount("123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.AccountName)
	assert.Equal(t, "1000.00", alice.Balance.StringFixed(2))

	bob, err := store.Accounts().GetAccount("456")
	require.NoError(t, err)
	assert.Equal(t, "Bob", bob.AccountName)
	assert.Equal(t, "500.00", bob.Balance.StringFixed(2))
}

func TestImportAccountsInvalidHeader(t *testing.T) {
	store := repository.NewMemStore(2 * time.Second)
	svc := NewImportService(store, testLogger())

	summary, err := svc.ImportAccounts(strings.NewReader("ID,Name,Amount\n123,Alice,1000\n456,Bob,500\n"))
	require.Nil(t, summary)
	assert.Equal(t, errors.ErrInvalidFormat, err)
	assert.Equal(t, "Invalid CSV format. Expected headers: ID, Name, Balance.", err.(*errors.AppError).Message)

	// Header mismatch aborts the whole batch.
	accounts, listErr := store.Accounts().ListAccounts()
	require.NoError(t, listErr)
	assert.Empty(t, accounts)
}

func TestImportAccountsHeaderIsCaseSensitive(t *testing.T) {
	store := repository.NewMemStore(2 * time.Second)
	svc := NewImportService(store, testLogger())

	_, err := svc.ImportAccounts(strings.NewReader("id,name,balance\n123,Alice,1000\n"))
	assert.Equal(t, errors.ErrInvalidFormat, err)
}

func TestImportAccountsEmptyInput(t *testing.T) {
	store := repository.NewMemStore(2 * time.Second)
	svc := NewImportService(store, testLogger())

	_, err := svc.ImportAccounts(strings.NewReader(""))
	assert.Equal(t, errors.ErrInvalidFormat, err)
}

func TestImportAccountsRowErrors(t *testing.T) {
	store := repository.NewMemStore(2 * time.Second)
	svc := NewImportService(store, testLogger())

	csv := "ID,Name,Balance\n" +
		"123,Alice,1000\n" + // line 2: valid
		"456,Bob\n" + // line 3: wrong column count
		",Carol,200\n" + // line 4: missing account number
		"123,Alicia,900\n" + // line 5: duplicate within the batch
		"789,,300\n" + // line 6: missing account name
		"790,Dave,abc\n" + // line 7: unparsable balance
		"791,Erin,-10\n" + // line 8: negative balance
		"792,Frank,250.75\n" // line 9: valid

	summary, err := svc.ImportAccounts(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	require.Len(t, summary.Errors, 6)

	wantCodes := []struct {
		line int
		code errors.ErrorCode
	}{
		{3, errors.MalformedRow},
		{4, errors.MissingField},
		{5, errors.DuplicateInBatch},
		{6, errors.MissingField},
		{7, errors.InvalidAmount},
		{8, errors.InvalidAmount},
	}
	for i, want := range wantCodes {
		assert.Equal(t, want.line, summary.Errors[i].Line)
		assert.Equal(t, want.code, summary.Errors[i].Err.Code)
	}

	// The first occurrence of the duplicated number survives untouched.
	alice, err := store.Accounts().GetAccount("123")
	require.NoError(t, err)
	assert.Equal(t, "Alice", alice.AccountName)
	assert.Equal(t, "1000.00", alice.Balance.StringFixed(2))

	frank, err := store.Accounts().GetAccount("792")
	require.NoError(t, err)
	assert.Equal(t, "250.75", frank.Balance.StringFixed(2))
}

func TestImportAccountsDuplicateMessage(t *testing.T) {
	store := repository.NewMemStore(2 * time.Second)
	svc := NewImportService(store, testLogger())

	summary, err := svc.ImportAccounts(strings.NewReader("ID,Name,Balance\n123,Alice,1000\n123,Alicia,900\n"))
	require.NoError(t, err)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "Duplicate account number in CSV file: '123' (line 3).", summary.Errors[0].Err.Message)
}

func TestImportAccountsReimportOverwrites(t *testing.T) {
	store := repository.NewMemStore(2 * time.Second)
	svc := NewImportService(store, testLogger())

	_, err := svc.ImportAccounts(strings.NewReader("ID,Name,Balance\n123,Alice,1000\n"))
	require.NoError(t, err)

	summary, err := svc.ImportAccounts(strings.NewReader("ID,Name,Balance\n123,Alice Smith,2500.50\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	// Upsert replaces in place, no duplicate record.
	accounts, err := store.Accounts().ListAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Alice Smith", accounts[0].AccountName)
	assert.Equal(t, "2500.50", accounts[0].Balance.StringFixed(2))
}

func TestImportAccountsNoValidRows(t *testing.T) {
	store := repository.NewMemStore(2 * time.Second)
	svc := NewImportService(store, testLogger())

	summary, err := svc.ImportAccounts(strings.NewReader("ID,Name,Balance\n,NoID,100\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, "", summary.Message())
}

func TestImportAccountsListOrderIsStable(t *testing.T) {
	store := repository.NewMemStore(2 * time.Second)
	svc := NewImportService(store, testLogger())

	_, err := svc.ImportAccounts(strings.NewReader("ID,Name,Balance\n30,C,1\n10,A,1\n20,B,1\n"))
	require.NoError(t, err)

	accounts, err := store.Accounts().ListAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	var numbers []string
	for _, account := range accounts {
		numbers = append(numbers, account.AccountNumber)
	}
	assert.Equal(t, []string{"30", "10", "20"}, numbers)
}
