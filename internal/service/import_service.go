package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"account-transfers/internal/domain"
	"account-transfers/internal/errors"
)

// expectedHeader is the mandatory first row of an import file, compared
// case- and order-sensitively.
var expectedHeader = []string{"ID", "Name", "Balance"}

type ImportService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewImportService(store domain.Store, logger *slog.Logger) *ImportService {
	return &ImportService{
		store:  store,
		logger: logger,
	}
}

// RowError is a per-line ingestion failure. The batch keeps going; the caller
// gets every failure alongside the count of rows that did land.
type RowError struct {
	Line int
	Err  *errors.AppError
}

type ImportSummary struct {
	Processed int
	Errors    []RowError
}

// Message returns the success message, or "" when no row was processed.
func (s *ImportSummary) Message() string {
	if s.Processed > 0 {
		return fmt.Sprintf("Successfully processed %d accounts.", s.Processed)
	}
	return ""
}

// ImportAccounts reads CSV data and upserts one account per valid row. The
// header must match exactly or the whole batch is rejected. Row-level
// failures are recorded and skipped; each valid row commits independently, so
// a failure mid-batch never rolls back earlier rows.
func (s *ImportService) ImportAccounts(r io.Reader) (*ImportSummary, error) {
	reader := csv.NewReader(r)
	// Let short and long rows through so they hit per-row validation instead
	// of failing inside the reader.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil || !headerMatches(header) {
		s.logger.Warn("Rejected import with invalid header", "header", header)
		return nil, errors.ErrInvalidFormat
	}

	summary := &ImportSummary{}
	seen := make(map[string]struct{})
	accounts := s.store.Accounts()

	// Data rows are 1-indexed from line 2 for error reporting.
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Broken quoting makes the rest of the stream unreadable.
			summary.Errors = append(summary.Errors, RowError{
				Line: line,
				Err:  errors.NewAppErrorf(errors.InvalidFormat, "Unreadable data on line %d.", line).WithDetails(err.Error()),
			})
			break
		}

		if len(row) != 3 {
			summary.Errors = append(summary.Errors, RowError{
				Line: line,
				Err:  errors.NewAppErrorf(errors.MalformedRow, "Invalid data on line %d: %v. Expected 3 columns.", line, row),
			})
			continue
		}

		accountNumber, accountName, balanceStr := row[0], row[1], row[2]

		if accountNumber == "" {
			summary.Errors = append(summary.Errors, RowError{
				Line: line,
				Err:  errors.NewAppErrorf(errors.MissingField, "Missing account number on line %d.", line),
			})
			continue
		}

		if _, dup := seen[accountNumber]; dup {
			summary.Errors = append(summary.Errors, RowError{
				Line: line,
				Err:  errors.NewAppErrorf(errors.DuplicateInBatch, "Duplicate account number in CSV file: '%s' (line %d).", accountNumber, line),
			})
			continue
		}
		seen[accountNumber] = struct{}{}

		if accountName == "" {
			summary.Errors = append(summary.Errors, RowError{
				Line: line,
				Err:  errors.NewAppErrorf(errors.MissingField, "Missing account name on line %d.", line),
			})
			continue
		}

		balance, err := decimal.NewFromString(balanceStr)
		if err != nil || balance.Sign() < 0 {
			summary.Errors = append(summary.Errors, RowError{
				Line: line,
				Err:  errors.NewAppErrorf(errors.InvalidAmount, "Invalid balance on line %d: '%s'.", line, balanceStr),
			})
			continue
		}

		if err := accounts.UpsertAccount(accountNumber, accountName, balance); err != nil {
			s.logger.Error("Failed to upsert imported account",
				"account_number", accountNumber, "line", line, "error", err)
			summary.Errors = append(summary.Errors, RowError{
				Line: line,
				Err:  toAppError(err),
			})
			continue
		}

		summary.Processed++
	}

	s.logger.Info("Import finished", "processed", summary.Processed, "row_errors", len(summary.Errors))
	return summary, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(expectedHeader) {
		return false
	}
	for i, field := range expectedHeader {
		if header[i] != field {
			return false
		}
	}
	return true
}

// toAppError coerces any error into the application taxonomy.
func toAppError(err error) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.NewAppError(errors.InternalError, "an unexpected error occurred").WithDetails(err.Error())
}
