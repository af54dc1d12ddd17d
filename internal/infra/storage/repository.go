package storage

import (
	"context"
	"errors"

	"github.com/rippledata/importer/internal/core/domain"
)

var (
	// ErrConstraintViolation is returned when an insert hits a uniqueness
	// or foreign-key constraint. For a whole ledger this means the ledger
	// was already stored; the first commit stays intact.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrConnection is returned when the database session itself failed.
	ErrConnection = errors.New("storage connection failure")

	// ErrAccountUnresolved is returned when the account get-or-create
	// loop exhausted its attempts without converging on an identifier.
	ErrAccountUnresolved = errors.New("account could not be resolved")
)

// LedgerStore persists one ledger and its transactions as a single
// atomic unit. It classifies failures but never retries; retry policy
// belongs to the ingestion driver.
type LedgerStore interface {
	StoreLedger(ctx context.Context, ledger *domain.Ledger) error
}
