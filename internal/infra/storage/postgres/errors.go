package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rippledata/importer/internal/infra/storage"
)

// SQLSTATE classes. 23xxx is integrity constraint violation, 08xxx is
// connection exception.
const (
	classConstraint = "23"
	classConnection = "08"
)

// classifyError maps a driver error onto the storage taxonomy, keeping
// the original error in the chain.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case classConstraint:
			return fmt.Errorf("%s: %w: %w", op, storage.ErrConstraintViolation, err)
		case classConnection:
			return fmt.Errorf("%s: %w: %w", op, storage.ErrConnection, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, io.EOF) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, storage.ErrConnection, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %w", op, storage.ErrConnection, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
