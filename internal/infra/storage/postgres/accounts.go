package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rippledata/importer/internal/infra/storage"
	"github.com/rippledata/importer/internal/ingest/metrics"
)

// maxResolveAttempts bounds the get-or-create loop. Each attempt is one
// lookup plus at most one conflict-tolerant insert, so more than a
// couple of iterations means something other than a benign race.
const maxResolveAttempts = 3

// AccountRegistry maps ledger addresses to stable internal identifiers
// with get-or-create semantics. Address uniqueness is enforced by the
// accounts table constraint, not by an application-side lock, so a
// concurrent writer can win the race between lookup and insert; the
// loop recovers by looking up again. All statements run on the caller's
// transaction so account creation commits or rolls back with the ledger
// that first referenced the address.
type AccountRegistry struct{}

// NewAccountRegistry creates a new registry.
func NewAccountRegistry() *AccountRegistry {
	return &AccountRegistry{}
}

// GetOrCreate resolves an address to its internal identifier, creating
// the row if the address has never been seen. Returns
// storage.ErrAccountUnresolved when the loop cannot converge.
func (r *AccountRegistry) GetOrCreate(ctx context.Context, q sqlx.ExtContext, address string) (int64, error) {
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		var id int64
		err := sqlx.GetContext(ctx, q, &id,
			`SELECT id FROM accounts WHERE address = $1`, address)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, classifyError("lookup account", err)
		}

		// ON CONFLICT DO NOTHING keeps a lost race from aborting the
		// enclosing transaction; the next lookup finds the winner's row.
		err = sqlx.GetContext(ctx, q, &id,
			`INSERT INTO accounts (address) VALUES ($1)
			 ON CONFLICT (address) DO NOTHING
			 RETURNING id`, address)
		if err == nil {
			metrics.AccountsCreated.Inc()
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, classifyError("insert account", err)
		}
	}

	return 0, fmt.Errorf("%w: %s after %d attempts",
		storage.ErrAccountUnresolved, address, maxResolveAttempts)
}
