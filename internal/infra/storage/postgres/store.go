package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rippledata/importer/internal/core/domain"
	"github.com/rippledata/importer/internal/ingest/metrics"
)

// Store persists ledgers into PostgreSQL. One StoreLedger call is one
// database transaction: the ledger row, every transaction row, both join
// tables and any newly discovered accounts commit together or not at all.
type Store struct {
	db       *DB
	registry *AccountRegistry
}

// NewStore creates a new ledger store.
func NewStore(db *DB) *Store {
	return &Store{
		db:       db,
		registry: NewAccountRegistry(),
	}
}

// StoreLedger stores one ledger and its transactions atomically.
// Storing the same ledger twice fails with storage.ErrConstraintViolation
// on the ledgers uniqueness constraints, leaving the first commit intact.
func (s *Store) StoreLedger(ctx context.Context, ledger *domain.Ledger) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return classifyError("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Resolve every distinct issuing account up front, inside the same
	// transaction, so account rows and the ledger commit as one unit.
	accountIDs := make(map[string]int64)
	for _, address := range domain.Addresses(ledger.Transactions) {
		id, err := s.registry.GetOrCreate(ctx, tx, address)
		if err != nil {
			return err
		}
		accountIDs[address] = id
	}

	var ledgerID int64
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO ledgers (
			ledger_index, ledger_hash, parent_hash, total_coins,
			close_time, close_time_resolution, close_time_human, close_time_estimated,
			account_hash, transaction_hash, accepted, closed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		ledger.Index,
		ledger.Hash,
		ledger.ParentHash,
		ledger.TotalCoins,
		ledger.CloseTime,
		ledger.CloseTimeResolution,
		ledger.CloseTimeHuman,
		ledger.CloseTimeEstimated,
		ledger.AccountHash,
		ledger.TransactionHash,
		ledger.Accepted,
		ledger.Closed,
	).Scan(&ledgerID)
	if err != nil {
		return classifyError("insert ledger", err)
	}

	for _, t := range ledger.Transactions {
		if err := s.storeTransaction(ctx, tx, ledger.Index, ledgerID, t, accountIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return classifyError("commit", err)
	}

	metrics.LedgersStored.Inc()
	metrics.TransactionsStored.Add(float64(len(ledger.Transactions)))
	return nil
}

func (s *Store) storeTransaction(
	ctx context.Context,
	tx *sqlx.Tx,
	ledgerIndex uint64,
	ledgerID int64,
	t *domain.Transaction,
	accountIDs map[string]int64,
) error {
	var txID int64
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO transactions (
			account, destination, fee, flags, paths, send_max,
			offer_sequence, sequence, signing_pub_key, taker_gets, taker_pays,
			transaction_type, txn_signature, tx_hash, meta_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`,
		nullString(t.Account),
		nullString(t.Destination),
		nullString(t.Fee),
		t.Flags,
		nullRaw(t.Paths),
		amountRaw(t.SendMax),
		t.OfferSequence,
		t.Sequence,
		nullString(t.SigningPubKey),
		amountRaw(t.TakerGets),
		amountRaw(t.TakerPays),
		t.TransactionType,
		nullString(t.TxnSignature),
		t.Hash,
		nullRaw(t.Meta),
	).Scan(&txID)
	if err != nil {
		return classifyError(fmt.Sprintf("insert transaction %s", t.Hash), err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_transactions (transaction_id, ledger_id, tx_sequence)
		VALUES ($1, $2, $3)`,
		txID, ledgerID, t.Sequence,
	)
	if err != nil {
		return classifyError("insert ledger_transactions", err)
	}

	if t.Account != "" {
		accountID, ok := accountIDs[t.Account]
		if !ok {
			return fmt.Errorf("no resolved account for %s", t.Account)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO account_transactions (transaction_id, account_id, ledger_index, tx_sequence)
			VALUES ($1, $2, $3, $4)`,
			txID, accountID, ledgerIndex, t.Sequence,
		)
		if err != nil {
			return classifyError("insert account_transactions", err)
		}
	}

	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullRaw(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func amountRaw(a *domain.Amount) []byte {
	if a == nil {
		return nil
	}
	return nullRaw(a.Raw())
}
