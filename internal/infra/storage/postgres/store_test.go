package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/rippledata/importer/internal/core/domain"
	"github.com/rippledata/importer/internal/infra/storage"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = mockDB.Close() })
	return &DB{DB: sqlx.NewDb(mockDB, "pgx")}, mock
}

func sampleLedger() *domain.Ledger {
	var send domain.Amount
	_ = json.Unmarshal([]byte(`"1000"`), &send)

	return &domain.Ledger{
		Index:      100,
		Hash:       "L100",
		ParentHash: "L099",
		TotalCoins: "99999999999999997",
		CloseTime:  428350860,
		Accepted:   true,
		Closed:     true,
		Transactions: []*domain.Transaction{
			{
				Account:         "rA",
				Destination:     "rB",
				Fee:             "10",
				Sequence:        4,
				TransactionType: "Payment",
				Hash:            "T1",
				SendMax:         &send,
			},
			{
				Account:         "rB",
				Fee:             "12",
				Sequence:        9,
				TransactionType: "OfferCreate",
				Hash:            "T2",
			},
		},
	}
}

func idRows(id int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"}).AddRow(id)
}

func noRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"})
}

func expectTransactionInserts(mock sqlmock.Sqlmock, txID int64) {
	mock.ExpectQuery("INSERT INTO transactions").WillReturnRows(idRows(txID))
	mock.ExpectExec("INSERT INTO ledger_transactions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO account_transactions").
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestStoreLedger(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := sampleLedger()

	mock.ExpectBegin()
	// rA is new: lookup misses, insert creates it.
	mock.ExpectQuery("SELECT id FROM accounts").WithArgs("rA").WillReturnRows(noRows())
	mock.ExpectQuery("INSERT INTO accounts").WithArgs("rA").WillReturnRows(idRows(1))
	// rB already exists.
	mock.ExpectQuery("SELECT id FROM accounts").WithArgs("rB").WillReturnRows(idRows(2))
	mock.ExpectQuery("INSERT INTO ledgers").WillReturnRows(idRows(10))
	expectTransactionInserts(mock, 100)
	expectTransactionInserts(mock, 101)
	mock.ExpectCommit()

	if err := NewStore(db).StoreLedger(context.Background(), ledger); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStoreLedgerDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := sampleLedger()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM accounts").WithArgs("rA").WillReturnRows(idRows(1))
	mock.ExpectQuery("SELECT id FROM accounts").WithArgs("rB").WillReturnRows(idRows(2))
	mock.ExpectQuery("INSERT INTO ledgers").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "ledgers_ledger_index_key"})
	mock.ExpectRollback()

	err := NewStore(db).StoreLedger(context.Background(), ledger)
	if !errors.Is(err, storage.ErrConstraintViolation) {
		t.Fatalf("err = %v, want ErrConstraintViolation", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStoreLedgerRollsBackMidway(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := sampleLedger()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM accounts").WithArgs("rA").WillReturnRows(idRows(1))
	mock.ExpectQuery("SELECT id FROM accounts").WithArgs("rB").WillReturnRows(idRows(2))
	mock.ExpectQuery("INSERT INTO ledgers").WillReturnRows(idRows(10))
	expectTransactionInserts(mock, 100)
	// Second transaction insert blows up; nothing may commit.
	mock.ExpectQuery("INSERT INTO transactions").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := NewStore(db).StoreLedger(context.Background(), ledger)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, storage.ErrConstraintViolation) {
		t.Fatalf("err = %v, misclassified as constraint violation", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStoreLedgerConnectionError(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := sampleLedger()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM accounts").WithArgs("rA").
		WillReturnError(&pgconn.PgError{Code: "08006"})
	mock.ExpectRollback()

	err := NewStore(db).StoreLedger(context.Background(), ledger)
	if !errors.Is(err, storage.ErrConnection) {
		t.Fatalf("err = %v, want ErrConnection", err)
	}
}

func TestStoreLedgerNoTransactions(t *testing.T) {
	db, mock := newMockDB(t)
	ledger := sampleLedger()
	ledger.Transactions = nil

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO ledgers").WillReturnRows(idRows(10))
	mock.ExpectCommit()

	if err := NewStore(db).StoreLedger(context.Background(), ledger); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestGetOrCreateLostRace(t *testing.T) {
	db, mock := newMockDB(t)

	// Lookup misses, insert loses the race (DO NOTHING returns no row),
	// second lookup finds the winner's row.
	mock.ExpectQuery("SELECT id FROM accounts").WithArgs("rC").WillReturnRows(noRows())
	mock.ExpectQuery("INSERT INTO accounts").WithArgs("rC").WillReturnRows(noRows())
	mock.ExpectQuery("SELECT id FROM accounts").WithArgs("rC").WillReturnRows(idRows(7))

	id, err := NewAccountRegistry().GetOrCreate(context.Background(), db.DB, "rC")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if id != 7 {
		t.Errorf("id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestGetOrCreateExhausted(t *testing.T) {
	db, mock := newMockDB(t)

	for i := 0; i < maxResolveAttempts; i++ {
		mock.ExpectQuery("SELECT id FROM accounts").WithArgs("rC").WillReturnRows(noRows())
		mock.ExpectQuery("INSERT INTO accounts").WithArgs("rC").WillReturnRows(noRows())
	}

	_, err := NewAccountRegistry().GetOrCreate(context.Background(), db.DB, "rC")
	if !errors.Is(err, storage.ErrAccountUnresolved) {
		t.Fatalf("err = %v, want ErrAccountUnresolved", err)
	}
}

func TestGetOrCreateLookupFailure(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT id FROM accounts").WithArgs("rC").
		WillReturnError(sql.ErrConnDone)

	_, err := NewAccountRegistry().GetOrCreate(context.Background(), db.DB, "rC")
	if !errors.Is(err, storage.ErrConnection) {
		t.Fatalf("err = %v, want ErrConnection", err)
	}
}
