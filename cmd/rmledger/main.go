// Command rmledger deletes one ledger and its dependent rows. Each
// statement commits on its own; this is a rarely used manual tool, not
// part of the ingestion path, and a crash mid-way leaves a partial
// delete that a re-run finishes.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/lib/pq"
)

func main() {
	ledger := flag.Uint64("ledger", 0, "ledger index to delete")
	dsn := flag.String("pgconnection", os.Getenv("IMPORTER_DB_URL"), "PostgreSQL connection string")
	flag.Parse()

	if *ledger == 0 {
		log.Fatal("-ledger is required")
	}
	if *dsn == "" {
		log.Fatal("-pgconnection or IMPORTER_DB_URL is required")
	}

	db, err := sql.Open("postgres", *dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	var ledgerID int64
	err = db.QueryRow(`SELECT id FROM ledgers WHERE ledger_index = $1`, *ledger).Scan(&ledgerID)
	if err == sql.ErrNoRows {
		log.Fatalf("ledger %d not found", *ledger)
	}
	if err != nil {
		log.Fatalf("lookup ledger: %v", err)
	}

	rows, err := db.Query(`SELECT transaction_id FROM ledger_transactions WHERE ledger_id = $1`, ledgerID)
	if err != nil {
		log.Fatalf("list transactions: %v", err)
	}
	var txIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			log.Fatalf("scan transaction id: %v", err)
		}
		txIDs = append(txIDs, id)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("list transactions: %v", err)
	}

	// Join rows first, then the transactions they reference, then the
	// ledger row itself.
	mustExec(db, `DELETE FROM account_transactions WHERE transaction_id = ANY($1)`, pq.Array(txIDs))
	mustExec(db, `DELETE FROM ledger_transactions WHERE ledger_id = $1`, ledgerID)
	mustExec(db, `DELETE FROM transactions WHERE id = ANY($1)`, pq.Array(txIDs))
	mustExec(db, `DELETE FROM ledgers WHERE id = $1`, ledgerID)

	fmt.Printf("deleted ledger %d with %d transactions\n", *ledger, len(txIDs))
}

func mustExec(db *sql.DB, query string, args ...any) {
	if _, err := db.Exec(query, args...); err != nil {
		log.Fatalf("exec %q: %v", query, err)
	}
}
