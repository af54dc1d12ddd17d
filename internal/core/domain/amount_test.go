package domain

import (
	"encoding/json"
	"testing"
)

func TestAmountScalar(t *testing.T) {
	var a Amount
	if err := json.Unmarshal([]byte(`"1000000"`), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.IsIssued() {
		t.Error("scalar amount reported as issued")
	}
	if a.Drops != "1000000" {
		t.Errorf("drops = %q, want 1000000", a.Drops)
	}

	out, err := json.Marshal(&a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"1000000"` {
		t.Errorf("round-trip = %s", out)
	}
}

func TestAmountIssued(t *testing.T) {
	in := `{"currency":"USD","issuer":"rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B","value":"12.5"}`

	var a Amount
	if err := json.Unmarshal([]byte(in), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !a.IsIssued() {
		t.Fatal("issued amount reported as scalar")
	}
	if a.Issued.Currency != "USD" || a.Issued.Value != "12.5" {
		t.Errorf("issued = %+v", a.Issued)
	}

	// The stored form must be the original bytes, not a re-encoding.
	out, err := json.Marshal(&a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != in {
		t.Errorf("round-trip = %s, want %s", out, in)
	}
}

func TestAmountBareNumber(t *testing.T) {
	var a Amount
	if err := json.Unmarshal([]byte(`250`), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.Drops != "250" {
		t.Errorf("drops = %q, want 250", a.Drops)
	}
	out, _ := json.Marshal(&a)
	if string(out) != `250` {
		t.Errorf("round-trip = %s, want 250", out)
	}
}

func TestParseLedger(t *testing.T) {
	raw := []byte(`{
		"seqNum": "100",
		"ledger_hash": "AB12",
		"parent_hash": "AB11",
		"total_coins": "99999999999999997",
		"close_time": 428350860,
		"close_time_resolution": 10,
		"close_time_estimated": false,
		"accepted": true,
		"closed": true,
		"transactions": [
			{
				"Account": "rA",
				"TransactionType": "Payment",
				"Sequence": 7,
				"Fee": "10",
				"Amount": "5000000",
				"hash": "TX1"
			}
		]
	}`)

	l, err := ParseLedger(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if l.Index != 100 {
		t.Errorf("index = %d, want 100", l.Index)
	}
	if !l.Accepted || !l.Closed {
		t.Error("accepted/closed flags lost")
	}
	if len(l.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(l.Transactions))
	}
	if l.Transactions[0].Hash != "TX1" || l.Transactions[0].Account != "rA" {
		t.Errorf("transaction = %+v", l.Transactions[0])
	}
}

func TestAddresses(t *testing.T) {
	txs := []*Transaction{
		{Account: "rA", Hash: "T1"},
		{Account: "rB", Hash: "T2"},
		{Account: "rA", Hash: "T3"},
		{Hash: "T4"}, // pseudo-transaction, no issuing account
	}
	got := Addresses(txs)
	want := []string{"rA", "rB"}
	if len(got) != len(want) {
		t.Fatalf("addresses = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("addresses[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
