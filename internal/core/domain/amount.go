package domain

import (
	"encoding/json"
	"fmt"
)

// Amount is an XRPL amount, which is either a scalar drops string
// ("1000000") or an issued-currency object with currency, issuer and
// value. The original JSON is preserved byte for byte so the stored form
// round-trips exactly; the decoded view is only for inspection.
type Amount struct {
	raw json.RawMessage

	// Drops holds the scalar form; empty when the amount is issued.
	Drops string

	// Issued holds the object form; nil when the amount is scalar.
	Issued *IssuedAmount
}

// IssuedAmount is the currency/issuer/value triple of a non-XRP amount.
type IssuedAmount struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer"`
	Value    string `json:"value"`
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	a.raw = append(a.raw[:0], data...)
	a.Drops = ""
	a.Issued = nil

	if len(data) > 0 && data[0] == '{' {
		var ia IssuedAmount
		if err := json.Unmarshal(data, &ia); err != nil {
			return fmt.Errorf("decode issued amount: %w", err)
		}
		a.Issued = &ia
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Some historical ledgers carry bare numbers.
		var n json.Number
		if err2 := json.Unmarshal(data, &n); err2 != nil {
			return fmt.Errorf("decode amount: %w", err)
		}
		s = n.String()
	}
	a.Drops = s
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if len(a.raw) > 0 {
		return a.raw, nil
	}
	if a.Issued != nil {
		return json.Marshal(a.Issued)
	}
	return json.Marshal(a.Drops)
}

// IsIssued reports whether the amount is the issued-currency form.
func (a *Amount) IsIssued() bool {
	return a.Issued != nil
}

// Raw returns the amount exactly as received from the server.
func (a *Amount) Raw() json.RawMessage {
	return a.raw
}
