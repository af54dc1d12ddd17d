package domain

import "encoding/json"

// Transaction is one expanded transaction inside a ledger. Polymorphic
// fields (Paths, SendMax, TakerGets, TakerPays, metaData) are kept as the
// raw JSON the server sent and persisted verbatim.
type Transaction struct {
	Account         string          `json:"Account,omitempty"`
	Destination     string          `json:"Destination,omitempty"`
	Fee             string          `json:"Fee,omitempty"`
	Flags           *int64          `json:"Flags,omitempty"`
	Paths           json.RawMessage `json:"Paths,omitempty"`
	SendMax         *Amount         `json:"SendMax,omitempty"`
	OfferSequence   *int64          `json:"OfferSequence,omitempty"`
	Sequence        int64           `json:"Sequence"`
	SigningPubKey   string          `json:"SigningPubKey,omitempty"`
	TakerGets       *Amount         `json:"TakerGets,omitempty"`
	TakerPays       *Amount         `json:"TakerPays,omitempty"`
	TransactionType string          `json:"TransactionType"`
	TxnSignature    string          `json:"TxnSignature,omitempty"`
	Hash            string          `json:"hash"`
	Meta            json.RawMessage `json:"metaData,omitempty"`
}

// Addresses returns the distinct issuing-account addresses referenced by
// the given transactions, in first-seen order.
func Addresses(txs []*Transaction) []string {
	seen := make(map[string]struct{}, len(txs))
	var out []string
	for _, tx := range txs {
		if tx.Account == "" {
			continue
		}
		if _, ok := seen[tx.Account]; ok {
			continue
		}
		seen[tx.Account] = struct{}{}
		out = append(out, tx.Account)
	}
	return out
}
