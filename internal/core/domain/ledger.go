package domain

import "encoding/json"

// Ledger is one closed ledger as returned by the rippled "ledger" command
// with transactions expanded. Field names follow the rippled JSON response.
type Ledger struct {
	Index               uint64          `json:"seqNum,string"`
	Hash                string          `json:"ledger_hash"`
	ParentHash          string          `json:"parent_hash"`
	TotalCoins          string          `json:"total_coins"`
	CloseTime           int64           `json:"close_time"`
	CloseTimeHuman      string          `json:"close_time_human"`
	CloseTimeResolution int             `json:"close_time_resolution"`
	CloseTimeEstimated  bool            `json:"close_time_estimated"`
	AccountHash         string          `json:"account_hash"`
	TransactionHash     string          `json:"transaction_hash"`
	Accepted            bool            `json:"accepted"`
	Closed              bool            `json:"closed"`
	Transactions        []*Transaction  `json:"transactions"`
}

// ParseLedger decodes the "ledger" object of a rippled response.
func ParseLedger(raw json.RawMessage) (*Ledger, error) {
	var l Ledger
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, err
	}
	return &l, nil
}
