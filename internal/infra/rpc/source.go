// Package rpc talks to a rippled node over JSON-RPC (http/https) or
// WebSocket (ws/wss) and classifies failures for the ingestion driver.
// It never retries on its own; retry and backoff policy belong to the
// driver.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rippledata/importer/internal/core/domain"
)

// LedgerSource fetches ledgers from a rippled node.
type LedgerSource interface {
	// FetchLedger retrieves one closed ledger with its transactions
	// expanded. Failures are classified: ErrLedgerNotFound for a ledger
	// the server does not have, a *TransportError for network-level
	// faults, and a *ProtocolError for any other error envelope.
	FetchLedger(ctx context.Context, index uint64) (*domain.Ledger, error)

	// ServerInfo issues a server_info call, used as a connectivity probe.
	ServerInfo(ctx context.Context) (json.RawMessage, error)

	Close() error
}

// ledgerRequest mirrors the params object of the rippled "ledger" command.
type ledgerRequest struct {
	Ledger       uint64 `json:"ledger"`
	Full         bool   `json:"full"`
	Accounts     bool   `json:"accounts"`
	Transactions bool   `json:"transactions"`
	Expand       bool   `json:"expand"`
}

// ledgerResult is the interesting part of the response envelope.
type ledgerResult struct {
	Ledger       json.RawMessage `json:"ledger"`
	Error        string          `json:"error"`
	ErrorMessage string          `json:"error_message"`
	Status       string          `json:"status"`
}

// New picks the transport from the URL scheme.
func New(rawURL string, timeout time.Duration) (LedgerSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse node url: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return NewHTTPSource(rawURL, timeout), nil
	case "ws", "wss":
		return NewWebSocketSource(rawURL, timeout), nil
	default:
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

func parseLedgerResult(res ledgerResult) (*domain.Ledger, error) {
	if res.Error != "" {
		if res.Error == codeLedgerNotFound {
			return nil, ErrLedgerNotFound
		}
		return nil, &ProtocolError{Code: res.Error, Message: res.ErrorMessage}
	}
	if len(res.Ledger) == 0 {
		return nil, &ProtocolError{Code: "emptyResult", Message: "response carried no ledger"}
	}

	ledger, err := domain.ParseLedger(res.Ledger)
	if err != nil {
		return nil, &ProtocolError{Code: "malformedLedger", Message: err.Error()}
	}
	return ledger, nil
}
