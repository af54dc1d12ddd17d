package rpc

import (
	"errors"
	"fmt"
)

// codeLedgerNotFound is the only rippled error code with skip semantics.
const codeLedgerNotFound = "lgrNotFound"

// ErrLedgerNotFound means the server definitively does not have the
// ledger (pruned or never closed). The caller should skip, not retry.
var ErrLedgerNotFound = errors.New("ledger not found")

// TransportError is a network-level failure with no definitive answer:
// dial, timeout, broken connection, unreadable response. Retryable.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError is a well-formed error response other than not-found
// (bad request, unknown command, server overload codes). Retryable but
// logged distinctly from transport faults.
type ProtocolError struct {
	Code    string
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rpc error: %s", e.Code)
	}
	return fmt.Sprintf("rpc error: %s: %s", e.Code, e.Message)
}

// Kind is the closed classification the driver switches on.
type Kind int

const (
	KindNotFound Kind = iota
	KindTransient
	KindProtocol
	KindUnknown
)

// Classify maps a FetchLedger error onto the retry-policy taxonomy.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrLedgerNotFound):
		return KindNotFound
	default:
		var te *TransportError
		if errors.As(err, &te) {
			return KindTransient
		}
		var pe *ProtocolError
		if errors.As(err, &pe) {
			return KindProtocol
		}
		return KindUnknown
	}
}
