package rpc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rippledata/importer/internal/core/domain"
)

// WebSocketSource implements LedgerSource over rippled's WebSocket API.
// Requests are issued strictly one at a time over a single connection;
// the connection is dialed lazily and dropped on any transport fault so
// the next call reconnects.
type WebSocketSource struct {
	endpoint string
	timeout  time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID int
}

// NewWebSocketSource creates a new WebSocket source.
func NewWebSocketSource(endpoint string, timeout time.Duration) *WebSocketSource {
	return &WebSocketSource{
		endpoint: endpoint,
		timeout:  timeout,
	}
}

// wsRequest is a rippled WebSocket command frame.
type wsRequest struct {
	ID           int    `json:"id"`
	Command      string `json:"command"`
	Ledger       uint64 `json:"ledger,omitempty"`
	Full         bool   `json:"full,omitempty"`
	Accounts     bool   `json:"accounts,omitempty"`
	Transactions bool   `json:"transactions,omitempty"`
	Expand       bool   `json:"expand,omitempty"`
}

// wsResponse is a rippled WebSocket response frame. Unlike JSON-RPC,
// error code and status live at the top level.
type wsResponse struct {
	ID           int             `json:"id"`
	Status       string          `json:"status"`
	Type         string          `json:"type"`
	Error        string          `json:"error"`
	ErrorMessage string          `json:"error_message"`
	Result       json.RawMessage `json:"result"`
}

// FetchLedger retrieves one ledger with expanded transactions.
func (s *WebSocketSource) FetchLedger(ctx context.Context, index uint64) (*domain.Ledger, error) {
	resp, err := s.roundTrip(ctx, wsRequest{
		Command:      "ledger",
		Ledger:       index,
		Transactions: true,
		Expand:       true,
	})
	if err != nil {
		return nil, err
	}

	var res ledgerResult
	if resp.Status == "error" {
		res.Error = resp.Error
		res.ErrorMessage = resp.ErrorMessage
	} else if err := json.Unmarshal(resp.Result, &res); err != nil {
		return nil, &ProtocolError{Code: "malformedResult", Message: err.Error()}
	}
	return parseLedgerResult(res)
}

// ServerInfo issues a server_info call.
func (s *WebSocketSource) ServerInfo(ctx context.Context) (json.RawMessage, error) {
	resp, err := s.roundTrip(ctx, wsRequest{Command: "server_info"})
	if err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		return nil, &ProtocolError{Code: resp.Error, Message: resp.ErrorMessage}
	}
	return resp.Result, nil
}

// Close closes the connection if one is open.
func (s *WebSocketSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *WebSocketSource) roundTrip(ctx context.Context, req wsRequest) (*wsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		dialCtx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, s.endpoint, nil)
		if err != nil {
			return nil, &TransportError{Op: "dial", Err: err}
		}
		s.conn = conn
	}

	s.nextID++
	req.ID = s.nextID

	deadline := time.Time{}
	if s.timeout > 0 {
		deadline = time.Now().Add(s.timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	_ = s.conn.SetWriteDeadline(deadline)
	_ = s.conn.SetReadDeadline(deadline)

	if err := s.conn.WriteJSON(req); err != nil {
		s.drop()
		return nil, &TransportError{Op: "write", Err: err}
	}

	// Skip unsolicited frames (e.g. ledgerClosed streams) until the reply
	// carrying our id arrives.
	for {
		var resp wsResponse
		if err := s.conn.ReadJSON(&resp); err != nil {
			s.drop()
			return nil, &TransportError{Op: "read", Err: err}
		}
		if resp.Type != "" && resp.Type != "response" {
			continue
		}
		if resp.ID != req.ID {
			continue
		}
		return &resp, nil
	}
}

func (s *WebSocketSource) drop() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}
