package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rippledata/importer/internal/core/domain"
)

// HTTPSource implements LedgerSource over rippled's JSON-RPC endpoint.
type HTTPSource struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPSource creates a new JSON-RPC source.
func NewHTTPSource(endpoint string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// FetchLedger retrieves one ledger with expanded transactions.
func (s *HTTPSource) FetchLedger(ctx context.Context, index uint64) (*domain.Ledger, error) {
	params := ledgerRequest{
		Ledger:       index,
		Transactions: true,
		Expand:       true,
	}

	var res ledgerResult
	if err := s.call(ctx, "ledger", []any{params}, &res); err != nil {
		return nil, err
	}
	return parseLedgerResult(res)
}

// ServerInfo issues a server_info call.
func (s *HTTPSource) ServerInfo(ctx context.Context) (json.RawMessage, error) {
	var res json.RawMessage
	if err := s.call(ctx, "server_info", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Close releases idle connections.
func (s *HTTPSource) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *HTTPSource) call(ctx context.Context, method string, params []any, result any) error {
	reqBody := map[string]any{"method": method}
	if params != nil {
		reqBody["params"] = params
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: "post", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return &TransportError{
			Op:  "post",
			Err: fmt.Errorf("http %d: %s", resp.StatusCode, body),
		}
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &TransportError{Op: "parse response", Err: err}
	}
	if len(envelope.Result) == 0 {
		return &ProtocolError{Code: "noResult", Message: "response carried no result"}
	}

	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return &ProtocolError{Code: "malformedResult", Message: err.Error()}
	}
	return nil
}
