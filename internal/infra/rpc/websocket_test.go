package rpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsServer(t *testing.T, reply func(req wsRequest) any) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for {
			var req wsRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if err := conn.WriteJSON(reply(req)); err != nil {
				return
			}
		}
	}))
}

func TestWebSocketFetchLedger(t *testing.T) {
	srv := wsServer(t, func(req wsRequest) any {
		if req.Command != "ledger" || !req.Transactions || !req.Expand {
			t.Errorf("unexpected request: %+v", req)
		}
		return map[string]any{
			"id":     req.ID,
			"status": "success",
			"type":   "response",
			"result": map[string]any{
				"ledger": map[string]any{
					"seqNum":      "7",
					"ledger_hash": "L7",
					"closed":      true,
					"transactions": []map[string]any{
						{"Account": "rA", "TransactionType": "Payment", "Sequence": 1, "hash": "T1"},
					},
				},
			},
		}
	})
	defer srv.Close()

	src := NewWebSocketSource("ws"+strings.TrimPrefix(srv.URL, "http"), 5*time.Second)
	defer src.Close()

	ledger, err := src.FetchLedger(context.Background(), 7)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if ledger.Index != 7 || len(ledger.Transactions) != 1 {
		t.Errorf("ledger = %+v", ledger)
	}
}

func TestWebSocketNotFound(t *testing.T) {
	srv := wsServer(t, func(req wsRequest) any {
		return map[string]any{
			"id":            req.ID,
			"status":        "error",
			"type":          "response",
			"error":         "lgrNotFound",
			"error_message": "ledgerNotFound",
		}
	})
	defer srv.Close()

	src := NewWebSocketSource("ws"+strings.TrimPrefix(srv.URL, "http"), 5*time.Second)
	defer src.Close()

	_, err := src.FetchLedger(context.Background(), 9)
	if !errors.Is(err, ErrLedgerNotFound) {
		t.Fatalf("err = %v, want ErrLedgerNotFound", err)
	}
}

func TestWebSocketDialFailure(t *testing.T) {
	src := NewWebSocketSource("ws://127.0.0.1:1", time.Second)
	_, err := src.FetchLedger(context.Background(), 1)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
}
