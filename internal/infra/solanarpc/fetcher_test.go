package solanarpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	idlapp "github.com/osvaldoandrade/anchoridl/internal/app/idl"
)

type rpcRequest struct {
	ID     any               `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcConfig struct {
	Encoding   string `json:"encoding"`
	Commitment string `json:"commitment"`
}

var testKey = solana.MustPublicKeyFromBase58("43JchZn2K9ZD1dAfP9hTNUSWFvWYhK8df7R5RKeVQB2G")

func newRPCServer(t *testing.T, result func(req rpcRequest) map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		resp := result(req)
		resp["jsonrpc"] = "2.0"
		resp["id"] = req.ID
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchAccountReturnsRawData(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}
	var seen rpcRequest
	var header string
	server := newRPCServer(t, func(req rpcRequest) map[string]any {
		seen = req
		return map[string]any{"result": map[string]any{
			"context": map[string]any{"slot": 42},
			"value": map[string]any{
				"data":       []string{base64.StdEncoding.EncodeToString(payload), "base64"},
				"executable": false,
				"lamports":   1000,
				"owner":      "11111111111111111111111111111111",
				"rentEpoch":  0,
			},
		}}
	})

	client := &http.Client{Transport: headerRecorder{next: http.DefaultTransport, header: &header}}
	fetcher := NewFetcher(Options{HTTPClient: client, Headers: map[string]string{"X-Api-Key": "secret"}})
	data, err := fetcher.FetchAccount(context.Background(), server.URL, testKey)
	if err != nil {
		t.Fatalf("FetchAccount returned error: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("unexpected data %v", data)
	}
	if seen.Method != "getAccountInfo" {
		t.Fatalf("unexpected method %s", seen.Method)
	}
	if len(seen.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(seen.Params))
	}
	var address string
	if err := json.Unmarshal(seen.Params[0], &address); err != nil || address != testKey.String() {
		t.Fatalf("unexpected address param %s", seen.Params[0])
	}
	var cfg rpcConfig
	if err := json.Unmarshal(seen.Params[1], &cfg); err != nil {
		t.Fatalf("decode config param: %v", err)
	}
	if cfg.Encoding != "base64" || cfg.Commitment != "processed" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if header != "secret" {
		t.Fatalf("custom header not sent, got %q", header)
	}
}

func TestFetchAccountMissingAccount(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) map[string]any {
		return map[string]any{"result": map[string]any{
			"context": map[string]any{"slot": 42},
			"value":   nil,
		}}
	})

	_, err := NewFetcher(Options{}).FetchAccount(context.Background(), server.URL, testKey)
	if !errors.Is(err, idlapp.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestFetchAccountRPCError(t *testing.T) {
	server := newRPCServer(t, func(req rpcRequest) map[string]any {
		return map[string]any{"error": map[string]any{"code": -32602, "message": "Invalid param"}}
	})

	_, err := NewFetcher(Options{}).FetchAccount(context.Background(), server.URL, testKey)
	if !errors.Is(err, idlapp.ErrRPC) {
		t.Fatalf("expected ErrRPC, got %v", err)
	}
}

func TestFetchAccountUnreachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	_, err := NewFetcher(Options{}).FetchAccount(context.Background(), endpoint, testKey)
	if !errors.Is(err, idlapp.ErrRPC) {
		t.Fatalf("expected ErrRPC, got %v", err)
	}
}

func TestFetchAccountCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFetcher(Options{}).FetchAccount(ctx, "http://127.0.0.1:1", testKey)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type headerRecorder struct {
	next   http.RoundTripper
	header *string
}

func (h headerRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	*h.header = req.Header.Get("X-Api-Key")
	return h.next.RoundTrip(req)
}
