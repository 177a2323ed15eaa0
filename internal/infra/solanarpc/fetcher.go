package solanarpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	idlapp "github.com/osvaldoandrade/anchoridl/internal/app/idl"
)

const defaultHTTPTimeout = 30 * time.Second

type Options struct {
	HTTPClient *http.Client
	Headers    map[string]string
	Commitment rpc.CommitmentType
}

// Fetcher reads raw account data over Solana JSON-RPC.
type Fetcher struct {
	opts Options
}

func NewFetcher(opts Options) *Fetcher {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if opts.Commitment == "" {
		opts.Commitment = rpc.CommitmentProcessed
	}
	return &Fetcher{opts: opts}
}

func (f *Fetcher) client(endpoint string) *rpc.Client {
	return rpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
		HTTPClient:    f.opts.HTTPClient,
		CustomHeaders: f.opts.Headers,
	}))
}

func (f *Fetcher) FetchAccount(ctx context.Context, endpoint string, address solana.PublicKey) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := f.client(endpoint).GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: f.opts.Commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", idlapp.ErrAccountNotFound, address)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: get account info: %v", idlapp.ErrRPC, err)
	}
	if resp == nil || resp.Value == nil || resp.Value.Data == nil {
		return nil, fmt.Errorf("%w: %s", idlapp.ErrAccountNotFound, address)
	}

	return resp.Value.Data.GetBinary(), nil
}
