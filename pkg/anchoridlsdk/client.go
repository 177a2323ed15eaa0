package anchoridlsdk

import (
	"context"
	"encoding/hex"

	"github.com/go-json-experiment/json"
	accountapp "github.com/osvaldoandrade/anchoridl/internal/app/account"
	idlapp "github.com/osvaldoandrade/anchoridl/internal/app/idl"
	"github.com/osvaldoandrade/anchoridl/internal/infra/anchorenc"
	"github.com/osvaldoandrade/anchoridl/internal/infra/hash"
	"github.com/osvaldoandrade/anchoridl/internal/infra/idllayout"
	"github.com/osvaldoandrade/anchoridl/internal/infra/jsondoc"
	"github.com/osvaldoandrade/anchoridl/internal/infra/solanarpc"
	"github.com/osvaldoandrade/anchoridl/internal/infra/zlibstream"
)

// Client resolves IDL documents. It holds no per-request state and is safe
// for concurrent use.
type Client struct {
	cfg      Config
	service  *idlapp.Service
	accounts *accountapp.Service
}

// IDL is a decoded IDL account.
type IDL struct {
	Address       string
	Cluster       string
	Authority     string
	Discriminator string
	// Document is the JSON text, indented unless Config.Compact is set.
	Document []byte
	SHA256   string
}

// Unmarshal decodes the document into target.
func (d IDL) Unmarshal(target any) error {
	return json.Unmarshal(d.Document, target)
}

// Account is program account data rendered as JSON through the layout the
// program's IDL declares for Type.
type Account struct {
	Address       string
	ProgramID     string
	IDLAddress    string
	Cluster       string
	Type          string
	Discriminator string
	// Document is the JSON text, indented unless Config.Compact is set.
	Document []byte
}

// Unmarshal decodes the account document into target.
func (a Account) Unmarshal(target any) error {
	return json.Unmarshal(a.Document, target)
}

// New validates cfg and wires the resolution pipeline.
func New(cfg Config) (*Client, error) {
	normalized, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}

	var formatter idlapp.DocumentFormatter = jsondoc.Formatter{}
	if normalized.Compact {
		formatter = jsondoc.Compactor{}
	}
	fetcher := solanarpc.NewFetcher(solanarpc.Options{
		HTTPClient: normalized.HTTPClient,
		Headers:    normalized.Headers,
	})
	service := idlapp.NewService(
		fetcher,
		anchorenc.Decoder{},
		zlibstream.Decompressor{MaxOutput: normalized.MaxIDLBytes},
		formatter,
		hash.SHA256{},
		normalized.Logger,
	)
	accounts := accountapp.NewService(service, fetcher, idllayout.Decoder{}, formatter, normalized.Logger)
	return &Client{cfg: normalized, service: service, accounts: accounts}, nil
}

// FetchIDL reads the IDL stored at an IDL account address.
func (c *Client) FetchIDL(ctx context.Context, address string) (IDL, error) {
	return c.fetch(ctx, idlapp.FetchRequest{Address: address})
}

// FetchProgramIDL derives the IDL account of programID and reads it.
func (c *Client) FetchProgramIDL(ctx context.Context, programID string) (IDL, error) {
	return c.fetch(ctx, idlapp.FetchRequest{ProgramID: programID})
}

// DecodeAccount decodes raw account data that was fetched elsewhere.
func (c *Client) DecodeAccount(ctx context.Context, raw []byte) (IDL, error) {
	result, err := c.service.Decode(ctx, raw)
	if err != nil {
		return IDL{}, mapErr(err)
	}
	return toIDL(result), nil
}

// IDLAddress returns the address Anchor uses for the IDL of programID.
func (c *Client) IDLAddress(programID string) (string, error) {
	result, err := idlapp.ResolveAddress(programID)
	if err != nil {
		return "", mapErr(err)
	}
	return result.Address.String(), nil
}

// FetchAccount loads the IDL of programID, reads accountID and decodes it as
// accountType. accountType is matched against the IDL's account names,
// case-insensitively when there is no exact match.
func (c *Client) FetchAccount(ctx context.Context, programID, accountType, accountID string) (Account, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	result, err := c.accounts.Fetch(ctx, accountapp.Request{
		ProgramID:   programID,
		AccountType: accountType,
		AccountID:   accountID,
		Cluster:     c.cfg.Cluster,
		RPCURL:      c.cfg.RPCURL,
	})
	if err != nil {
		return Account{}, mapErr(err)
	}
	return toAccount(result), nil
}

// DecodeAccountData decodes account data fetched elsewhere with an IDL
// document the caller already holds.
func (c *Client) DecodeAccountData(ctx context.Context, idl []byte, accountType string, data []byte) (Account, error) {
	result, err := c.accounts.Decode(ctx, idl, accountType, data)
	if err != nil {
		return Account{}, mapErr(err)
	}
	return toAccount(result), nil
}

func (c *Client) fetch(ctx context.Context, req idlapp.FetchRequest) (IDL, error) {
	req.Cluster = c.cfg.Cluster
	req.RPCURL = c.cfg.RPCURL
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	result, err := c.service.Fetch(ctx, req)
	if err != nil {
		return IDL{}, mapErr(err)
	}
	return toIDL(result), nil
}

func toIDL(result idlapp.Result) IDL {
	idl := IDL{
		Cluster:       result.Cluster.String(),
		Authority:     result.Authority.String(),
		Discriminator: hex.EncodeToString(result.Discriminator[:]),
		Document:      result.Document,
		SHA256:        result.DocumentSHA256,
	}
	if !result.Address.IsZero() {
		idl.Address = result.Address.String()
	}
	return idl
}

func toAccount(result accountapp.Result) Account {
	account := Account{
		Cluster:       result.Cluster.String(),
		Type:          result.Type,
		Discriminator: hex.EncodeToString(result.Discriminator[:]),
		Document:      result.Document,
	}
	if !result.Address.IsZero() {
		account.Address = result.Address.String()
	}
	if !result.ProgramID.IsZero() {
		account.ProgramID = result.ProgramID.String()
		account.IDLAddress = result.IDLAddress.String()
	}
	return account
}
