package account

import (
	"context"

	"github.com/gagliardetto/solana-go"
	idlapp "github.com/osvaldoandrade/anchoridl/internal/app/idl"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

// IDLResolver is the slice of the idl service used to load a program's IDL.
type IDLResolver interface {
	Fetch(ctx context.Context, req idlapp.FetchRequest) (idlapp.Result, error)
}

type AccountFetcher interface {
	FetchAccount(ctx context.Context, endpoint string, address solana.PublicKey) ([]byte, error)
}

type LayoutDecoder interface {
	DecodeAccount(document []byte, accountType string, raw []byte) (domain.DecodedAccount, error)
}

type DocumentFormatter interface {
	Format(ctx context.Context, input []byte) ([]byte, error)
}
