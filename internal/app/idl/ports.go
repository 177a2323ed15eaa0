package idl

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

type AccountFetcher interface {
	FetchAccount(ctx context.Context, endpoint string, address solana.PublicKey) ([]byte, error)
}

type EnvelopeDecoder interface {
	DecodeEnvelope(raw []byte) (domain.IdlAccount, error)
}

type Decompressor interface {
	Decompress(payload []byte) ([]byte, error)
}

type DocumentFormatter interface {
	Format(ctx context.Context, input []byte) ([]byte, error)
}

type DocumentHasher interface {
	SumHex(data []byte) string
}
