package idl

import (
	"github.com/gagliardetto/solana-go"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

type FetchRequest struct {
	Address   string
	ProgramID string
	Cluster   string
	// RPCURL overrides the endpoint derived from Cluster.
	RPCURL string
}

type Result struct {
	Address          solana.PublicKey
	Cluster          domain.Cluster
	Endpoint         string
	Authority        solana.PublicKey
	Discriminator    [domain.DiscriminatorSize]byte
	AccountSize      int
	CompressedSize   int
	DecompressedSize int
	Document         []byte
	// DocumentSHA256 is the hex digest of Document as emitted.
	DocumentSHA256 string
}

type AddressResult struct {
	ProgramID solana.PublicKey
	Base      solana.PublicKey
	Bump      uint8
	Address   solana.PublicKey
}
