package account

import (
	"github.com/gagliardetto/solana-go"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

type Request struct {
	ProgramID   string
	AccountType string
	AccountID   string
	Cluster     string
	// RPCURL overrides the endpoint derived from Cluster.
	RPCURL string
	// IDL, when set, is used instead of the IDL stored on chain for
	// ProgramID, and ProgramID becomes optional.
	IDL []byte
}

type Result struct {
	Address       solana.PublicKey
	ProgramID     solana.PublicKey
	IDLAddress    solana.PublicKey
	Cluster       domain.Cluster
	Endpoint      string
	Type          string
	Discriminator [domain.DiscriminatorSize]byte
	AccountSize   int
	Document      []byte
}
