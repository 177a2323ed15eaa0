package domain

import (
	"crypto/sha256"

	"github.com/gagliardetto/solana-go"
)

// DiscriminatorSize is the length of the type tag Anchor writes at the start of
// every account it owns. The tag is never interpreted here, only skipped.
const DiscriminatorSize = 8

// IdlSeed is the seed Anchor combines with the program signer to locate the
// IDL account of a program.
const IdlSeed = "anchor:idl"

// IdlAccount is the on-chain envelope around a zlib-compressed IDL document.
type IdlAccount struct {
	Authority solana.PublicKey
	Data      []byte
}

// IdlAccountDiscriminator is the tag Anchor assigns to IdlAccount records.
var IdlAccountDiscriminator = AccountDiscriminator("IdlAccount")

// AccountDiscriminator returns the tag Anchor derives for an account type:
// the first eight bytes of sha256("account:<name>").
func AccountDiscriminator(name string) [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var out [DiscriminatorSize]byte
	copy(out[:], sum[:DiscriminatorSize])
	return out
}

// DecodedAccount is account data rendered as compact JSON through the layout
// an IDL declares for Type.
type DecodedAccount struct {
	Type          string
	Discriminator [DiscriminatorSize]byte
	Document      []byte
}
