package domain

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ParseAddress decodes a base58 account identifier into a public key.
func ParseAddress(value string) (solana.PublicKey, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return solana.PublicKey{}, ErrAddressRequired
	}
	raw, err := base58.Decode(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %q is not base58", ErrInvalidAddress, value)
	}
	if len(raw) != solana.PublicKeyLength {
		return solana.PublicKey{}, fmt.Errorf("%w: %q decodes to %d bytes, want %d", ErrInvalidAddress, value, len(raw), solana.PublicKeyLength)
	}
	return solana.PublicKeyFromBytes(raw), nil
}
