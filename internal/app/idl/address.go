package idl

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

// ResolveAddress derives the account Anchor uses to store a program's IDL:
// the program signer (no seeds) combined with the "anchor:idl" seed.
func ResolveAddress(programID string) (AddressResult, error) {
	program, err := domain.ParseAddress(programID)
	if err != nil {
		if errors.Is(err, domain.ErrAddressRequired) {
			return AddressResult{}, ErrProgramRequired
		}
		return AddressResult{}, err
	}

	base, bump, err := solana.FindProgramAddress(nil, program)
	if err != nil {
		return AddressResult{}, fmt.Errorf("find program signer: %w", err)
	}

	address, err := solana.CreateWithSeed(base, domain.IdlSeed, program)
	if err != nil {
		return AddressResult{}, fmt.Errorf("create idl address: %w", err)
	}

	return AddressResult{
		ProgramID: program,
		Base:      base,
		Bump:      bump,
		Address:   address,
	}, nil
}
