package anchoridlsdk

import (
	"errors"
	"fmt"

	idlapp "github.com/osvaldoandrade/anchoridl/internal/app/idl"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

var (
	ErrInvalidConfig  = errors.New("anchoridl-sdk: invalid config")
	ErrUnknownCluster = errors.New("anchoridl-sdk: unknown cluster")
	ErrInvalidAddress = errors.New("anchoridl-sdk: invalid address")
	ErrNotFound       = errors.New("anchoridl-sdk: account not found")
	ErrRPC            = errors.New("anchoridl-sdk: rpc request failed")
)

// Each IDL decode stage fails with its own error.
var (
	ErrDeserialization = errors.New("anchoridl-sdk: idl account envelope is malformed")
	ErrDecompression   = errors.New("anchoridl-sdk: idl payload is not a valid zlib stream")
	ErrParse           = errors.New("anchoridl-sdk: idl document is not valid json")
)

// Errors returned when decoding program accounts through an IDL.
var (
	ErrUnknownAccountType    = errors.New("anchoridl-sdk: unknown account type")
	ErrDiscriminatorMismatch = errors.New("anchoridl-sdk: account discriminator mismatch")
	ErrAccountLayout         = errors.New("anchoridl-sdk: account data does not match the idl layout")
)

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, idlapp.ErrAccountNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, domain.ErrUnknownCluster):
		return fmt.Errorf("%w: %w", ErrUnknownCluster, err)
	case errors.Is(err, domain.ErrAddressRequired),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, idlapp.ErrProgramRequired):
		return fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	case errors.Is(err, domain.ErrDeserialization):
		return fmt.Errorf("%w: %w", ErrDeserialization, err)
	case errors.Is(err, domain.ErrDecompression):
		return fmt.Errorf("%w: %w", ErrDecompression, err)
	case errors.Is(err, domain.ErrParse):
		return fmt.Errorf("%w: %w", ErrParse, err)
	case errors.Is(err, domain.ErrAccountTypeRequired),
		errors.Is(err, domain.ErrUnknownAccountType):
		return fmt.Errorf("%w: %w", ErrUnknownAccountType, err)
	case errors.Is(err, domain.ErrDiscriminatorMismatch):
		return fmt.Errorf("%w: %w", ErrDiscriminatorMismatch, err)
	case errors.Is(err, domain.ErrAccountLayout):
		return fmt.Errorf("%w: %w", ErrAccountLayout, err)
	case errors.Is(err, idlapp.ErrRPC):
		return fmt.Errorf("%w: %w", ErrRPC, err)
	default:
		return err
	}
}
