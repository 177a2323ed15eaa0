package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	idlapp "github.com/osvaldoandrade/anchoridl/internal/app/idl"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

var (
	ErrInputRequired        = errors.New("input file is required")
	ErrInvalidEncoding      = errors.New("input is not valid base64")
	ErrInvalidDiscriminator = errors.New("discriminator must be 8 hex-encoded bytes")
)

type ErrorKind string

const (
	KindInternal              ErrorKind = "internal"
	KindValidation            ErrorKind = "validation"
	KindInvalidAddress        ErrorKind = "invalid_address"
	KindUnknownCluster        ErrorKind = "unknown_cluster"
	KindUnknownAccountType    ErrorKind = "unknown_account_type"
	KindNotFound              ErrorKind = "not_found"
	KindDeserialization       ErrorKind = "deserialization"
	KindDecompression         ErrorKind = "decompression"
	KindParse                 ErrorKind = "parse"
	KindDiscriminatorMismatch ErrorKind = "discriminator_mismatch"
	KindAccountLayout         ErrorKind = "account_layout"
	KindUpstream              ErrorKind = "upstream"
)

const (
	ExitInternal = 1
	ExitInvalid  = 2
	ExitNotFound = 3
	ExitDecode   = 5
	ExitUpstream = 6
)

type ExitError struct {
	Code    int
	Kind    ErrorKind
	Message string
	Err     error
}

func (e ExitError) Error() string {
	return errorMessage(e)
}

func (e ExitError) Unwrap() error {
	return e.Err
}

func NormalizeError(err error) ExitError {
	if err == nil {
		return ExitError{Code: 0}
	}
	var exitErr ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Code == 0 {
			exitErr.Code = ExitInternal
		}
		return exitErr
	}

	switch {
	case errors.Is(err, idlapp.ErrAccountNotFound):
		return ExitError{Code: ExitNotFound, Kind: KindNotFound, Err: err}
	case errors.Is(err, domain.ErrDeserialization):
		return ExitError{Code: ExitDecode, Kind: KindDeserialization, Err: err}
	case errors.Is(err, domain.ErrDecompression):
		return ExitError{Code: ExitDecode, Kind: KindDecompression, Err: err}
	case errors.Is(err, domain.ErrParse):
		return ExitError{Code: ExitDecode, Kind: KindParse, Err: err}
	case errors.Is(err, domain.ErrDiscriminatorMismatch):
		return ExitError{Code: ExitDecode, Kind: KindDiscriminatorMismatch, Err: err}
	case errors.Is(err, domain.ErrAccountLayout):
		return ExitError{Code: ExitDecode, Kind: KindAccountLayout, Err: err}
	case errors.Is(err, idlapp.ErrRPC),
		errors.Is(err, context.DeadlineExceeded):
		return ExitError{Code: ExitUpstream, Kind: KindUpstream, Err: err}
	case errors.Is(err, domain.ErrAddressRequired),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, idlapp.ErrProgramRequired):
		return ExitError{Code: ExitInvalid, Kind: KindInvalidAddress, Err: err}
	case errors.Is(err, domain.ErrUnknownCluster):
		return ExitError{Code: ExitInvalid, Kind: KindUnknownCluster, Err: err}
	case errors.Is(err, domain.ErrUnknownAccountType):
		return ExitError{Code: ExitInvalid, Kind: KindUnknownAccountType, Err: err}
	case errors.Is(err, domain.ErrAccountTypeRequired),
		errors.Is(err, idlapp.ErrTargetAmbiguous),
		errors.Is(err, ErrInputRequired),
		errors.Is(err, ErrInvalidEncoding),
		errors.Is(err, ErrInvalidDiscriminator):
		return ExitError{Code: ExitInvalid, Kind: KindValidation, Err: err}
	default:
		return ExitError{Code: ExitInternal, Kind: KindInternal, Err: err}
	}
}

func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return NormalizeError(err).Code
}

type errorOutput struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeCLIError(w io.Writer, exitErr ExitError, asJSON bool) error {
	if exitErr.Code == 0 {
		return nil
	}
	message := errorMessage(exitErr)
	if asJSON {
		return writeJSON(w, errorOutput{
			Code:    exitErr.Code,
			Kind:    string(exitErr.Kind),
			Message: message,
		})
	}

	ui := newRenderer(w, false)
	prefix := "Error"
	if exitErr.Kind != "" {
		prefix = fmt.Sprintf("Error (%s)", exitErr.Kind)
	}
	prefix = ui.err(prefix)
	_, err := fmt.Fprintf(w, "%s: %s\n", prefix, message)
	return err
}

func errorMessage(exitErr ExitError) string {
	if exitErr.Message != "" {
		return exitErr.Message
	}
	if exitErr.Err != nil {
		return exitErr.Err.Error()
	}
	return "unknown error"
}
