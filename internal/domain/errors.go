package domain

import "errors"

var ErrAddressRequired = errors.New("account address is required")
var ErrInvalidAddress = errors.New("invalid account address")
var ErrUnknownCluster = errors.New("unknown cluster")

var (
	ErrDeserialization = errors.New("idl account deserialization failed")
	ErrDecompression   = errors.New("idl payload decompression failed")
	ErrParse           = errors.New("idl document is not valid json")
)

var (
	ErrAccountTypeRequired   = errors.New("account type is required")
	ErrUnknownAccountType    = errors.New("account type is not declared by the idl")
	ErrDiscriminatorMismatch = errors.New("account discriminator does not match the account type")
	ErrAccountLayout         = errors.New("account data does not match the idl layout")
)
