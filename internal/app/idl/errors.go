package idl

import "errors"

var ErrAccountNotFound = errors.New("account not found")
var ErrRPC = errors.New("rpc request failed")
var ErrProgramRequired = errors.New("program id is required")
var ErrTargetAmbiguous = errors.New("account address and program id cannot be used together")
