package types

import "errors"

var (
	// ErrCannotMarshal is returned when a Transaction's Message cannot be
	// serialized, e.g. an account index in a CompiledInstruction falls
	// outside Message.AccountKeys.
	ErrCannotMarshal = errors.New("types: cannot marshal transaction")
	// ErrInstructionAccountOutOfRange is returned by CompiledInstruction
	// validation when an account or program index references past the end
	// of the enclosing Message's AccountKeys.
	ErrInstructionAccountOutOfRange = errors.New("types: instruction references account index out of range")
	// ErrTooManyAccountKeys is returned when a Message declares more
	// account keys than fit in the uint8 index space CompiledInstruction
	// uses to reference them.
	ErrTooManyAccountKeys = errors.New("types: message declares more than 256 account keys")
)
