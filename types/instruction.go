package types

import "evrollup/common"

// AccountMeta describes one account reference within a Message, carrying
// the is-signer/is-writable flags a CompiledInstruction's index list alone
// cannot express; derived from a Message's header when read/write sets are
// needed (admission's ValidateLifecycle).
type AccountMeta struct {
	Pubkey     common.Pubkey
	IsSigner   bool
	IsWritable bool
}

// CompiledInstruction references a program and its accounts by index into
// the enclosing Message's AccountKeys, matching the wire shape every
// Solana-family client uses (see types.CompiledInstruction in the
// retrieved RPC client library).
type CompiledInstruction struct {
	ProgramIDIndex uint8
	Accounts       []uint8
	Data           []byte
}
