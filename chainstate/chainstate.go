// Package chainstate implements the ChainState tagged variant and the
// ChainSnapshot that carries it (spec section 3), produced by the fetcher
// (C1) and consumed by the cloner (C3).
package chainstate

import (
	"sync/atomic"

	"evrollup/account"
	"evrollup/common"
)

// Kind discriminates the ChainState variant, mirroring the teacher's
// TxType enum-plus-embedded-fields pattern (types.TxType / tx.Type()).
type Kind uint8

const (
	// KindFeePayer is a wallet whose delegated ephemeral PDA absorbs
	// balance changes; the wallet itself is not delegated.
	KindFeePayer Kind = iota
	// KindUndelegated is a plain account not under this validator's
	// delegation.
	KindUndelegated
	// KindDelegated is an account with a valid delegation record naming
	// this validator.
	KindDelegated
	// KindExecutable is a program account (and its associated program-data
	// account, fetched alongside it).
	KindExecutable
)

func (k Kind) String() string {
	switch k {
	case KindFeePayer:
		return "fee-payer"
	case KindUndelegated:
		return "undelegated"
	case KindDelegated:
		return "delegated"
	case KindExecutable:
		return "executable"
	default:
		return "unknown"
	}
}

// ChainState is a tagged variant describing an account's base-chain status
// at a specific slot. Only the field(s) matching Kind are meaningful; this
// mirrors the teacher's Transaction struct, which embeds all of
// TxPreface/TxInner/TxExtends and uses Type() to discriminate which fields
// apply, rather than a Go-idiomatic sealed interface hierarchy — chosen
// here too, so downstream code (cloner dump table) can switch on Kind once
// and read straight off the struct.
type ChainState struct {
	Kind Kind

	// KindFeePayer
	FeePayerLamports uint64
	FeePayerOwner    common.Pubkey

	// KindUndelegated
	UndelegatedAccount      account.Account
	UndelegatedInconsistent bool
	InconsistencyReason     string

	// KindDelegated
	DelegatedAccount account.Account
	DelegationRecord account.DelegationRecord

	// KindExecutable
	ExecutableAccount     account.Account
	ProgramDataAddress    common.Pubkey
	ProgramDataAccount    account.Account
	ProgramDataHasAccount bool
}

// NewFeePayer builds a FeePayer chain state.
func NewFeePayer(lamports uint64, owner common.Pubkey) ChainState {
	return ChainState{Kind: KindFeePayer, FeePayerLamports: lamports, FeePayerOwner: owner}
}

// NewUndelegated builds an Undelegated chain state. inconsistencyReason is
// non-empty only when the account looked like a delegated PDA but its
// delegation record failed to parse (spec 4.1 classification).
func NewUndelegated(acc account.Account, inconsistencyReason string) ChainState {
	return ChainState{
		Kind:                    KindUndelegated,
		UndelegatedAccount:      acc,
		UndelegatedInconsistent: inconsistencyReason != "",
		InconsistencyReason:     inconsistencyReason,
	}
}

// NewDelegated builds a Delegated chain state.
func NewDelegated(acc account.Account, rec account.DelegationRecord) ChainState {
	return ChainState{Kind: KindDelegated, DelegatedAccount: acc, DelegationRecord: rec}
}

// NewExecutable builds an Executable chain state. programData/hasProgramData
// is false when the fetcher could not locate the program-data account
// (treated as a fetch inconsistency by the cloner, since an executable
// account without program data cannot be dumped correctly).
func NewExecutable(acc account.Account, programDataAddr common.Pubkey, programData account.Account, hasProgramData bool) ChainState {
	return ChainState{
		Kind:                  KindExecutable,
		ExecutableAccount:     acc,
		ProgramDataAddress:    programDataAddr,
		ProgramDataAccount:    programData,
		ProgramDataHasAccount: hasProgramData,
	}
}

// snapshotGeneration is a process-wide monotonic counter used as the
// identity of a ChainSnapshot in place of pointer identity: snapshots are
// stored by value and identified by generation.
var snapshotGeneration atomic.Uint64

// Snapshot is an immutable point-in-time view of a base-chain account,
// shared by reference count (Go's GC plays that role; Snapshot is handed
// around as a *Snapshot and never mutated after NewSnapshot returns).
type Snapshot struct {
	Pubkey     common.Pubkey
	AtSlot     common.Slot
	State      ChainState
	Generation uint64
}

// NewSnapshot stamps state with the next generation id and returns an
// immutable snapshot.
func NewSnapshot(pubkey common.Pubkey, atSlot common.Slot, state ChainState) *Snapshot {
	return &Snapshot{
		Pubkey:     pubkey,
		AtSlot:     atSlot,
		State:      state,
		Generation: snapshotGeneration.Add(1),
	}
}
