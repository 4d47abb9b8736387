// Package store declares the local runtime's account-store collaborator
// interface, the consumer-facing counterpart of the teacher's StateDB
// (state.StateDB): a small seam the cloner (C3) and admission (C4) dump
// into and read from, without this codebase needing to know how the
// underlying execution runtime actually persists accounts.
package store

import (
	"evrollup/account"
	"evrollup/common"
)

// LocalStore is the local validator runtime's account view. The cloner
// dumps into it; admission and the committer read from it.
//
// Unlike StateDB's balance/nonce-shaped API (a payment ledger), LocalStore
// is account-shaped, matching the account model in spec section 3: whole
// Account values are read and written, never individual balance deltas.
type LocalStore interface {
	// Get returns the account at pubkey, or ok=false if it is absent from
	// the local runtime.
	Get(pubkey common.Pubkey) (acc account.Account, ok bool)

	// Set installs or overwrites the account at pubkey, used by the cloner
	// when dumping a fetched snapshot into the runtime.
	Set(pubkey common.Pubkey, acc account.Account)

	// Delete removes pubkey from the local runtime, used by the cloner's
	// RemoveAccount once an undelegating commit has been confirmed.
	Delete(pubkey common.Pubkey)

	// Has reports whether pubkey is present locally without allocating a
	// copy of its data, used by admission's read/write set checks.
	Has(pubkey common.Pubkey) bool
}

// DelegationIndex is the local runtime's view of which pubkeys are
// currently delegated to this validator, backing admission's
// writable-must-be-delegated invariant (spec 4.4).
type DelegationIndex interface {
	// IsDelegated reports whether pubkey has an active delegation record
	// naming this validator.
	IsDelegated(pubkey common.Pubkey) bool

	// DelegationOf returns the delegation record for pubkey, or ok=false
	// if it is not delegated.
	DelegationOf(pubkey common.Pubkey) (rec account.DelegationRecord, ok bool)

	// MarkDelegated records that pubkey is now delegated under rec.
	MarkDelegated(pubkey common.Pubkey, rec account.DelegationRecord)

	// MarkUndelegated removes pubkey's delegation record, used once its
	// final commit has been confirmed on the base chain.
	MarkUndelegated(pubkey common.Pubkey)

	// DelegatedPubkeys returns every pubkey with an active delegation
	// record, used by the committer's commit-delegated ticker to scan for
	// accounts whose commit_frequency has elapsed.
	DelegatedPubkeys() []common.Pubkey
}

// ModDataIndex records, per pubkey, the local slot at which the runtime
// last applied a local mutation to that account (spec 4.7's
// account-mod-data hook). Admission does not consult it: its "locally
// originated" test is a local-store entry with no CloneOutput.
type ModDataIndex interface {
	// RecordLocalMutation stamps pubkey with slot as its most recent
	// locally-applied mutation.
	RecordLocalMutation(pubkey common.Pubkey, slot common.Slot)

	// LastLocalMutation returns the slot of pubkey's most recent locally
	// applied mutation, or ok=false if none is recorded.
	LastLocalMutation(pubkey common.Pubkey) (slot common.Slot, ok bool)
}
