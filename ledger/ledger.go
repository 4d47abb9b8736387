// Package ledger declares the local runtime's block/transaction history
// collaborator, the slot ticker's (C6) counterpart of the teacher's
// BlockChain interface (types.BlockChain): a minimal seam over block
// production and blockhash lookups, kept intentionally small since block
// production itself is out of this engine's scope (spec section 1
// non-goals) — only what C6 needs to advance a slot and hand off to the
// committer is declared here.
package ledger

import "evrollup/common"

// Entry is a single produced local-chain slot record: its own slot number,
// the parent slot it extends, and the blockhash transactions executed
// against it may reference — the same hash/parent-hash/number shape as the
// teacher's Header, reduced to what a slot-advance step actually needs.
type Entry struct {
	Slot       common.Slot
	ParentSlot common.Slot
	Blockhash  common.Hash
}

// Writer is the local runtime's block-production seam: the slot ticker
// calls Advance once per tick to record that a new slot has been produced,
// mirroring BlockChain.CurrentBlock/GetBlock's read side but adding the
// write the teacher's pool never needed (a pool never produces blocks).
type Writer interface {
	// Advance records that slot has been produced, extending parentSlot
	// and exposing blockhash for following transactions to reference.
	Advance(slot, parentSlot common.Slot, blockhash common.Hash) error

	// CurrentEntry returns the most recently advanced Entry.
	CurrentEntry() (Entry, bool)

	// RecentBlockhashes returns the blockhashes still valid for new
	// transactions to reference, most recent first.
	RecentBlockhashes() []common.Hash
}
