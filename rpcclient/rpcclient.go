// Package rpcclient declares the base-chain collaborator interfaces that C1
// (fetcher), C2 (monitor) and C5 (committer) depend on: reading account
// state, subscribing to account updates, and sending transactions. Field
// shapes follow the wire types used by Solana JSON-RPC client libraries
// (ContextSlot, AccountInfo, SignatureInfo), reshaped onto this codebase's
// Pubkey/Hash/Signature types rather than big.Int/string.
package rpcclient

import (
	"context"

	"evrollup/common"
)

// ContextSlot is the slot a response was computed at, mirroring every
// Solana RPC response's enclosing "context" object.
type ContextSlot struct {
	Slot common.Slot
}

// AccountInfo is the wire shape of a single base-chain account, as returned
// by getAccountInfo / getMultipleAccounts.
type AccountInfo struct {
	Lamports   uint64
	Owner      common.Pubkey
	Data       []byte
	Executable bool
	RentEpoch  uint64
}

// AccountInfoWithContext pairs an AccountInfo with the slot it was read at.
type AccountInfoWithContext struct {
	Context ContextSlot
	Value   *AccountInfo // nil when the account does not exist
}

// SignatureInfo describes the landed/confirmed status of a dispatched
// transaction, as returned by getSignatureStatuses.
type SignatureInfo struct {
	Slot               common.Slot
	Err                error
	ConfirmationStatus string // "processed", "confirmed", "finalized", or "" if unknown
}

// AccountUpdate is a single notification delivered by a monitor shard's
// account-subscribe stream.
type AccountUpdate struct {
	Pubkey  common.Pubkey
	Context ContextSlot
	Account AccountInfo
}

// BaseChainReader fetches point-in-time account state from the base chain.
// Implemented by the concrete JSON-RPC client wired at process startup;
// mocked in tests.
type BaseChainReader interface {
	GetAccountInfo(ctx context.Context, pubkey common.Pubkey, minContextSlot common.Slot) (AccountInfoWithContext, error)
	GetMultipleAccounts(ctx context.Context, pubkeys []common.Pubkey, minContextSlot common.Slot) ([]AccountInfoWithContext, error)
}

// BaseChainSubscriber opens account-update subscriptions over a persistent
// transport (spec 4.2). Each shard owns one subscriber connection.
type BaseChainSubscriber interface {
	// Subscribe starts streaming updates for pubkey onto updates. The
	// returned unsubscribe func must be called to release the
	// subscription; it is safe to call more than once.
	Subscribe(ctx context.Context, pubkey common.Pubkey, updates chan<- AccountUpdate) (unsubscribe func(), err error)
	// Close tears down the underlying transport connection.
	Close() error
}

// BaseChainSender dispatches signed transactions to the base chain and
// polls for their confirmation, used by the committer (C5).
type BaseChainSender interface {
	SendTransaction(ctx context.Context, raw []byte) (common.Signature, error)
	GetSignatureStatuses(ctx context.Context, sigs []common.Signature) ([]SignatureInfo, error)
	GetLatestBlockhash(ctx context.Context) (common.Hash, error)
}
