// Package errs holds the error taxonomy of the account lifecycle engine
// (spec section 7), following the teacher's convention of package-level
// sentinel errors wrapped with "%w: context" at the call site.
package errs

import (
	"errors"
	"fmt"

	"evrollup/common"
)

var (
	// ErrFetchFailed is raised by the fetcher (C1) when the upstream RPC
	// request for a chain snapshot fails. Not retried internally; it is
	// terminal for every waiter sharing the in-flight request.
	ErrFetchFailed = errors.New("fetcher: failed to fetch chain snapshot")

	// ErrDelegationInconsistency is recorded (not raised to the caller as a
	// hard failure) when a delegated PDA's delegation record is malformed;
	// downstream treats the account as undelegated.
	ErrDelegationInconsistency = errors.New("fetcher: delegation record inconsistent")

	// ErrCloneUnavailable is raised by the cloner (C3) when an account
	// cannot be cloned: monitoring could not be established, an executable
	// has no program-data account, or the chain state is of an unknown
	// kind. Fetch failures and delegation inconsistencies keep their own
	// sentinels.
	ErrCloneUnavailable = errors.New("cloner: account not cloneable")

	// ErrWritableNotDelegated is raised by admission (C4) when a
	// transaction writes an account that is not delegated to this
	// validator and was not locally originated.
	ErrWritableNotDelegated = errors.New("admission: transaction includes undelegated accounts as writable")

	// ErrScheduledCommitAccountMissing is recorded (not fatal) by the
	// committer (C5) when a scheduled commit references a pubkey no longer
	// present in the local store; the pubkey is excluded and processing
	// continues.
	ErrScheduledCommitAccountMissing = errors.New("committer: scheduled commit account missing from local store")

	// ErrFailedToSendCommitTransaction is raised by the committer when the
	// base-chain RPC client fails to accept a commit transaction.
	ErrFailedToSendCommitTransaction = errors.New("committer: failed to send commit transaction")

	// ErrFailedToConfirmCommit is raised by the committer after exhausting
	// the bounded confirmation retry budget (spec section 7).
	ErrFailedToConfirmCommit = errors.New("committer: failed to confirm commit transaction")

	// ErrReplicaWriteRejected is raised by admission in Replica lifecycle
	// mode for any write; no class of write is exempt.
	ErrReplicaWriteRejected = errors.New("admission: writes are rejected in replica lifecycle mode")

	// ErrOfflineMode is raised when any network-touching operation is
	// attempted while the validator is configured in Offline mode.
	ErrOfflineMode = errors.New("validator is running in offline lifecycle mode")
)

// PubkeyError wraps a sentinel error with the offending pubkey, matching the
// user-surface requirement in spec section 7 that admission rejections name
// the pubkey.
type PubkeyError struct {
	Err    error
	Pubkey common.Pubkey
}

func (e *PubkeyError) Error() string {
	return fmt.Sprintf("%s: pubkey=%s", e.Err, e.Pubkey)
}

func (e *PubkeyError) Unwrap() error {
	return e.Err
}

// WithPubkey wraps err with the pubkey it concerns.
func WithPubkey(err error, pubkey common.Pubkey) error {
	return &PubkeyError{Err: err, Pubkey: pubkey}
}
