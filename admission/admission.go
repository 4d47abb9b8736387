// Package admission implements Transaction Admission & Validation (C4),
// split in two phases mirroring the teacher's
// ValidateTransaction/ValidateTransactionWithState: ValidateStatic performs
// cheap, stateless shape checks; ValidateLifecycle needs the cloner's
// CloneOutput map and the local DelegationIndex to enforce the
// writable-must-be-delegated invariant (spec section 4.4).
package admission

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"evrollup/clone"
	"evrollup/chainstate"
	"evrollup/common"
	"evrollup/config"
	"evrollup/errs"
	"evrollup/params"
	"evrollup/store"
	"evrollup/types"
)

// Options configures ValidateStatic, the counterpart of the teacher's
// ValidationOptions.
type Options struct {
	MaxMessageSize uint64
}

// DefaultOptions mirrors the protocol-wide limits in the params package.
var DefaultOptions = Options{MaxMessageSize: params.MaxTransactionSize}

// ValidateStatic checks tx's shape and signatures without consulting any
// external state, matching ValidateTransaction's "consensus rules only"
// scope.
func ValidateStatic(tx *types.Transaction, opts Options) error {
	if len(tx.Message.AccountKeys) == 0 {
		return ErrNoFeePayer
	}
	if len(tx.Message.AccountKeys) > params.MaxAccountKeys {
		return fmt.Errorf("%w: got %d, limit %d", ErrTooManyAccountKeys, len(tx.Message.AccountKeys), params.MaxAccountKeys)
	}
	if tx.Size() > opts.MaxMessageSize {
		return fmt.Errorf("%w: size %d, limit %d", ErrOversizedMessage, tx.Size(), opts.MaxMessageSize)
	}
	if tx.Budget.UnitLimit > params.MaxComputeUnitLimit {
		return fmt.Errorf("%w: requested %d, limit %d", ErrComputeBudgetExceeded, tx.Budget.UnitLimit, params.MaxComputeUnitLimit)
	}
	if err := tx.Verify(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignatures, err)
	}
	return nil
}

// LifecycleOptions bundles the state a lifecycle check consults: the
// cloner's CloneOutput cache and the local delegation index, the
// counterpart of ValidationOptionsWithState's State/FirstNonceGap
// callbacks.
type LifecycleOptions struct {
	Outputs *clone.OutputMap
	Index   store.DelegationIndex
	Local   store.LocalStore
	Mode    config.LifecycleMode
}

// ReadWriteSets returns tx's read and write pubkey sets, mirroring the
// spec's requirement that admission reason about read/write separately
// rather than over a flat account list.
func ReadWriteSets(tx *types.Transaction) (reads, writes mapset.Set[common.Pubkey]) {
	reads = mapset.NewSet[common.Pubkey]()
	writes = mapset.NewSet[common.Pubkey]()
	for _, meta := range tx.Message.AccountMetas() {
		reads.Add(meta.Pubkey)
		if meta.IsWritable {
			writes.Add(meta.Pubkey)
		}
	}
	return reads, writes
}

// ValidateLifecycle enforces spec section 4.4's writable/readable rules
// under the given LifecycleMode:
//
//   - Offline: always rejected; no base-chain-dependent processing runs.
//   - Replica: every write is rejected; only pure reads of already-cloned
//     (or locally originated) accounts pass.
//   - ProgramsReplica: writes are allowed only to accounts delegated to
//     this validator or locally originated (never successfully cloned as
//     Delegated/Undelegated); all
//     program (Executable) account writes are rejected outright since
//     programs are replica-only in this mode.
//   - Ephemeral: a write is permitted only if the account is Delegated to
//     this validator; the fee payer is exempt from the delegation
//     requirement (its ephemeral-balance PDA absorbs balance changes
//     instead, per spec section 4.5/8 scenario 3).
func ValidateLifecycle(tx *types.Transaction, opts LifecycleOptions) error {
	if opts.Mode == config.Offline {
		return errs.ErrOfflineMode
	}

	reads, writes := ReadWriteSets(tx)
	feePayer, _ := tx.FeePayer()

	if opts.Mode == config.Replica {
		if writes.Cardinality() > 0 {
			return errs.ErrReplicaWriteRejected
		}
		return validateReadable(reads, opts)
	}

	for pubkey := range writes.Iter() {
		if pubkey == feePayer {
			continue
		}
		if err := validateWritable(pubkey, opts); err != nil {
			return err
		}
	}
	return validateReadable(reads, opts)
}

func validateWritable(pubkey common.Pubkey, opts LifecycleOptions) error {
	out, ok := opts.Outputs.Get(pubkey)
	locallyOriginated := !ok && opts.Local.Has(pubkey)

	if ok && out.Outcome == clone.Cloned && out.Snapshot != nil &&
		out.Snapshot.State.Kind == chainstate.KindUndelegated && out.Snapshot.State.UndelegatedInconsistent {
		return errs.WithPubkey(TransactionIncludeUndelegatedAccountsAsWritable, pubkey)
	}

	switch opts.Mode {
	case config.ProgramsReplica:
		if ok && ((out.Outcome == clone.Cloned) && out.Snapshot != nil && out.Snapshot.State.Kind == chainstate.KindExecutable) {
			return errs.WithPubkey(fmt.Errorf("%w: executable accounts are read-only in programs-replica mode", errs.ErrWritableNotDelegated), pubkey)
		}
		if locallyOriginated {
			return nil
		}
		if !opts.Index.IsDelegated(pubkey) {
			return errs.WithPubkey(errs.ErrWritableNotDelegated, pubkey)
		}
		return nil

	case config.Ephemeral:
		if opts.Index.IsDelegated(pubkey) {
			return nil
		}
		if locallyOriginated {
			return nil
		}
		return errs.WithPubkey(errs.ErrWritableNotDelegated, pubkey)

	default:
		return errs.WithPubkey(errs.ErrWritableNotDelegated, pubkey)
	}
}

func validateReadable(reads mapset.Set[common.Pubkey], opts LifecycleOptions) error {
	for pubkey := range reads.Iter() {
		if opts.Local.Has(pubkey) {
			continue
		}
		if _, ok := opts.Outputs.Get(pubkey); !ok {
			return errs.WithPubkey(ErrUnclonedReadable, pubkey)
		}
	}
	return nil
}
