// Package cloner implements the Account Cloner (C3): given a pubkey, it
// decides whether an existing local clone is still fresh (spec 4.3 steps
// 1-3); if not, it ensures monitoring is active, awaits a
// first_subscribed_slot, fetches the account's ChainSnapshot at that floor,
// and dumps it into the local store, recording a CloneOutput. Concurrent
// clones of the same pubkey are serialized through a bounded set of striped
// mutexes (spec section 9, Open Question resolution #4) rather than one
// mutex per key, the same memory-bounding tradeoff the teacher makes by
// capping pool slots instead of tracking unbounded per-account state.
package cloner

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"evrollup/account"
	"evrollup/chainstate"
	"evrollup/clone"
	"evrollup/common"
	"evrollup/config"
	"evrollup/errs"
	"evrollup/fetcher"
	"evrollup/monitor"
	"evrollup/store"
)

// Cloner turns base-chain snapshots into local store entries.
type Cloner struct {
	fetcher *fetcher.Fetcher
	monitor *monitor.Worker
	local   store.LocalStore
	index   store.DelegationIndex
	outputs *clone.OutputMap

	stripes []sync.Mutex

	log log.Logger
}

// New constructs a Cloner with stripeCount striped mutexes guarding
// per-pubkey clone serialization. mon backs the freshness test in Clone and
// is the collaborator whose subscription must be active before a re-fetch
// is allowed (spec 4.3 steps 2 and 4).
func New(f *fetcher.Fetcher, mon *monitor.Worker, local store.LocalStore, index store.DelegationIndex, stripeCount int) *Cloner {
	if stripeCount < 1 {
		stripeCount = config.DefaultConfig.CloneStripeCount
	}
	return &Cloner{
		fetcher: f,
		monitor: mon,
		local:   local,
		index:   index,
		outputs: clone.NewOutputMap(),
		stripes: make([]sync.Mutex, stripeCount),
		log:     log.New("component", "cloner"),
	}
}

func (c *Cloner) stripeFor(pubkey common.Pubkey) *sync.Mutex {
	h := fnv.New32a()
	h.Write(pubkey[:])
	return &c.stripes[int(h.Sum32())%len(c.stripes)]
}

// Outputs exposes the underlying CloneOutput map for read-mostly access by
// other components (admission, committer) without going through Clone.
func (c *Cloner) Outputs() *clone.OutputMap {
	return c.outputs
}

// fresh implements spec 4.3 step 2: existing must be Cloned, monitoring
// must be active for pubkey, and the snapshot's at_slot must not be
// known-stale by the monitor's slot tables — at_slot ≥ last_known_update_slot
// when defined, else at_slot ≥ first_subscribed_slot.
func (c *Cloner) fresh(pubkey common.Pubkey, out clone.Output, ok bool) bool {
	if !ok || out.Outcome != clone.Cloned || out.Snapshot == nil {
		return false
	}
	if !c.monitor.IsMonitored(pubkey) {
		return false
	}

	atSlot := out.Snapshot.AtSlot
	if lastUpdate, hasUpdate := c.monitor.LastKnownUpdateSlot(pubkey); hasUpdate {
		return atSlot >= lastUpdate
	}
	firstSubscribed, hasFirst := c.monitor.FirstSubscribedSlot(pubkey)
	if !hasFirst {
		return false
	}
	return atSlot >= firstSubscribed
}

// Clone implements spec 4.3's decision procedure in full: look up the
// existing CloneOutput and short-circuit if fresh (the round-trip law);
// otherwise ensure monitoring is active, await the shard's
// first_subscribed_slot, fetch a new snapshot no older than it, and dump
// it into the local store.
func (c *Cloner) Clone(ctx context.Context, pubkey common.Pubkey) (clone.Output, error) {
	mu := c.stripeFor(pubkey)
	mu.Lock()
	defer mu.Unlock()

	existing, ok := c.outputs.Get(pubkey)
	if c.fresh(pubkey, existing, ok) {
		return existing, nil
	}

	firstSubscribed, err := c.monitor.EnsureSubscribed(ctx, pubkey)
	if err != nil {
		out := clone.UnclonedOutput(fmt.Errorf("%w: %v", errs.ErrCloneUnavailable, err))
		c.outputs.Set(pubkey, out)
		return out, out.Reason
	}

	snap, err := c.fetcher.Fetch(ctx, pubkey, firstSubscribed)
	if err != nil {
		out := clone.UnclonedOutput(err)
		c.outputs.Set(pubkey, out)
		return out, err
	}

	out, err := c.dump(pubkey, snap)
	c.outputs.Set(pubkey, out)
	return out, err
}

func (c *Cloner) dump(pubkey common.Pubkey, snap *chainstate.Snapshot) (clone.Output, error) {
	switch snap.State.Kind {
	case chainstate.KindFeePayer:
		c.local.Set(pubkey, account.Account{Lamports: snap.State.FeePayerLamports, Owner: snap.State.FeePayerOwner})
		return clone.ClonedOutput(snap, common.Signature{}), nil

	case chainstate.KindUndelegated:
		if snap.State.UndelegatedInconsistent {
			err := errs.WithPubkey(fmt.Errorf("%w: %s", errs.ErrDelegationInconsistency, snap.State.InconsistencyReason), pubkey)
			c.log.Warn("Refusing to clone inconsistent account", "pubkey", pubkey, "err", err)
			return clone.UnclonedOutput(err), err
		}
		c.local.Set(pubkey, snap.State.UndelegatedAccount.Clone())
		c.index.MarkUndelegated(pubkey)
		return clone.ClonedOutput(snap, common.Signature{}), nil

	case chainstate.KindDelegated:
		c.local.Set(pubkey, snap.State.DelegatedAccount.Clone())
		c.index.MarkDelegated(pubkey, snap.State.DelegationRecord)
		return clone.ClonedOutput(snap, common.Signature{}), nil

	case chainstate.KindExecutable:
		if !snap.State.ProgramDataHasAccount {
			err := errs.WithPubkey(errs.ErrCloneUnavailable, pubkey)
			c.log.Error("Executable account missing program-data account, cannot dump", "pubkey", pubkey)
			return clone.UnclonedOutput(err), err
		}
		c.local.Set(pubkey, snap.State.ExecutableAccount.Clone())
		c.local.Set(snap.State.ProgramDataAddress, snap.State.ProgramDataAccount.Clone())
		return clone.ClonedOutput(snap, common.Signature{}), nil

	default:
		err := errs.WithPubkey(errs.ErrCloneUnavailable, pubkey)
		return clone.UnclonedOutput(err), err
	}
}

// RemoveAccount performs the accounts-removal step used after a successful
// undelegating commit (spec 4.5 step 5) by writing the local store and
// indexes directly; no local transaction is built. The account is
// dropped from the local store, its delegation and cached clone output are
// both cleared, the fetcher's cache is invalidated so a subsequent Clone
// starts fresh, and the monitor's subscription bookkeeping is forgotten so
// the pubkey is no longer treated as monitored, upholding the store
// invariant that every pubkey in the local store has a monitoring
// subscription.
func (c *Cloner) RemoveAccount(pubkey common.Pubkey) {
	mu := c.stripeFor(pubkey)
	mu.Lock()
	defer mu.Unlock()

	c.local.Delete(pubkey)
	c.index.MarkUndelegated(pubkey)
	c.outputs.Delete(pubkey)
	c.fetcher.Invalidate(pubkey)
	c.monitor.Forget(pubkey)
}
