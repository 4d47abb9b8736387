// Package committer implements the Scheduled-Commit Processor (C5). It
// drains a commit.Queue in insertion order, redirects the fee payer's
// balance delta to its ephemeral-balance PDA, builds and dispatches one
// base-chain transaction per commit on a background errgroup-tracked task
// with a bounded confirmation retry policy, and runs an independent
// commit-delegated ticker that voluntarily enqueues commits for accounts
// whose commit_frequency has elapsed. The dispatch/feed shape follows the
// teacher's LegacyPool: a processing loop plus an event.Feed fanning out
// outcomes to external listeners (API layer, metrics) independent of the
// core bookkeeping.
package committer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"evrollup/chainstate"
	"evrollup/clone"
	"evrollup/cloner"
	"evrollup/commit"
	"evrollup/common"
	"evrollup/config"
	"evrollup/errs"
	"evrollup/rpcclient"
	"evrollup/store"
	"evrollup/utils"
)

var (
	pendingGauge   = metrics.NewRegisteredGauge("committer/pending", nil)
	sentCounter    = metrics.NewRegisteredCounter("committer/sent", nil)
	confirmedCount = metrics.NewRegisteredCounter("committer/confirmed", nil)
	failedCounter  = metrics.NewRegisteredCounter("committer/failed", nil)
)

// Processor drains the scheduled-commit queue and dispatches base-chain
// commit transactions.
type Processor struct {
	queue  *commit.Queue
	local  store.LocalStore
	index  store.DelegationIndex
	cloner *cloner.Cloner
	sender rpcclient.BaseChainSender

	delegationProgramID common.Pubkey

	pollInterval time.Duration
	maxPolls     int

	outcomes event.Feed
	scope    event.SubscriptionScope

	log log.Logger
}

// New constructs a Processor. cl backs the fee-payer redirection rule
// (redirect consults its CloneOutput map rather than payer identity) and is
// also the collaborator the accounts-removal path (spec 4.5 step 5) runs
// through once an undelegating commit confirms.
func New(queue *commit.Queue, local store.LocalStore, index store.DelegationIndex, cl *cloner.Cloner, sender rpcclient.BaseChainSender, cfg config.Config) *Processor {
	return &Processor{
		queue:               queue,
		local:               local,
		index:               index,
		cloner:              cl,
		sender:              sender,
		delegationProgramID: common.BytesToPubkey(cfg.DelegationProgramID[:]),
		pollInterval:        cfg.CommitConfirmPollInterval,
		maxPolls:            cfg.CommitConfirmMaxPolls,
		log:                 log.New("component", "committer"),
	}
}

// SubscribeOutcomes registers ch to receive every SentCommit produced by
// Process, until the returned subscription is unsubscribed.
func (p *Processor) SubscribeOutcomes(ch chan<- commit.SentCommit) event.Subscription {
	return p.scope.Track(p.outcomes.Subscribe(ch))
}

// Process drains every pending commit in the queue and dispatches each on
// its own tracked goroutine, waiting for all dispatches launched in this
// call to finish building and sending (not necessarily confirming) before
// returning — mirroring spec section 5's cooperative dispatch model.
func (p *Processor) Process(ctx context.Context) error {
	commits := p.queue.DrainAll()
	pendingGauge.Update(int64(len(commits)))
	if len(commits) == 0 {
		return nil
	}

	var g errgroup.Group
	for _, c := range commits {
		c := c
		g.Go(func() error {
			p.dispatch(ctx, c)
			return nil
		})
	}
	return g.Wait()
}

// dispatch resolves commitment, builds the transaction, sends it, logs the
// resulting SentCommit, and then confirms it in the background within the
// bounded retry policy.
func (p *Processor) dispatch(ctx context.Context, c commit.ScheduledCommit) {
	taskID := uuid.New()

	included := make([]common.Pubkey, 0, len(c.Pubkeys))
	excluded := make([]common.Pubkey, 0)
	feepayers := make([]commit.FeepayerMapping, 0)
	for _, pubkey := range c.Pubkeys {
		target, mapping := p.redirect(pubkey)
		if mapping != nil {
			feepayers = append(feepayers, *mapping)
		}
		if !p.local.Has(target) {
			excluded = append(excluded, pubkey)
			p.log.Warn("Scheduled commit references account missing from local store", "task", taskID, "pubkey", pubkey)
			continue
		}
		included = append(included, pubkey)
	}

	if len(included) == 0 {
		sent := commit.SentCommit{Commit: c, Included: included, Excluded: excluded, Feepayers: feepayers, RequestedUndelegation: c.RequestUndelegation, ConfirmErr: errs.ErrScheduledCommitAccountMissing}
		failedCounter.Inc(1)
		p.outcomes.Send(sent)
		return
	}

	raw := p.buildTransaction(c, included)
	sig, err := p.sender.SendTransaction(ctx, raw)
	if err != nil {
		p.log.Error("Failed to send commit transaction", "task", taskID, "commit_id", c.Id, "err", err)
		sent := commit.SentCommit{Commit: c, Included: included, Excluded: excluded, Feepayers: feepayers, RequestedUndelegation: c.RequestUndelegation, ConfirmErr: fmt.Errorf("%w: %v", errs.ErrFailedToSendCommitTransaction, err)}
		failedCounter.Inc(1)
		p.outcomes.Send(sent)
		return
	}
	sentCounter.Inc(1)

	p.logSent(sig, included, excluded)

	go func() {
		confirmed, confirmErr := p.confirm(ctx, sig)
		sent := commit.SentCommit{Commit: c, Included: included, Excluded: excluded, Feepayers: feepayers, RequestedUndelegation: c.RequestUndelegation, Signature: sig, Confirmed: confirmed, ConfirmErr: confirmErr}
		if confirmed {
			confirmedCount.Inc(1)
			if c.RequestUndelegation {
				for _, pubkey := range included {
					p.cloner.RemoveAccount(pubkey)
				}
			}
		} else {
			failedCounter.Inc(1)
		}
		p.outcomes.Send(sent)
	}()
}

// logSent emits the verbatim ScheduledCommitSent lines spec section 6
// mandates for external tooling to parse, rather than go-ethereum's
// key/value style used elsewhere in this package.
func (p *Processor) logSent(sig common.Signature, included, excluded []common.Pubkey) {
	p.log.Info(fmt.Sprintf("ScheduledCommitSent signature: %s", sig.String()))
	p.log.Info(fmt.Sprintf("ScheduledCommitSent signature[%d]: %s", 0, sig.String()))
	p.log.Info(fmt.Sprintf("ScheduledCommitSent included: %s", formatPubkeys(included)))
	p.log.Info(fmt.Sprintf("ScheduledCommitSent excluded: %s", formatPubkeys(excluded)))
}

func formatPubkeys(pubkeys []common.Pubkey) string {
	parts := make([]string, len(pubkeys))
	for i, pubkey := range pubkeys {
		parts[i] = pubkey.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// redirect implements the fee-payer redirection rule (spec 4.5/8 scenario
// 3): a pubkey whose cloned chain state is KindFeePayer never has its own
// balance change committed directly — instead the ephemeral-balance PDA
// derived from it absorbs the delta, driven off the cloner's CloneOutput
// rather than identity with the scheduling payer, since any account the
// fetcher classified as a fee payer (not just the transaction's declared
// payer) is subject to the same redirection. The second return value is
// non-nil exactly when redirection occurred, recording the mapping spec
// section 3's feepayers[] field carries.
func (p *Processor) redirect(pubkey common.Pubkey) (common.Pubkey, *commit.FeepayerMapping) {
	out, ok := p.cloner.Outputs().Get(pubkey)
	if !ok || out.Outcome != clone.Cloned || out.Snapshot == nil || out.Snapshot.State.Kind != chainstate.KindFeePayer {
		return pubkey, nil
	}
	balancePDA, _, err := common.FindEphemeralBalancePDA(pubkey, p.delegationProgramID)
	if err != nil {
		return pubkey, nil
	}
	return balancePDA, &commit.FeepayerMapping{Pubkey: pubkey, DelegatedPDA: balancePDA}
}

// buildTransaction synthesizes the raw bytes of a base-chain commit
// transaction for the included pubkeys: a ScheduledCommitIntent record —
// the commit id followed by the included pubkeys, each length-prefixed via
// utils.WriteLengthPrefixed (spec section 6) so the encoding never varies
// with field order. Building a full signed Transaction around this intent
// is left to the concrete program-specific encoder the delegation program
// expects, which is out of this engine's scope (spec section 1
// non-goals) — what matters here is that Included, once resolved, is what
// gets committed.
func (p *Processor) buildTransaction(c commit.ScheduledCommit, included []common.Pubkey) []byte {
	var buf bytes.Buffer
	_ = utils.WriteLengthPrefixed(&buf, common.SlotToBytes(uint64(c.Id)))
	for _, pubkey := range included {
		_ = utils.WriteLengthPrefixed(&buf, pubkey.Bytes())
	}
	return buf.Bytes()
}

// confirm polls the base chain for sig's confirmation status, bounded by
// maxPolls at pollInterval apart (spec section 7's ≈20s default budget).
func (p *Processor) confirm(ctx context.Context, sig common.Signature) (bool, error) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for i := 0; i < p.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}

		statuses, err := p.sender.GetSignatureStatuses(ctx, []common.Signature{sig})
		if err != nil {
			continue
		}
		if len(statuses) == 0 {
			continue
		}
		status := statuses[0]
		if status.Err != nil {
			return false, status.Err
		}
		if status.ConfirmationStatus == "confirmed" || status.ConfirmationStatus == "finalized" {
			return true, nil
		}
	}
	return false, errs.ErrFailedToConfirmCommit
}

// RunDelegatedTicker scans, on every tick, all currently delegated pubkeys
// and voluntarily enqueues a commit for any whose commit_frequency has
// elapsed (spec 4.5, last paragraph). It runs until ctx is cancelled.
func (p *Processor) RunDelegatedTicker(ctx context.Context, interval time.Duration, recordOf func(common.Pubkey) (int64, int64, bool), nowUnixMilli func() int64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, pubkey := range p.index.DelegatedPubkeys() {
				freq, lastCommit, ok := recordOf(pubkey)
				if !ok || freq == 0 {
					continue
				}
				if nowUnixMilli()-lastCommit < freq {
					continue
				}
				p.queue.Enqueue(commit.ScheduledCommit{Pubkeys: []common.Pubkey{pubkey}})
			}
		}
	}
}
