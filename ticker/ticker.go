// Package ticker implements the Slot Ticker (C6): it advances the local
// slot on a fixed interval, records the new entry via the ledger.Writer
// collaborator, and — when the AcceptCommits callback returns true for the
// new slot — invokes the committer to process any pending scheduled
// commits. It reads no shared-context account and issues no
// accept-scheduled-commits transaction of its own. This is the top of the
// "cooperative runtime" concurrency model (spec section 5): one goroutine,
// launched from a context.Context-carrying entrypoint, same shape as the
// teacher's scheduleReorgLoop driving LegacyPool's background work.
package ticker

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"evrollup/committer"
	"evrollup/common"
	"evrollup/ledger"
)

var slotMeter = metrics.NewRegisteredMeter("ticker/slots_advanced", nil)

// BlockhashSource returns a fresh blockhash to stamp onto the next advanced
// entry — typically backed by a local PRNG or hash of prior state, since
// block production internals are out of scope (spec section 1 non-goals).
type BlockhashSource func(slot common.Slot) common.Hash

// Ticker advances the local slot on Interval and, when AcceptCommits
// returns true for the advanced slot, asks Processor to drain pending
// scheduled commits.
type Ticker struct {
	Writer          ledger.Writer
	Processor       *committer.Processor
	Interval        time.Duration
	AcceptCommits   func(slot common.Slot) bool
	NextBlockhash   BlockhashSource

	log log.Logger
}

// New constructs a Ticker.
func New(writer ledger.Writer, processor *committer.Processor, interval time.Duration, acceptCommits func(common.Slot) bool, nextBlockhash BlockhashSource) *Ticker {
	return &Ticker{
		Writer:        writer,
		Processor:     processor,
		Interval:      interval,
		AcceptCommits: acceptCommits,
		NextBlockhash: nextBlockhash,
		log:           log.New("component", "ticker"),
	}
}

// Run advances the local slot every Interval until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	tick := time.NewTicker(t.Interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			t.advance(ctx)
		}
	}
}

func (t *Ticker) advance(ctx context.Context) {
	current, ok := t.Writer.CurrentEntry()
	var nextSlot, parentSlot common.Slot
	if ok {
		nextSlot = current.Slot + 1
		parentSlot = current.Slot
	} else {
		nextSlot = 0
		parentSlot = 0
	}

	blockhash := t.NextBlockhash(nextSlot)
	if err := t.Writer.Advance(nextSlot, parentSlot, blockhash); err != nil {
		t.log.Error("Failed to advance local slot", "slot", nextSlot, "err", err)
		return
	}
	slotMeter.Mark(1)

	if t.AcceptCommits != nil && t.AcceptCommits(nextSlot) {
		if err := t.Processor.Process(ctx); err != nil {
			t.log.Error("Failed to process scheduled commits on slot advance", "slot", nextSlot, "err", err)
		}
	}
}
