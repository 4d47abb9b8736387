// Package monitor implements the Update Monitor (C2): a Worker owning N
// shards, each holding one persistent base-chain subscription connection
// and a set of subscribed pubkeys. This generalizes the teacher's
// LegacyPool reset/promote background-loop shape (one goroutine per
// concern, reqResetCh-style channels) to N independent shard goroutines
// fanning updates into shared, mutex-guarded bookkeeping maps.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	mapset "github.com/deckarep/golang-set/v2"

	"evrollup/common"
	"evrollup/rpcclient"
)

var (
	subscriptionGauge = metrics.NewRegisteredGauge("monitor/subscriptions", nil)
	refreshMeter      = metrics.NewRegisteredMeter("monitor/shard_refreshes", nil)
	shardFailureMeter = metrics.NewRegisteredMeter("monitor/shard_failures", nil)
)

type subscribeRequest struct {
	pubkey common.Pubkey
}

// slotRecord tracks the bookkeeping the fetcher and cloner need per pubkey:
// the slot at which the subscription first became active, and the highest
// update slot observed since. Reads/writes are guarded by Worker.mu, a
// plain RWMutex per spec section 5's explicit "reader-writer lock"
// requirement for this bookkeeping (the event.Feed below is an additional
// fan-out, not the system of record). ready closes exactly once,
// the moment firstSubscribedSlot is recorded, so EnsureSubscribed can block
// a caller until the shard has actually produced a usable
// min_context_slot for it (spec 4.3 step 4).
type slotRecord struct {
	firstSubscribedSlot common.Slot
	firstSubscribedSet  bool
	lastKnownUpdateSlot common.Slot
	hasLastKnownUpdate  bool

	ready chan struct{}
}

func newSlotRecord() *slotRecord {
	return &slotRecord{ready: make(chan struct{})}
}

// ClockSource returns the base chain's current slot as learned from a
// shard's clock-sysvar subscription (spec 4.2). It is a plain callback
// rather than a dedicated clock-subscription type because every shard reads
// the same chain clock; there is nothing per-shard about it worth modeling
// as a separate collaborator.
type ClockSource func() common.Slot

// Worker owns N shards and the shared subscription bookkeeping.
type Worker struct {
	reader func() rpcclient.BaseChainSubscriber // factory, so each shard/refresh gets its own connection
	clock  ClockSource

	shardCount int
	refresh    time.Duration

	mu      sync.RWMutex
	records map[common.Pubkey]*slotRecord

	requests chan subscribeRequest
	shards   []*shard

	updates event.Feed
	scope   event.SubscriptionScope

	log log.Logger
}

// Update is published on the Worker's event feed for every observed
// account change.
type Update struct {
	Pubkey common.Pubkey
	Slot   common.Slot
}

// NewWorker constructs a Worker with shardCount shards, each refreshing its
// subscription connection every refresh interval. requestCapacity bounds
// the internal subscribe-request channel (spec: "bounded channel, capacity
// 1024"). clock is consulted whenever a shard records a new subscription's
// first_subscribed_slot; pass a callback reading the locally tracked
// clock-sysvar slot (spec 4.2). A nil clock always reports slot 0, which is
// only appropriate for tests that don't exercise freshness.
func NewWorker(subscriberFactory func() rpcclient.BaseChainSubscriber, clock ClockSource, shardCount int, refresh time.Duration, requestCapacity int) *Worker {
	if clock == nil {
		clock = func() common.Slot { return 0 }
	}
	return &Worker{
		reader:     subscriberFactory,
		clock:      clock,
		shardCount: shardCount,
		refresh:    refresh,
		records:    make(map[common.Pubkey]*slotRecord),
		requests:   make(chan subscribeRequest, requestCapacity),
		log:        log.New("component", "monitor"),
	}
}

// SubscribeUpdates registers ch to receive Update events until the returned
// subscription is unsubscribed.
func (w *Worker) SubscribeUpdates(ch chan<- Update) event.Subscription {
	return w.scope.Track(w.updates.Subscribe(ch))
}

// Subscribe requests that pubkey's updates start flowing through some
// shard. It blocks only if the internal request channel is full, and is
// idempotent: a pubkey already tracked is left alone.
func (w *Worker) Subscribe(pubkey common.Pubkey) {
	w.requests <- subscribeRequest{pubkey: pubkey}
}

// EnsureSubscribed implements spec 4.3 step 4: "ensure monitoring is
// active (send a subscribe request; idempotent), await the shard to have
// recorded a first_subscribed_slot". It returns once the pubkey's
// first_subscribed_slot is known, or if ctx is done first.
func (w *Worker) EnsureSubscribed(ctx context.Context, pubkey common.Pubkey) (common.Slot, error) {
	rec := w.recordFor(pubkey)

	w.mu.RLock()
	alreadyReady := rec.firstSubscribedSet
	w.mu.RUnlock()

	if !alreadyReady {
		w.Subscribe(pubkey)
	}

	select {
	case <-rec.ready:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	w.mu.RLock()
	slot := rec.firstSubscribedSlot
	w.mu.RUnlock()
	return slot, nil
}

// recordFor returns (creating if absent) the slotRecord tracking pubkey.
func (w *Worker) recordFor(pubkey common.Pubkey) *slotRecord {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec, ok := w.records[pubkey]
	if !ok {
		rec = newSlotRecord()
		w.records[pubkey] = rec
		subscriptionGauge.Update(int64(len(w.records)))
	}
	return rec
}

// Run starts shardCount shards, each independently subscribing to its slice
// of pubkeys drawn from Subscribe calls, until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.shards = make([]*shard, w.shardCount)
	for i := range w.shards {
		w.shards[i] = newShard(i, w)
		go w.shards[i].run(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			w.scope.Close()
			return
		case req, ok := <-w.requests:
			if !ok {
				return
			}
			target := w.shards[shardFor(req.pubkey, len(w.shards))]
			target.subscribe(ctx, req.pubkey)
		}
	}
}

func shardFor(pubkey common.Pubkey, n int) int {
	if n <= 0 {
		return 0
	}
	var sum int
	for _, b := range pubkey {
		sum += int(b)
	}
	return sum % n
}

// markSubscribed records pubkey's first_subscribed_slot as
// min(existing, slot) per spec 4.2, closing the record's ready channel the
// first time a value is set so EnsureSubscribed callers unblock.
func (w *Worker) markSubscribed(pubkey common.Pubkey, slot common.Slot) {
	w.mu.Lock()
	rec, ok := w.records[pubkey]
	if !ok {
		rec = newSlotRecord()
		w.records[pubkey] = rec
		subscriptionGauge.Update(int64(len(w.records)))
	}

	firstTime := !rec.firstSubscribedSet
	if !rec.firstSubscribedSet || slot < rec.firstSubscribedSlot {
		rec.firstSubscribedSlot = slot
		rec.firstSubscribedSet = true
	}
	w.mu.Unlock()

	if firstTime {
		close(rec.ready)
	}
}

// observe records an update for pubkey at slot, enforcing the
// read-before-write max-merge discipline from spec section 5: a stale
// out-of-order update must never regress lastKnownUpdateSlot.
func (w *Worker) observe(pubkey common.Pubkey, slot common.Slot) {
	w.mu.Lock()
	rec, ok := w.records[pubkey]
	if !ok {
		rec = newSlotRecord()
		w.records[pubkey] = rec
		subscriptionGauge.Update(int64(len(w.records)))
	}
	if !rec.hasLastKnownUpdate || slot > rec.lastKnownUpdateSlot {
		rec.lastKnownUpdateSlot = slot
		rec.hasLastKnownUpdate = true
	}
	w.mu.Unlock()

	w.updates.Send(Update{Pubkey: pubkey, Slot: slot})
}

// LastKnownUpdateSlot returns the highest update slot observed for pubkey,
// or false if none has been observed yet.
func (w *Worker) LastKnownUpdateSlot(pubkey common.Pubkey) (common.Slot, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	rec, ok := w.records[pubkey]
	if !ok || !rec.hasLastKnownUpdate {
		return 0, false
	}
	return rec.lastKnownUpdateSlot, true
}

// FirstSubscribedSlot returns the slot at which pubkey's subscription
// became active, or false if it has not yet been recorded.
func (w *Worker) FirstSubscribedSlot(pubkey common.Pubkey) (common.Slot, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	rec, ok := w.records[pubkey]
	if !ok || !rec.firstSubscribedSet {
		return 0, false
	}
	return rec.firstSubscribedSlot, true
}

// IsMonitored reports whether pubkey currently has a subscription record,
// used by the cloner's freshness check (spec 4.3 step 2).
func (w *Worker) IsMonitored(pubkey common.Pubkey) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	_, ok := w.records[pubkey]
	return ok
}

// Forget drops pubkey's slot bookkeeping, used by the cloner's
// accounts-removal path (spec 4.5 step 5) once an account's delegation ends:
// a subsequent EnsureSubscribed treats it as never-subscribed, matching the
// store invariant that only pubkeys in the local store have a live
// subscription.
func (w *Worker) Forget(pubkey common.Pubkey) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.records, pubkey)
	subscriptionGauge.Update(int64(len(w.records)))
}

// shard owns one subscriber connection and its subscribed-pubkey set. On
// each periodic refresh it is torn down and rebuilt from scratch,
// reconnecting and re-subscribing to every pubkey it was tracking, which is
// the recovery mechanism for a degraded connection (spec section 7).
type shard struct {
	id     int
	worker *Worker

	mu      sync.Mutex
	pending mapset.Set[common.Pubkey]

	conn    rpcclient.BaseChainSubscriber
	updates chan rpcclient.AccountUpdate
}

func newShard(id int, w *Worker) *shard {
	return &shard{
		id:      id,
		worker:  w,
		pending: mapset.NewThreadUnsafeSet[common.Pubkey](),
	}
}

// subscribe adds pubkey to the shard's tracked set and, if the shard's
// connection is already live, subscribes immediately rather than waiting
// for the next periodic refresh — otherwise a pubkey requested mid-run
// would not start streaming (and EnsureSubscribed would not unblock) until
// up to the refresh interval later.
func (s *shard) subscribe(ctx context.Context, pubkey common.Pubkey) {
	s.mu.Lock()
	alreadyPending := s.pending.Contains(pubkey)
	s.pending.Add(pubkey)
	conn := s.conn
	updates := s.updates
	s.mu.Unlock()

	if conn == nil {
		return
	}
	if alreadyPending {
		// The upstream subscription is already live on this shard; re-record
		// first_subscribed_slot so a record dropped by Forget becomes ready.
		s.worker.markSubscribed(pubkey, s.worker.clock())
		return
	}

	if _, err := conn.Subscribe(ctx, pubkey, updates); err != nil {
		shardFailureMeter.Mark(1)
		s.worker.log.Error("Failed to subscribe pubkey", "shard", s.id, "pubkey", pubkey, "err", err)
		return
	}
	s.worker.markSubscribed(pubkey, s.worker.clock())
}

func (s *shard) run(ctx context.Context) {
	ticker := time.NewTicker(s.worker.refresh)
	defer ticker.Stop()

	s.connect(ctx)
	defer func() {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshMeter.Mark(1)
			s.refreshConnection(ctx)
		}
	}
}

func (s *shard) connect(ctx context.Context) {
	conn := s.worker.reader()

	updates := make(chan rpcclient.AccountUpdate, 256)

	s.mu.Lock()
	s.conn = conn
	s.updates = updates
	pubkeys := s.pending.ToSlice()
	s.mu.Unlock()

	if conn == nil {
		shardFailureMeter.Mark(1)
		s.worker.log.Error("Subscriber factory failed to produce a connection", "shard", s.id)
		return
	}

	go s.drain(updates)

	for _, pubkey := range pubkeys {
		if _, err := conn.Subscribe(ctx, pubkey, updates); err != nil {
			shardFailureMeter.Mark(1)
			s.worker.log.Error("Failed to (re)subscribe pubkey after shard refresh", "shard", s.id, "pubkey", pubkey, "err", err)
			continue
		}
		s.worker.markSubscribed(pubkey, s.worker.clock())
	}
}

func (s *shard) refreshConnection(ctx context.Context) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	s.connect(ctx)
}

func (s *shard) drain(updates <-chan rpcclient.AccountUpdate) {
	for u := range updates {
		s.worker.observe(u.Pubkey, u.Context.Slot)
	}
}
