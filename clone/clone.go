// Package clone implements the CloneOutput result type and the
// CloneOutputMap that caches the most recent clone result per pubkey,
// adapted from the teacher's Lookup (txpool_instance.Lookup): an
// RWMutex-guarded map exposing read-mostly access with a metrics gauge
// tracking size, generalized here from tx-hash keys to account pubkeys and
// from "locals/remotes" partitioning to a single outcome map.
package clone

import (
	"sync"

	"github.com/ethereum/go-ethereum/metrics"

	"evrollup/chainstate"
	"evrollup/common"
)

var cloneGauge = metrics.NewRegisteredGauge("cloner/outputs", nil)

// Outcome discriminates a CloneOutput, mirroring the teacher's TxType-style
// tagged-struct convention used throughout this codebase (see
// chainstate.Kind).
type Outcome uint8

const (
	// Uncloned means the account could not be cloned; Reason explains why.
	Uncloned Outcome = iota
	// Cloned means the account was dumped into the local store at Snapshot,
	// signed off with Signature.
	Cloned
)

// Output is the result of a single Clone operation (spec section 4.3).
type Output struct {
	Outcome Outcome

	// Uncloned
	Reason error

	// Cloned
	Snapshot  *chainstate.Snapshot
	Signature common.Signature
}

// ClonedOutput builds a successful Output.
func ClonedOutput(snapshot *chainstate.Snapshot, signature common.Signature) Output {
	return Output{Outcome: Cloned, Snapshot: snapshot, Signature: signature}
}

// UnclonedOutput builds a failed Output.
func UnclonedOutput(reason error) Output {
	return Output{Outcome: Uncloned, Reason: reason}
}

// OutputMap caches the most recent clone outcome per pubkey. It is safe for
// concurrent use; reads take the read lock only, matching Lookup's
// read-mostly design since most callers only ever peek at an already-cloned
// account.
type OutputMap struct {
	lock    sync.RWMutex
	outputs map[common.Pubkey]Output
}

// NewOutputMap returns an empty OutputMap.
func NewOutputMap() *OutputMap {
	return &OutputMap{outputs: make(map[common.Pubkey]Output)}
}

// Get returns the cached outcome for pubkey, or the zero Output and false if
// absent.
func (m *OutputMap) Get(pubkey common.Pubkey) (Output, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	out, ok := m.outputs[pubkey]
	return out, ok
}

// Set records the clone outcome for pubkey, overwriting any prior result.
func (m *OutputMap) Set(pubkey common.Pubkey, out Output) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.outputs[pubkey] = out
	cloneGauge.Update(int64(len(m.outputs)))
}

// Delete drops any cached outcome for pubkey, used when an account's
// delegation ends and it should no longer be treated as cloned.
func (m *OutputMap) Delete(pubkey common.Pubkey) {
	m.lock.Lock()
	defer m.lock.Unlock()

	delete(m.outputs, pubkey)
	cloneGauge.Update(int64(len(m.outputs)))
}

// Count returns the number of cached outcomes.
func (m *OutputMap) Count() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return len(m.outputs)
}

// Range calls f for every cached (pubkey, output) pair. f returning false
// stops the iteration early, matching Lookup.Range's callback contract.
func (m *OutputMap) Range(f func(pubkey common.Pubkey, out Output) bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	for pubkey, out := range m.outputs {
		if !f(pubkey, out) {
			return
		}
	}
}
