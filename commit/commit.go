// Package commit implements the scheduled-commit pipeline's value types and
// queue (spec section 4.5, C5). The queue plays the same role as the
// teacher's SortedMap (txpool.SortedMap): a map keyed by a monotonically
// increasing id, ordered for cheap smallest-first draining. The teacher
// backs that ordering with an AVLTree; no such tree exists anywhere in this
// codebase's dependency surface, so the ordering here is reimplemented on
// top of container/heap, which gives the same O(log n) push/pop behavior
// the AVL tree provided for Forward/Ready-style draining.
package commit

import (
	"container/heap"
	"sync"

	"evrollup/common"
)

// Id is a monotonically increasing scheduled-commit identifier, standing in
// for the AVL tree's nonce key.
type Id uint64

// ScheduledCommit is a request, raised by a program via the
// ScheduledCommit syscall analogue, to persist a set of delegated accounts
// back to the base chain. RequestUndelegation carries the program's request
// to drop delegation once this commit confirms (spec sections 3 and 6); the
// committer only removes the account from the local runtime when this flag
// is set (spec 4.5 step 5).
type ScheduledCommit struct {
	Id                  Id
	Slot                common.Slot
	Payer               common.Pubkey
	Pubkeys             []common.Pubkey
	RequestedAt         common.Slot
	RequestUndelegation bool
}

// FeepayerMapping records that pubkey's balance delta was redirected to its
// delegated ephemeral-balance PDA, delegatedPDA, rather than being committed
// directly (spec section 4.5/8 scenario 3).
type FeepayerMapping struct {
	Pubkey       common.Pubkey
	DelegatedPDA common.Pubkey
}

// SentCommit records the outcome of dispatching a ScheduledCommit: which
// accounts were actually included (a missing local account excludes just
// that pubkey, per spec section 7's partial-commit edge case), the base
// chain transaction signature, the fee-payer redirections applied, and once
// known, confirmation status.
type SentCommit struct {
	Commit                ScheduledCommit
	Included              []common.Pubkey
	Excluded              []common.Pubkey
	Feepayers             []FeepayerMapping
	RequestedUndelegation bool
	Signature             common.Signature
	Confirmed             bool
	ConfirmErr            error
}

// queueItem is the heap element: a ScheduledCommit ordered by Id.
type queueItem struct {
	commit ScheduledCommit
	index  int
}

type innerHeap []*queueItem

func (h innerHeap) Len() int            { return len(h) }
func (h innerHeap) Less(i, j int) bool  { return h[i].commit.Id < h[j].commit.Id }
func (h innerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *innerHeap) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *innerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// Queue is a thread-safe, id-ordered queue of pending scheduled commits. It
// drains in insertion (id) order, matching the base chain's requirement
// that commits for a given payer be applied in the order they were
// requested.
type Queue struct {
	mu   sync.Mutex
	heap innerHeap
	next Id
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{heap: make(innerHeap, 0)}
}

// Enqueue assigns the next ascending Id to commit and pushes it onto the
// queue, returning the assigned Id.
func (q *Queue) Enqueue(commit ScheduledCommit) Id {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.next++
	commit.Id = q.next
	heap.Push(&q.heap, &queueItem{commit: commit})
	return commit.Id
}

// Dequeue pops and returns the lowest-id pending commit, or false if the
// queue is empty.
func (q *Queue) Dequeue() (ScheduledCommit, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 {
		return ScheduledCommit{}, false
	}
	item := heap.Pop(&q.heap).(*queueItem)
	return item.commit, true
}

// DrainAll pops every pending commit in ascending id order, matching the
// teacher's SortedMap.Flatten/Forward style bulk drain used by the pool's
// reset path.
func (q *Queue) DrainAll() []ScheduledCommit {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]ScheduledCommit, 0, len(q.heap))
	for len(q.heap) > 0 {
		item := heap.Pop(&q.heap).(*queueItem)
		out = append(out, item.commit)
	}
	return out
}

// Len returns the number of pending commits.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.heap)
}
