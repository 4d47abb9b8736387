package commit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"evrollup/common"
)

func TestQueueDrainsInAscendingIdOrder(t *testing.T) {
	q := NewQueue()
	payer := common.BytesToPubkey([]byte("payer-000000000000000000000000000"))

	id1 := q.Enqueue(ScheduledCommit{Payer: payer, Slot: 1})
	id2 := q.Enqueue(ScheduledCommit{Payer: payer, Slot: 2})
	id3 := q.Enqueue(ScheduledCommit{Payer: payer, Slot: 3})

	require.Less(t, uint64(id1), uint64(id2))
	require.Less(t, uint64(id2), uint64(id3))
	require.Equal(t, 3, q.Len())

	drained := q.DrainAll()
	require.Len(t, drained, 3)
	require.Equal(t, id1, drained[0].Id)
	require.Equal(t, id2, drained[1].Id)
	require.Equal(t, id3, drained[2].Id)
	require.Equal(t, 0, q.Len())
}

func TestQueueCarriesRequestUndelegationThroughDequeue(t *testing.T) {
	q := NewQueue()
	q.Enqueue(ScheduledCommit{Slot: 1, RequestUndelegation: true})
	q.Enqueue(ScheduledCommit{Slot: 2})

	first, ok := q.Dequeue()
	require.True(t, ok)
	require.True(t, first.RequestUndelegation)

	second, ok := q.Dequeue()
	require.True(t, ok)
	require.False(t, second.RequestUndelegation)
}

func TestQueueDequeueEmpty(t *testing.T) {
	q := NewQueue()
	_, ok := q.Dequeue()
	require.False(t, ok)
}

func TestQueueDequeuePopsLowestFirst(t *testing.T) {
	q := NewQueue()
	q.Enqueue(ScheduledCommit{Slot: 10})
	q.Enqueue(ScheduledCommit{Slot: 20})

	first, ok := q.Dequeue()
	require.True(t, ok)
	require.EqualValues(t, 10, first.Slot)

	second, ok := q.Dequeue()
	require.True(t, ok)
	require.EqualValues(t, 20, second.Slot)

	_, ok = q.Dequeue()
	require.False(t, ok)
}
