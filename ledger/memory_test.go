package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"evrollup/common"
)

func TestMemoryStoreAdvanceTracksCurrentEntry(t *testing.T) {
	s := NewMemoryStore()
	_, ok := s.CurrentEntry()
	require.False(t, ok)

	require.NoError(t, s.Advance(1, 0, common.Hash{1}))
	entry, ok := s.CurrentEntry()
	require.True(t, ok)
	require.EqualValues(t, 1, entry.Slot)
	require.EqualValues(t, 0, entry.ParentSlot)

	require.NoError(t, s.Advance(2, 1, common.Hash{2}))
	entry, ok = s.CurrentEntry()
	require.True(t, ok)
	require.EqualValues(t, 2, entry.Slot)
}

func TestMemoryStoreRecentBlockhashesMostRecentFirst(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Advance(1, 0, common.Hash{1}))
	require.NoError(t, s.Advance(2, 1, common.Hash{2}))
	require.NoError(t, s.Advance(3, 2, common.Hash{3}))

	hashes := s.RecentBlockhashes()
	require.Len(t, hashes, 3)
	require.Equal(t, common.Hash{3}, hashes[0])
	require.Equal(t, common.Hash{1}, hashes[2])
}

func TestMemoryStoreRecentBlockhashesBoundedWindow(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < recentBlockhashWindow+10; i++ {
		require.NoError(t, s.Advance(common.Slot(i), common.Slot(i-1), common.Hash{}))
	}
	require.Len(t, s.RecentBlockhashes(), recentBlockhashWindow)
}
