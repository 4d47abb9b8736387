package chainstate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"evrollup/account"
	"evrollup/common"
)

func TestSnapshotGenerationMonotonicallyIncreases(t *testing.T) {
	pubkey := common.BytesToPubkey([]byte("snapshot-pubkey-000000000000000"))
	s1 := NewSnapshot(pubkey, 1, NewFeePayer(0, common.Pubkey{}))
	s2 := NewSnapshot(pubkey, 2, NewFeePayer(0, common.Pubkey{}))
	require.Less(t, s1.Generation, s2.Generation)
}

func TestKindStringers(t *testing.T) {
	require.Equal(t, "fee-payer", KindFeePayer.String())
	require.Equal(t, "undelegated", KindUndelegated.String())
	require.Equal(t, "delegated", KindDelegated.String())
	require.Equal(t, "executable", KindExecutable.String())
}

func TestNewUndelegatedFlagsInconsistency(t *testing.T) {
	clean := NewUndelegated(account.Account{Lamports: 1}, "")
	require.False(t, clean.UndelegatedInconsistent)

	dirty := NewUndelegated(account.Account{Lamports: 1}, "bad delegation record")
	require.True(t, dirty.UndelegatedInconsistent)
	require.Equal(t, "bad delegation record", dirty.InconsistencyReason)
}

func TestNewExecutableTracksProgramData(t *testing.T) {
	programData := common.BytesToPubkey([]byte("program-data-address-0000000000"))
	cs := NewExecutable(account.Account{Executable: true}, programData, account.Account{Lamports: 7}, true)
	require.Equal(t, KindExecutable, cs.Kind)
	require.True(t, cs.ProgramDataHasAccount)
	require.Equal(t, programData, cs.ProgramDataAddress)
	require.EqualValues(t, 7, cs.ProgramDataAccount.Lamports)
}
