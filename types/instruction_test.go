package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"evrollup/common"
)

func TestCompiledInstructionReferencesAccountsByIndex(t *testing.T) {
	instr := CompiledInstruction{
		ProgramIDIndex: 3,
		Accounts:       []uint8{0, 1, 2},
		Data:           []byte{0xde, 0xad},
	}
	require.EqualValues(t, 3, instr.ProgramIDIndex)
	require.Equal(t, []uint8{0, 1, 2}, instr.Accounts)
	require.Equal(t, []byte{0xde, 0xad}, instr.Data)
}

func TestAccountMetaFlags(t *testing.T) {
	meta := AccountMeta{
		Pubkey:     common.BytesToPubkey([]byte("account-meta-test-pubkey-------")),
		IsSigner:   true,
		IsWritable: false,
	}
	require.True(t, meta.IsSigner)
	require.False(t, meta.IsWritable)
}
