package admission

import (
	"testing"

	"github.com/stretchr/testify/require"

	"evrollup/account"
	"evrollup/chainstate"
	"evrollup/clone"
	"evrollup/common"
	"evrollup/config"
	"evrollup/errs"
	"evrollup/store"
	"evrollup/types"
	"evrollup/types/gadget"
)

func simpleTransaction(feePayer, writable common.Pubkey) *types.Transaction {
	return &types.Transaction{
		Message: types.Message{
			Header:      types.MessageHeader{NumRequiredSignatures: 1, NumReadonlySignedAccounts: 0, NumReadonlyUnsignedAccounts: 0},
			AccountKeys: []common.Pubkey{feePayer, writable},
		},
		Budget: gadget.NewComputeBudget(1000, 1),
	}
}

func TestValidateStaticRejectsEmptyAccountKeys(t *testing.T) {
	tx := &types.Transaction{}
	err := ValidateStatic(tx, DefaultOptions)
	require.ErrorIs(t, err, ErrNoFeePayer)
}

func TestValidateStaticRejectsOversizedComputeBudget(t *testing.T) {
	feePayer := common.BytesToPubkey([]byte("fee-payer-00000000000000000000"))
	tx := simpleTransaction(feePayer, feePayer)
	tx.Budget.UnitLimit = 2_000_000

	err := ValidateStatic(tx, DefaultOptions)
	require.ErrorIs(t, err, ErrComputeBudgetExceeded)
}

func TestValidateLifecycleRejectsAllInOfflineMode(t *testing.T) {
	feePayer := common.BytesToPubkey([]byte("offline-fee-payer-000000000000"))
	tx := simpleTransaction(feePayer, feePayer)

	local := store.NewMemoryStore()
	opts := LifecycleOptions{Outputs: clone.NewOutputMap(), Index: local, Local: local, Mode: config.Offline}

	err := ValidateLifecycle(tx, opts)
	require.Error(t, err)
}

func TestValidateLifecycleRejectsUndelegatedWriteInEphemeralMode(t *testing.T) {
	feePayer := common.BytesToPubkey([]byte("ephemeral-fee-payer-0000000000"))
	writable := common.BytesToPubkey([]byte("undelegated-writable-000000000"))
	tx := simpleTransaction(feePayer, writable)

	local := store.NewMemoryStore()
	outputs := clone.NewOutputMap()
	snap := chainstate.NewSnapshot(writable, 1, chainstate.NewUndelegated(account.Account{}, ""))
	outputs.Set(writable, clone.ClonedOutput(snap, common.Signature{}))
	local.Set(writable, account.Account{})

	opts := LifecycleOptions{Outputs: outputs, Index: local, Local: local, Mode: config.Ephemeral}
	err := ValidateLifecycle(tx, opts)
	require.Error(t, err)
}

func TestValidateLifecycleRejectsInconsistentUndelegatedWriteAsDistinctError(t *testing.T) {
	feePayer := common.BytesToPubkey([]byte("inconsistent-fee-payer-0000000"))
	writable := common.BytesToPubkey([]byte("inconsistent-writable-00000000"))
	tx := simpleTransaction(feePayer, writable)

	local := store.NewMemoryStore()
	outputs := clone.NewOutputMap()
	snap := chainstate.NewSnapshot(writable, 1, chainstate.NewUndelegated(account.Account{}, "delegation record failed to parse"))
	outputs.Set(writable, clone.ClonedOutput(snap, common.Signature{}))
	local.Set(writable, account.Account{})

	opts := LifecycleOptions{Outputs: outputs, Index: local, Local: local, Mode: config.Ephemeral}
	err := ValidateLifecycle(tx, opts)
	require.ErrorIs(t, err, TransactionIncludeUndelegatedAccountsAsWritable)
	require.NotErrorIs(t, err, errs.ErrWritableNotDelegated)
}

func TestValidateLifecycleAllowsDelegatedWriteInEphemeralMode(t *testing.T) {
	feePayer := common.BytesToPubkey([]byte("ephemeral-fee-payer2-000000000"))
	writable := common.BytesToPubkey([]byte("delegated-writable-0000000000"))
	tx := simpleTransaction(feePayer, writable)

	local := store.NewMemoryStore()
	local.MarkDelegated(writable, account.DelegationRecord{})
	local.Set(writable, account.Account{})
	local.Set(feePayer, account.Account{})

	outputs := clone.NewOutputMap()
	opts := LifecycleOptions{Outputs: outputs, Index: local, Local: local, Mode: config.Ephemeral}
	err := ValidateLifecycle(tx, opts)
	require.NoError(t, err)
}

func TestValidateLifecycleAllowsLocallyOriginatedWriteInProgramsReplicaMode(t *testing.T) {
	feePayer := common.BytesToPubkey([]byte("pr-fee-payer-00000000000000000"))
	writable := common.BytesToPubkey([]byte("locally-originated-account-000"))
	tx := simpleTransaction(feePayer, writable)

	local := store.NewMemoryStore()
	local.Set(writable, account.Account{})
	local.Set(feePayer, account.Account{})

	outputs := clone.NewOutputMap()
	opts := LifecycleOptions{Outputs: outputs, Index: local, Local: local, Mode: config.ProgramsReplica}
	err := ValidateLifecycle(tx, opts)
	require.NoError(t, err)
}

func TestValidateLifecycleRejectsExecutableWriteInProgramsReplicaMode(t *testing.T) {
	feePayer := common.BytesToPubkey([]byte("pr-fee-payer2-0000000000000000"))
	program := common.BytesToPubkey([]byte("program-account-00000000000000"))
	tx := simpleTransaction(feePayer, program)

	local := store.NewMemoryStore()
	local.Set(program, account.Account{Executable: true})
	local.Set(feePayer, account.Account{})

	outputs := clone.NewOutputMap()
	snap := chainstate.NewSnapshot(program, 1, chainstate.NewExecutable(account.Account{Executable: true}, common.Pubkey{}, account.Account{}, true))
	outputs.Set(program, clone.ClonedOutput(snap, common.Signature{}))

	opts := LifecycleOptions{Outputs: outputs, Index: local, Local: local, Mode: config.ProgramsReplica}
	err := ValidateLifecycle(tx, opts)
	require.Error(t, err)
}

func TestValidateLifecycleReplicaModeRejectsAnyWrite(t *testing.T) {
	feePayer := common.BytesToPubkey([]byte("replica-fee-payer-00000000000"))
	writable := common.BytesToPubkey([]byte("replica-writable-0000000000000"))
	tx := simpleTransaction(feePayer, writable)

	local := store.NewMemoryStore()
	opts := LifecycleOptions{Outputs: clone.NewOutputMap(), Index: local, Local: local, Mode: config.Replica}
	err := ValidateLifecycle(tx, opts)
	require.ErrorIs(t, err, errs.ErrReplicaWriteRejected)
}
