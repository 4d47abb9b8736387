package cloner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"evrollup/account"
	"evrollup/clone"
	"evrollup/common"
	"evrollup/fetcher"
	"evrollup/monitor"
	"evrollup/rpcclient"
	"evrollup/store"
)

// fakeSubscriber is a trivial, always-succeeding BaseChainSubscriber: it
// never actually pushes updates, which is enough for Clone's
// EnsureSubscribed wait (spec 4.3 step 4), since first_subscribed_slot is
// recorded on Subscribe itself.
type fakeSubscriber struct {
	mu         sync.Mutex
	subscribed map[common.Pubkey]chan<- rpcclient.AccountUpdate
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{subscribed: make(map[common.Pubkey]chan<- rpcclient.AccountUpdate)}
}

func (f *fakeSubscriber) Subscribe(ctx context.Context, pubkey common.Pubkey, updates chan<- rpcclient.AccountUpdate) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed[pubkey] = updates
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subscribed, pubkey)
	}, nil
}

func (f *fakeSubscriber) Close() error { return nil }

type fakeReader struct {
	accounts map[common.Pubkey]*rpcclient.AccountInfo
}

func newFakeReader() *fakeReader {
	return &fakeReader{accounts: make(map[common.Pubkey]*rpcclient.AccountInfo)}
}

func (f *fakeReader) GetAccountInfo(ctx context.Context, pubkey common.Pubkey, minContextSlot common.Slot) (rpcclient.AccountInfoWithContext, error) {
	return rpcclient.AccountInfoWithContext{Context: rpcclient.ContextSlot{Slot: 100}, Value: f.accounts[pubkey]}, nil
}

func (f *fakeReader) GetMultipleAccounts(ctx context.Context, pubkeys []common.Pubkey, minContextSlot common.Slot) ([]rpcclient.AccountInfoWithContext, error) {
	out := make([]rpcclient.AccountInfoWithContext, len(pubkeys))
	for i, pubkey := range pubkeys {
		out[i], _ = f.GetAccountInfo(ctx, pubkey, minContextSlot)
	}
	return out, nil
}

func newTestCloner(t *testing.T, reader *fakeReader) (*Cloner, *store.MemoryStore) {
	t.Helper()
	delegationProgramID := common.BytesToPubkey([]byte("delegation-program-000000000000"))
	upgradeableLoaderID := common.BytesToPubkey([]byte("upgradeable-loader-00000000000"))

	f, err := fetcher.New(reader, 16, delegationProgramID, upgradeableLoaderID, false)
	require.NoError(t, err)

	mon := monitor.NewWorker(func() rpcclient.BaseChainSubscriber { return newFakeSubscriber() }, nil, 2, time.Hour, 8)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go mon.Run(ctx)

	local := store.NewMemoryStore()
	return New(f, mon, local, local, 4), local
}

func TestCloneUndelegatedAccountDumpsAndRecordsOutput(t *testing.T) {
	reader := newFakeReader()
	pubkey := common.BytesToPubkey([]byte("undelegated-clone-target-00000"))
	reader.accounts[pubkey] = &rpcclient.AccountInfo{Lamports: 777}

	c, local := newTestCloner(t, reader)

	out, err := c.Clone(context.Background(), pubkey)
	require.NoError(t, err)
	require.Equal(t, clone.Cloned, out.Outcome)

	acc, ok := local.Get(pubkey)
	require.True(t, ok)
	require.EqualValues(t, 777, acc.Lamports)

	cached, ok := c.Outputs().Get(pubkey)
	require.True(t, ok)
	require.Equal(t, clone.Cloned, cached.Outcome)
}

func TestCloneIsIdempotentUntilMonitorObservesAFresherSlot(t *testing.T) {
	reader := newFakeReader()
	pubkey := common.BytesToPubkey([]byte("round-trip-clone-target-000000"))
	reader.accounts[pubkey] = &rpcclient.AccountInfo{Lamports: 5}

	c, _ := newTestCloner(t, reader)

	first, err := c.Clone(context.Background(), pubkey)
	require.NoError(t, err)

	second, err := c.Clone(context.Background(), pubkey)
	require.NoError(t, err)
	require.Equal(t, first.Snapshot.Generation, second.Snapshot.Generation, "clone(p); clone(p) must return the same CloneOutput until a fresher update arrives")
}

func TestCloneDelegatedAccountMarksDelegationIndex(t *testing.T) {
	reader := newFakeReader()
	pubkey := common.BytesToPubkey([]byte("delegated-clone-target-0000000"))
	reader.accounts[pubkey] = &rpcclient.AccountInfo{Lamports: 10}

	delegationProgramID := common.BytesToPubkey([]byte("delegation-program-000000000000"))
	recordAddr, _, err := common.FindDelegationRecordAddress(pubkey, delegationProgramID)
	require.NoError(t, err)
	reader.accounts[recordAddr] = &rpcclient.AccountInfo{
		Data: account.EncodeDelegationRecord(account.DelegationRecord{Authority: pubkey, CommitFrequency: 500}),
	}

	c, local := newTestCloner(t, reader)

	_, err = c.Clone(context.Background(), pubkey)
	require.NoError(t, err)
	require.True(t, local.IsDelegated(pubkey))
}

func TestRemoveAccountClearsEverything(t *testing.T) {
	reader := newFakeReader()
	pubkey := common.BytesToPubkey([]byte("removable-account-0000000000000"))
	reader.accounts[pubkey] = &rpcclient.AccountInfo{Lamports: 1}

	c, local := newTestCloner(t, reader)

	_, err := c.Clone(context.Background(), pubkey)
	require.NoError(t, err)
	require.True(t, local.Has(pubkey))

	c.RemoveAccount(pubkey)
	require.False(t, local.Has(pubkey))
	_, ok := c.Outputs().Get(pubkey)
	require.False(t, ok)
}
