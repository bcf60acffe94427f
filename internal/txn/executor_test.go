package txn_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/nftctl/internal/chain"
	"github.com/Mohsinsiddi/nftctl/internal/contract"
	"github.com/Mohsinsiddi/nftctl/internal/contract/contracttest"
	"github.com/Mohsinsiddi/nftctl/internal/reader"
	"github.com/Mohsinsiddi/nftctl/internal/txn"
	"github.com/Mohsinsiddi/nftctl/internal/wallet"
)

// Hardhat/Anvil test account #0.
const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var bob = common.HexToAddress("0x0000000000000000000000000000000000000B0B")

func testSigner(t *testing.T) *wallet.Signer {
	t.Helper()
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	_, err := mgr.AddWithKey("deployer", testKey)
	require.NoError(t, err)
	s, err := mgr.Signer("deployer")
	require.NoError(t, err)
	return s
}

func sepolia(t *testing.T) chain.Network {
	t.Helper()
	n, err := chain.Lookup("arbitrum-sepolia")
	require.NoError(t, err)
	return n
}

// refreshLog records refresh requests.
type refreshLog struct {
	mu       sync.Mutex
	calls    int
	coll     bool
	accounts []common.Address
}

func (r *refreshLog) Refresh(_ context.Context, collection bool, accounts ...common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.coll = r.coll || collection
	r.accounts = append(r.accounts, accounts...)
}

type fixture struct {
	be      *contracttest.Backend
	signer  *wallet.Signer
	exec    *txn.Executor
	refresh *refreshLog
	states  *recorder
}

func newFixture(t *testing.T, opts ...txn.Option) *fixture {
	t.Helper()
	signer := testSigner(t)
	be := contracttest.New(421614, signer.Address())
	f := &fixture{be: be, signer: signer, refresh: &refreshLog{}, states: &recorder{}}

	m := txn.NewMachine(0)
	m.Subscribe(f.states.record)
	base := []txn.Option{
		txn.WithSigner(signer),
		txn.WithRefresher(f.refresh),
		txn.WithMachine(m),
		txn.WithFactory(contracttest.FactoryAddress),
		txn.WithPollInterval(time.Millisecond),
		txn.WithConfirmTimeout(time.Second),
	}
	f.exec = txn.NewExecutor(be, sepolia(t), contracttest.CollectionAddress, append(base, opts...)...)
	return f
}

func TestWriteWithoutWallet(t *testing.T) {
	be := contracttest.New(421614, bob)
	m := txn.NewMachine(0)
	exec := txn.NewExecutor(be, sepolia(t), contracttest.CollectionAddress, txn.WithMachine(m))

	_, err := exec.Mint(context.Background())
	assert.ErrorIs(t, err, txn.ErrWalletNotConnected)
	_, err = exec.Pause(context.Background())
	assert.ErrorIs(t, err, txn.ErrWalletNotConnected)

	assert.Equal(t, txn.StatusIdle, exec.State().Status)
	assert.False(t, exec.Connected())
	assert.Empty(t, be.Calls())
	assert.Empty(t, be.Sent())
}

func TestMintReturnsTokenFromTransferEvent(t *testing.T) {
	f := newFixture(t)
	f.be.Seed(bob)
	f.be.Seed(bob)

	res, err := f.exec.Mint(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.TokenID)
	assert.Equal(t, int64(2), res.TokenID.Int64())
	assert.Equal(t, f.signer.Address(), f.be.OwnerOf(res.TokenID))

	st := f.exec.State()
	assert.Equal(t, txn.StatusSuccess, st.Status)
	assert.Equal(t, res.Hash, st.Hash)
	assert.Equal(t, []txn.Status{txn.StatusPending, txn.StatusConfirming, txn.StatusSuccess}, f.states.seen())

	f.exec.WaitRefresh()
	assert.Equal(t, 1, f.refresh.calls)
	assert.True(t, f.refresh.coll)
	assert.Equal(t, []common.Address{f.signer.Address()}, f.refresh.accounts)
}

func TestMintToAndSafeMint(t *testing.T) {
	f := newFixture(t)

	res, err := f.exec.MintTo(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, bob, f.be.OwnerOf(res.TokenID))

	res, err = f.exec.SafeMint(context.Background(), bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.TokenID.Int64())
}

func TestMintWhilePaused(t *testing.T) {
	f := newFixture(t)
	f.be.SetPaused(true)

	res, err := f.exec.Mint(context.Background())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrReverted)
	assert.True(t, contract.IsCustomError(err, "EnforcedPause"))

	st := f.exec.State()
	assert.Equal(t, txn.StatusError, st.Status)
	assert.Equal(t, err, st.Err)
	assert.Empty(t, f.be.Sent())
	assert.Equal(t, []txn.Status{txn.StatusPending, txn.StatusError}, f.states.seen())

	f.exec.WaitRefresh()
	assert.Zero(t, f.refresh.calls)
}

func TestApproveThenReadBack(t *testing.T) {
	f := newFixture(t)
	id := f.be.Seed(f.signer.Address())

	_, err := f.exec.Approve(context.Background(), bob, id)
	require.NoError(t, err)

	info, err := reader.New(f.be).FetchNFTInfo(context.Background(), contracttest.CollectionAddress.Hex(), id)
	require.NoError(t, err)
	require.NotNil(t, info.Approved)
	assert.Equal(t, bob, *info.Approved)
}

func TestTransferRefreshesBothBalances(t *testing.T) {
	f := newFixture(t)
	me := f.signer.Address()
	id := f.be.Seed(me)

	_, err := f.exec.TransferFrom(context.Background(), me, bob, id)
	require.NoError(t, err)
	assert.Equal(t, bob, f.be.OwnerOf(id))

	f.exec.WaitRefresh()
	assert.False(t, f.refresh.coll)
	assert.Equal(t, []common.Address{me, bob}, f.refresh.accounts)
}

func TestTransferNotApproved(t *testing.T) {
	f := newFixture(t)
	id := f.be.Seed(bob)

	_, err := f.exec.SafeTransferFrom(context.Background(), bob, f.signer.Address(), id)
	assert.True(t, contract.IsCustomError(err, "NotApproved"))
	assert.Equal(t, txn.StatusError, f.exec.State().Status)
}

func TestOwnerWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := reader.New(f.be)
	coll := contracttest.CollectionAddress.Hex()

	_, err := f.exec.Pause(ctx)
	require.NoError(t, err)
	info, err := r.FetchCollectionInfo(ctx, coll)
	require.NoError(t, err)
	assert.True(t, *info.Paused)

	_, err = f.exec.Pause(ctx)
	assert.True(t, contract.IsCustomError(err, "EnforcedPause"))

	_, err = f.exec.Unpause(ctx)
	require.NoError(t, err)

	_, err = f.exec.SetBaseURI(ctx, "ar://new/")
	require.NoError(t, err)
	info, err = r.FetchCollectionInfo(ctx, coll)
	require.NoError(t, err)
	assert.Equal(t, "ar://new/", info.BaseURI)
	assert.False(t, *info.Paused)

	_, err = f.exec.TransferOwnership(ctx, bob)
	require.NoError(t, err)
	_, err = f.exec.Pause(ctx)
	assert.True(t, contract.IsCustomError(err, "OwnableUnauthorizedAccount"))
}

func TestBurn(t *testing.T) {
	f := newFixture(t)
	id := f.be.Seed(f.signer.Address())

	_, err := f.exec.Burn(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, f.be.OwnerOf(id))

	_, err = f.exec.Burn(context.Background(), big.NewInt(-1))
	assert.ErrorIs(t, err, txn.ErrInvalidArgument)
}

func TestSetApprovalForAll(t *testing.T) {
	f := newFixture(t)

	_, err := f.exec.SetApprovalForAll(context.Background(), bob, true)
	require.NoError(t, err)

	ok, err := reader.New(f.be).IsApprovedForAll(context.Background(),
		contracttest.CollectionAddress.Hex(), f.signer.Address().Hex(), bob.Hex())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRevertedReceipt(t *testing.T) {
	f := newFixture(t)
	id := f.be.Seed(f.signer.Address())
	f.be.RevertOnChain("burn")

	_, err := f.exec.Burn(context.Background(), id)
	assert.ErrorIs(t, err, txn.ErrTxReverted)

	st := f.exec.State()
	assert.Equal(t, txn.StatusError, st.Status)
	assert.NotEqual(t, common.Hash{}, st.Hash)
	assert.Len(t, f.be.Sent(), 1)
}

func TestWaitsForReceipt(t *testing.T) {
	f := newFixture(t)
	f.be.DelayReceipts(3)

	res, err := f.exec.Mint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.TokenID.Int64())
}

func TestReceiptTimeout(t *testing.T) {
	f := newFixture(t, txn.WithConfirmTimeout(20*time.Millisecond))
	f.be.DelayReceipts(1_000_000)

	_, err := f.exec.Mint(context.Background())
	assert.ErrorIs(t, err, txn.ErrNotMined)
	assert.Equal(t, txn.StatusError, f.exec.State().Status)
}

func TestBusyExecutor(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.exec.Machine().Begin())

	_, err := f.exec.Mint(context.Background())
	assert.ErrorIs(t, err, txn.ErrBusy)
	assert.Empty(t, f.be.Sent())
	assert.Equal(t, txn.StatusPending, f.exec.State().Status)
}

func TestNoncesAdvance(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.exec.Mint(context.Background())
		require.NoError(t, err)
	}
	sent := f.be.Sent()
	require.Len(t, sent, 3)
	for i, tx := range sent {
		assert.Equal(t, uint64(i), tx.Nonce())
		assert.Equal(t, uint64(contracttest.GasEstimate), tx.Gas())
		assert.Equal(t, big.NewInt(421614), tx.ChainId())
	}
}

func TestWrongChainEndpoint(t *testing.T) {
	signer := testSigner(t)
	be := contracttest.New(42161, signer.Address())
	exec := txn.NewExecutor(be, sepolia(t), contracttest.CollectionAddress,
		txn.WithSigner(signer), txn.WithMachine(txn.NewMachine(0)))

	_, err := exec.Mint(context.Background())
	assert.ErrorIs(t, err, txn.ErrWrongChain)
	assert.Empty(t, be.Sent())
}

// chainProvider is a wallet on a fixed chain that may refuse to switch.
type chainProvider struct {
	current  int64
	reject   bool
	switches int
}

func (p *chainProvider) ChainID(context.Context) (int64, error) { return p.current, nil }

func (p *chainProvider) SwitchChain(_ context.Context, id int64) error {
	p.switches++
	if p.reject {
		return &wallet.ProviderError{Code: wallet.CodeUserRejected, Message: "denied"}
	}
	p.current = id
	return nil
}

func (p *chainProvider) AddChain(context.Context, wallet.AddChainParams) error { return nil }

func TestEnsuresChainBeforeWriting(t *testing.T) {
	p := &chainProvider{current: 42161}
	f := newFixture(t, txn.WithProvider(p))

	_, err := f.exec.Mint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(421614), p.current)

	_, err = f.exec.Mint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.switches)
}

func TestChainSwitchRejected(t *testing.T) {
	p := &chainProvider{current: 42161, reject: true}
	f := newFixture(t, txn.WithProvider(p))

	_, err := f.exec.Mint(context.Background())
	assert.ErrorIs(t, err, wallet.ErrChainSwitchRejected)
	assert.Equal(t, txn.StatusError, f.exec.State().Status)
	assert.Empty(t, f.be.Calls())
}

func TestCreateCollection(t *testing.T) {
	f := newFixture(t)

	res, err := f.exec.CreateCollection(context.Background(), "Cats", "CAT", "ipfs://cats/")
	require.NoError(t, err)
	assert.NotEqual(t, common.Address{}, res.Collection)

	info, err := contract.NewFactory(contracttest.FactoryAddress, f.be).CollectionInfo(context.Background(), res.Collection)
	require.NoError(t, err)
	assert.Equal(t, "Cats", info.Name)
	assert.Equal(t, f.signer.Address(), info.Owner)

	_, err = f.exec.CreateCollection(context.Background(), "", "CAT", "")
	assert.ErrorIs(t, err, txn.ErrInvalidArgument)
}

func TestRegisterCollection(t *testing.T) {
	f := newFixture(t)
	addr := common.HexToAddress("0x1234567890123456789012345678901234567890")

	res, err := f.exec.RegisterCollection(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, addr, res.Collection)

	_, err = f.exec.RegisterCollection(context.Background(), addr)
	assert.True(t, contract.IsCustomError(err, "AlreadyInitialized"))
}

func TestFactoryWritesNeedFactory(t *testing.T) {
	signer := testSigner(t)
	be := contracttest.New(421614, signer.Address())
	exec := txn.NewExecutor(be, sepolia(t), contracttest.CollectionAddress, txn.WithSigner(signer))

	_, err := exec.CreateCollection(context.Background(), "a", "b", "")
	assert.ErrorIs(t, err, txn.ErrNoFactory)
	_, err = exec.RegisterCollection(context.Background(), bob)
	assert.ErrorIs(t, err, txn.ErrNoFactory)
}

func TestTransportErrorDuringSimulation(t *testing.T) {
	f := newFixture(t)
	down := errors.New("connection reset")
	f.be.FailCall("mint", down)

	_, err := f.exec.Mint(context.Background())
	assert.ErrorIs(t, err, down)
	assert.NotErrorIs(t, err, contract.ErrReverted)
	assert.Equal(t, txn.StatusError, f.exec.State().Status)
}

func TestWatcherAsRefresher(t *testing.T) {
	signer := testSigner(t)
	be := contracttest.New(421614, signer.Address())
	w := reader.NewWatcher(reader.New(be), contracttest.CollectionAddress.Hex())
	exec := txn.NewExecutor(be, sepolia(t), contracttest.CollectionAddress,
		txn.WithSigner(signer), txn.WithRefresher(w), txn.WithMachine(txn.NewMachine(0)),
		txn.WithPollInterval(time.Millisecond))

	_, err := exec.Mint(context.Background())
	require.NoError(t, err)
	exec.WaitRefresh()

	require.NotNil(t, w.Collection().Data)
	assert.Equal(t, int64(1), w.Collection().Data.TotalSupply.Int64())
	assert.Equal(t, int64(1), w.Balance(signer.Address()).Data.Balance.Int64())
}

// logless serves receipts without logs, as a node that prunes them would.
type logless struct {
	*contracttest.Backend
}

func (b logless) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	r, err := b.Backend.TransactionReceipt(ctx, hash)
	if err != nil || r == nil {
		return r, err
	}
	stripped := *r
	stripped.Logs = nil
	return &stripped, nil
}

func newLoglessExecutor(t *testing.T) (*txn.Executor, *recorder) {
	t.Helper()
	signer := testSigner(t)
	be := logless{contracttest.New(421614, signer.Address())}
	states := &recorder{}
	m := txn.NewMachine(0)
	m.Subscribe(states.record)
	exec := txn.NewExecutor(be, sepolia(t), contracttest.CollectionAddress,
		txn.WithSigner(signer),
		txn.WithMachine(m),
		txn.WithFactory(contracttest.FactoryAddress),
		txn.WithPollInterval(time.Millisecond),
		txn.WithConfirmTimeout(time.Second),
	)
	return exec, states
}

func TestMintWithoutTransferEventStillSucceeds(t *testing.T) {
	exec, states := newLoglessExecutor(t)

	res, err := exec.Mint(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Nil(t, res.TokenID)
	assert.NotEqual(t, common.Hash{}, res.Hash)
	assert.Equal(t, txn.StatusSuccess, exec.State().Status)
	assert.Equal(t, []txn.Status{txn.StatusPending, txn.StatusConfirming, txn.StatusSuccess}, states.seen())
}

func TestCreateCollectionWithoutEventStillSucceeds(t *testing.T) {
	exec, _ := newLoglessExecutor(t)

	res, err := exec.CreateCollection(context.Background(), "Cats", "CAT", "")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, common.Address{}, res.Collection)
	assert.Equal(t, txn.StatusSuccess, exec.State().Status)
}
