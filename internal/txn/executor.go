package txn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Mohsinsiddi/nftctl/internal/chain"
	"github.com/Mohsinsiddi/nftctl/internal/config"
	"github.com/Mohsinsiddi/nftctl/internal/contract"
	"github.com/Mohsinsiddi/nftctl/internal/wallet"
)

var (
	// ErrWalletNotConnected is returned, without touching the state, when a
	// write is attempted with no signer.
	ErrWalletNotConnected = errors.New("wallet not connected")
	// ErrTxReverted means the transaction was mined with status 0.
	ErrTxReverted = errors.New("transaction reverted on chain")
	// ErrNotMined means the receipt did not appear within the confirm timeout.
	ErrNotMined = errors.New("transaction not mined in time")
	// ErrWrongChain means the RPC endpoint serves a different chain than the
	// selected network.
	ErrWrongChain = errors.New("rpc endpoint is on a different chain")
	// ErrNoFactory is returned by factory writes when no factory is configured.
	ErrNoFactory = errors.New("no factory address configured")
	// ErrInvalidArgument rejects malformed inputs before anything is sent.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Backend is the node access a write needs. *ethclient.Client satisfies it.
type Backend interface {
	contract.Caller
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// TxSigner signs transactions for one account.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Refresher reloads cached reads after a successful write.
type Refresher interface {
	Refresh(ctx context.Context, collection bool, accounts ...common.Address)
}

// Result describes a confirmed write.
type Result struct {
	Hash    common.Hash
	Receipt *types.Receipt
	// TokenID is set by the mint variants, from the mint Transfer event.
	TokenID *big.Int
	// Collection is set by CreateCollection, from CollectionCreated.
	Collection common.Address
}

// Executor sends collection and factory writes, one at a time.
type Executor struct {
	backend    Backend
	network    chain.Network
	collection *contract.Collection
	factory    *contract.Factory

	signer    TxSigner
	provider  wallet.Provider
	refresher Refresher
	machine   *Machine
	logger    *slog.Logger

	confirmTimeout time.Duration
	pollInterval   time.Duration

	refreshes sync.WaitGroup
}

// Option configures an Executor.
type Option func(*Executor)

// WithSigner connects a wallet.
func WithSigner(s TxSigner) Option { return func(e *Executor) { e.signer = s } }

// WithProvider makes every write ensure the wallet is on the network first.
func WithProvider(p wallet.Provider) Option { return func(e *Executor) { e.provider = p } }

// WithRefresher sets the hook run after successful writes.
func WithRefresher(r Refresher) Option { return func(e *Executor) { e.refresher = r } }

// WithFactory enables CreateCollection and RegisterCollection.
func WithFactory(addr common.Address) Option {
	return func(e *Executor) { e.factory = contract.NewFactory(addr, e.backend) }
}

// WithMachine shares a state machine, e.g. with a status view.
func WithMachine(m *Machine) Option { return func(e *Executor) { e.machine = m } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(e *Executor) { e.logger = l } }

// WithConfirmTimeout bounds the receipt wait.
func WithConfirmTimeout(d time.Duration) Option { return func(e *Executor) { e.confirmTimeout = d } }

// WithPollInterval sets the receipt poll interval.
func WithPollInterval(d time.Duration) Option { return func(e *Executor) { e.pollInterval = d } }

// NewExecutor creates an executor for the collection at address on network.
func NewExecutor(backend Backend, network chain.Network, collection common.Address, opts ...Option) *Executor {
	e := &Executor{
		backend:        backend,
		network:        network,
		collection:     contract.NewCollection(collection, backend),
		logger:         slog.Default(),
		confirmTimeout: config.TxConfirmTimeout,
		pollInterval:   config.ReceiptPollInterval,
	}
	for _, o := range opts {
		o(e)
	}
	if e.machine == nil {
		e.machine = NewMachine(config.TxStatusResetDelay)
	}
	return e
}

// Machine returns the executor's state machine.
func (e *Executor) Machine() *Machine { return e.machine }

// State returns the current transaction state.
func (e *Executor) State() State { return e.machine.State() }

// Connected reports whether a signer is set.
func (e *Executor) Connected() bool { return e.signer != nil }

// WaitRefresh blocks until refreshes started by earlier writes finish.
func (e *Executor) WaitRefresh() { e.refreshes.Wait() }

// Mint mints the next token to the connected account.
func (e *Executor) Mint(ctx context.Context) (*Result, error) {
	if e.signer == nil {
		return nil, ErrWalletNotConnected
	}
	data, err := e.collection.PackMint()
	if err != nil {
		return nil, err
	}
	return e.mint(ctx, "mint", data, e.signer.Address())
}

// MintTo mints the next token to to.
func (e *Executor) MintTo(ctx context.Context, to common.Address) (*Result, error) {
	data, err := e.collection.PackMintTo(to)
	if err != nil {
		return nil, err
	}
	return e.mint(ctx, "mintTo", data, to)
}

// SafeMint mints to to and calls its onERC721Received hook.
func (e *Executor) SafeMint(ctx context.Context, to common.Address) (*Result, error) {
	data, err := e.collection.PackSafeMint(to)
	if err != nil {
		return nil, err
	}
	return e.mint(ctx, "safeMint", data, to)
}

// Burn destroys tokenID, which the connected account must own.
func (e *Executor) Burn(ctx context.Context, tokenID *big.Int) (*Result, error) {
	if err := checkTokenID(tokenID); err != nil {
		return nil, err
	}
	data, err := e.collection.PackBurn(tokenID)
	if err != nil {
		return nil, err
	}
	res, err := e.send(ctx, "burn", e.collection.Address(), data)
	if err != nil {
		return nil, err
	}
	e.refresh(true, e.signer.Address())
	return res, nil
}

// TransferFrom moves tokenID from from to to.
func (e *Executor) TransferFrom(ctx context.Context, from, to common.Address, tokenID *big.Int) (*Result, error) {
	if err := checkTokenID(tokenID); err != nil {
		return nil, err
	}
	data, err := e.collection.PackTransferFrom(from, to, tokenID)
	if err != nil {
		return nil, err
	}
	return e.transfer(ctx, "transferFrom", data, from, to)
}

// SafeTransferFrom is TransferFrom with the receiver hook.
func (e *Executor) SafeTransferFrom(ctx context.Context, from, to common.Address, tokenID *big.Int) (*Result, error) {
	if err := checkTokenID(tokenID); err != nil {
		return nil, err
	}
	data, err := e.collection.PackSafeTransferFrom(from, to, tokenID)
	if err != nil {
		return nil, err
	}
	return e.transfer(ctx, "safeTransferFrom", data, from, to)
}

// Approve lets approved move tokenID.
func (e *Executor) Approve(ctx context.Context, approved common.Address, tokenID *big.Int) (*Result, error) {
	if err := checkTokenID(tokenID); err != nil {
		return nil, err
	}
	data, err := e.collection.PackApprove(approved, tokenID)
	if err != nil {
		return nil, err
	}
	return e.send(ctx, "approve", e.collection.Address(), data)
}

// SetApprovalForAll grants or revokes operator on all the caller's tokens.
func (e *Executor) SetApprovalForAll(ctx context.Context, operator common.Address, approved bool) (*Result, error) {
	data, err := e.collection.PackSetApprovalForAll(operator, approved)
	if err != nil {
		return nil, err
	}
	return e.send(ctx, "setApprovalForAll", e.collection.Address(), data)
}

// SetBaseURI changes the metadata base URI. Owner only.
func (e *Executor) SetBaseURI(ctx context.Context, uri string) (*Result, error) {
	data, err := e.collection.PackSetBaseURI(uri)
	if err != nil {
		return nil, err
	}
	return e.collectionWrite(ctx, "setBaseUri", data)
}

// Pause stops mints and transfers. Owner only.
func (e *Executor) Pause(ctx context.Context) (*Result, error) {
	data, err := e.collection.PackPause()
	if err != nil {
		return nil, err
	}
	return e.collectionWrite(ctx, "pause", data)
}

// Unpause resumes mints and transfers. Owner only.
func (e *Executor) Unpause(ctx context.Context) (*Result, error) {
	data, err := e.collection.PackUnpause()
	if err != nil {
		return nil, err
	}
	return e.collectionWrite(ctx, "unpause", data)
}

// TransferOwnership hands the collection to newOwner. Owner only.
func (e *Executor) TransferOwnership(ctx context.Context, newOwner common.Address) (*Result, error) {
	if newOwner == (common.Address{}) {
		return nil, fmt.Errorf("%w: new owner is the zero address", ErrInvalidArgument)
	}
	data, err := e.collection.PackTransferOwnership(newOwner)
	if err != nil {
		return nil, err
	}
	return e.collectionWrite(ctx, "transferOwnership", data)
}

// CreateCollection deploys a collection through the factory and returns its
// address from the CollectionCreated event.
func (e *Executor) CreateCollection(ctx context.Context, name, symbol, baseURI string) (*Result, error) {
	if e.factory == nil {
		return nil, ErrNoFactory
	}
	if name == "" || symbol == "" {
		return nil, fmt.Errorf("%w: name and symbol are required", ErrInvalidArgument)
	}
	data, err := e.factory.PackCreateCollection(name, symbol, baseURI)
	if err != nil {
		return nil, err
	}
	res, err := e.send(ctx, "createCollection", e.factory.Address(), data)
	if err != nil {
		return nil, err
	}
	ev, err := contract.CreatedCollection(res.Receipt, e.factory.Address())
	if err != nil {
		// The collection exists on chain; only its address is unknown.
		e.logger.Warn("no CollectionCreated event in receipt", "hash", res.Hash.Hex(), "err", err)
		return res, nil
	}
	res.Collection = ev.Collection
	return res, nil
}

// RegisterCollection adds an externally deployed collection to the factory index.
func (e *Executor) RegisterCollection(ctx context.Context, collection common.Address) (*Result, error) {
	if e.factory == nil {
		return nil, ErrNoFactory
	}
	data, err := e.factory.PackRegisterCollection(collection)
	if err != nil {
		return nil, err
	}
	res, err := e.send(ctx, "registerCollection", e.factory.Address(), data)
	if err != nil {
		return nil, err
	}
	res.Collection = collection
	return res, nil
}

func (e *Executor) mint(ctx context.Context, op string, data []byte, to common.Address) (*Result, error) {
	res, err := e.send(ctx, op, e.collection.Address(), data)
	if err != nil {
		return nil, err
	}
	e.refresh(true, to)
	id, err := contract.MintedTokenID(res.Receipt, e.collection.Address())
	if err != nil {
		e.logger.Warn("no mint Transfer event in receipt", "op", op, "hash", res.Hash.Hex(), "err", err)
		return res, nil
	}
	res.TokenID = id
	return res, nil
}

func (e *Executor) transfer(ctx context.Context, op string, data []byte, from, to common.Address) (*Result, error) {
	res, err := e.send(ctx, op, e.collection.Address(), data)
	if err != nil {
		return nil, err
	}
	e.refresh(false, from, to)
	return res, nil
}

func (e *Executor) collectionWrite(ctx context.Context, op string, data []byte) (*Result, error) {
	res, err := e.send(ctx, op, e.collection.Address(), data)
	if err != nil {
		return nil, err
	}
	e.refresh(true)
	return res, nil
}

// send runs one write through the state machine. Every failure after Begin
// lands in the error state and is also returned.
func (e *Executor) send(ctx context.Context, op string, to common.Address, data []byte) (*Result, error) {
	if e.signer == nil {
		return nil, ErrWalletNotConnected
	}
	if err := e.machine.Begin(); err != nil {
		return nil, err
	}

	res, err := e.execute(ctx, op, to, data)
	if err != nil {
		e.logger.Debug("transaction failed", "op", op, "err", err)
		e.machine.Fire(Failed(err)) //nolint:errcheck
		return nil, err
	}
	e.machine.Fire(Confirmed()) //nolint:errcheck
	e.logger.Info("transaction confirmed", "op", op, "hash", res.Hash.Hex(), "block", res.Receipt.BlockNumber)
	return res, nil
}

func (e *Executor) execute(ctx context.Context, op string, to common.Address, data []byte) (*Result, error) {
	if e.provider != nil {
		if err := wallet.EnsureChain(ctx, e.provider, e.network, e.logger); err != nil {
			return nil, err
		}
	}
	chainID, err := e.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading chain id: %w", err)
	}
	if chainID.Int64() != e.network.ChainID {
		return nil, fmt.Errorf("%w: got %s, want %d (%s)", ErrWrongChain, chainID, e.network.ChainID, e.network.Name)
	}

	from := e.signer.Address()
	msg := ethereum.CallMsg{From: from, To: &to, Data: data}
	if _, err := e.backend.CallContract(ctx, msg, nil); err != nil {
		return nil, fmt.Errorf("simulating %s: %w", op, contract.DecodeRevert(err))
	}

	gas, err := e.backend.EstimateGas(ctx, msg)
	if err != nil {
		decoded := contract.DecodeRevert(err)
		if errors.Is(decoded, contract.ErrReverted) {
			return nil, fmt.Errorf("estimating gas for %s: %w", op, decoded)
		}
		e.logger.Warn("gas estimation failed, using default limit", "op", op, "err", err)
		gas = config.GasLimitContractCall
	}

	nonce, err := e.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("reading nonce: %w", err)
	}
	tip, err := e.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggesting tip: %w", err)
	}
	price, err := e.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggesting gas price: %w", err)
	}
	// Leave room for the base fee to double before the tx is mined.
	feeCap := new(big.Int).Mul(price, big.NewInt(2))
	if feeCap.Cmp(tip) < 0 {
		feeCap.Set(tip)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Data:      data,
	})
	signed, err := e.signer.SignTx(tx, chainID)
	if err != nil {
		return nil, fmt.Errorf("signing %s: %w", op, err)
	}
	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("broadcasting %s: %w", op, contract.DecodeRevert(err))
	}

	hash := signed.Hash()
	e.machine.Fire(Submitted(hash)) //nolint:errcheck
	e.logger.Debug("transaction submitted", "op", op, "hash", hash.Hex(), "nonce", nonce, "gas", gas)

	receipt, err := e.waitMined(ctx, hash)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s %s", ErrTxReverted, op, hash.Hex())
	}
	return &Result{Hash: hash, Receipt: receipt}, nil
}

// waitMined polls for the receipt until it appears or the confirm timeout
// expires.
func (e *Executor) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()
	for {
		receipt, err := e.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("fetching receipt %s: %w", hash.Hex(), err)
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s after %s", ErrNotMined, hash.Hex(), e.confirmTimeout)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// refresh reloads the affected reads in the background. Failures stay in
// the refresher's slots.
func (e *Executor) refresh(collection bool, accounts ...common.Address) {
	if e.refresher == nil || (!collection && len(accounts) == 0) {
		return
	}
	e.refreshes.Add(1)
	go func() {
		defer e.refreshes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), config.ReadTimeout)
		defer cancel()
		e.refresher.Refresh(ctx, collection, accounts...)
	}()
}

func checkTokenID(id *big.Int) error {
	if id == nil || id.Sign() < 0 {
		return fmt.Errorf("%w: token id must be a non-negative integer", ErrInvalidArgument)
	}
	return nil
}
