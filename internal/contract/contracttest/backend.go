// Package contracttest provides an in-memory chain that hosts one collection
// and one factory. Calldata is decoded with the real ABIs and the collection
// applies ERC-721 ownership, approval, pause and ownable rules.
package contracttest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Mohsinsiddi/nftctl/internal/contract"
)

// Fixed addresses of the hosted contracts.
var (
	CollectionAddress = common.HexToAddress("0xC0113c7100000000000000000000000000000721")
	FactoryAddress    = common.HexToAddress("0xFAc7000000000000000000000000000000000001")
)

// GasEstimate is what EstimateGas reports for every successful call.
const GasEstimate = 120_000

// Backend is a fake node. It satisfies contract.Caller and the executor's
// backend interface.
type Backend struct {
	mu sync.Mutex

	chainID  *big.Int
	deployed bool
	noPaused bool

	// collection
	name, symbol, baseURI string
	owner                 common.Address
	paused                bool
	supply                uint64
	owners                map[string]common.Address
	approvals             map[string]common.Address
	operators             map[common.Address]map[common.Address]bool
	balances              map[common.Address]int64

	// factory
	collections []common.Address
	infos       map[common.Address]*contract.FactoryCollection

	nonces       map[common.Address]uint64
	receipts     map[common.Hash]*types.Receipt
	pendingPolls int
	block        uint64

	callErrs   map[string]error
	chainFails map[string]bool
	calls      []string
	sent       []*types.Transaction
}

// New returns a backend on chainID whose collection is owned by owner.
func New(chainID int64, owner common.Address) *Backend {
	return &Backend{
		chainID:    big.NewInt(chainID),
		deployed:   true,
		name:       "SuperPositionNFT",
		symbol:     "SPTNFT",
		baseURI:    "ipfs://base/",
		owner:      owner,
		owners:     make(map[string]common.Address),
		approvals:  make(map[string]common.Address),
		operators:  make(map[common.Address]map[common.Address]bool),
		balances:   make(map[common.Address]int64),
		infos:      make(map[common.Address]*contract.FactoryCollection),
		nonces:     make(map[common.Address]uint64),
		receipts:   make(map[common.Hash]*types.Receipt),
		callErrs:   make(map[string]error),
		chainFails: make(map[string]bool),
	}
}

// SetDeployed controls whether the addresses have code. Calls against an
// undeployed backend return empty data.
func (b *Backend) SetDeployed(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deployed = v
}

// SetPaused sets the collection's pause flag directly.
func (b *Backend) SetPaused(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = v
}

// DropPausedMethod makes paused() revert as if the contract lacked it.
func (b *Backend) DropPausedMethod() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.noPaused = true
}

// FailCall makes every eth_call of method fail with err.
func (b *Backend) FailCall(method string, err error) {
	b.mu.Lock()
	b.callErrs[method] = err
	b.mu.Unlock()
}

// RevertOnChain makes transactions calling method pass simulation but mine
// with status 0.
func (b *Backend) RevertOnChain(method string) {
	b.mu.Lock()
	b.chainFails[method] = true
	b.mu.Unlock()
}

// DelayReceipts makes the next n receipt lookups report not found.
func (b *Backend) DelayReceipts(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pendingPolls = n
}

// Seed mints a token to owner without a transaction and returns its id.
func (b *Backend) Seed(owner common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mintLocked(owner)
}

// Calls returns the names of every method executed, in order.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// Sent returns the transactions accepted by SendTransaction.
func (b *Backend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

// OwnerOf returns the current holder of id, zero when it does not exist.
func (b *Backend) OwnerOf(id *big.Int) common.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.owners[id.String()]
}

// ChainID implements the backend interface.
func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.chainID), nil
}

func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000), nil
}

func (b *Backend) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[account], nil
}

// CallContract executes a view or simulates a write without committing it.
func (b *Backend) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out, _, err := b.exec(msg.From, msg.To, msg.Data, false)
	return out, err
}

// EstimateGas simulates msg and reports GasEstimate when it would succeed.
func (b *Backend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, _, err := b.exec(msg.From, msg.To, msg.Data, false); err != nil {
		return 0, err
	}
	return GasEstimate, nil
}

// SendTransaction recovers the sender, applies the call and stores a receipt.
func (b *Backend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from, err := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if tx.ChainId().Cmp(b.chainID) != 0 {
		return fmt.Errorf("invalid chain id: have %s want %s", tx.ChainId(), b.chainID)
	}
	if tx.Nonce() != b.nonces[from] {
		return fmt.Errorf("nonce too low: have %d want %d", tx.Nonce(), b.nonces[from])
	}
	b.nonces[from]++
	b.sent = append(b.sent, tx)
	b.block++

	receipt := &types.Receipt{
		Type:        tx.Type(),
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(b.block),
		GasUsed:     GasEstimate,
		Status:      types.ReceiptStatusSuccessful,
	}
	method := b.methodName(tx.To(), tx.Data())
	if b.chainFails[method] {
		receipt.Status = types.ReceiptStatusFailed
	} else if _, logs, err := b.exec(from, tx.To(), tx.Data(), true); err != nil {
		receipt.Status = types.ReceiptStatusFailed
	} else {
		for i, lg := range logs {
			lg.TxHash = tx.Hash()
			lg.BlockNumber = b.block
			lg.Index = uint(i)
		}
		receipt.Logs = logs
	}
	b.receipts[tx.Hash()] = receipt
	return nil
}

// TransactionReceipt returns ethereum.NotFound until the receipt is "mined".
func (b *Backend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pendingPolls > 0 {
		b.pendingPolls--
		return nil, ethereum.NotFound
	}
	r, ok := b.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (b *Backend) methodName(to *common.Address, data []byte) string {
	if to == nil || len(data) < 4 {
		return ""
	}
	parsed := contract.CollectionABI()
	if *to == FactoryAddress {
		parsed = contract.FactoryABI()
	}
	m, err := parsed.MethodById(data[:4])
	if err != nil {
		return ""
	}
	return m.Name
}

func (b *Backend) exec(from common.Address, to *common.Address, data []byte, commit bool) ([]byte, []*types.Log, error) {
	if to == nil {
		return nil, nil, errors.New("contract creation is not supported")
	}
	if !b.deployed || (*to != CollectionAddress && *to != FactoryAddress) {
		return nil, nil, nil
	}
	parsed := contract.CollectionABI()
	if *to == FactoryAddress {
		parsed = contract.FactoryABI()
	}
	if len(data) < 4 {
		return nil, nil, revert(nil)
	}
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, nil, revert(nil)
	}
	b.calls = append(b.calls, method.Name)
	if err := b.callErrs[method.Name]; err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, revert(nil)
	}

	var (
		outs []any
		logs []*types.Log
	)
	if *to == FactoryAddress {
		outs, logs, err = b.factoryCall(from, method.Name, args, commit)
	} else {
		outs, logs, err = b.collectionCall(from, method.Name, args, commit)
	}
	if err != nil {
		return nil, nil, err
	}
	packed, err := method.Outputs.Pack(outs...)
	if err != nil {
		return nil, nil, err
	}
	return packed, logs, nil
}

func (b *Backend) collectionCall(from common.Address, name string, args []any, commit bool) ([]any, []*types.Log, error) {
	switch name {
	case "name":
		return []any{b.name}, nil, nil
	case "symbol":
		return []any{b.symbol}, nil, nil
	case "baseUri":
		return []any{b.baseURI}, nil, nil
	case "totalSupply":
		return []any{new(big.Int).SetUint64(b.supply)}, nil, nil
	case "owner":
		return []any{b.owner}, nil, nil
	case "paused":
		if b.noPaused {
			return nil, nil, revert(nil)
		}
		return []any{b.paused}, nil, nil
	case "balanceOf":
		return []any{big.NewInt(b.balances[args[0].(common.Address)])}, nil, nil
	case "ownerOf":
		id := args[0].(*big.Int)
		owner, err := b.requireToken(id)
		if err != nil {
			return nil, nil, err
		}
		return []any{owner}, nil, nil
	case "tokenURI":
		id := args[0].(*big.Int)
		if _, err := b.requireToken(id); err != nil {
			return nil, nil, err
		}
		return []any{b.baseURI + id.String()}, nil, nil
	case "getApproved":
		id := args[0].(*big.Int)
		if _, err := b.requireToken(id); err != nil {
			return nil, nil, err
		}
		return []any{b.approvals[id.String()]}, nil, nil
	case "isApprovedForAll":
		return []any{b.operators[args[0].(common.Address)][args[1].(common.Address)]}, nil, nil

	case "mint":
		return b.mint(from, commit)
	case "mintTo", "safeMint":
		return b.mint(args[0].(common.Address), commit)
	case "burn":
		id := args[0].(*big.Int)
		if b.paused {
			return nil, nil, customRevert("EnforcedPause")
		}
		owner, err := b.requireToken(id)
		if err != nil {
			return nil, nil, err
		}
		if owner != from {
			return nil, nil, customRevert("NotOwner", from, id, owner)
		}
		if !commit {
			return nil, nil, nil
		}
		return nil, []*types.Log{b.moveLocked(owner, common.Address{}, id)}, nil
	case "transferFrom", "safeTransferFrom":
		src, dst, id := args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int)
		if b.paused {
			return nil, nil, customRevert("EnforcedPause")
		}
		owner, err := b.requireToken(id)
		if err != nil {
			return nil, nil, err
		}
		if owner != src {
			return nil, nil, customRevert("NotOwner", src, id, owner)
		}
		if from != owner && b.approvals[id.String()] != from && !b.operators[owner][from] {
			return nil, nil, customRevert("NotApproved", owner, from, id)
		}
		if dst == (common.Address{}) {
			return nil, nil, customRevert("TransferToZero", id)
		}
		if !commit {
			return nil, nil, nil
		}
		return nil, []*types.Log{b.moveLocked(src, dst, id)}, nil
	case "approve":
		approved, id := args[0].(common.Address), args[1].(*big.Int)
		owner, err := b.requireToken(id)
		if err != nil {
			return nil, nil, err
		}
		if from != owner && !b.operators[owner][from] {
			return nil, nil, customRevert("NotApproved", owner, from, id)
		}
		if !commit {
			return nil, nil, nil
		}
		b.approvals[id.String()] = approved
		return nil, []*types.Log{indexedLog("Approval", owner, approved, id)}, nil
	case "setApprovalForAll":
		operator, approved := args[0].(common.Address), args[1].(bool)
		if !commit {
			return nil, nil, nil
		}
		if b.operators[from] == nil {
			b.operators[from] = make(map[common.Address]bool)
		}
		b.operators[from][operator] = approved
		ev := contract.CollectionABI().Events["ApprovalForAll"]
		data, _ := ev.Inputs.NonIndexed().Pack(approved)
		return nil, []*types.Log{{
			Address: CollectionAddress,
			Topics:  []common.Hash{ev.ID, addressTopic(from), addressTopic(operator)},
			Data:    data,
		}}, nil
	case "setBaseUri":
		if from != b.owner {
			return nil, nil, customRevert("OwnableUnauthorizedAccount", from)
		}
		if commit {
			b.baseURI = args[0].(string)
		}
		return nil, nil, nil
	case "pause":
		if from != b.owner {
			return nil, nil, customRevert("OwnableUnauthorizedAccount", from)
		}
		if b.paused {
			return nil, nil, customRevert("EnforcedPause")
		}
		if commit {
			b.paused = true
		}
		return nil, nil, nil
	case "unpause":
		if from != b.owner {
			return nil, nil, customRevert("OwnableUnauthorizedAccount", from)
		}
		if !b.paused {
			return nil, nil, customRevert("ExpectedPause")
		}
		if commit {
			b.paused = false
		}
		return nil, nil, nil
	case "transferOwnership":
		if from != b.owner {
			return nil, nil, customRevert("OwnableUnauthorizedAccount", from)
		}
		if commit {
			b.owner = args[0].(common.Address)
		}
		return nil, nil, nil
	}
	return nil, nil, revert(nil)
}

func (b *Backend) factoryCall(from common.Address, name string, args []any, commit bool) ([]any, []*types.Log, error) {
	switch name {
	case "getAllDeployedCollections":
		return []any{append([]common.Address{}, b.collections...)}, nil, nil
	case "getTotalCollectionsDeployed":
		return []any{big.NewInt(int64(len(b.collections)))}, nil, nil
	case "getCollectionInfo":
		info, ok := b.infos[args[0].(common.Address)]
		if !ok {
			return nil, nil, customRevert("ExternalCallFailed")
		}
		return []any{info.Name, info.Symbol, info.Owner, info.CreatedAt}, nil, nil
	case "createCollection":
		name, symbol := args[0].(string), args[1].(string)
		addr := crypto.CreateAddress(FactoryAddress, uint64(len(b.collections)))
		if !commit {
			return []any{addr}, nil, nil
		}
		b.addCollectionLocked(addr, name, symbol, from)
		ev := contract.FactoryABI().Events["CollectionCreated"]
		data, err := ev.Inputs.NonIndexed().Pack(name, symbol)
		if err != nil {
			return nil, nil, err
		}
		return []any{addr}, []*types.Log{{
			Address: FactoryAddress,
			Topics:  []common.Hash{ev.ID, addressTopic(addr), addressTopic(from)},
			Data:    data,
		}}, nil
	case "registerCollection":
		addr := args[0].(common.Address)
		if _, ok := b.infos[addr]; ok {
			return nil, nil, customRevert("AlreadyInitialized")
		}
		if commit {
			b.addCollectionLocked(addr, "", "", from)
		}
		return nil, nil, nil
	}
	return nil, nil, revert(nil)
}

// AddFactoryCollection records a collection in the factory index directly.
func (b *Backend) AddFactoryCollection(addr common.Address, name, symbol string, owner common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addCollectionLocked(addr, name, symbol, owner)
}

func (b *Backend) addCollectionLocked(addr common.Address, name, symbol string, owner common.Address) {
	b.collections = append(b.collections, addr)
	b.infos[addr] = &contract.FactoryCollection{
		Address:   addr,
		Name:      name,
		Symbol:    symbol,
		Owner:     owner,
		CreatedAt: big.NewInt(int64(1_700_000_000 + len(b.collections))),
	}
}

func (b *Backend) mint(to common.Address, commit bool) ([]any, []*types.Log, error) {
	if b.paused {
		return nil, nil, customRevert("EnforcedPause")
	}
	if to == (common.Address{}) {
		return nil, nil, customRevert("TransferToZero", new(big.Int).SetUint64(b.supply))
	}
	if !commit {
		return nil, nil, nil
	}
	id := b.mintLocked(to)
	return nil, []*types.Log{indexedLog("Transfer", common.Address{}, to, id)}, nil
}

// mintLocked assigns the next id, which equals the supply before the mint.
func (b *Backend) mintLocked(to common.Address) *big.Int {
	id := new(big.Int).SetUint64(b.supply)
	b.supply++
	b.owners[id.String()] = to
	b.balances[to]++
	return id
}

func (b *Backend) moveLocked(from, to common.Address, id *big.Int) *types.Log {
	key := id.String()
	delete(b.approvals, key)
	b.balances[from]--
	if to == (common.Address{}) {
		delete(b.owners, key)
	} else {
		b.owners[key] = to
		b.balances[to]++
	}
	return indexedLog("Transfer", from, to, id)
}

func (b *Backend) requireToken(id *big.Int) (common.Address, error) {
	owner, ok := b.owners[id.String()]
	if !ok {
		return common.Address{}, customRevert("InvalidTokenId", id)
	}
	return owner, nil
}

func indexedLog(event string, a, c common.Address, id *big.Int) *types.Log {
	ev := contract.CollectionABI().Events[event]
	return &types.Log{
		Address: CollectionAddress,
		Topics:  []common.Hash{ev.ID, addressTopic(a), addressTopic(c), common.BigToHash(id)},
	}
}

func addressTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

// RevertError is the JSON-RPC error a node returns for a reverted call.
// It satisfies go-ethereum's rpc.Error and rpc.DataError.
type RevertError struct {
	Data []byte
}

func (e *RevertError) Error() string  { return "execution reverted" }
func (e *RevertError) ErrorCode() int { return 3 }
func (e *RevertError) ErrorData() any { return hexutil.Encode(e.Data) }

func revert(data []byte) error { return &RevertError{Data: data} }

func customRevert(name string, args ...any) error {
	e, ok := contract.CollectionABI().Errors[name]
	if !ok {
		e = contract.FactoryABI().Errors[name]
	}
	packed, err := e.Inputs.Pack(args...)
	if err != nil {
		panic(fmt.Sprintf("contracttest: packing %s: %v", name, err))
	}
	return revert(append(append([]byte{}, e.ID[:4]...), packed...))
}

// CustomErrorData returns the revert data for a custom error, for tests that
// feed revert payloads through other transports.
func CustomErrorData(name string, args ...any) []byte {
	return customRevert(name, args...).(*RevertError).Data
}
