package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller executes read-only contract calls. *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Collection is a typed binding to one ERC-721 collection contract.
type Collection struct {
	address common.Address
	caller  Caller
	abi     abi.ABI
}

// NewCollection binds the collection at address.
func NewCollection(address common.Address, caller Caller) *Collection {
	return &Collection{address: address, caller: caller, abi: CollectionABI()}
}

// Address returns the bound contract address.
func (c *Collection) Address() common.Address { return c.address }

func (c *Collection) Name(ctx context.Context) (string, error) {
	return callOne[string](ctx, c.caller, c.abi, c.address, "name")
}

func (c *Collection) Symbol(ctx context.Context) (string, error) {
	return callOne[string](ctx, c.caller, c.abi, c.address, "symbol")
}

func (c *Collection) BaseURI(ctx context.Context) (string, error) {
	return callOne[string](ctx, c.caller, c.abi, c.address, "baseUri")
}

func (c *Collection) TotalSupply(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, c.caller, c.abi, c.address, "totalSupply")
}

func (c *Collection) Owner(ctx context.Context) (common.Address, error) {
	return callOne[common.Address](ctx, c.caller, c.abi, c.address, "owner")
}

func (c *Collection) Paused(ctx context.Context) (bool, error) {
	return callOne[bool](ctx, c.caller, c.abi, c.address, "paused")
}

func (c *Collection) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, c.caller, c.abi, c.address, "balanceOf", owner)
}

func (c *Collection) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	return callOne[common.Address](ctx, c.caller, c.abi, c.address, "ownerOf", tokenID)
}

func (c *Collection) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	return callOne[string](ctx, c.caller, c.abi, c.address, "tokenURI", tokenID)
}

func (c *Collection) GetApproved(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	return callOne[common.Address](ctx, c.caller, c.abi, c.address, "getApproved", tokenID)
}

func (c *Collection) IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error) {
	return callOne[bool](ctx, c.caller, c.abi, c.address, "isApprovedForAll", owner, operator)
}

// Calldata for the mutating methods. The executor signs and sends these.

func (c *Collection) PackMint() ([]byte, error) { return c.pack("mint") }

func (c *Collection) PackMintTo(to common.Address) ([]byte, error) { return c.pack("mintTo", to) }

func (c *Collection) PackSafeMint(to common.Address) ([]byte, error) {
	return c.pack("safeMint", to)
}

func (c *Collection) PackBurn(tokenID *big.Int) ([]byte, error) { return c.pack("burn", tokenID) }

func (c *Collection) PackTransferFrom(from, to common.Address, tokenID *big.Int) ([]byte, error) {
	return c.pack("transferFrom", from, to, tokenID)
}

func (c *Collection) PackSafeTransferFrom(from, to common.Address, tokenID *big.Int) ([]byte, error) {
	return c.pack("safeTransferFrom", from, to, tokenID)
}

func (c *Collection) PackApprove(approved common.Address, tokenID *big.Int) ([]byte, error) {
	return c.pack("approve", approved, tokenID)
}

func (c *Collection) PackSetApprovalForAll(operator common.Address, approved bool) ([]byte, error) {
	return c.pack("setApprovalForAll", operator, approved)
}

func (c *Collection) PackSetBaseURI(uri string) ([]byte, error) { return c.pack("setBaseUri", uri) }

func (c *Collection) PackPause() ([]byte, error) { return c.pack("pause") }

func (c *Collection) PackUnpause() ([]byte, error) { return c.pack("unpause") }

func (c *Collection) PackTransferOwnership(newOwner common.Address) ([]byte, error) {
	return c.pack("transferOwnership", newOwner)
}

func (c *Collection) pack(method string, args ...any) ([]byte, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}
	return data, nil
}

// call runs a view method and returns its unpacked outputs.
func call(ctx context.Context, caller Caller, parsed abi.ABI, to common.Address, method string, args ...any) ([]any, error) {
	input, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}
	out, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, DecodeRevert(err))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", method, ErrNotDeployed)
	}
	vals, err := parsed.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", method, err)
	}
	return vals, nil
}

func callOne[T any](ctx context.Context, caller Caller, parsed abi.ABI, to common.Address, method string, args ...any) (T, error) {
	var zero T
	vals, err := call(ctx, caller, parsed, to, method, args...)
	if err != nil {
		return zero, err
	}
	if len(vals) != 1 {
		return zero, fmt.Errorf("decoding %s: expected 1 output, got %d", method, len(vals))
	}
	v, ok := vals[0].(T)
	if !ok {
		return zero, fmt.Errorf("decoding %s: unexpected type %T", method, vals[0])
	}
	return v, nil
}
