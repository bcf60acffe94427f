package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// FactoryCollection is one entry of the factory's collection index.
type FactoryCollection struct {
	Address   common.Address
	Name      string
	Symbol    string
	Owner     common.Address
	CreatedAt *big.Int
}

// Factory is a typed binding to the collection factory contract.
type Factory struct {
	address common.Address
	caller  Caller
	abi     abi.ABI
}

// NewFactory binds the factory at address.
func NewFactory(address common.Address, caller Caller) *Factory {
	return &Factory{address: address, caller: caller, abi: FactoryABI()}
}

// Address returns the bound contract address.
func (f *Factory) Address() common.Address { return f.address }

// AllDeployedCollections lists every collection the factory knows about.
func (f *Factory) AllDeployedCollections(ctx context.Context) ([]common.Address, error) {
	return callOne[[]common.Address](ctx, f.caller, f.abi, f.address, "getAllDeployedCollections")
}

// TotalCollectionsDeployed returns the size of the factory index.
func (f *Factory) TotalCollectionsDeployed(ctx context.Context) (*big.Int, error) {
	return callOne[*big.Int](ctx, f.caller, f.abi, f.address, "getTotalCollectionsDeployed")
}

// CollectionInfo returns the factory's record for collection.
func (f *Factory) CollectionInfo(ctx context.Context, collection common.Address) (*FactoryCollection, error) {
	vals, err := call(ctx, f.caller, f.abi, f.address, "getCollectionInfo", collection)
	if err != nil {
		return nil, err
	}
	if len(vals) != 4 {
		return nil, fmt.Errorf("decoding getCollectionInfo: expected 4 outputs, got %d", len(vals))
	}
	info := &FactoryCollection{Address: collection}
	var ok [4]bool
	info.Name, ok[0] = vals[0].(string)
	info.Symbol, ok[1] = vals[1].(string)
	info.Owner, ok[2] = vals[2].(common.Address)
	info.CreatedAt, ok[3] = vals[3].(*big.Int)
	for i, good := range ok {
		if !good {
			return nil, fmt.Errorf("decoding getCollectionInfo: unexpected type %T at output %d", vals[i], i)
		}
	}
	return info, nil
}

func (f *Factory) PackCreateCollection(name, symbol, baseURI string) ([]byte, error) {
	data, err := f.abi.Pack("createCollection", name, symbol, baseURI)
	if err != nil {
		return nil, fmt.Errorf("packing createCollection: %w", err)
	}
	return data, nil
}

func (f *Factory) PackRegisterCollection(collection common.Address) ([]byte, error) {
	data, err := f.abi.Pack("registerCollection", collection)
	if err != nil {
		return nil, fmt.Errorf("packing registerCollection: %w", err)
	}
	return data, nil
}
