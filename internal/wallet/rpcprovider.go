package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// RPCProvider talks to an external wallet that serves the EIP-1193 chain
// methods over JSON-RPC, such as a browser-wallet bridge or a signer daemon.
type RPCProvider struct {
	client *rpc.Client
}

// DialProvider connects to a wallet endpoint.
func DialProvider(ctx context.Context, url string) (*RPCProvider, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to wallet %s: %w", url, err)
	}
	return NewRPCProvider(c), nil
}

// NewRPCProvider wraps an existing client.
func NewRPCProvider(c *rpc.Client) *RPCProvider {
	return &RPCProvider{client: c}
}

// Close closes the connection.
func (p *RPCProvider) Close() { p.client.Close() }

func (p *RPCProvider) ChainID(ctx context.Context) (int64, error) {
	var id hexutil.Big
	if err := p.client.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, providerError(err)
	}
	v := id.ToInt()
	if !v.IsInt64() {
		return 0, fmt.Errorf("chain id %s out of range", v)
	}
	return v.Int64(), nil
}

func (p *RPCProvider) SwitchChain(ctx context.Context, chainID int64) error {
	param := map[string]string{"chainId": hexutil.EncodeUint64(uint64(chainID))}
	return providerError(p.client.CallContext(ctx, nil, "wallet_switchEthereumChain", param))
}

func (p *RPCProvider) AddChain(ctx context.Context, params AddChainParams) error {
	return providerError(p.client.CallContext(ctx, nil, "wallet_addEthereumChain", params))
}

// providerError turns JSON-RPC error objects into *ProviderError so the
// EIP-1193 codes can be matched.
func providerError(err error) error {
	if err == nil {
		return nil
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return &ProviderError{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
	}
	return err
}
