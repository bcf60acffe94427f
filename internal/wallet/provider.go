package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Mohsinsiddi/nftctl/internal/chain"
)

// EIP-1193 provider error codes.
const (
	CodeUserRejected      = 4001
	CodeUnrecognizedChain = 4902
)

var (
	// ErrUserRejected matches a provider error with code 4001.
	ErrUserRejected = errors.New("user rejected the request")
	// ErrUnrecognizedChain matches a provider error with code 4902.
	ErrUnrecognizedChain = errors.New("unrecognized chain id")

	// ErrChainSwitchRejected is returned by EnsureChain when the user
	// declined to switch or add the network.
	ErrChainSwitchRejected = errors.New("network switch rejected")
	// ErrChainSwitchFailed wraps any other EnsureChain failure.
	ErrChainSwitchFailed = errors.New("network switch failed")
)

// ProviderError is an EIP-1193 error returned by a wallet provider.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// Is maps the well-known codes onto ErrUserRejected and ErrUnrecognizedChain.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrUserRejected:
		return e.Code == CodeUserRejected
	case ErrUnrecognizedChain:
		return e.Code == CodeUnrecognizedChain
	}
	return false
}

// AddChainParams is the wallet_addEthereumChain parameter object.
type AddChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    chain.Currency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

// AddChainParamsFor builds the add-chain request for a network table entry.
func AddChainParamsFor(n chain.Network) AddChainParams {
	p := AddChainParams{
		ChainID:        n.ChainIDHex(),
		ChainName:      n.DisplayName,
		NativeCurrency: n.NativeCurrency,
		RPCURLs:        n.RPCs(),
	}
	if n.ExplorerURL != "" {
		p.BlockExplorerURLs = []string{n.ExplorerURL}
	}
	return p
}

// ChainIDFromHex parses the hex chain id used by EIP-1193 methods.
func ChainIDFromHex(s string) (int64, error) {
	v, err := hexutil.DecodeBig(s)
	if err != nil {
		return 0, fmt.Errorf("invalid chain id %q: %w", s, err)
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("chain id %q out of range", s)
	}
	return v.Int64(), nil
}

// Provider is the subset of an EIP-1193 wallet the network selector needs.
type Provider interface {
	ChainID(ctx context.Context) (int64, error)
	SwitchChain(ctx context.Context, chainID int64) error
	AddChain(ctx context.Context, params AddChainParams) error
}
