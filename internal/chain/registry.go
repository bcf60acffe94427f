package chain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrNetworkNotFound is returned when a network is not in the registry.
var ErrNetworkNotFound = errors.New("network not found")

// Currency describes a chain's native currency as wallets expect it in
// wallet_addEthereumChain.
type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Network holds everything needed to read from, write to, and link to a chain.
type Network struct {
	Name           string   `json:"name"`
	DisplayName    string   `json:"display_name"`
	ChainID        int64    `json:"chain_id"`
	RPCURL         string   `json:"rpc_url"`
	FallbackRPCs   []string `json:"fallback_rpcs,omitempty"`
	ExplorerURL    string   `json:"explorer_url"`
	NativeCurrency Currency `json:"native_currency"`
	Testnet        bool     `json:"testnet"`
	// Custom networks are not built into common wallets and usually need
	// wallet_addEthereumChain before the first switch.
	Custom bool `json:"custom"`
}

// Registry is the network table. It is immutable after construction; every
// accessor returns copies.
type Registry struct {
	networks []Network
	byName   map[string]int
	byID     map[int64]int
}

var defaultRegistry = sync.OnceValue(NewRegistry)

// Default returns the process-wide registry, built on first use.
func Default() *Registry {
	return defaultRegistry()
}

// NewRegistry creates a registry holding every supported network.
func NewRegistry() *Registry {
	networks := allNetworks()
	r := &Registry{
		networks: networks,
		byName:   make(map[string]int, len(networks)),
		byID:     make(map[int64]int, len(networks)),
	}
	for i, n := range r.networks {
		r.byName[n.Name] = i
		r.byID[n.ChainID] = i
	}
	return r
}

// All returns every network in the registry.
func (r *Registry) All() []Network {
	out := make([]Network, len(r.networks))
	for i, n := range r.networks {
		out[i] = n.clone()
	}
	return out
}

// GetByName finds a network by its slug (e.g. "arbitrum-sepolia").
func (r *Registry) GetByName(name string) (Network, error) {
	i, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Network{}, fmt.Errorf("%w: %q", ErrNetworkNotFound, name)
	}
	return r.networks[i].clone(), nil
}

// GetByChainID finds a network by its numeric chain ID.
func (r *Registry) GetByChainID(id int64) (Network, error) {
	i, ok := r.byID[id]
	if !ok {
		return Network{}, fmt.Errorf("%w: chain id %d", ErrNetworkNotFound, id)
	}
	return r.networks[i].clone(), nil
}

// Networks returns every network in the default registry.
func Networks() []Network {
	return Default().All()
}

// Lookup finds a network by name in the default registry.
func Lookup(name string) (Network, error) {
	return Default().GetByName(name)
}

// RPCs returns the primary RPC followed by the fallbacks.
func (n Network) RPCs() []string {
	out := make([]string, 0, 1+len(n.FallbackRPCs))
	if n.RPCURL != "" {
		out = append(out, n.RPCURL)
	}
	return append(out, n.FallbackRPCs...)
}

// ChainIDHex returns the chain id in the 0x-prefixed form EIP-1193 wallets use.
func (n Network) ChainIDHex() string {
	return fmt.Sprintf("0x%x", n.ChainID)
}

// TxURL returns the explorer link for a transaction hash.
func (n Network) TxURL(hash string) string {
	return n.ExplorerURL + "/tx/" + hash
}

// AddressURL returns the explorer link for an address.
func (n Network) AddressURL(addr string) string {
	return n.ExplorerURL + "/address/" + addr
}

func (n Network) clone() Network {
	n.FallbackRPCs = slices.Clone(n.FallbackRPCs)
	return n
}

// --- network data ---

func allNetworks() []Network {
	eth := Currency{Name: "Ether", Symbol: "ETH", Decimals: 18}
	return []Network{
		{
			Name: "arbitrum", DisplayName: "Arbitrum One", ChainID: 42161,
			RPCURL:         "https://arb1.arbitrum.io/rpc",
			FallbackRPCs:   []string{"https://arbitrum-one-rpc.publicnode.com", "https://arbitrum.drpc.org"},
			ExplorerURL:    "https://arbiscan.io",
			NativeCurrency: eth,
		},
		{
			Name: "arbitrum-sepolia", DisplayName: "Arbitrum Sepolia", ChainID: 421614,
			RPCURL:         "https://sepolia-rollup.arbitrum.io/rpc",
			FallbackRPCs:   []string{"https://arbitrum-sepolia-rpc.publicnode.com"},
			ExplorerURL:    "https://sepolia.arbiscan.io",
			NativeCurrency: eth,
			Testnet:        true,
		},
		// Superposition chains are only offered by the CLI's network picker;
		// wallets generally need them added before switching.
		{
			Name: "superposition", DisplayName: "Superposition", ChainID: 55244,
			RPCURL:         "https://rpc.superposition.so",
			ExplorerURL:    "https://explorer.superposition.so",
			NativeCurrency: eth,
			Custom:         true,
		},
		{
			Name: "superposition-testnet", DisplayName: "Superposition Testnet", ChainID: 98985,
			RPCURL:         "https://testnet-rpc.superposition.so",
			ExplorerURL:    "https://testnet-explorer.superposition.so",
			NativeCurrency: Currency{Name: "Superposition", Symbol: "SPN", Decimals: 18},
			Testnet:        true,
			Custom:         true,
		},
	}
}
