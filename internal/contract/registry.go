package contract

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrCollectionNotFound is returned when a registry lookup misses.
var ErrCollectionNotFound = errors.New("collection not found")

// Where a registry entry came from.
const (
	SourceManual  = "manual"
	SourceDeploy  = "deploy"
	SourceFactory = "factory"
)

// CollectionEntry is a locally known collection.
type CollectionEntry struct {
	Name    string `json:"name"`
	Network string `json:"network"`
	Address string `json:"address"`
	Symbol  string `json:"symbol,omitempty"`
	Owner   string `json:"owner,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Registry stores collection entries in a JSON file, keyed by name and network.
type Registry struct {
	path        string
	collections map[string]*CollectionEntry // key: "name@network"
}

// NewRegistry creates a Registry backed by path.
func NewRegistry(path string) *Registry {
	return &Registry{
		path:        path,
		collections: make(map[string]*CollectionEntry),
	}
}

// Load reads stored entries from disk. A missing file is an empty registry.
func (r *Registry) Load() error {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var entries []CollectionEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing %s: %w", r.path, err)
	}
	for i := range entries {
		e := &entries[i]
		r.collections[key(e.Name, e.Network)] = e
	}
	return nil
}

// Save writes all entries to disk, sorted for stable diffs.
func (r *Registry) Save() error {
	entries := make([]CollectionEntry, 0, len(r.collections))
	for _, e := range r.All() {
		entries = append(entries, *e)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o600)
}

// Add adds or replaces an entry. The address is stored checksummed.
func (r *Registry) Add(e *CollectionEntry) error {
	if e.Name == "" {
		return errors.New("collection name is required")
	}
	if !common.IsHexAddress(e.Address) {
		return fmt.Errorf("invalid collection address %q", e.Address)
	}
	e.Address = common.HexToAddress(e.Address).Hex()
	r.collections[key(e.Name, e.Network)] = e
	return nil
}

// Get returns the entry for name on network.
func (r *Registry) Get(name, network string) (*CollectionEntry, error) {
	e, ok := r.collections[key(name, network)]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrCollectionNotFound, name, network)
	}
	return e, nil
}

// FindByAddress returns the entry for address on network.
func (r *Registry) FindByAddress(address, network string) (*CollectionEntry, error) {
	for _, e := range r.collections {
		if e.Network == network && strings.EqualFold(e.Address, address) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s on %s", ErrCollectionNotFound, address, network)
}

// Resolve turns a registry name or a hex address into a contract address.
func (r *Registry) Resolve(nameOrAddress, network string) (common.Address, error) {
	if common.IsHexAddress(nameOrAddress) {
		return common.HexToAddress(nameOrAddress), nil
	}
	e, err := r.Get(nameOrAddress, network)
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(e.Address), nil
}

// ByNetwork returns the entries registered for network.
func (r *Registry) ByNetwork(network string) []*CollectionEntry {
	var out []*CollectionEntry
	for _, e := range r.All() {
		if e.Network == network {
			out = append(out, e)
		}
	}
	return out
}

// All returns every entry ordered by network then name.
func (r *Registry) All() []*CollectionEntry {
	out := make([]*CollectionEntry, 0, len(r.collections))
	for _, e := range r.collections {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Network != out[j].Network {
			return out[i].Network < out[j].Network
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Remove deletes the entry for name on network.
func (r *Registry) Remove(name, network string) error {
	k := key(name, network)
	if _, ok := r.collections[k]; !ok {
		return fmt.Errorf("%w: %s on %s", ErrCollectionNotFound, name, network)
	}
	delete(r.collections, k)
	return nil
}

func key(name, network string) string {
	return name + "@" + network
}
