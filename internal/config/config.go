package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	defaultNetwork   = "arbitrum-sepolia"
	defaultAlgorithm = "fastest"

	configFile      = "config.yaml"
	walletsFile     = "wallets.json"
	collectionsFile = "collections.json"

	envPrefix = "NFTCTL"
)

// ErrNotDeployed reports that no collection contract address is configured.
// Callers treat it as a state ("deploy one first"), not a failure.
var ErrNotDeployed = errors.New("no contract address configured (collection not yet deployed)")

// Load reads config from dir (or creates defaults). dir defaults to ~/.nftctl.
//
// Values resolve in order: environment (NFTCTL_*), config.yaml, defaults.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".nftctl")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, configFile))
	v.SetConfigType("yaml")

	v.SetDefault("default_network", defaultNetwork)
	v.SetDefault("rpc_algorithm", defaultAlgorithm)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		"default_network",
		"default_wallet",
		"contract_address",
		"factory_address",
		"deployment_api_url",
		"rpc_url",
		"rpc_algorithm",
	} {
		_ = v.BindEnv(key)
	}

	if _, err := os.Stat(v.ConfigFileUsed()); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}
	return cfg, nil
}

// Save writes the config to disk as YAML.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// ContractDeployed reports whether a collection address is configured.
func (c *Config) ContractDeployed() bool {
	return strings.TrimSpace(c.ContractAddress) != ""
}

// Contract returns the configured collection address or ErrNotDeployed.
func (c *Config) Contract() (string, error) {
	if !c.ContractDeployed() {
		return "", ErrNotDeployed
	}
	return strings.TrimSpace(c.ContractAddress), nil
}

// AddRPC adds a custom RPC URL for a network.
func (c *Config) AddRPC(network, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[network], url) {
		return fmt.Errorf("RPC %s already exists for network %s", url, network)
	}
	c.CustomRPCs[network] = append(c.CustomRPCs[network], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a network.
func (c *Config) RemoveRPC(network, url string) error {
	rpcs := c.CustomRPCs[network]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for network %s", url, network)
	}
	c.CustomRPCs[network] = slices.Delete(rpcs, idx, idx+1)
	return nil
}

// GetRPCs returns custom RPCs for a network.
func (c *Config) GetRPCs(network string) []string {
	return c.CustomRPCs[network]
}

// KnowsChain reports whether the local wallet has chain id registered.
func (c *Config) KnowsChain(id int64) bool {
	return slices.Contains(c.KnownChains, id)
}

// AddKnownChain registers chain id with the local wallet. Adding a known
// chain is a no-op.
func (c *Config) AddKnownChain(id int64) {
	if !c.KnowsChain(id) {
		c.KnownChains = append(c.KnownChains, id)
	}
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath returns the wallets.json path.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// CollectionsPath returns the collections.json path.
func (c *Config) CollectionsPath() string {
	return filepath.Join(c.configDir, collectionsFile)
}
