package config

// Config holds all nftctl configuration.
type Config struct {
	DefaultNetwork   string              `yaml:"default_network"    mapstructure:"default_network"`
	DefaultWallet    string              `yaml:"default_wallet"     mapstructure:"default_wallet"`
	ContractAddress  string              `yaml:"contract_address"   mapstructure:"contract_address"`   // empty = not yet deployed
	FactoryAddress   string              `yaml:"factory_address"    mapstructure:"factory_address"`
	DeploymentAPIURL string              `yaml:"deployment_api_url" mapstructure:"deployment_api_url"`
	RPCURL           string              `yaml:"rpc_url,omitempty"  mapstructure:"rpc_url"`            // overrides the network table
	RPCAlgorithm     string              `yaml:"rpc_algorithm"      mapstructure:"rpc_algorithm"`      // "fastest" | "round-robin" | "failover"
	CustomRPCs       map[string][]string `yaml:"custom_rpcs"        mapstructure:"custom_rpcs"`

	// Local wallet chain state: the chain the keystore wallet is currently
	// "on" and the chains it has been told about.
	ActiveChainID int64   `yaml:"active_chain_id" mapstructure:"active_chain_id"`
	KnownChains   []int64 `yaml:"known_chains"    mapstructure:"known_chains"`

	// internal: config dir path used for Save()
	configDir string
}
