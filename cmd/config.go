package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Mohsinsiddi/nftctl/internal/chain"
	"github.com/Mohsinsiddi/nftctl/internal/rpc"
	"github.com/Mohsinsiddi/nftctl/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Println(ui.StyleTitle.Render("Configuration"))
		fmt.Print(string(data))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		return nil
	},
}

// settable maps config keys to setters. Values are validated before the
// config is written.
var settable = map[string]func(string) error{
	"default_network": func(v string) error {
		n, err := chain.Lookup(v)
		if err != nil {
			return err
		}
		cfg.DefaultNetwork = n.Name
		return nil
	},
	"default_wallet": func(v string) error {
		cfg.DefaultWallet = v
		return nil
	},
	"contract_address": func(v string) error {
		return setAddress(&cfg.ContractAddress, v)
	},
	"factory_address": func(v string) error {
		return setAddress(&cfg.FactoryAddress, v)
	},
	"deployment_api_url": func(v string) error {
		cfg.DeploymentAPIURL = strings.TrimRight(v, "/")
		return nil
	},
	"rpc_url": func(v string) error {
		cfg.RPCURL = v
		return nil
	},
	"rpc_algorithm": func(v string) error {
		a := rpc.ParseAlgorithm(v)
		if string(a) != v {
			return fmt.Errorf("unknown rpc algorithm %q (fastest, round-robin, failover)", v)
		}
		cfg.RPCAlgorithm = v
		return nil
	},
}

func setAddress(dst *string, v string) error {
	if v == "" {
		*dst = ""
		return nil
	}
	if !common.IsHexAddress(v) {
		return fmt.Errorf("invalid address %q", v)
	}
	*dst = v
	return nil
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value (empty value clears it)",
	Args:  cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return settableKeys(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		set, ok := settable[key]
		if !ok {
			return fmt.Errorf("unknown key %q (one of: %s)", key, strings.Join(settableKeys(), ", "))
		}
		if err := set(value); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s = %q", key, value)))
		return nil
	},
}

func settableKeys() []string {
	keys := make([]string, 0, len(settable))
	for k := range settable {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
}
