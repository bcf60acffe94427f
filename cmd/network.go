package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/nftctl/internal/chain"
	"github.com/Mohsinsiddi/nftctl/internal/config"
	"github.com/Mohsinsiddi/nftctl/internal/rpc"
	"github.com/Mohsinsiddi/nftctl/internal/ui"
	"github.com/Mohsinsiddi/nftctl/internal/wallet"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "List networks, pick the default and switch the wallet",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported networks",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := ui.NewTable(
			ui.Column{Title: ""},
			ui.Column{Title: "Name"},
			ui.Column{Title: "Display"},
			ui.Column{Title: "Chain ID"},
			ui.Column{Title: "Currency"},
			ui.Column{Title: "Explorer"},
		)
		for _, n := range chain.Networks() {
			mark := ""
			if n.Name == cfg.DefaultNetwork {
				mark = "*"
			}
			display := n.DisplayName
			if n.Testnet {
				display += ui.Meta(" (testnet)")
			}
			t.AddRow(mark, ui.ChainName(n.Name), display, fmt.Sprintf("%d", n.ChainID), n.NativeCurrency.Symbol, n.ExplorerURL)
		}
		fmt.Println(t.Render())
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Set the default network (interactive picker without a name)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := argOr(args, 0)
		if name == "" {
			picked, err := ui.PickItem("Select network", ui.NetworkItems(chain.Networks()), cfg.DefaultNetwork)
			if err != nil {
				return err
			}
			if picked == "" {
				fmt.Println(ui.Meta("Cancelled."))
				return nil
			}
			name = picked
		}
		n, err := chain.Lookup(name)
		if err != nil {
			return fmt.Errorf("%w (run `nftctl network list`)", err)
		}
		cfg.DefaultNetwork = n.Name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Default network set to " + ui.ChainName(n.DisplayName)))
		return nil
	},
}

var networkSwitchCmd = &cobra.Command{
	Use:   "switch [name]",
	Short: "Move the wallet to a network, adding it to the wallet if needed",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := currentNetwork()
		if name := argOr(args, 0); name != "" {
			target, err = chain.Lookup(name)
		}
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), config.ReadTimeout)
		defer cancel()
		p, closeProvider, err := walletProvider(ctx)
		if err != nil {
			return err
		}
		defer closeProvider()

		if err := wallet.EnsureChain(ctx, p, target, slog.Default()); err != nil {
			return err
		}
		fmt.Println(ui.Success("Wallet is on " + ui.ChainName(target.DisplayName)))
		return nil
	},
}

var networkRPCCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage and benchmark RPC endpoints",
}

var networkRPCAddCmd = &cobra.Command{
	Use:   "add <network> <url>",
	Short: "Add a custom RPC endpoint, tried before the built-in ones",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := chain.Lookup(args[0])
		if err != nil {
			return err
		}
		if err := cfg.AddRPC(n.Name, args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Added RPC for %s: %s", ui.ChainName(n.Name), args[1])))
		return nil
	},
}

var networkRPCRemoveCmd = &cobra.Command{
	Use:   "remove <network> <url>",
	Short: "Remove a custom RPC endpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveRPC(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed RPC for %s: %s", args[0], args[1])))
		return nil
	},
}

var networkRPCBenchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Probe every endpoint of the current network",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := currentNetwork()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCSelectTimeout)
		defer cancel()

		spin := ui.NewSpinner("Probing endpoints…").Plain(plain)
		spin.Start()
		results := rpc.Benchmark(ctx, rpcURLs(n))
		spin.Stop()

		t := ui.NewTable(
			ui.Column{Title: "Endpoint"},
			ui.Column{Title: "Latency"},
			ui.Column{Title: "Block"},
		)
		for _, r := range results {
			if r.Err != nil {
				t.AddRow(r.URL, ui.Meta("error"), ui.Meta(r.Err.Error()))
				continue
			}
			t.AddRow(r.URL, r.Latency.Round(1e6).String(), fmt.Sprintf("%d", r.BlockNumber))
		}
		fmt.Println(t.Render())
		return nil
	},
}

func init() {
	networkRPCCmd.AddCommand(networkRPCAddCmd, networkRPCRemoveCmd, networkRPCBenchCmd)
	networkCmd.AddCommand(networkListCmd, networkUseCmd, networkSwitchCmd, networkRPCCmd)
}
