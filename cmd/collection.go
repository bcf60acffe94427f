package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/nftctl/internal/config"
	"github.com/Mohsinsiddi/nftctl/internal/contract"
	"github.com/Mohsinsiddi/nftctl/internal/reader"
	"github.com/Mohsinsiddi/nftctl/internal/ui"
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Inspect collections and manage the local collection registry",
}

var collectionInfoCmd = &cobra.Command{
	Use:   "info [name|address]",
	Short: "Show name, symbol, base URI, supply, owner and pause state",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := currentNetwork()
		if err != nil {
			return err
		}
		addr, err := collectionAddress(n, argOr(args, 0))
		if errors.Is(err, config.ErrNotDeployed) {
			notDeployedHint()
			return nil
		}
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.ReadTimeout)
		defer cancel()
		client, err := dial(ctx, n)
		if err != nil {
			return err
		}
		defer client.Close()

		spin := ui.NewSpinner("Reading collection…").Plain(plain)
		spin.Start()
		info, err := newReader(client).FetchCollectionInfo(ctx, addr.Hex())
		spin.Stop()
		if reader.IsNotDeployed(err) {
			fmt.Println(ui.Warn(fmt.Sprintf("No collection contract at %s on %s.", addr.Hex(), n.DisplayName)))
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock(info.Name, [][2]string{
			{"Address", ui.Addr(info.Address.Hex())},
			{"Network", ui.ChainName(n.DisplayName)},
			{"Symbol", info.Symbol},
			{"Base URI", info.BaseURI},
			{"Total supply", info.TotalSupply.String()},
			{"Owner", ui.Addr(info.Owner.Hex())},
			{"Paused", pausedLabel(info.Paused)},
			{"Explorer", ui.Meta(n.AddressURL(info.Address.Hex()))},
		}))
		return nil
	},
}

var collectionOperatorCmd = &cobra.Command{
	Use:   "operator <owner> <operator>",
	Short: "Check whether operator may manage all of owner's tokens",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := currentNetwork()
		if err != nil {
			return err
		}
		addr, err := collectionAddress(n, "")
		if err != nil {
			return err
		}
		owner, err := resolveAccount(args[0])
		if err != nil {
			return err
		}
		operator, err := resolveAccount(args[1])
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.ReadTimeout)
		defer cancel()
		client, err := dial(ctx, n)
		if err != nil {
			return err
		}
		defer client.Close()

		ok, err := newReader(client).IsApprovedForAll(ctx, addr.Hex(), owner.Hex(), operator.Hex())
		if err != nil {
			return err
		}
		if ok {
			fmt.Println(ui.Success(fmt.Sprintf("%s is an approved operator for %s", operator.Hex(), owner.Hex())))
		} else {
			fmt.Println(ui.Meta(fmt.Sprintf("%s is not an operator for %s", operator.Hex(), owner.Hex())))
		}
		return nil
	},
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections in the local registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		entries := reg.All()
		if networkFlag != "" {
			entries = reg.ByNetwork(networkFlag)
		}
		if len(entries) == 0 {
			fmt.Println(ui.Info("No collections registered."))
			fmt.Println(ui.Hint("Add one with `nftctl collection add <name> <address>` or `nftctl factory sync`."))
			return nil
		}

		t := ui.NewTable(
			ui.Column{Title: "Name"},
			ui.Column{Title: "Network"},
			ui.Column{Title: "Address"},
			ui.Column{Title: "Symbol"},
			ui.Column{Title: "Source"},
		)
		for _, e := range entries {
			t.AddRow(e.Name, e.Network, e.Address, e.Symbol, e.Source)
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d collection(s)", len(entries))))
		return nil
	},
}

var collectionAddCmd = &cobra.Command{
	Use:   "add <name> <address>",
	Short: "Register a collection under a name on the current network",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := currentNetwork()
		if err != nil {
			return err
		}
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		entry := &contract.CollectionEntry{
			Name:    args[0],
			Network: n.Name,
			Address: args[1],
			Source:  contract.SourceManual,
		}
		if err := reg.Add(entry); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Collection %q on %s → %s", entry.Name, n.Name, ui.Addr(entry.Address))))
		return nil
	},
}

var collectionRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a collection from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := currentNetwork()
		if err != nil {
			return err
		}
		reg, err := openRegistry()
		if err != nil {
			return err
		}
		if err := reg.Remove(args[0], n.Name); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Collection %q removed from %s.", args[0], n.Name)))
		return nil
	},
}

var collectionUseCmd = &cobra.Command{
	Use:   "use <name|address>",
	Short: "Make a collection the default contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := currentNetwork()
		if err != nil {
			return err
		}
		addr, err := collectionAddress(n, args[0])
		if err != nil {
			return err
		}
		cfg.ContractAddress = addr.Hex()
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Default collection set to " + ui.Addr(addr.Hex())))
		return nil
	},
}

func argOr(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func init() {
	collectionCmd.AddCommand(
		collectionInfoCmd,
		collectionOperatorCmd,
		collectionListCmd,
		collectionAddCmd,
		collectionRemoveCmd,
		collectionUseCmd,
	)
}
