package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/nftctl/internal/chain"
	"github.com/Mohsinsiddi/nftctl/internal/config"
	"github.com/Mohsinsiddi/nftctl/internal/contract"
	nftsync "github.com/Mohsinsiddi/nftctl/internal/sync"
	"github.com/Mohsinsiddi/nftctl/internal/txn"
	"github.com/Mohsinsiddi/nftctl/internal/ui"
)

var (
	factoryWatch   time.Duration
	factoryBaseURI string
	factoryUse     bool
)

var factoryCmd = &cobra.Command{
	Use:   "factory",
	Short: "List, create and register collections through the factory contract",
}

func factoryAddress() (common.Address, error) {
	if !common.IsHexAddress(cfg.FactoryAddress) {
		return common.Address{}, fmt.Errorf("%w: set factory_address in config or NFTCTL_FACTORY_ADDRESS", txn.ErrNoFactory)
	}
	return common.HexToAddress(cfg.FactoryAddress), nil
}

var factoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections deployed by the factory",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := currentNetwork()
		if err != nil {
			return err
		}
		addr, err := factoryAddress()
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

		factory := contract.NewFactory(addr, client)
		spin := ui.NewSpinner("Reading factory…").Plain(plain)
		spin.Start()
		addrs, err := factory.AllDeployedCollections(ctx)
		spin.Stop()
		if err != nil {
			return err
		}
		if len(addrs) == 0 {
			fmt.Println(ui.Info("The factory has not deployed any collections yet."))
			return nil
		}

		t := ui.NewTable(
			ui.Column{Title: "Address"},
			ui.Column{Title: "Name"},
			ui.Column{Title: "Symbol"},
			ui.Column{Title: "Owner"},
			ui.Column{Title: "Created"},
		)
		for _, a := range addrs {
			info, err := factory.CollectionInfo(ctx, a)
			if err != nil {
				t.AddRow(a.Hex(), ui.Meta("unavailable"), "", "", "")
				continue
			}
			t.AddRow(a.Hex(), info.Name, info.Symbol, ui.TruncateAddr(info.Owner.Hex()), createdAt(info))
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d collection(s) on %s", len(addrs), n.DisplayName)))
		return nil
	},
}

func createdAt(info *contract.FactoryCollection) string {
	if info.CreatedAt == nil || info.CreatedAt.Sign() == 0 {
		return ""
	}
	return time.Unix(info.CreatedAt.Int64(), 0).UTC().Format(time.DateTime)
}

var factorySyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import factory collections into the local registry",
	Long: `Import every collection the factory has deployed into the local registry.

Known addresses are skipped. With --watch the factory is polled at the
given interval until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := currentNetwork()
		if err != nil {
			return err
		}
		addr, err := factoryAddress()
		if err != nil {
			return err
		}
		reg, err := openRegistry()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		client, err := dial(ctx, n)
		if err != nil {
			return err
		}
		defer client.Close()

		s := nftsync.New(contract.NewFactory(addr, client), reg, n.Name)
		if factoryWatch > 0 {
			fmt.Println(ui.Info(fmt.Sprintf("Watching factory on %s every %s (Ctrl+C to stop)", n.DisplayName, factoryWatch)))
			if err := s.Watch(ctx, factoryWatch); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		}

		rctx, cancel := context.WithTimeout(ctx, config.ReadTimeout)
		defer cancel()
		res, err := s.Run(rctx)
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Synced %d collection(s): %d added, %d already known", res.Total, res.Added, res.Skipped)))
		if res.Failed > 0 {
			fmt.Println(ui.Warn(fmt.Sprintf("%d collection(s) had no readable info and were named by address", res.Failed)))
		}
		return nil
	},
}

var factoryCreateCmd = &cobra.Command{
	Use:   "create <name> <symbol>",
	Short: "Create a new collection through the factory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, symbol := args[0], args[1]
		n, err := currentNetwork()
		if err != nil {
			return err
		}
		if _, err := factoryAddress(); err != nil {
			return err
		}
		ctx := cmd.Context()
		w, err := openWriter(ctx, n, common.Address{})
		if err != nil {
			return err
		}
		defer w.Close()

		res, err := w.run("Create collection", func() (*txn.Result, error) {
			return w.exec.CreateCollection(ctx, name, symbol, factoryBaseURI)
		})
		if err != nil {
			return err
		}
		if res.Collection == (common.Address{}) {
			fmt.Println(ui.Success(fmt.Sprintf("Collection %q created", name)))
			printTx(w, res)
			fmt.Println(ui.Warn("The receipt carried no CollectionCreated event; run `nftctl factory sync` to import it."))
			return nil
		}
		fmt.Println(ui.Success(fmt.Sprintf("Collection %q created at %s", name, ui.Addr(res.Collection.Hex()))))
		printTx(w, res)
		return rememberCollection(n, name, symbol, res.Collection, contract.SourceFactory, w.signer.Address())
	},
}

var factoryRegisterCmd = &cobra.Command{
	Use:   "register <address>",
	Short: "Register an externally deployed collection with the factory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !common.IsHexAddress(args[0]) {
			return fmt.Errorf("invalid address %q", args[0])
		}
		collection := common.HexToAddress(args[0])
		n, err := currentNetwork()
		if err != nil {
			return err
		}
		if _, err := factoryAddress(); err != nil {
			return err
		}
		ctx := cmd.Context()
		w, err := openWriter(ctx, n, collection)
		if err != nil {
			return err
		}
		defer w.Close()

		res, err := w.run("Register collection", func() (*txn.Result, error) {
			return w.exec.RegisterCollection(ctx, collection)
		})
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s registered with the factory", ui.Addr(collection.Hex()))))
		printTx(w, res)
		return nil
	},
}

// rememberCollection stores a freshly created collection in the registry
// and, with --use, makes it the default contract.
func rememberCollection(n chain.Network, name, symbol string, addr common.Address, source string, owner common.Address) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	entry := &contract.CollectionEntry{
		Name:    name,
		Network: n.Name,
		Address: addr.Hex(),
		Symbol:  symbol,
		Owner:   owner.Hex(),
		Source:  source,
	}
	if err := reg.Add(entry); err != nil {
		fmt.Println(ui.Warn("not added to registry: " + err.Error()))
	} else if err := reg.Save(); err != nil {
		return err
	}
	if factoryUse {
		cfg.ContractAddress = addr.Hex()
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Hint("Default collection set to " + addr.Hex()))
	}
	return nil
}

func init() {
	factorySyncCmd.Flags().DurationVar(&factoryWatch, "watch", 0, "keep polling the factory at this interval")
	factoryCreateCmd.Flags().StringVar(&factoryBaseURI, "base-uri", "", "base token URI")
	factoryCreateCmd.Flags().BoolVar(&factoryUse, "use", false, "make the new collection the default contract")

	factoryCmd.AddCommand(factoryListCmd, factorySyncCmd, factoryCreateCmd, factoryRegisterCmd)
}
