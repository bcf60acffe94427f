package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/nftctl/internal/config"
	"github.com/Mohsinsiddi/nftctl/internal/ui"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/nftctl/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir       string
	cfg          *config.Config
	verbose      bool
	plain        bool
	assumeYes    bool
	networkFlag  string
	walletFlag   string
	contractFlag string
	walletRPC    string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "nftctl",
	Short: "Read and manage ERC-721 collections on Arbitrum and Superposition",
	Long: `nftctl reads collection and token state from an ERC-721 collection
contract, sends owner and holder transactions, manages the collection
factory and drives the external deployment service.

A collection is addressed by --contract (name from the local registry or a
0x address), falling back to contract_address in config.yaml or
NFTCTL_CONTRACT_ADDRESS.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verbose)
		ui.SetPlain(plain)
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func init() {
	if envDir := os.Getenv("NFTCTL_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.nftctl)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	pf.BoolVar(&plain, "plain", false, "no colors or animations")
	pf.BoolVarP(&assumeYes, "yes", "y", false, "approve network switches and confirmations")
	pf.StringVarP(&networkFlag, "network", "n", "", "network name (default: config default_network)")
	pf.StringVarP(&walletFlag, "wallet", "w", "", "wallet name (default: config default_wallet)")
	pf.StringVarP(&contractFlag, "contract", "c", "", "collection name or address")
	pf.StringVar(&walletRPC, "wallet-rpc", "", "external wallet JSON-RPC endpoint used for chain switching")

	rootCmd.AddCommand(
		collectionCmd,
		tokenCmd,
		balanceCmd,
		mintCmd,
		burnCmd,
		transferCmd,
		approveCmd,
		pauseCmd,
		unpauseCmd,
		setBaseURICmd,
		transferOwnershipCmd,
		factoryCmd,
		deployCmd,
		networkCmd,
		walletCmd,
		configCmd,
	)
}
