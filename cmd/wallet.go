package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/nftctl/internal/ui"
	"github.com/Mohsinsiddi/nftctl/internal/wallet"
)

var walletKeyFlag string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallets",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> <address>",
	Short: "Add a watch-only wallet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, address := args[0], args[1]
		if !common.IsHexAddress(address) {
			return fmt.Errorf("invalid address %q", address)
		}
		if err := newWalletManager().Add(name, &wallet.Wallet{
			Name:    name,
			Address: common.HexToAddress(address).Hex(),
			Type:    wallet.TypeWatchOnly,
		}); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Watch-only wallet %q added: %s", name, ui.Addr(address))))
		return nil
	},
}

var walletImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import a signing wallet from a private key",
	Long: `Import a private key into the OS keychain (or the encrypted file
keystore under the config directory when no keychain is available).

The key is read from --key, or from NFTCTL_PRIVATE_KEY when the flag is
omitted so it stays out of shell history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		key := walletKeyFlag
		if key == "" {
			key = os.Getenv("NFTCTL_PRIVATE_KEY")
		}
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("private key required: pass --key or set NFTCTL_PRIVATE_KEY")
		}
		mgr := newWalletManager()
		w, err := mgr.AddWithKey(name, key)
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Signing wallet %q added: %s", name, ui.Addr(w.Address))))
		if len(mgr.List()) == 1 {
			fmt.Println(ui.Hint("It is your only wallet, so it will be used by default."))
		} else {
			fmt.Println(ui.Hint("Set as default with: nftctl wallet use " + name))
		}
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all wallets",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := newWalletManager()
		wallets := mgr.List()
		if len(wallets) == 0 {
			fmt.Println(ui.Info("No wallets configured yet."))
			fmt.Println(ui.Hint("Import one with: nftctl wallet import <name> --key <hex>"))
			return nil
		}

		session := wallet.DefaultSession()
		active := activeWalletName(mgr)
		t := ui.NewTable(
			ui.Column{Title: "Name"},
			ui.Column{Title: "Address"},
			ui.Column{Title: "Type"},
			ui.Column{Title: "Active"},
			ui.Column{Title: "Unlocked"},
		)
		for _, w := range wallets {
			mark, unlocked := "", ""
			if w.Name == active {
				mark = ui.StyleSuccess.Render("✓")
			}
			if w.CanSign() && session.Has(w.Name) {
				unlocked = "yes"
			}
			t.AddRow(ui.Val(w.Name), ui.Addr(w.Address), ui.Meta(w.Type), mark, unlocked)
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d wallet(s) configured", len(wallets))))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !prompter().ConfirmDanger(fmt.Sprintf("Remove wallet %q and delete its key?", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		if err := newWalletManager().Remove(name); err != nil {
			return err
		}
		if cfg.DefaultWallet == name {
			cfg.DefaultWallet = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := newWalletManager().SetDefault(name); err != nil {
			return err
		}
		cfg.DefaultWallet = name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default wallet set to %q.", name)))
		return nil
	},
}

var walletUnlockCmd = &cobra.Command{
	Use:   "unlock [name]",
	Short: "Cache a wallet's key for this session so writes do not prompt",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := newWalletManager()
		name := argOr(args, 0)
		if name == "" {
			name = activeWalletName(mgr)
		}
		w, err := mgr.Get(name)
		if err != nil {
			return err
		}
		if !w.CanSign() {
			return fmt.Errorf("%q: %w", name, wallet.ErrWatchOnly)
		}
		keys, ok := mgr.Keys().(*wallet.Keystore)
		if !ok {
			return fmt.Errorf("keystore does not support sessions")
		}
		if err := keys.Unlock(w.KeyRef); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q unlocked until `nftctl wallet lock`.", name)))
		return nil
	},
}

var walletLockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Forget every cached key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wallet.DefaultSession().Clear(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Session cleared."))
		return nil
	},
}

func init() {
	walletImportCmd.Flags().StringVar(&walletKeyFlag, "key", "", "hex private key")
	walletCmd.AddCommand(walletAddCmd, walletImportCmd, walletListCmd, walletRemoveCmd, walletUseCmd, walletUnlockCmd, walletLockCmd)
}
