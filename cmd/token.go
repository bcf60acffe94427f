package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/nftctl/internal/config"
	"github.com/Mohsinsiddi/nftctl/internal/ui"
)

var tokenCmd = &cobra.Command{
	Use:   "token <id>",
	Short: "Show a token's owner, URI and approved address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTokenID(args[0])
		if err != nil {
			return err
		}
		n, err := currentNetwork()
		if err != nil {
			return err
		}
		addr, err := collectionAddress(n, "")
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

		info, err := newReader(client).FetchNFTInfo(ctx, addr.Hex(), id)
		if err != nil {
			return err
		}

		approved := ui.Meta("none")
		if info.Approved == nil {
			approved = ui.Meta("unavailable")
		} else if *info.Approved != (common.Address{}) {
			approved = ui.Addr(info.Approved.Hex())
		}
		fmt.Println(ui.KeyValueBlock(fmt.Sprintf("Token #%s", info.TokenID), [][2]string{
			{"Owner", ui.Addr(info.Owner.Hex())},
			{"Token URI", info.TokenURI},
			{"Approved", approved},
		}))
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance [account]",
	Short: "Show how many tokens an account holds (default: active wallet)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account := argOr(args, 0)
		if account == "" {
			account = activeWalletName(newWalletManager())
			if account == "" {
				return fmt.Errorf("no account given and no default wallet configured")
			}
		}
		who, err := resolveAccount(account)
		if err != nil {
			return err
		}
		n, err := currentNetwork()
		if err != nil {
			return err
		}
		addr, err := collectionAddress(n, "")
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

		bal, err := newReader(client).FetchBalance(ctx, addr.Hex(), who.Hex())
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", ui.Addr(bal.Account.Hex()), ui.Val(bal.Balance.String()+" token(s)"))
		return nil
	},
}
