package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/nftctl/internal/txn"
	"github.com/Mohsinsiddi/nftctl/internal/ui"
)

var (
	mintTo       string
	mintSafe     bool
	transferFrom string
	transferSafe bool
	approveAll   bool
	approveOff   bool
)

// withWriter resolves the network and collection, opens a writer and hands
// it to fn. Writes are bounded by the caller's context only; the executor
// applies its own confirmation timeout.
func withWriter(cmd *cobra.Command, fn func(ctx context.Context, w *writer) error) error {
	n, err := currentNetwork()
	if err != nil {
		return err
	}
	addr, err := collectionAddress(n, "")
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	w, err := openWriter(ctx, n, addr)
	if err != nil {
		return err
	}
	defer w.Close()
	return fn(ctx, w)
}

func printTx(w *writer, res *txn.Result) {
	fmt.Println(ui.Meta("  tx " + w.network.TxURL(res.Hash.Hex())))
}

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint a token to yourself or --to another account",
	Long: `Mint the next token of the collection.

Without --to the token is minted to the active wallet through mint().
With --to it goes through mintTo(), or safeMint() when --safe is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWriter(cmd, func(ctx context.Context, w *writer) error {
			var to common.Address
			if mintTo != "" {
				addr, err := resolveAccount(mintTo)
				if err != nil {
					return err
				}
				to = addr
			}
			op := "Mint"
			res, err := w.run(op, func() (*txn.Result, error) {
				switch {
				case mintTo == "":
					return w.exec.Mint(ctx)
				case mintSafe:
					return w.exec.SafeMint(ctx, to)
				default:
					return w.exec.MintTo(ctx, to)
				}
			})
			if err != nil {
				return err
			}
			if res.TokenID != nil {
				fmt.Println(ui.Success(fmt.Sprintf("Minted token #%s", res.TokenID)))
			} else {
				fmt.Println(ui.Success("Mint confirmed"))
			}
			printTx(w, res)
			recipient := to
			if mintTo == "" && w.signer != nil {
				recipient = w.signer.Address()
			}
			w.printRefreshed(true, recipient)
			return nil
		})
	},
}

var burnCmd = &cobra.Command{
	Use:   "burn <id>",
	Short: "Burn a token you own or are approved for",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTokenID(args[0])
		if err != nil {
			return err
		}
		return withWriter(cmd, func(ctx context.Context, w *writer) error {
			if !prompter().ConfirmDanger(fmt.Sprintf("Burn token #%s? This cannot be undone.", id)) {
				fmt.Println(ui.Meta("Cancelled."))
				return nil
			}
			res, err := w.run("Burn", func() (*txn.Result, error) { return w.exec.Burn(ctx, id) })
			if err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Burned token #%s", id)))
			printTx(w, res)
			w.printRefreshed(true, w.signer.Address())
			return nil
		})
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer <to> <id>",
	Short: "Transfer a token to another account",
	Long: `Transfer a token with transferFrom(), or safeTransferFrom() with --safe.

The sender defaults to the active wallet; pass --from when moving a token
you are approved for.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := resolveAccount(args[0])
		if err != nil {
			return err
		}
		id, err := parseTokenID(args[1])
		if err != nil {
			return err
		}
		return withWriter(cmd, func(ctx context.Context, w *writer) error {
			var from common.Address
			switch {
			case transferFrom != "":
				if from, err = resolveAccount(transferFrom); err != nil {
					return err
				}
			case w.signer != nil:
				from = w.signer.Address()
			}
			res, err := w.run("Transfer", func() (*txn.Result, error) {
				if transferSafe {
					return w.exec.SafeTransferFrom(ctx, from, to, id)
				}
				return w.exec.TransferFrom(ctx, from, to, id)
			})
			if err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Token #%s → %s", id, ui.Addr(to.Hex()))))
			printTx(w, res)
			w.printRefreshed(false, from, to)
			return nil
		})
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <spender> [id]",
	Short: "Approve an address for one token, or an operator for all tokens",
	Long: `Approve spender to move token id.

With --all, spender becomes an operator for every token you own
(setApprovalForAll). Combine --all with --revoke to remove an operator.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		spender, err := resolveAccount(args[0])
		if err != nil {
			return err
		}
		if approveAll {
			return withWriter(cmd, func(ctx context.Context, w *writer) error {
				res, err := w.run("Set operator", func() (*txn.Result, error) {
					return w.exec.SetApprovalForAll(ctx, spender, !approveOff)
				})
				if err != nil {
					return err
				}
				if approveOff {
					fmt.Println(ui.Success(fmt.Sprintf("Operator %s revoked", ui.Addr(spender.Hex()))))
				} else {
					fmt.Println(ui.Success(fmt.Sprintf("Operator %s approved for all tokens", ui.Addr(spender.Hex()))))
				}
				printTx(w, res)
				return nil
			})
		}
		if len(args) < 2 {
			return fmt.Errorf("token id required (or pass --all to approve an operator)")
		}
		id, err := parseTokenID(args[1])
		if err != nil {
			return err
		}
		return withWriter(cmd, func(ctx context.Context, w *writer) error {
			res, err := w.run("Approve", func() (*txn.Result, error) { return w.exec.Approve(ctx, spender, id) })
			if err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("%s approved for token #%s", ui.Addr(spender.Hex()), id)))
			printTx(w, res)
			return nil
		})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause minting and transfers (owner only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ownerWrite(cmd, "Pause", "Collection paused", func(ctx context.Context, e *txn.Executor) (*txn.Result, error) {
			return e.Pause(ctx)
		})
	},
}

var unpauseCmd = &cobra.Command{
	Use:   "unpause",
	Short: "Resume minting and transfers (owner only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ownerWrite(cmd, "Unpause", "Collection unpaused", func(ctx context.Context, e *txn.Executor) (*txn.Result, error) {
			return e.Unpause(ctx)
		})
	},
}

var setBaseURICmd = &cobra.Command{
	Use:   "set-base-uri <uri>",
	Short: "Change the collection's base token URI (owner only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uri := args[0]
		return ownerWrite(cmd, "Set base URI", "Base URI set to "+uri, func(ctx context.Context, e *txn.Executor) (*txn.Result, error) {
			return e.SetBaseURI(ctx, uri)
		})
	},
}

var transferOwnershipCmd = &cobra.Command{
	Use:   "transfer-ownership <new-owner>",
	Short: "Hand the collection to a new owner (owner only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		newOwner, err := resolveAccount(args[0])
		if err != nil {
			return err
		}
		if !prompter().ConfirmDanger(fmt.Sprintf("Transfer ownership to %s? You will lose owner rights.", newOwner.Hex())) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		return ownerWrite(cmd, "Transfer ownership", "Ownership transferred to "+newOwner.Hex(), func(ctx context.Context, e *txn.Executor) (*txn.Result, error) {
			return e.TransferOwnership(ctx, newOwner)
		})
	},
}

// ownerWrite runs a collection-wide owner write and prints the refreshed
// collection view.
func ownerWrite(cmd *cobra.Command, op, done string, write func(context.Context, *txn.Executor) (*txn.Result, error)) error {
	return withWriter(cmd, func(ctx context.Context, w *writer) error {
		res, err := w.run(op, func() (*txn.Result, error) { return write(ctx, w.exec) })
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(done))
		printTx(w, res)
		w.printRefreshed(true)
		return nil
	})
}

func init() {
	mintCmd.Flags().StringVar(&mintTo, "to", "", "recipient address or wallet name")
	mintCmd.Flags().BoolVar(&mintSafe, "safe", false, "use safeMint (requires --to)")

	transferCmd.Flags().StringVar(&transferFrom, "from", "", "current owner (default: active wallet)")
	transferCmd.Flags().BoolVar(&transferSafe, "safe", false, "use safeTransferFrom")

	approveCmd.Flags().BoolVar(&approveAll, "all", false, "approve spender as operator for all tokens")
	approveCmd.Flags().BoolVar(&approveOff, "revoke", false, "with --all, revoke the operator instead")
}
