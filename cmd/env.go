package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Mohsinsiddi/nftctl/internal/chain"
	"github.com/Mohsinsiddi/nftctl/internal/config"
	"github.com/Mohsinsiddi/nftctl/internal/contract"
	"github.com/Mohsinsiddi/nftctl/internal/reader"
	"github.com/Mohsinsiddi/nftctl/internal/rpc"
	"github.com/Mohsinsiddi/nftctl/internal/txn"
	"github.com/Mohsinsiddi/nftctl/internal/ui"
	"github.com/Mohsinsiddi/nftctl/internal/wallet"
)

// currentNetwork resolves --network or the configured default.
func currentNetwork() (chain.Network, error) {
	name := networkFlag
	if name == "" {
		name = cfg.DefaultNetwork
	}
	n, err := chain.Lookup(name)
	if err != nil {
		return chain.Network{}, fmt.Errorf("%w (run `nftctl network list`)", err)
	}
	return n, nil
}

// rpcURLs lists the endpoints to try for n: the rpc_url override alone, or
// custom RPCs followed by the built-in ones.
func rpcURLs(n chain.Network) []string {
	if cfg.RPCURL != "" {
		return []string{cfg.RPCURL}
	}
	return append(slices.Clone(cfg.GetRPCs(n.Name)), n.RPCs()...)
}

func dial(ctx context.Context, n chain.Network) (*ethclient.Client, error) {
	sctx, cancel := context.WithTimeout(ctx, config.RPCSelectTimeout)
	defer cancel()
	client, url, err := rpc.Dial(sctx, rpcURLs(n), rpc.ParseAlgorithm(cfg.RPCAlgorithm))
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", n.DisplayName, err)
	}
	slog.Debug("connected", "network", n.Name, "rpc", url)
	return client, nil
}

func openRegistry() (*contract.Registry, error) {
	reg := contract.NewRegistry(cfg.CollectionsPath())
	if err := reg.Load(); err != nil {
		return nil, fmt.Errorf("loading collections: %w", err)
	}
	return reg, nil
}

// collectionAddress resolves arg, then --contract, then the configured
// contract address. A registry name is looked up on network n.
func collectionAddress(n chain.Network, arg string) (common.Address, error) {
	target := arg
	if target == "" {
		target = contractFlag
	}
	if target == "" {
		addr, err := cfg.Contract()
		if err != nil {
			return common.Address{}, err
		}
		target = addr
	}
	if common.IsHexAddress(target) {
		return common.HexToAddress(target), nil
	}
	reg, err := openRegistry()
	if err != nil {
		return common.Address{}, err
	}
	return reg.Resolve(target, n.Name)
}

func notDeployedHint() {
	fmt.Println(ui.Info("No collection configured for this network yet."))
	fmt.Println(ui.Hint("Deploy one with `nftctl deploy`, or pass --contract <name|address>."))
}

func newReader(client contract.Caller) *reader.Reader {
	return reader.New(client, reader.WithLogger(slog.Default()))
}

func newWalletManager() *wallet.Manager {
	keys := wallet.OpenKeystore(cfg.Dir(), wallet.DefaultSession())
	return wallet.NewManager(
		wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())),
		wallet.WithKeyStore(keys),
	)
}

// activeWalletName returns --wallet, the configured default or the
// manager's default, in that order. Empty means no wallet.
func activeWalletName(mgr *wallet.Manager) string {
	if walletFlag != "" {
		return walletFlag
	}
	if cfg.DefaultWallet != "" {
		return cfg.DefaultWallet
	}
	if w := mgr.Default(); w != nil {
		return w.Name
	}
	return ""
}

// resolveAccount accepts a hex address or a wallet name.
func resolveAccount(s string) (common.Address, error) {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	w, err := newWalletManager().Get(s)
	if err != nil {
		return common.Address{}, fmt.Errorf("%q is neither an address nor a wallet: %w", s, err)
	}
	return common.HexToAddress(w.Address), nil
}

func parseTokenID(s string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(s, 0)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q", reader.ErrInvalidTokenID, s)
	}
	return id, nil
}

func prompter() *ui.Prompter {
	p := ui.StdPrompter()
	p.AssumeYes = assumeYes
	return p
}

// walletProvider returns the external wallet when --wallet-rpc is set,
// otherwise the local keystore wallet.
func walletProvider(ctx context.Context) (wallet.Provider, func(), error) {
	if walletRPC != "" {
		p, err := wallet.DialProvider(ctx, walletRPC)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to wallet: %w", err)
		}
		return p, p.Close, nil
	}
	return wallet.NewLocalProvider(cfg, chain.Default(), prompter().Confirm), func() {}, nil
}

// writer bundles what a write command needs.
type writer struct {
	network chain.Network
	client  *ethclient.Client
	exec    *txn.Executor
	watcher *reader.Watcher
	signer  *wallet.Signer
	closers []func()
}

// openWriter connects to the current network and wires an executor for the
// collection at addr. Without a wallet the executor is built anyway and
// writes fail with txn.ErrWalletNotConnected.
func openWriter(ctx context.Context, n chain.Network, addr common.Address) (*writer, error) {
	client, err := dial(ctx, n)
	if err != nil {
		return nil, err
	}
	w := &writer{network: n, client: client, closers: []func(){client.Close}}

	mgr := newWalletManager()
	if name := activeWalletName(mgr); name != "" {
		s, err := mgr.Signer(name)
		if err != nil {
			w.Close()
			return nil, err
		}
		w.signer = s
	}

	provider, closeProvider, err := walletProvider(ctx)
	if err != nil {
		w.Close()
		return nil, err
	}
	w.closers = append(w.closers, closeProvider)

	w.watcher = reader.NewWatcher(newReader(client), addr.Hex())
	opts := []txn.Option{
		txn.WithProvider(provider),
		txn.WithRefresher(w.watcher),
		txn.WithLogger(slog.Default()),
	}
	if w.signer != nil {
		opts = append(opts, txn.WithSigner(w.signer))
	}
	if common.IsHexAddress(cfg.FactoryAddress) {
		opts = append(opts, txn.WithFactory(common.HexToAddress(cfg.FactoryAddress)))
	}
	w.exec = txn.NewExecutor(client, n, addr, opts...)
	return w, nil
}

// Close releases the RPC and wallet connections.
func (w *writer) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
}

// run executes write with the live status view and returns its result.
func (w *writer) run(op string, write func() (*txn.Result, error)) (*txn.Result, error) {
	var res *txn.Result
	err := ui.RunTxStatus(w.exec.Machine(), op, w.network, plain, os.Stderr, func() error {
		var err error
		res, err = write()
		return err
	})
	if errors.Is(err, txn.ErrWalletNotConnected) {
		return nil, fmt.Errorf("%w: add one with `nftctl wallet import <name> --key <hex>` or pass --wallet", err)
	}
	return res, err
}

// printRefreshed waits for the post-write refresh and prints what changed.
func (w *writer) printRefreshed(collection bool, accounts ...common.Address) {
	w.exec.WaitRefresh()
	if collection {
		if line := collectionLine(w.watcher.Collection()); line != "" {
			fmt.Println(line)
		}
	}
	for _, a := range accounts {
		if line := balanceLine(a, w.watcher.Balance(a)); line != "" {
			fmt.Println(line)
		}
	}
}

// collectionLine renders a refreshed collection snapshot. A failed reload
// wins over data kept from an earlier load.
func collectionLine(snap reader.Snapshot[reader.CollectionInfo]) string {
	switch {
	case snap.Err != nil:
		return ui.Warn("could not refresh collection: " + snap.Err.Error())
	case snap.Data != nil:
		info := snap.Data
		return ui.Meta(fmt.Sprintf("  total supply %s · paused %s · owner %s",
			info.TotalSupply, pausedLabel(info.Paused), ui.TruncateAddr(info.Owner.Hex())))
	}
	return ""
}

func balanceLine(a common.Address, snap reader.Snapshot[reader.BalanceInfo]) string {
	switch {
	case snap.Err != nil:
		return ui.Warn(fmt.Sprintf("could not refresh balance of %s: %s", ui.TruncateAddr(a.Hex()), snap.Err))
	case snap.Data != nil:
		return ui.Meta(fmt.Sprintf("  %s holds %s", ui.TruncateAddr(a.Hex()), snap.Data.Balance))
	}
	return ""
}

func pausedLabel(p *bool) string {
	switch {
	case p == nil:
		return "unknown"
	case *p:
		return "yes"
	}
	return "no"
}
