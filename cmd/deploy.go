package cmd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/nftctl/internal/config"
	"github.com/Mohsinsiddi/nftctl/internal/contract"
	"github.com/Mohsinsiddi/nftctl/internal/deploy"
	"github.com/Mohsinsiddi/nftctl/internal/ui"
)

var (
	deployName    string
	deploySymbol  string
	deployBaseURI string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy a new collection through the deployment service",
	Long: `Deploy a new ERC-721 collection through the deployment service at
deployment_api_url. The service deploys, activates, initializes and
registers the collection with the factory, signing with the active
wallet's key.

The key leaves this machine: only use a wallet dedicated to deployments.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := currentNetwork()
		if err != nil {
			return err
		}
		mgr := newWalletManager()
		name := activeWalletName(mgr)
		if name == "" {
			return fmt.Errorf("deploying needs a signing wallet: add one with `nftctl wallet import <name> --key <hex>`")
		}
		signer, err := mgr.Signer(name)
		if err != nil {
			return err
		}
		key, err := signer.PrivateKeyHex()
		if err != nil {
			return err
		}
		urls := rpcURLs(n)
		if len(urls) == 0 {
			return fmt.Errorf("no RPC endpoint for %s", n.Name)
		}

		if !prompter().Confirm(fmt.Sprintf("Send %s's key to %s to deploy %q on %s?", name, cfg.DeploymentAPIURL, deployName, n.DisplayName)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}

		tracker := deploy.NewTracker()
		tracker.Subscribe(func(s deploy.Status) {
			if line := ui.RenderDeployStage(s); line != "" {
				fmt.Println(line)
			}
		})
		client := deploy.NewClient(cfg.DeploymentAPIURL,
			deploy.WithTracker(tracker),
			deploy.WithHTTPClient(&http.Client{Timeout: config.DeployTimeout}),
		)

		res, err := client.Deploy(cmd.Context(), deploy.Request{
			Name:           deployName,
			Symbol:         deploySymbol,
			BaseURI:        deployBaseURI,
			FactoryAddress: cfg.FactoryAddress,
			PrivateKey:     key,
			RPCEndpoint:    urls[0],
		})
		var apiErr *deploy.APIError
		if errors.As(err, &apiErr) && apiErr.RequestID != "" {
			fmt.Println(ui.Meta("  request id " + apiErr.RequestID))
		}
		if err != nil {
			return err
		}

		if res.TxHash != "" {
			fmt.Println(ui.Meta("  tx " + n.TxURL(res.TxHash)))
		}
		if !common.IsHexAddress(res.CollectionAddress) {
			return fmt.Errorf("deployment service returned invalid collection address %q", res.CollectionAddress)
		}
		return rememberCollection(n, deployName, deploySymbol, common.HexToAddress(res.CollectionAddress), contract.SourceDeploy, signer.Address())
	},
}

func init() {
	f := deployCmd.Flags()
	f.StringVar(&deployName, "name", "", "collection name")
	f.StringVar(&deploySymbol, "symbol", "", "collection symbol")
	f.StringVar(&deployBaseURI, "base-uri", "", "base token URI")
	f.BoolVar(&factoryUse, "use", false, "make the new collection the default contract")
	_ = deployCmd.MarkFlagRequired("name")
	_ = deployCmd.MarkFlagRequired("symbol")
}
