package wallet

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/nftctl/internal/chain"
	"github.com/Mohsinsiddi/nftctl/internal/config"
)

// Approver asks the user to confirm a wallet action.
type Approver func(prompt string) bool

// AutoApprove approves every request.
func AutoApprove(string) bool { return true }

// LocalProvider is the provider for keystore wallets. The active chain and
// the chains added by the user are kept in the config file; built-in
// networks that are not marked custom are known without adding.
type LocalProvider struct {
	cfg      *config.Config
	networks *chain.Registry
	approve  Approver
}

// NewLocalProvider creates a provider backed by cfg.
func NewLocalProvider(cfg *config.Config, networks *chain.Registry, approve Approver) *LocalProvider {
	if approve == nil {
		approve = AutoApprove
	}
	return &LocalProvider{cfg: cfg, networks: networks, approve: approve}
}

// ChainID returns the active chain, 0 when none has been selected yet.
func (p *LocalProvider) ChainID(context.Context) (int64, error) {
	return p.cfg.ActiveChainID, nil
}

// SwitchChain makes chainID active after approval.
func (p *LocalProvider) SwitchChain(_ context.Context, chainID int64) error {
	if !p.knows(chainID) {
		return &ProviderError{Code: CodeUnrecognizedChain, Message: fmt.Sprintf("unrecognized chain id %d", chainID)}
	}
	if !p.approve(fmt.Sprintf("Switch wallet network to %s?", p.label(chainID))) {
		return &ProviderError{Code: CodeUserRejected, Message: "user rejected the request"}
	}
	p.cfg.ActiveChainID = chainID
	if err := p.cfg.Save(); err != nil {
		return fmt.Errorf("saving active chain: %w", err)
	}
	return nil
}

// AddChain registers the chain after approval.
func (p *LocalProvider) AddChain(_ context.Context, params AddChainParams) error {
	id, err := ChainIDFromHex(params.ChainID)
	if err != nil {
		return &ProviderError{Code: -32602, Message: err.Error()}
	}
	if !p.approve(fmt.Sprintf("Allow nftctl to add %s (chain %d)?", params.ChainName, id)) {
		return &ProviderError{Code: CodeUserRejected, Message: "user rejected the request"}
	}
	p.cfg.AddKnownChain(id)
	if err := p.cfg.Save(); err != nil {
		return fmt.Errorf("saving known chains: %w", err)
	}
	return nil
}

func (p *LocalProvider) knows(id int64) bool {
	if p.cfg.KnowsChain(id) {
		return true
	}
	n, err := p.networks.GetByChainID(id)
	return err == nil && !n.Custom
}

func (p *LocalProvider) label(id int64) string {
	if n, err := p.networks.GetByChainID(id); err == nil {
		return n.DisplayName
	}
	return fmt.Sprintf("chain %d", id)
}
