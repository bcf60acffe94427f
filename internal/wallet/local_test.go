package wallet_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/nftctl/internal/chain"
	"github.com/Mohsinsiddi/nftctl/internal/config"
	"github.com/Mohsinsiddi/nftctl/internal/wallet"
)

func localProvider(t *testing.T, approve wallet.Approver) (*wallet.LocalProvider, *config.Config) {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	return wallet.NewLocalProvider(cfg, chain.NewRegistry(), approve), cfg
}

func TestLocalProviderStartsWithoutChain(t *testing.T) {
	p, _ := localProvider(t, nil)
	id, err := p.ChainID(context.Background())
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestLocalProviderSwitchBuiltIn(t *testing.T) {
	p, cfg := localProvider(t, nil)

	require.NoError(t, wallet.EnsureChain(context.Background(), p, network(t, "arbitrum-sepolia"), nil))
	assert.Equal(t, int64(421614), cfg.ActiveChainID)

	reloaded, err := config.Load(cfg.Dir())
	require.NoError(t, err)
	assert.Equal(t, int64(421614), reloaded.ActiveChainID)
}

func TestLocalProviderCustomChainNeedsAdd(t *testing.T) {
	p, cfg := localProvider(t, nil)

	err := p.SwitchChain(context.Background(), 55244)
	assert.ErrorIs(t, err, wallet.ErrUnrecognizedChain)

	require.NoError(t, wallet.EnsureChain(context.Background(), p, network(t, "superposition"), nil))
	assert.Equal(t, int64(55244), cfg.ActiveChainID)
	assert.True(t, cfg.KnowsChain(55244))

	// known now, so a later switch goes straight through
	require.NoError(t, wallet.EnsureChain(context.Background(), p, network(t, "arbitrum"), nil))
	require.NoError(t, wallet.EnsureChain(context.Background(), p, network(t, "superposition"), nil))
	assert.Equal(t, []int64{55244}, cfg.KnownChains)
}

func TestLocalProviderDeclined(t *testing.T) {
	var prompts []string
	p, cfg := localProvider(t, func(prompt string) bool {
		prompts = append(prompts, prompt)
		return false
	})

	err := wallet.EnsureChain(context.Background(), p, network(t, "arbitrum"), nil)
	assert.ErrorIs(t, err, wallet.ErrChainSwitchRejected)
	assert.Zero(t, cfg.ActiveChainID)
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Arbitrum One")
}

func TestLocalProviderAddDeclined(t *testing.T) {
	p, cfg := localProvider(t, func(prompt string) bool { return false })

	err := wallet.EnsureChain(context.Background(), p, network(t, "superposition-testnet"), nil)
	assert.ErrorIs(t, err, wallet.ErrChainSwitchRejected)
	assert.Empty(t, cfg.KnownChains)
}
