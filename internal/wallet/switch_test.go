package wallet_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/nftctl/internal/chain"
	"github.com/Mohsinsiddi/nftctl/internal/wallet"
)

// fakeProvider records every call. switchErrs is consumed one entry per
// SwitchChain call; once empty, switching succeeds.
type fakeProvider struct {
	chainID    int64
	chainErr   error
	switchErrs []error
	addErr     error

	switches []int64
	adds     []wallet.AddChainParams
}

func (p *fakeProvider) ChainID(context.Context) (int64, error) {
	return p.chainID, p.chainErr
}

func (p *fakeProvider) SwitchChain(_ context.Context, id int64) error {
	p.switches = append(p.switches, id)
	if len(p.switchErrs) > 0 {
		err := p.switchErrs[0]
		p.switchErrs = p.switchErrs[1:]
		if err != nil {
			return err
		}
	}
	p.chainID = id
	return nil
}

func (p *fakeProvider) AddChain(_ context.Context, params wallet.AddChainParams) error {
	p.adds = append(p.adds, params)
	return p.addErr
}

var (
	unrecognized = &wallet.ProviderError{Code: wallet.CodeUnrecognizedChain, Message: "Unrecognized chain ID"}
	rejected     = &wallet.ProviderError{Code: wallet.CodeUserRejected, Message: "User rejected the request."}
)

func network(t *testing.T, name string) chain.Network {
	t.Helper()
	n, err := chain.Lookup(name)
	require.NoError(t, err)
	return n
}

func TestEnsureChainAlreadyThere(t *testing.T) {
	target := network(t, "arbitrum-sepolia")
	p := &fakeProvider{chainID: target.ChainID}

	require.NoError(t, wallet.EnsureChain(context.Background(), p, target, nil))
	require.NoError(t, wallet.EnsureChain(context.Background(), p, target, nil))
	assert.Empty(t, p.switches)
	assert.Empty(t, p.adds)
}

func TestEnsureChainSwitches(t *testing.T) {
	target := network(t, "arbitrum")
	p := &fakeProvider{chainID: 421614}

	require.NoError(t, wallet.EnsureChain(context.Background(), p, target, nil))
	assert.Equal(t, []int64{42161}, p.switches)
	assert.Empty(t, p.adds)
	assert.Equal(t, int64(42161), p.chainID)
}

func TestEnsureChainAddsUnknownChainOnce(t *testing.T) {
	target := network(t, "superposition")
	p := &fakeProvider{chainID: 42161, switchErrs: []error{unrecognized}}

	require.NoError(t, wallet.EnsureChain(context.Background(), p, target, nil))
	assert.Equal(t, []int64{55244, 55244}, p.switches)
	require.Len(t, p.adds, 1)
	assert.Equal(t, "0xd7cc", p.adds[0].ChainID)
	assert.Equal(t, target.DisplayName, p.adds[0].ChainName)
	assert.Equal(t, target.RPCs(), p.adds[0].RPCURLs)
	assert.Equal(t, "SPN", p.adds[0].NativeCurrency.Symbol)
}

func TestEnsureChainSecondUnrecognizedIsFinal(t *testing.T) {
	target := network(t, "superposition")
	p := &fakeProvider{chainID: 42161, switchErrs: []error{unrecognized, unrecognized, unrecognized}}

	err := wallet.EnsureChain(context.Background(), p, target, nil)
	assert.ErrorIs(t, err, wallet.ErrChainSwitchFailed)
	assert.Len(t, p.adds, 1)
	assert.Len(t, p.switches, 2)
}

func TestEnsureChainUserRejectedSwitch(t *testing.T) {
	target := network(t, "arbitrum")
	p := &fakeProvider{chainID: 421614, switchErrs: []error{rejected}}

	err := wallet.EnsureChain(context.Background(), p, target, nil)
	assert.ErrorIs(t, err, wallet.ErrChainSwitchRejected)
	assert.NotErrorIs(t, err, wallet.ErrChainSwitchFailed)
	assert.Len(t, p.switches, 1)
	assert.Empty(t, p.adds)
}

func TestEnsureChainUserRejectedAdd(t *testing.T) {
	target := network(t, "superposition-testnet")
	p := &fakeProvider{chainID: 42161, switchErrs: []error{unrecognized}, addErr: rejected}

	err := wallet.EnsureChain(context.Background(), p, target, nil)
	assert.ErrorIs(t, err, wallet.ErrChainSwitchRejected)
	assert.Len(t, p.switches, 1)
	assert.Len(t, p.adds, 1)
}

func TestEnsureChainOtherFailure(t *testing.T) {
	target := network(t, "arbitrum")
	boom := errors.New("wallet disconnected")
	p := &fakeProvider{chainID: 421614, switchErrs: []error{boom}}

	err := wallet.EnsureChain(context.Background(), p, target, nil)
	assert.ErrorIs(t, err, wallet.ErrChainSwitchFailed)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, p.adds)
}

func TestEnsureChainReadFailure(t *testing.T) {
	boom := errors.New("no wallet")
	p := &fakeProvider{chainErr: boom}

	err := wallet.EnsureChain(context.Background(), p, network(t, "arbitrum"), nil)
	assert.ErrorIs(t, err, wallet.ErrChainSwitchFailed)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, p.switches)
}

func TestProviderErrorMatching(t *testing.T) {
	assert.ErrorIs(t, rejected, wallet.ErrUserRejected)
	assert.NotErrorIs(t, rejected, wallet.ErrUnrecognizedChain)
	assert.ErrorIs(t, unrecognized, wallet.ErrUnrecognizedChain)
	assert.Contains(t, rejected.Error(), "4001")
}

func TestChainIDFromHex(t *testing.T) {
	id, err := wallet.ChainIDFromHex("0x66eee")
	require.NoError(t, err)
	assert.Equal(t, int64(421614), id)

	_, err = wallet.ChainIDFromHex("66eee")
	assert.Error(t, err)
}

func TestEnsureChainLogsToGivenLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := &fakeProvider{chainID: 42161, switchErrs: []error{unrecognized}}

	require.NoError(t, wallet.EnsureChain(context.Background(), p, network(t, "superposition"), logger))
	assert.Contains(t, buf.String(), "switching wallet network")
	assert.Contains(t, buf.String(), "network=superposition")
}
