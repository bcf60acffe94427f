package cmd

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/nftctl/internal/chain"
	"github.com/Mohsinsiddi/nftctl/internal/config"
	"github.com/Mohsinsiddi/nftctl/internal/reader"
)

const catsAddr = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

// runCLI executes the root command in-process against a config dir.
func runCLI(t *testing.T, dir string, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(append([]string{"--config", dir, "--plain"}, args...))
	return rootCmd.Execute()
}

func loadConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	c, err := config.Load(dir)
	require.NoError(t, err)
	return c
}

func TestParseTokenID(t *testing.T) {
	id, err := parseTokenID("42")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), id)

	id, err = parseTokenID("0x10")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(16), id)

	for _, bad := range []string{"-1", "abc", ""} {
		_, err := parseTokenID(bad)
		assert.ErrorIs(t, err, reader.ErrInvalidTokenID, bad)
	}
}

func TestRPCURLs(t *testing.T) {
	n, err := chain.Lookup("arbitrum-sepolia")
	require.NoError(t, err)

	cfg = &config.Config{CustomRPCs: map[string][]string{"arbitrum-sepolia": {"http://custom"}}}
	urls := rpcURLs(n)
	require.NotEmpty(t, urls)
	assert.Equal(t, "http://custom", urls[0])
	assert.Equal(t, n.RPCs(), urls[1:])

	cfg = &config.Config{RPCURL: "http://override", CustomRPCs: map[string][]string{"arbitrum-sepolia": {"http://custom"}}}
	assert.Equal(t, []string{"http://override"}, rpcURLs(n))
}

func TestConfigSet(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runCLI(t, dir, "config", "set", "factory_address", catsAddr))
	assert.Equal(t, catsAddr, loadConfig(t, dir).FactoryAddress)

	require.NoError(t, runCLI(t, dir, "config", "set", "deployment_api_url", "https://deploy.example/"))
	assert.Equal(t, "https://deploy.example", loadConfig(t, dir).DeploymentAPIURL)

	assert.Error(t, runCLI(t, dir, "config", "set", "factory_address", "0x123"))
	assert.Error(t, runCLI(t, dir, "config", "set", "rpc_algorithm", "random"))
	assert.Error(t, runCLI(t, dir, "config", "set", "colour", "blue"))
}

func TestNetworkUse(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runCLI(t, dir, "network", "use", "superposition"))
	assert.Equal(t, "superposition", loadConfig(t, dir).DefaultNetwork)

	assert.Error(t, runCLI(t, dir, "network", "use", "ethereum"))
	assert.Equal(t, "superposition", loadConfig(t, dir).DefaultNetwork)
}

func TestNetworkRPCAddRemove(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runCLI(t, dir, "network", "rpc", "add", "arbitrum", "https://rpc.example"))
	assert.Equal(t, []string{"https://rpc.example"}, loadConfig(t, dir).GetRPCs("arbitrum"))

	assert.Error(t, runCLI(t, dir, "network", "rpc", "add", "arbitrum", "https://rpc.example"))

	require.NoError(t, runCLI(t, dir, "network", "rpc", "remove", "arbitrum", "https://rpc.example"))
	assert.Empty(t, loadConfig(t, dir).GetRPCs("arbitrum"))
}

func TestCollectionAddUseRemove(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runCLI(t, dir, "collection", "add", "cats", catsAddr))
	require.NoError(t, runCLI(t, dir, "collection", "list"))
	require.NoError(t, runCLI(t, dir, "collection", "use", "cats"))
	assert.Equal(t, common.HexToAddress(catsAddr).Hex(), loadConfig(t, dir).ContractAddress)

	assert.Error(t, runCLI(t, dir, "collection", "add", "dogs", "0xnope"))

	require.NoError(t, runCLI(t, dir, "collection", "remove", "cats"))
	assert.Error(t, runCLI(t, dir, "collection", "use", "cats"))
}

func TestCollectionInfoWithoutContract(t *testing.T) {
	t.Setenv("NFTCTL_CONTRACT_ADDRESS", "")
	dir := t.TempDir()

	// Not deployed yet is a state, not a failure.
	assert.NoError(t, runCLI(t, dir, "collection", "info"))
}

func TestFactoryCommandsNeedFactory(t *testing.T) {
	t.Setenv("NFTCTL_FACTORY_ADDRESS", "")
	dir := t.TempDir()

	assert.Error(t, runCLI(t, dir, "factory", "list"))
	assert.Error(t, runCLI(t, dir, "factory", "register", catsAddr))
}

func TestPausedLabel(t *testing.T) {
	yes, no := true, false
	assert.Equal(t, "unknown", pausedLabel(nil))
	assert.Equal(t, "yes", pausedLabel(&yes))
	assert.Equal(t, "no", pausedLabel(&no))
}

func TestRefreshedLinesPreferLatestError(t *testing.T) {
	stale := &reader.CollectionInfo{TotalSupply: big.NewInt(7), Owner: common.HexToAddress(catsAddr)}

	line := collectionLine(reader.Snapshot[reader.CollectionInfo]{Data: stale})
	assert.Contains(t, line, "total supply 7")

	line = collectionLine(reader.Snapshot[reader.CollectionInfo]{Data: stale, Err: errors.New("rpc down")})
	assert.Contains(t, line, "rpc down")
	assert.NotContains(t, line, "total supply 7")

	assert.Empty(t, collectionLine(reader.Snapshot[reader.CollectionInfo]{}))

	who := common.HexToAddress(catsAddr)
	bal := &reader.BalanceInfo{Account: who, Balance: big.NewInt(3)}
	assert.Contains(t, balanceLine(who, reader.Snapshot[reader.BalanceInfo]{Data: bal}), "holds 3")

	line = balanceLine(who, reader.Snapshot[reader.BalanceInfo]{Data: bal, Err: errors.New("timeout")})
	assert.Contains(t, line, "timeout")
	assert.NotContains(t, line, "holds 3")
}
