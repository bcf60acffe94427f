package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/nftctl/internal/chain"
	"github.com/Mohsinsiddi/nftctl/internal/deploy"
	"github.com/Mohsinsiddi/nftctl/internal/txn"
)

func init() { SetPlain(true) }

func sepolia(t *testing.T) chain.Network {
	t.Helper()
	n, err := chain.Lookup("arbitrum-sepolia")
	require.NoError(t, err)
	return n
}

// ---------------------------------------------------------------------------
// formatters
// ---------------------------------------------------------------------------

func TestFormattersKeepMessage(t *testing.T) {
	formatters := map[string]func(string) string{
		"Success":   Success,
		"Warn":      Warn,
		"Err":       Err,
		"Info":      Info,
		"Hint":      Hint,
		"Addr":      Addr,
		"Val":       Val,
		"Meta":      Meta,
		"ChainName": ChainName,
	}
	for name, fn := range formatters {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, fn("test"), "test")
		})
	}
	assert.NotEqual(t, Info("x"), Hint("x"))
}

func TestTruncateAddr(t *testing.T) {
	assert.Equal(t, "0x1234", TruncateAddr("0x1234"))
	assert.Equal(t, "0x12345678", TruncateAddr("0x12345678"))
	assert.Equal(t, "0x1234…5678", TruncateAddr("0x1234567890abcdef1234567890abcdef12345678"))
	assert.Equal(t, "", TruncateAddr(""))
}

// ---------------------------------------------------------------------------
// Table / KeyValueBlock
// ---------------------------------------------------------------------------

func TestTableAutoWidth(t *testing.T) {
	tbl := NewTable(Column{Title: "NAME"}, Column{Title: "ADDRESS"})
	tbl.AddRow("Cats", "0x1111")
	tbl.AddRow("LongerName", "0x2")

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	require.Len(t, lines, 4)
	want := []string{
		"NAME       ADDRESS",
		"---------- -------",
		"Cats       0x1111",
		"LongerName 0x2",
	}
	for i, line := range lines {
		assert.Equal(t, want[i], strings.TrimRight(line, " "))
	}
}

func TestTableFixedWidthTruncates(t *testing.T) {
	tbl := NewTable(Column{Title: "N", Width: 5})
	tbl.AddRow("abcdefgh")
	tbl.AddRow()
	out := tbl.Render()
	assert.Contains(t, out, "abcd…")
	assert.NotContains(t, out, "abcde")
}

func TestFit(t *testing.T) {
	assert.Equal(t, "ab   ", fit("ab", 5))
	assert.Equal(t, "abcde", fit("abcde", 5))
	assert.Equal(t, "abcd…", fit("abcdefg", 5))
	assert.Equal(t, "a", fit("abc", 1))
}

func TestKeyValueBlock(t *testing.T) {
	out := KeyValueBlock("Collection", [][2]string{
		{"Name", "Cats"},
		{"Total supply", "3"},
	})
	assert.Contains(t, out, "Collection")
	assert.Contains(t, out, "Name:")
	assert.Contains(t, out, "Cats")
	assert.Contains(t, out, "Total supply:")
	assert.Less(t, strings.Index(out, "Name"), strings.Index(out, "Total supply"))
}

// ---------------------------------------------------------------------------
// Prompter
// ---------------------------------------------------------------------------

func TestPrompter(t *testing.T) {
	cases := map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false}
	for in, want := range cases {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader(in), &out)
		assert.Equal(t, want, p.Confirm("Switch network?"), "input %q", in)
		assert.Contains(t, out.String(), "Switch network? [y/N]")
	}
}

func TestPrompterAssumeYes(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("n\n"), &out)
	p.AssumeYes = true
	assert.True(t, p.ConfirmDanger("Remove wallet?"))
}

// ---------------------------------------------------------------------------
// Spinner
// ---------------------------------------------------------------------------

func TestSpinnerPlain(t *testing.T) {
	var out bytes.Buffer
	s := NewSpinner("loading").WithWriter(&out).Plain(true)
	s.Start()
	s.StopWithMsg("done")
	assert.Equal(t, "loading\ndone\n", out.String())
}

// ---------------------------------------------------------------------------
// Transaction status
// ---------------------------------------------------------------------------

func TestRenderTxState(t *testing.T) {
	n := sepolia(t)
	hash := common.HexToHash("0xabc")

	assert.Contains(t, RenderTxState("mint", n, txn.State{Status: txn.StatusPending}, "*"), "mint: simulating")
	confirming := RenderTxState("mint", n, txn.State{Status: txn.StatusConfirming, Hash: hash}, "*")
	assert.Contains(t, confirming, hash.Hex())

	success := RenderTxState("mint", n, txn.State{Status: txn.StatusSuccess, Hash: hash}, "*")
	assert.Contains(t, success, "mint confirmed")
	assert.Contains(t, success, "https://sepolia.arbiscan.io/tx/"+hash.Hex())

	failed := RenderTxState("burn", n, txn.State{Status: txn.StatusError, Err: errors.New("execution reverted: EnforcedPause()")}, "*")
	assert.Contains(t, failed, "burn failed: execution reverted: EnforcedPause()")
}

func TestTxStatusModelIgnoresReset(t *testing.T) {
	m := NewTxStatusModel("mint", sepolia(t))
	next, _ := m.Update(TxStateMsg{Status: txn.StatusSuccess})
	next, _ = next.Update(TxStateMsg{Status: txn.StatusIdle})
	assert.Equal(t, txn.StatusSuccess, next.(TxStatusModel).State().Status)

	_, cmd := next.Update(txDoneMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRunTxStatusPlain(t *testing.T) {
	m := txn.NewMachine(0)
	var out bytes.Buffer
	hash := common.HexToHash("0x01")

	err := RunTxStatus(m, "pause", sepolia(t), true, &out, func() error {
		require.NoError(t, m.Begin())
		_, err := m.Fire(txn.Submitted(hash))
		require.NoError(t, err)
		_, err = m.Fire(txn.Confirmed())
		return err
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "pause: simulating")
	assert.Contains(t, lines[1], "waiting for confirmation")
	assert.Contains(t, lines[2], "pause confirmed")
}

func TestRenderDeployStage(t *testing.T) {
	assert.Contains(t, RenderDeployStage(deploy.Status{Stage: deploy.StageDeploying}), "deploying")
	assert.Contains(t, RenderDeployStage(deploy.Status{Stage: deploy.StageDeploying, Output: "tx 0xabc\nmore"}), "tx 0xabc")
	assert.Contains(t, RenderDeployStage(deploy.Status{Stage: deploy.StageInitializing, Output: "init ok\nmore"}), "init ok")
	assert.NotContains(t, RenderDeployStage(deploy.Status{Stage: deploy.StageInitializing, Output: "init ok\nmore"}), "more")
	assert.Contains(t, RenderDeployStage(deploy.Status{
		Stage:  deploy.StageSuccess,
		Result: &deploy.Result{CollectionAddress: "0x1234"},
	}), "0x1234")
	assert.Contains(t, RenderDeployStage(deploy.Status{Stage: deploy.StageError, Err: errors.New("boom")}), "boom")
	assert.Empty(t, RenderDeployStage(deploy.Status{}))
}

// ---------------------------------------------------------------------------
// Picker
// ---------------------------------------------------------------------------

func TestPickerStartsOnCurrent(t *testing.T) {
	items := NetworkItems(chain.Networks())
	require.Len(t, items, 4)
	assert.Equal(t, "Arbitrum Sepolia", items[1].Label)
	assert.Contains(t, items[1].SubLabel, "testnet")

	m := newPicker("Network", items, "superposition")
	assert.Equal(t, 2, m.cursor)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := next.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	pm := next.(pickerModel)
	require.NotNil(t, pm.selected)
	assert.Equal(t, "superposition-testnet", pm.selected.Value)
	assert.Contains(t, m.View(), "Superposition Testnet")
}

func TestPickItemEmpty(t *testing.T) {
	_, err := PickItem("x", nil, "")
	assert.ErrorIs(t, err, ErrNothingToPick)
}
