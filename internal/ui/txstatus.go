package ui

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mohsinsiddi/nftctl/internal/chain"
	"github.com/Mohsinsiddi/nftctl/internal/deploy"
	"github.com/Mohsinsiddi/nftctl/internal/txn"
)

// TxStateMsg carries a new transaction state into the status view.
type TxStateMsg txn.State

type txDoneMsg struct{}

type txTickMsg struct{}

func txTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg { return txTickMsg{} })
}

// TxStatusModel shows the progress of one write until it finishes.
type TxStatusModel struct {
	op      string
	network chain.Network
	state   txn.State
	frame   int
	done    bool
}

// NewTxStatusModel creates a status view for op on network.
func NewTxStatusModel(op string, network chain.Network) TxStatusModel {
	return TxStatusModel{op: op, network: network}
}

// State returns the last state the view received.
func (m TxStatusModel) State() txn.State { return m.state }

func (m TxStatusModel) Init() tea.Cmd { return txTick() }

func (m TxStatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TxStateMsg:
		// The auto-reset to idle arrives after the result is on screen.
		if msg.Status != txn.StatusIdle {
			m.state = txn.State(msg)
		}
	case txDoneMsg:
		m.done = true
		return m, tea.Quit
	case txTickMsg:
		if m.done {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, txTick()
	}
	return m, nil
}

func (m TxStatusModel) View() string {
	return RenderTxState(m.op, m.network, m.state, StyleChain.Render(spinnerFrames[m.frame])) + "\n"
}

// RenderTxState formats one transaction state as a status line.
func RenderTxState(op string, n chain.Network, s txn.State, spin string) string {
	switch s.Status {
	case txn.StatusPending:
		return fmt.Sprintf("%s %s", spin, StyleWarning.Render(op+": simulating and signing…"))
	case txn.StatusConfirming:
		return fmt.Sprintf("%s %s %s", spin, StyleWarning.Render(op+": waiting for confirmation"), Addr(s.Hash.Hex()))
	case txn.StatusSuccess:
		line := Success(op + " confirmed")
		if url := n.TxURL(s.Hash.Hex()); url != "" {
			line += "  " + Meta(url)
		}
		return line
	case txn.StatusError:
		msg := op + " failed"
		if s.Err != nil {
			msg += ": " + s.Err.Error()
		}
		return Err(msg)
	}
	return Meta(op + ": idle")
}

// RunTxStatus runs write while showing the machine's states on out. Plain
// output prints one line per state instead of redrawing.
func RunTxStatus(m *txn.Machine, op string, network chain.Network, plain bool, out io.Writer, write func() error) error {
	if plain {
		unsubscribe := m.Subscribe(func(s txn.State) {
			if s.Status != txn.StatusIdle {
				fmt.Fprintln(out, RenderTxState(op, network, s, "·"))
			}
		})
		defer unsubscribe()
		return write()
	}

	p := tea.NewProgram(NewTxStatusModel(op, network), tea.WithOutput(out), tea.WithInput(nil))
	unsubscribe := m.Subscribe(func(s txn.State) { p.Send(TxStateMsg(s)) })
	defer unsubscribe()

	errc := make(chan error, 1)
	go func() {
		errc <- write()
		p.Send(txDoneMsg{})
	}()
	if _, err := p.Run(); err != nil {
		// The terminal view failed; the write itself still completes.
		werr := <-errc
		if werr != nil {
			return werr
		}
		return fmt.Errorf("status view: %w", err)
	}
	return <-errc
}

// RenderDeployStage formats one deployment stage as a status line.
func RenderDeployStage(s deploy.Status) string {
	switch s.Stage {
	case deploy.StageDeploying:
		line := Info("deploying collection contract…")
		if s.Output != "" {
			line += "  " + Meta(firstLine(s.Output))
		}
		return line
	case deploy.StageActivating, deploy.StageInitializing, deploy.StageRegistering:
		line := Info(s.Stage.String())
		if s.Output != "" {
			line += "  " + Meta(firstLine(s.Output))
		}
		return line
	case deploy.StageSuccess:
		if s.Result != nil {
			return Success("collection deployed at " + s.Result.CollectionAddress)
		}
		return Success("collection deployed")
	case deploy.StageError:
		if s.Err != nil {
			return Err("deployment failed: " + s.Err.Error())
		}
		return Err("deployment failed")
	}
	return ""
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
