package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Mohsinsiddi/nftctl/internal/chain"
)

// EnsureChain puts the provider on target. It does nothing when the wallet
// is already there. A chain the wallet does not recognise is added once and
// switched to again; a second failure is final. A nil logger logs to
// slog.Default().
func EnsureChain(ctx context.Context, p Provider, target chain.Network, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	current, err := p.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("%w: reading current chain: %w", ErrChainSwitchFailed, err)
	}
	if current == target.ChainID {
		return nil
	}

	logger.Debug("switching wallet network", "from", current, "to", target.ChainID)
	err = p.SwitchChain(ctx, target.ChainID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUnrecognizedChain) {
		return switchError(target, err)
	}

	logger.Debug("wallet does not know network, adding it", "network", target.Name)
	if err := p.AddChain(ctx, AddChainParamsFor(target)); err != nil {
		return switchError(target, err)
	}
	if err := p.SwitchChain(ctx, target.ChainID); err != nil {
		return switchError(target, err)
	}
	return nil
}

func switchError(target chain.Network, err error) error {
	if errors.Is(err, ErrUserRejected) {
		return fmt.Errorf("%w: switch to %s declined", ErrChainSwitchRejected, target.DisplayName)
	}
	return fmt.Errorf("%w: %s: %w", ErrChainSwitchFailed, target.DisplayName, err)
}
