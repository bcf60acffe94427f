// Package sync mirrors the factory's collection index into the local
// collection registry.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/nftctl/internal/contract"
)

// maxInFlight caps concurrent getCollectionInfo calls.
const maxInFlight = 8

// Result summarises one sync run.
type Result struct {
	Total   int // collections in the factory index
	Added   int
	Skipped int // already in the registry
	Failed  int // info lookup failed; added under their address
}

// Syncer copies factory collections into a registry for one network.
type Syncer struct {
	factory *contract.Factory
	reg     *contract.Registry
	network string
	logger  *slog.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Syncer) { s.logger = l }
}

// New creates a Syncer storing entries under network.
func New(factory *contract.Factory, reg *contract.Registry, network string, opts ...Option) *Syncer {
	s := &Syncer{factory: factory, reg: reg, network: network, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run fetches the factory index and adds every collection the registry does
// not know yet, then saves the registry.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	addrs, err := s.factory.AllDeployedCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing factory collections: %w", err)
	}
	res := &Result{Total: len(addrs)}

	var todo []common.Address
	for _, a := range addrs {
		if _, err := s.reg.FindByAddress(a.Hex(), s.network); err == nil {
			res.Skipped++
			continue
		}
		todo = append(todo, a)
	}

	infos := make([]*contract.FactoryCollection, len(todo))
	var g errgroup.Group
	g.SetLimit(maxInFlight)
	for i, a := range todo {
		g.Go(func() error {
			info, err := s.factory.CollectionInfo(ctx, a)
			if err != nil {
				s.logger.Warn("could not read collection info", "collection", a.Hex(), "err", err)
				return nil
			}
			infos[i] = info
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	for i, a := range todo {
		entry := &contract.CollectionEntry{
			Network: s.network,
			Address: a.Hex(),
			Source:  contract.SourceFactory,
		}
		if info := infos[i]; info != nil {
			entry.Name = s.uniqueName(info.Name, a)
			entry.Symbol = info.Symbol
			entry.Owner = info.Owner.Hex()
		} else {
			entry.Name = a.Hex()
			res.Failed++
		}
		if err := s.reg.Add(entry); err != nil {
			return res, err
		}
		res.Added++
	}

	if err := s.reg.Save(); err != nil {
		return res, fmt.Errorf("saving collections: %w", err)
	}
	s.logger.Debug("factory sync finished", "network", s.network, "total", res.Total, "added", res.Added)
	return res, nil
}

// Watch runs Syncer.Run on a ticker until ctx is cancelled.
func (s *Syncer) Watch(ctx context.Context, interval time.Duration) error {
	if _, err := s.Run(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Run(ctx); err != nil {
				s.logger.Warn("factory sync failed", "err", err)
			}
		}
	}
}

// uniqueName returns name, or name suffixed with the address prefix when
// another collection already uses it on this network.
func (s *Syncer) uniqueName(name string, addr common.Address) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return addr.Hex()
	}
	if _, err := s.reg.Get(name, s.network); err != nil {
		return name
	}
	return fmt.Sprintf("%s-%s", name, strings.ToLower(addr.Hex()[2:8]))
}
