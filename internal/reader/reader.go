// Package reader aggregates read-only collection calls into the views the CLI
// renders.
package reader

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/Mohsinsiddi/nftctl/internal/contract"
)

// CollectionInfo is the collection-wide view.
type CollectionInfo struct {
	Address     common.Address
	Name        string
	Symbol      string
	BaseURI     string
	TotalSupply *big.Int
	Owner       common.Address
	Paused      *bool // nil when the contract does not answer paused()
}

// NFTInfo describes one token. Approved is nil when getApproved failed.
type NFTInfo struct {
	TokenID  *big.Int
	Owner    common.Address
	TokenURI string
	Approved *common.Address
}

// BalanceInfo is the number of tokens an account holds.
type BalanceInfo struct {
	Account common.Address
	Balance *big.Int
}

// Reader issues read-only calls against collection contracts.
type Reader struct {
	caller contract.Caller
	logger *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) { r.logger = l }
}

// New creates a Reader over caller.
func New(caller contract.Caller, opts ...Option) *Reader {
	r := &Reader{caller: caller, logger: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// FetchCollectionInfo reads name, symbol, base URI, supply, owner and the
// pause flag concurrently. It returns once every call has finished; the first
// failing required call fails the whole result.
func (r *Reader) FetchCollectionInfo(ctx context.Context, addr string) (*CollectionInfo, error) {
	address, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	c := contract.NewCollection(address, r.caller)
	info := &CollectionInfo{Address: address}

	var g errgroup.Group
	g.Go(func() (err error) { info.Name, err = c.Name(ctx); return })
	g.Go(func() (err error) { info.Symbol, err = c.Symbol(ctx); return })
	g.Go(func() (err error) { info.BaseURI, err = c.BaseURI(ctx); return })
	g.Go(func() (err error) { info.TotalSupply, err = c.TotalSupply(ctx); return })
	g.Go(func() (err error) { info.Owner, err = c.Owner(ctx); return })
	g.Go(func() error {
		paused, err := c.Paused(ctx)
		if err != nil {
			r.logger.Debug("paused() unavailable", "collection", address.Hex(), "err", err)
			return nil
		}
		info.Paused = &paused
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reading collection %s: %w", address.Hex(), err)
	}
	return info, nil
}

// FetchNFTInfo reads owner, token URI and approval for tokenID concurrently.
func (r *Reader) FetchNFTInfo(ctx context.Context, addr string, tokenID *big.Int) (*NFTInfo, error) {
	address, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	if tokenID == nil || tokenID.Sign() < 0 {
		return nil, ErrInvalidTokenID
	}
	c := contract.NewCollection(address, r.caller)
	info := &NFTInfo{TokenID: new(big.Int).Set(tokenID)}

	var g errgroup.Group
	g.Go(func() (err error) { info.Owner, err = c.OwnerOf(ctx, tokenID); return })
	g.Go(func() (err error) { info.TokenURI, err = c.TokenURI(ctx, tokenID); return })
	g.Go(func() error {
		approved, err := c.GetApproved(ctx, tokenID)
		if err != nil {
			r.logger.Debug("getApproved failed", "token", tokenID, "err", err)
			return nil
		}
		info.Approved = &approved
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reading token %s: %w", tokenID, err)
	}
	return info, nil
}

// FetchBalance reads balanceOf(account).
func (r *Reader) FetchBalance(ctx context.Context, addr, account string) (*BalanceInfo, error) {
	address, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	holder, err := ParseAddress(account)
	if err != nil {
		return nil, err
	}
	bal, err := contract.NewCollection(address, r.caller).BalanceOf(ctx, holder)
	if err != nil {
		return nil, fmt.Errorf("reading balance of %s: %w", holder.Hex(), err)
	}
	return &BalanceInfo{Account: holder, Balance: bal}, nil
}

// IsApprovedForAll reports whether operator may move all of owner's tokens.
func (r *Reader) IsApprovedForAll(ctx context.Context, addr, owner, operator string) (bool, error) {
	address, err := ParseAddress(addr)
	if err != nil {
		return false, err
	}
	o, err := ParseAddress(owner)
	if err != nil {
		return false, err
	}
	op, err := ParseAddress(operator)
	if err != nil {
		return false, err
	}
	ok, err := contract.NewCollection(address, r.caller).IsApprovedForAll(ctx, o, op)
	if err != nil {
		return false, fmt.Errorf("reading operator approval: %w", err)
	}
	return ok, nil
}

// ParseAddress validates a hex address.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return common.Address{}, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}
