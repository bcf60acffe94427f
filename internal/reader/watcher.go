package reader

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Watcher keeps the collection view and per-account balances of one
// collection and reloads them when a transaction changes chain state.
type Watcher struct {
	reader  *Reader
	address string

	collection Slot[CollectionInfo]

	mu       sync.Mutex
	balances map[common.Address]*Slot[BalanceInfo]
}

// NewWatcher creates a Watcher for the collection at address.
func NewWatcher(r *Reader, address string) *Watcher {
	return &Watcher{
		reader:   r,
		address:  address,
		balances: make(map[common.Address]*Slot[BalanceInfo]),
	}
}

// LoadCollection reloads the collection view.
func (w *Watcher) LoadCollection(ctx context.Context) Snapshot[CollectionInfo] {
	return w.collection.Load(ctx, func(ctx context.Context) (*CollectionInfo, error) {
		return w.reader.FetchCollectionInfo(ctx, w.address)
	})
}

// Collection returns the last collection view.
func (w *Watcher) Collection() Snapshot[CollectionInfo] { return w.collection.Get() }

// LoadBalance reloads account's balance.
func (w *Watcher) LoadBalance(ctx context.Context, account common.Address) Snapshot[BalanceInfo] {
	return w.balanceSlot(account).Load(ctx, func(ctx context.Context) (*BalanceInfo, error) {
		return w.reader.FetchBalance(ctx, w.address, account.Hex())
	})
}

// Balance returns the last balance read for account.
func (w *Watcher) Balance(account common.Address) Snapshot[BalanceInfo] {
	return w.balanceSlot(account).Get()
}

// Refresh reloads the collection view when collection is set and the
// balances of accounts, concurrently, and waits for all of them.
func (w *Watcher) Refresh(ctx context.Context, collection bool, accounts ...common.Address) {
	var wg sync.WaitGroup
	if collection {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s := w.LoadCollection(ctx); s.Err != nil {
				w.reader.logger.Debug("collection refresh failed", "collection", w.address, "err", s.Err)
			}
		}()
	}
	seen := make(map[common.Address]bool, len(accounts))
	for _, a := range accounts {
		if a == (common.Address{}) || seen[a] {
			continue
		}
		seen[a] = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s := w.LoadBalance(ctx, a); s.Err != nil {
				w.reader.logger.Debug("balance refresh failed", "account", a.Hex(), "err", s.Err)
			}
		}()
	}
	wg.Wait()
}

func (w *Watcher) balanceSlot(account common.Address) *Slot[BalanceInfo] {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.balances[account]
	if !ok {
		s = &Slot[BalanceInfo]{}
		w.balances[account] = s
	}
	return s
}
