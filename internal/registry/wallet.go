package registry

import (
	"context"
	"fmt"
	"sync"

	"seedrush/internal/domain"
	"seedrush/internal/domain/ports"
)

// WalletCache holds the last-known wallet state. Refreshed wholesale, never
// merged; on fetch failure the previous state is retained.
type WalletCache struct {
	gateway ports.Gateway

	mu       sync.RWMutex
	state    domain.WalletState
	onChange func()
}

func NewWalletCache(gateway ports.Gateway) *WalletCache {
	return &WalletCache{gateway: gateway}
}

// SetOnChange installs a hook invoked after every applied wallet state.
// Must be called before the cache is shared across goroutines.
func (w *WalletCache) SetOnChange(fn func()) {
	w.onChange = fn
}

func (w *WalletCache) Refresh(ctx context.Context) error {
	state, err := w.gateway.FetchWalletState(ctx)
	if err != nil {
		return fmt.Errorf("fetch wallet state: %w", err)
	}

	w.mu.Lock()
	w.state = state
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange()
	}
	return nil
}

func (w *WalletCache) State() domain.WalletState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}
