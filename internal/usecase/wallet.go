package usecase

import (
	"context"
	"sync"
	"time"

	"seedrush/internal/metrics"
	"seedrush/internal/registry"
)

// WalletController drives the user-initiated wallet operations. Neither
// operation is retried automatically; retry is always a new explicit user
// action.
type WalletController struct {
	Gateway        walletGateway
	Cache          *registry.WalletCache
	ControlTimeout time.Duration
	ErrorTTL       time.Duration
	Now            func() time.Time

	mu   sync.Mutex
	note transientNote
}

type walletGateway interface {
	SyncWallet(ctx context.Context) error
	RequestFunds(ctx context.Context, amount uint64) error
}

// RefreshBalance issues a wallet sync and then fetches the wallet state,
// strictly in that order: the fetched balance must reflect the completed
// sync.
func (c *WalletController) RefreshBalance(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.controlTimeout())
	defer cancel()

	if err := c.Gateway.SyncWallet(reqCtx); err != nil {
		err = wrapRemote(err)
		c.setError(err)
		metrics.WorkflowOpsTotal.WithLabelValues("wallet", "refresh", "error").Inc()
		return err
	}
	if err := c.Cache.Refresh(reqCtx); err != nil {
		err = wrapRemote(err)
		c.setError(err)
		metrics.WorkflowOpsTotal.WithLabelValues("wallet", "refresh", "error").Inc()
		return err
	}
	metrics.WorkflowOpsTotal.WithLabelValues("wallet", "refresh", "ok").Inc()
	return nil
}

// RequestFunds asks the engine to top up the wallet. The cached balance is
// deliberately not touched here: the wallet-updated push drives the next
// refresh, decoupling "funds were requested" from "balance changed".
func (c *WalletController) RequestFunds(ctx context.Context, amount int64) error {
	if amount <= 0 {
		err := invalid("amount must be a positive integer of satoshis")
		c.setError(err)
		metrics.WorkflowOpsTotal.WithLabelValues("wallet", "requestFunds", "invalid").Inc()
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.controlTimeout())
	defer cancel()
	if err := c.Gateway.RequestFunds(reqCtx, uint64(amount)); err != nil {
		err = wrapRemote(err)
		c.setError(err)
		metrics.WorkflowOpsTotal.WithLabelValues("wallet", "requestFunds", "error").Inc()
		return err
	}
	metrics.WorkflowOpsTotal.WithLabelValues("wallet", "requestFunds", "ok").Inc()
	return nil
}

func (c *WalletController) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.note.get(c.now())
}

func (c *WalletController) setError(err error) {
	c.mu.Lock()
	c.note.set(err.Error(), c.now(), c.ErrorTTL)
	c.mu.Unlock()
}

func (c *WalletController) controlTimeout() time.Duration {
	if c.ControlTimeout > 0 {
		return c.ControlTimeout
	}
	return defaultControlTimeout
}

func (c *WalletController) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
