package syncer

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"seedrush/internal/domain/ports"
	"seedrush/internal/metrics"
)

const (
	ChannelContentUpdated = "content-updated"
	ChannelWalletUpdated  = "wallet-updated"
)

// Refresher is the slice of the registry/cache surface the synchronizer
// drives.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Synchronizer owns the push-channel subscription lifecycle. Pushes carry no
// trusted payload: each one triggers a full pull refresh of the matching
// cache, so rapid bursts collapse into one consistent reconciliation instead
// of out-of-order partial merges. Collapsing keeps the trailing edge: the
// last push of a burst always leaves a queued refresh behind, so the final
// state change is reconciled even when the limiter is exhausted.
type Synchronizer struct {
	Events   ports.Events
	Registry Refresher
	Wallet   Refresher
	Logger   *slog.Logger
	// Limiter paces refreshes during push bursts. Nil disables pacing.
	Limiter *rate.Limiter

	mu      sync.Mutex
	alive   bool
	cancel  context.CancelFunc
	pending map[string]chan struct{}
}

// Start subscribes both push channels and issues the one cold-start wallet
// refresh. Registry population is left to the first content-updated push or
// an explicit caller-driven refresh.
func (s *Synchronizer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.alive = true
	s.cancel = cancel
	s.pending = map[string]chan struct{}{
		ChannelContentUpdated: make(chan struct{}, 1),
		ChannelWalletUpdated:  make(chan struct{}, 1),
	}
	s.mu.Unlock()

	go s.pump(ctx, ChannelContentUpdated, s.Registry, "sessions")
	go s.pump(ctx, ChannelWalletUpdated, s.Wallet, "wallet")

	s.Events.On(ChannelContentUpdated, func() { s.onPush(ChannelContentUpdated) })
	s.Events.On(ChannelWalletUpdated, func() { s.onPush(ChannelWalletUpdated) })

	go s.refresh(ctx, s.Wallet, "wallet")
}

// Stop clears the liveness flag, stops the refresh pumps and unsubscribes
// exactly the channels Start subscribed. Any callback delivered after Stop
// is a no-op.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	s.alive = false
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	s.Events.Off(ChannelContentUpdated)
	s.Events.Off(ChannelWalletUpdated)
}

// onPush queues a refresh for the channel. The queue holds at most one
// signal, so a burst folds into the refresh already waiting instead of
// fanning out.
func (s *Synchronizer) onPush(channel string) {
	s.mu.Lock()
	alive := s.alive
	ch := s.pending[channel]
	s.mu.Unlock()
	if !alive || ch == nil {
		return
	}

	metrics.PushEventsTotal.WithLabelValues(channel).Inc()

	select {
	case ch <- struct{}{}:
	default:
		metrics.PushEventsCoalesced.WithLabelValues(channel).Inc()
		s.Logger.Debug("push folded into queued refresh", slog.String("channel", channel))
	}
}

// pump serializes refreshes for one channel: drain the queued signal, wait
// for a limiter token, refresh. Pushes arriving mid-refresh or mid-wait set
// the signal again, so exactly one follow-up refresh covers them.
func (s *Synchronizer) pump(ctx context.Context, channel string, target Refresher, name string) {
	s.mu.Lock()
	ch := s.pending[channel]
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
		}
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				return
			}
		}
		s.refresh(ctx, target, name)
	}
}

// refresh pulls a full snapshot. Background refresh failures are expected
// and non-fatal: they are logged and swallowed, never surfaced into an
// in-progress workflow.
func (s *Synchronizer) refresh(ctx context.Context, target Refresher, name string) {
	s.mu.Lock()
	alive := s.alive
	s.mu.Unlock()
	if !alive || target == nil {
		return
	}

	if err := target.Refresh(ctx); err != nil {
		metrics.RefreshTotal.WithLabelValues(name, "error").Inc()
		s.Logger.Warn("background refresh failed",
			slog.String("target", name),
			slog.String("error", err.Error()))
		return
	}
	metrics.RefreshTotal.WithLabelValues(name, "ok").Inc()
}
