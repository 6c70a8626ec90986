package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"seedrush/internal/domain"
	"seedrush/internal/domain/ports"
)

// Registry owns the authoritative in-memory view of the session set and the
// aggregate stats. All mutation is "replace the whole snapshot": both are
// fetched together and swapped atomically, so a reader never sees sessions
// from one snapshot with stats from another.
//
// Concurrent refreshes collapse into one gateway round trip, and every
// refresh draws a monotonic ticket before fetching; a snapshot is applied
// only if its ticket is newer than the applied version, so a slow response
// can never overwrite a newer one with stale data.
type Registry struct {
	gateway ports.Gateway

	group    singleflight.Group
	tickets  atomic.Uint64
	requests atomic.Uint64
	served   atomic.Uint64

	mu       sync.RWMutex
	version  uint64
	sessions []domain.Session
	stats    domain.AggregateStats

	onChange func()
}

func New(gateway ports.Gateway) *Registry {
	return &Registry{gateway: gateway}
}

// SetOnChange installs a hook invoked after every applied snapshot. Must be
// called before the registry is shared across goroutines.
func (r *Registry) SetOnChange(fn func()) {
	r.onChange = fn
}

// Refresh fetches the full session list and aggregate stats and atomically
// replaces the snapshot. On any fetch error the previous snapshot is
// retained. Calls arriving while a refresh is in flight share its result;
// when the shared fetch began before the call, one follow-up fetch runs so a
// state change announced mid-flight is never left unreconciled.
func (r *Registry) Refresh(ctx context.Context) error {
	seq := r.requests.Add(1)
	for {
		_, err, _ := r.group.Do("refresh", func() (any, error) {
			return nil, r.refresh(ctx)
		})
		if err != nil || r.served.Load() >= seq {
			return err
		}
	}
}

func (r *Registry) refresh(ctx context.Context) error {
	ticket := r.tickets.Add(1)
	// Everything requested up to this point is covered by the fetch below.
	serving := r.requests.Load()

	sessions, err := r.gateway.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	stats, err := r.gateway.FetchStats(ctx)
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}

	for i := range sessions {
		sessions[i] = sessions[i].Normalized()
	}

	applied := r.apply(ticket, sessions, stats)
	// Refresh rounds serialize through the singleflight group and serving is
	// monotonic across them, so a plain store never goes backwards.
	r.served.Store(serving)
	if !applied {
		// A newer snapshot landed first; this one is stale and discarded.
		return nil
	}
	if r.onChange != nil {
		r.onChange()
	}
	return nil
}

func (r *Registry) apply(ticket uint64, sessions []domain.Session, stats domain.AggregateStats) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket <= r.version {
		return false
	}
	r.version = ticket
	r.sessions = sessions
	r.stats = stats
	return true
}

// Snapshot returns a copy of the current session set with the stats that
// were fetched alongside it. Callers own the returned slice.
func (r *Registry) Snapshot() ([]domain.Session, domain.AggregateStats) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]domain.Session, len(r.sessions))
	copy(sessions, r.sessions)
	return sessions, r.stats
}

// Get returns the session with the given content id from the current
// snapshot, or domain.ErrNotFound.
func (r *Registry) Get(id domain.ContentID) (domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.ContentID == id {
			return s, nil
		}
	}
	return domain.Session{}, domain.ErrNotFound
}

// Version returns the monotonic version of the applied snapshot.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}
