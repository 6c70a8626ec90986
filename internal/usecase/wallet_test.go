package usecase

import (
	"context"
	"errors"
	"testing"

	"seedrush/internal/domain"
	"seedrush/internal/registry"
)

// fakeEngine implements the full gateway surface so it can back both the
// controller and the wallet cache, recording call order across the two.
type fakeEngine struct {
	order       []string
	syncErr     error
	fetchErr    error
	balance     uint64
	fundsAmount uint64
	fundsCalls  int
}

func (f *fakeEngine) SubmitContent(ctx context.Context, ref string) error { return nil }
func (f *fakeEngine) PreviewContent(ctx context.Context, ref string) (domain.ContentPreview, error) {
	return domain.ContentPreview{}, nil
}
func (f *fakeEngine) ListSessions(ctx context.Context) ([]domain.Session, error) { return nil, nil }
func (f *fakeEngine) FetchStats(ctx context.Context) (domain.AggregateStats, error) {
	return domain.AggregateStats{}, nil
}
func (f *fakeEngine) PauseSession(ctx context.Context, id domain.ContentID) error  { return nil }
func (f *fakeEngine) ResumeSession(ctx context.Context, id domain.ContentID) error { return nil }
func (f *fakeEngine) RemoveSession(ctx context.Context, id domain.ContentID, deleteFiles bool) error {
	return nil
}
func (f *fakeEngine) OpenStorageLocation(ctx context.Context) error         { return nil }
func (f *fakeEngine) SelectPublishPath(ctx context.Context) (string, error) { return "", nil }
func (f *fakeEngine) CreateShare(ctx context.Context, path string, pricePerPiece uint64) (string, error) {
	return "", nil
}

func (f *fakeEngine) FetchWalletState(ctx context.Context) (domain.WalletState, error) {
	f.order = append(f.order, "fetch")
	if f.fetchErr != nil {
		return domain.WalletState{}, f.fetchErr
	}
	return domain.WalletState{Address: "1abc", Balance: f.balance}, nil
}

func (f *fakeEngine) RequestFunds(ctx context.Context, amount uint64) error {
	f.fundsCalls++
	f.fundsAmount = amount
	return nil
}

func (f *fakeEngine) SyncWallet(ctx context.Context) error {
	f.order = append(f.order, "sync")
	return f.syncErr
}

func newWalletController(engine *fakeEngine) (*WalletController, *registry.WalletCache) {
	cache := registry.NewWalletCache(engine)
	return &WalletController{Gateway: engine, Cache: cache}, cache
}

func TestRefreshBalanceSyncsThenFetches(t *testing.T) {
	engine := &fakeEngine{balance: 9000}
	c, cache := newWalletController(engine)

	if err := c.RefreshBalance(context.Background()); err != nil {
		t.Fatalf("RefreshBalance failed: %v", err)
	}
	if len(engine.order) != 2 || engine.order[0] != "sync" || engine.order[1] != "fetch" {
		t.Errorf("call order = %v, want [sync fetch]", engine.order)
	}
	if cache.State().Balance != 9000 {
		t.Errorf("cached balance = %d, want 9000", cache.State().Balance)
	}
}

func TestRefreshBalanceSyncFailureSkipsFetch(t *testing.T) {
	engine := &fakeEngine{syncErr: errors.New("chain unreachable")}
	c, cache := newWalletController(engine)

	err := c.RefreshBalance(context.Background())
	if !errors.Is(err, ErrRemote) {
		t.Fatalf("got %v, want ErrRemote", err)
	}
	if len(engine.order) != 1 || engine.order[0] != "sync" {
		t.Errorf("call order = %v, want [sync]: fetch must not run after a failed sync", engine.order)
	}
	if cache.State().Balance != 0 {
		t.Errorf("cached balance = %d, want untouched zero value", cache.State().Balance)
	}
	if c.ErrorMessage() == "" {
		t.Error("expected a surfaced error message")
	}
}

func TestRequestFundsValidation(t *testing.T) {
	for _, amount := range []int64{0, -1, -500} {
		engine := &fakeEngine{}
		c, _ := newWalletController(engine)
		if err := c.RequestFunds(context.Background(), amount); !errors.Is(err, ErrValidation) {
			t.Errorf("RequestFunds(%d) = %v, want ErrValidation", amount, err)
		}
		if engine.fundsCalls != 0 {
			t.Errorf("gateway called for invalid amount %d", amount)
		}
	}
}

func TestRequestFundsDoesNotTouchCache(t *testing.T) {
	engine := &fakeEngine{balance: 500}
	c, cache := newWalletController(engine)

	if err := c.RequestFunds(context.Background(), 1000); err != nil {
		t.Fatalf("RequestFunds failed: %v", err)
	}
	if engine.fundsAmount != 1000 {
		t.Errorf("amount = %d, want 1000", engine.fundsAmount)
	}
	// The balance update arrives via the wallet-updated push, never here.
	if cache.State().Balance != 0 {
		t.Errorf("cached balance = %d, want untouched", cache.State().Balance)
	}
	for _, call := range engine.order {
		if call == "fetch" {
			t.Error("RequestFunds fetched wallet state")
		}
	}
}
