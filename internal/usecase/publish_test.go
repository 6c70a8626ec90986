package usecase

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type fakePublishGateway struct {
	selectPath  func(ctx context.Context) (string, error)
	create      func(ctx context.Context, path string, price uint64) (string, error)
	createCalls int
}

func (f *fakePublishGateway) SelectPublishPath(ctx context.Context) (string, error) {
	if f.selectPath != nil {
		return f.selectPath(ctx)
	}
	return "/data/album", nil
}

func (f *fakePublishGateway) CreateShare(ctx context.Context, path string, price uint64) (string, error) {
	f.createCalls++
	if f.create != nil {
		return f.create(ctx, path, price)
	}
	return "magnet:?xt=urn:btih:0000000000000000000000000000000000000000", nil
}

func newPublish(gw *fakePublishGateway) *PublishWorkflow {
	return &PublishWorkflow{
		Gateway: gw,
		Logger:  slog.New(slog.DiscardHandler),
	}
}

func TestSelectPathMovesToPathSelected(t *testing.T) {
	w := newPublish(&fakePublishGateway{})
	path, err := w.SelectPath(context.Background())
	if err != nil {
		t.Fatalf("SelectPath failed: %v", err)
	}
	if path != "/data/album" {
		t.Errorf("path = %q", path)
	}
	if w.State() != PublishPathSelected {
		t.Errorf("state = %q, want pathSelected", w.State())
	}
}

func TestSelectPathCancelledKeepsState(t *testing.T) {
	gw := &fakePublishGateway{
		selectPath: func(ctx context.Context) (string, error) { return "", nil },
	}
	w := newPublish(gw)
	path, err := w.SelectPath(context.Background())
	if err != nil || path != "" {
		t.Fatalf("cancelled picker: path=%q err=%v", path, err)
	}
	if w.State() != PublishIdle {
		t.Errorf("state = %q, want idle after cancelled picker", w.State())
	}
}

func TestCreateInvalidPrice(t *testing.T) {
	for _, price := range []string{"", "  ", "0", "-5", "abc", "1.5"} {
		t.Run("price="+price, func(t *testing.T) {
			gw := &fakePublishGateway{}
			w := newPublish(gw)
			if _, err := w.SelectPath(context.Background()); err != nil {
				t.Fatal(err)
			}

			_, err := w.Create(context.Background(), price)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("got %v, want ErrValidation", err)
			}
			if gw.createCalls != 0 {
				t.Errorf("gateway called %d times for invalid price, want 0", gw.createCalls)
			}
			if w.State() != PublishPricing {
				t.Errorf("state = %q, want pricing", w.State())
			}
			if w.PriceRaw() != price {
				t.Errorf("PriceRaw = %q, want %q preserved", w.PriceRaw(), price)
			}
		})
	}
}

func TestCreateWithoutPathRejected(t *testing.T) {
	w := newPublish(&fakePublishGateway{})
	if _, err := w.Create(context.Background(), "10"); !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}

func TestCreateHappyPath(t *testing.T) {
	var gotPath string
	var gotPrice uint64
	gw := &fakePublishGateway{
		create: func(ctx context.Context, path string, price uint64) (string, error) {
			gotPath, gotPrice = path, price
			return "magnet:?xt=urn:btih:abc", nil
		},
	}
	w := newPublish(gw)
	if _, err := w.SelectPath(context.Background()); err != nil {
		t.Fatal(err)
	}

	ref, err := w.Create(context.Background(), "25")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if gotPath != "/data/album" || gotPrice != 25 {
		t.Errorf("gateway got path=%q price=%d", gotPath, gotPrice)
	}
	if w.State() != PublishCreated {
		t.Errorf("state = %q, want created", w.State())
	}
	gotRef, price, ok := w.Result()
	if !ok || gotRef != ref || price != 25 {
		t.Errorf("Result() = (%q, %d, %v)", gotRef, price, ok)
	}
}

func TestCreateFailureReturnsToPricing(t *testing.T) {
	gw := &fakePublishGateway{
		create: func(ctx context.Context, path string, price uint64) (string, error) {
			return "", errors.New("hashing failed")
		},
	}
	w := newPublish(gw)
	if _, err := w.SelectPath(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := w.Create(context.Background(), "25")
	if !errors.Is(err, ErrRemote) {
		t.Fatalf("got %v, want ErrRemote", err)
	}
	if w.State() != PublishPricing {
		t.Errorf("state = %q, want pricing for retry", w.State())
	}
	if w.PriceRaw() != "25" {
		t.Errorf("PriceRaw = %q, want preserved", w.PriceRaw())
	}

	// Retry from Pricing succeeds without reselecting the path.
	gw.create = nil
	if _, err := w.Create(context.Background(), "25"); err != nil {
		t.Fatalf("retry Create failed: %v", err)
	}
}

func TestCreateTimeoutReturnsToPricing(t *testing.T) {
	gw := &fakePublishGateway{
		create: func(ctx context.Context, path string, price uint64) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	w := newPublish(gw)
	w.CreateTimeout = 10 * time.Millisecond
	if _, err := w.SelectPath(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := w.Create(context.Background(), "25")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	if w.State() != PublishPricing {
		t.Errorf("state = %q, want pricing after timeout", w.State())
	}
}

func TestResetClearsEverything(t *testing.T) {
	w := newPublish(&fakePublishGateway{})
	if _, err := w.SelectPath(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Create(context.Background(), "25"); err != nil {
		t.Fatal(err)
	}

	w.Reset()
	if w.State() != PublishIdle {
		t.Errorf("state = %q, want idle", w.State())
	}
	if w.Path() != "" || w.PriceRaw() != "" {
		t.Errorf("path=%q priceRaw=%q after reset, want empty", w.Path(), w.PriceRaw())
	}
	if _, _, ok := w.Result(); ok {
		t.Error("Result still available after reset")
	}
}
