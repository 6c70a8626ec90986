package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"seedrush/internal/metrics"
	"seedrush/internal/registry"
)

type PublishState string

const (
	PublishIdle         PublishState = "idle"
	PublishPathSelected PublishState = "pathSelected"
	PublishPricing      PublishState = "pricing"
	PublishCreating     PublishState = "creating"
	PublishCreated      PublishState = "created"
)

// defaultCreateTimeout is larger than the acquire deadlines because content
// hashing and indexing is proportional to file size.
const defaultCreateTimeout = 60 * time.Second

// PublishWorkflow takes a local path and a price to a shareable content
// reference. Reset is the escape hatch: it is the only transition allowed
// from every state and clears path, price and the generated reference.
type PublishWorkflow struct {
	Gateway       publishGateway
	Registry      *registry.Registry
	Logger        *slog.Logger
	CreateTimeout time.Duration
	ErrorTTL      time.Duration
	Now           func() time.Time

	mu       sync.Mutex
	state    PublishState
	path     string
	priceRaw string
	shareRef string
	price    uint64
	note     transientNote
}

type publishGateway interface {
	SelectPublishPath(ctx context.Context) (string, error)
	CreateShare(ctx context.Context, path string, pricePerPiece uint64) (string, error)
}

// SelectPath delegates to the host path picker. An empty path means the
// user cancelled; the workflow stays where it was. The path itself is not
// validated here, the engine owns path validation.
func (w *PublishWorkflow) SelectPath(ctx context.Context) (string, error) {
	w.mu.Lock()
	if w.state == PublishCreating {
		w.mu.Unlock()
		return "", ErrBusy
	}
	w.mu.Unlock()

	path, err := w.Gateway.SelectPublishPath(ctx)
	if err != nil {
		err = wrapRemote(err)
		w.mu.Lock()
		w.note.set(err.Error(), w.now(), w.ErrorTTL)
		w.mu.Unlock()
		return "", err
	}
	if path == "" {
		return "", nil
	}

	w.mu.Lock()
	w.state = PublishPathSelected
	w.path = path
	w.shareRef = ""
	w.note.clear()
	w.mu.Unlock()
	return path, nil
}

// Create validates the entered price and publishes the selected path. On
// failure or deadline expiry the workflow returns to Pricing with the
// entered price preserved for retry.
func (w *PublishWorkflow) Create(ctx context.Context, priceRaw string) (string, error) {
	w.mu.Lock()
	switch w.state {
	case PublishPathSelected, PublishPricing:
		// proceed
	case PublishCreating:
		w.mu.Unlock()
		return "", ErrBusy
	default:
		w.mu.Unlock()
		return "", invalid("no publish path selected")
	}
	w.priceRaw = priceRaw

	price, err := parsePrice(priceRaw)
	if err != nil {
		w.state = PublishPricing
		w.note.set(err.Error(), w.now(), w.ErrorTTL)
		w.mu.Unlock()
		metrics.WorkflowOpsTotal.WithLabelValues("publish", "create", "invalid").Inc()
		return "", err
	}
	w.state = PublishCreating
	path := w.path
	w.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, w.createTimeout())
	ref, err := w.Gateway.CreateShare(reqCtx, path, price)
	cancel()

	w.mu.Lock()
	if err != nil {
		err = wrapRemote(err)
		w.state = PublishPricing
		w.note.set(err.Error(), w.now(), w.ErrorTTL)
		w.mu.Unlock()
		metrics.WorkflowOpsTotal.WithLabelValues("publish", "create", "error").Inc()
		return "", err
	}
	w.state = PublishCreated
	w.shareRef = ref
	w.price = price
	w.mu.Unlock()
	metrics.WorkflowOpsTotal.WithLabelValues("publish", "create", "ok").Inc()

	if w.Registry != nil {
		if err := w.Registry.Refresh(ctx); err != nil {
			w.Logger.Warn("post-create refresh failed", slog.String("error", err.Error()))
		}
	}
	return ref, nil
}

// Reset clears path, price and any generated reference unconditionally,
// regardless of state.
func (w *PublishWorkflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = PublishIdle
	w.path = ""
	w.priceRaw = ""
	w.shareRef = ""
	w.price = 0
	w.note.clear()
}

func (w *PublishWorkflow) State() PublishState {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == "" {
		return PublishIdle
	}
	return w.state
}

func (w *PublishWorkflow) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// PriceRaw returns the last entered price text, preserved across failed
// creation attempts.
func (w *PublishWorkflow) PriceRaw() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.priceRaw
}

// Result returns the shareable reference and price once Created.
func (w *PublishWorkflow) Result() (ref string, pricePerPiece uint64, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != PublishCreated {
		return "", 0, false
	}
	return w.shareRef, w.price, true
}

func (w *PublishWorkflow) ErrorMessage() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.note.get(w.now())
}

func parsePrice(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, invalid("price is required")
	}
	price, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || price == 0 {
		return 0, invalid("price must be a positive integer of satoshis per piece")
	}
	return price, nil
}

func (w *PublishWorkflow) createTimeout() time.Duration {
	if w.CreateTimeout > 0 {
		return w.CreateTimeout
	}
	return defaultCreateTimeout
}

func (w *PublishWorkflow) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}
