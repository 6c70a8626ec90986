package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/anacrolix/torrent/metainfo"

	"seedrush/internal/domain"
	"seedrush/internal/metrics"
	"seedrush/internal/registry"
)

type AcquireState string

const (
	AcquireIdle           AcquireState = "idle"
	AcquirePreviewPending AcquireState = "previewPending"
	AcquirePreviewReady   AcquireState = "previewReady"
	AcquireConfirming     AcquireState = "confirming"
)

const (
	defaultPreviewTimeout = 30 * time.Second
	defaultConfirmTimeout = 30 * time.Second
)

const contentRefPrefix = "magnet:?"

// AcquireWorkflow takes a content reference from entry to a confirmed
// transfer: preview, cost estimate, confirm, then a registry refresh so the
// new session becomes visible. Transitions within one workflow instance are
// strictly sequential; a submission while a request is in flight is
// rejected with ErrBusy.
type AcquireWorkflow struct {
	Gateway        previewGateway
	Registry       *registry.Registry
	Logger         *slog.Logger
	PreviewTimeout time.Duration
	ConfirmTimeout time.Duration
	ErrorTTL       time.Duration
	Now            func() time.Time

	mu      sync.Mutex
	state   AcquireState
	ref     string
	preview domain.ContentPreview
	note    transientNote
}

type previewGateway interface {
	PreviewContent(ctx context.Context, ref string) (domain.ContentPreview, error)
	SubmitContent(ctx context.Context, ref string) error
}

// ValidateContentRef checks a content reference locally: non-empty, carries
// the expected link prefix and parses as a content link. Never contacts the
// gateway.
func ValidateContentRef(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return invalid("content reference is empty")
	}
	if !strings.HasPrefix(ref, contentRefPrefix) {
		return invalid("content reference must start with " + contentRefPrefix)
	}
	if _, err := metainfo.ParseMagnetV2Uri(ref); err != nil {
		return invalid("malformed content reference")
	}
	return nil
}

// Submit validates the reference and requests a preview. On success the
// workflow holds the preview in PreviewReady; on failure or deadline expiry
// it returns to Idle with a transient error.
func (w *AcquireWorkflow) Submit(ctx context.Context, ref string) (domain.ContentPreview, error) {
	ref = strings.TrimSpace(ref)
	if err := ValidateContentRef(ref); err != nil {
		w.mu.Lock()
		w.note.set(err.Error(), w.now(), w.ErrorTTL)
		w.mu.Unlock()
		metrics.WorkflowOpsTotal.WithLabelValues("acquire", "preview", "invalid").Inc()
		return domain.ContentPreview{}, err
	}

	w.mu.Lock()
	if w.state != AcquireIdle {
		w.mu.Unlock()
		return domain.ContentPreview{}, ErrBusy
	}
	w.state = AcquirePreviewPending
	w.ref = ref
	w.note.clear()
	w.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, w.previewTimeout())
	defer cancel()
	preview, err := w.Gateway.PreviewContent(reqCtx, ref)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		err = wrapRemote(err)
		w.state = AcquireIdle
		w.ref = ""
		w.note.set(err.Error(), w.now(), w.ErrorTTL)
		metrics.WorkflowOpsTotal.WithLabelValues("acquire", "preview", "error").Inc()
		return domain.ContentPreview{}, err
	}
	w.state = AcquirePreviewReady
	w.preview = preview
	metrics.WorkflowOpsTotal.WithLabelValues("acquire", "preview", "ok").Inc()
	return preview, nil
}

// Confirm begins the transfer for the original reference held since Submit.
// The preview is informational only and is never sent to the gateway. On
// failure the workflow returns to PreviewReady so the user can retry without
// re-previewing.
func (w *AcquireWorkflow) Confirm(ctx context.Context) error {
	w.mu.Lock()
	switch w.state {
	case AcquirePreviewReady:
		// proceed
	case AcquirePreviewPending, AcquireConfirming:
		w.mu.Unlock()
		return ErrBusy
	default:
		w.mu.Unlock()
		return invalid("nothing to confirm")
	}
	w.state = AcquireConfirming
	ref := w.ref
	w.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, w.confirmTimeout())
	err := w.Gateway.SubmitContent(reqCtx, ref)
	cancel()

	w.mu.Lock()
	if err != nil {
		err = wrapRemote(err)
		w.state = AcquirePreviewReady
		w.note.set(err.Error(), w.now(), w.ErrorTTL)
		w.mu.Unlock()
		metrics.WorkflowOpsTotal.WithLabelValues("acquire", "confirm", "error").Inc()
		return err
	}
	w.state = AcquireIdle
	w.ref = ""
	w.preview = domain.ContentPreview{}
	w.mu.Unlock()
	metrics.WorkflowOpsTotal.WithLabelValues("acquire", "confirm", "ok").Inc()

	if w.Registry != nil {
		if err := w.Registry.Refresh(ctx); err != nil {
			w.Logger.Warn("post-confirm refresh failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

// Cancel discards the preview and returns to Idle. A request already sent
// to the gateway is not interrupted by Cancel; only the PreviewReady hold
// can be abandoned this way.
func (w *AcquireWorkflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case AcquirePreviewPending, AcquireConfirming:
		return ErrBusy
	}
	w.state = AcquireIdle
	w.ref = ""
	w.preview = domain.ContentPreview{}
	w.note.clear()
	return nil
}

func (w *AcquireWorkflow) State() AcquireState {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == "" {
		return AcquireIdle
	}
	return w.state
}

// Preview returns the held cost preview while the workflow is in
// PreviewReady or Confirming.
func (w *AcquireWorkflow) Preview() (domain.ContentPreview, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != AcquirePreviewReady && w.state != AcquireConfirming {
		return domain.ContentPreview{}, false
	}
	return w.preview, true
}

// ErrorMessage returns the surfaced error, or "" once it has auto-cleared.
func (w *AcquireWorkflow) ErrorMessage() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.note.get(w.now())
}

func (w *AcquireWorkflow) previewTimeout() time.Duration {
	if w.PreviewTimeout > 0 {
		return w.PreviewTimeout
	}
	return defaultPreviewTimeout
}

func (w *AcquireWorkflow) confirmTimeout() time.Duration {
	if w.ConfirmTimeout > 0 {
		return w.ConfirmTimeout
	}
	return defaultConfirmTimeout
}

func (w *AcquireWorkflow) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}
