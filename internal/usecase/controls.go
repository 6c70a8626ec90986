package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"seedrush/internal/domain"
	"seedrush/internal/metrics"
	"seedrush/internal/registry"
)

const defaultControlTimeout = 30 * time.Second

// RemovalRequest is the confirmation context opened before a session is
// removed. Removal never happens in one step.
type RemovalRequest struct {
	Session     domain.Session `json:"session"`
	DeleteFiles bool           `json:"deleteFiles"`
	Message     string         `json:"message"`
}

// SessionControls drives the imperative per-session operations: pause and
// resume, the two-step removal, the detail-panel selection, and the
// open-storage delegation.
type SessionControls struct {
	Gateway        controlGateway
	Registry       *registry.Registry
	Logger         *slog.Logger
	ControlTimeout time.Duration
	ErrorTTL       time.Duration
	Now            func() time.Time

	mu       sync.Mutex
	selected domain.ContentID
	pending  *RemovalRequest
	note     transientNote
}

type controlGateway interface {
	PauseSession(ctx context.Context, id domain.ContentID) error
	ResumeSession(ctx context.Context, id domain.ContentID) error
	RemoveSession(ctx context.Context, id domain.ContentID, deleteFiles bool) error
	OpenStorageLocation(ctx context.Context) error
}

// ToggleStatus resumes a resumable session and pauses anything else, then
// refreshes the registry unconditionally so the displayed status reflects
// the engine's authoritative state rather than an optimistic local flip.
func (c *SessionControls) ToggleStatus(ctx context.Context, s domain.Session) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.controlTimeout())
	var err error
	if s.Resumable() {
		err = c.Gateway.ResumeSession(reqCtx, s.ContentID)
	} else {
		err = c.Gateway.PauseSession(reqCtx, s.ContentID)
	}
	cancel()

	if err != nil {
		err = wrapRemote(err)
		c.setError(err)
		metrics.WorkflowOpsTotal.WithLabelValues("controls", "toggle", "error").Inc()
	} else {
		metrics.WorkflowOpsTotal.WithLabelValues("controls", "toggle", "ok").Inc()
	}

	c.refresh(ctx)
	return err
}

// RequestRemoval opens the confirmation context. The message warns about
// permanent file deletion only when the flag is set.
func (c *SessionControls) RequestRemoval(s domain.Session, deleteFiles bool) RemovalRequest {
	msg := fmt.Sprintf("Remove %q?", s.Name)
	if deleteFiles {
		msg = fmt.Sprintf("Remove %q and permanently delete downloaded files?", s.Name)
	}
	req := RemovalRequest{Session: s, DeleteFiles: deleteFiles, Message: msg}

	c.mu.Lock()
	c.pending = &req
	c.mu.Unlock()
	return req
}

// ConfirmRemoval executes the pending removal. The confirmation context is
// dismissed and a matching selection cleared before the remove call is
// issued, so the detail panel can never show a session mid-removal. The
// registry refresh afterwards is unconditional: even a failed remove may
// have changed the engine-side list.
func (c *SessionControls) ConfirmRemoval(ctx context.Context) error {
	c.mu.Lock()
	req := c.pending
	if req == nil {
		c.mu.Unlock()
		return invalid("no removal pending")
	}
	c.pending = nil
	if c.selected == req.Session.ContentID {
		c.selected = ""
	}
	c.mu.Unlock()

	reqCtx, cancel := context.WithTimeout(ctx, c.controlTimeout())
	err := c.Gateway.RemoveSession(reqCtx, req.Session.ContentID, req.DeleteFiles)
	cancel()

	if err != nil {
		err = wrapRemote(err)
		c.setError(err)
		metrics.WorkflowOpsTotal.WithLabelValues("controls", "remove", "error").Inc()
	} else {
		metrics.WorkflowOpsTotal.WithLabelValues("controls", "remove", "ok").Inc()
	}

	c.refresh(ctx)
	return err
}

// CancelRemoval dismisses the confirmation context without removing.
func (c *SessionControls) CancelRemoval() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}

func (c *SessionControls) PendingRemoval() (RemovalRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return RemovalRequest{}, false
	}
	return *c.pending, true
}

// Select marks a session as the detail-panel selection.
func (c *SessionControls) Select(id domain.ContentID) {
	c.mu.Lock()
	c.selected = id
	c.mu.Unlock()
}

func (c *SessionControls) ClearSelection() {
	c.mu.Lock()
	c.selected = ""
	c.mu.Unlock()
}

func (c *SessionControls) Selected() domain.ContentID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// OpenStorageLocation reveals the download directory via the host OS.
func (c *SessionControls) OpenStorageLocation(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.controlTimeout())
	defer cancel()
	if err := c.Gateway.OpenStorageLocation(reqCtx); err != nil {
		err = wrapRemote(err)
		c.setError(err)
		return err
	}
	return nil
}

func (c *SessionControls) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.note.get(c.now())
}

func (c *SessionControls) setError(err error) {
	c.mu.Lock()
	c.note.set(err.Error(), c.now(), c.ErrorTTL)
	c.mu.Unlock()
}

// refresh pulls a fresh snapshot after a control operation; failures are
// logged, never surfaced, so the operation's own result stays visible.
func (c *SessionControls) refresh(ctx context.Context) {
	if c.Registry == nil {
		return
	}
	if err := c.Registry.Refresh(ctx); err != nil {
		c.Logger.Warn("post-control refresh failed", slog.String("error", err.Error()))
	}
}

func (c *SessionControls) controlTimeout() time.Duration {
	if c.ControlTimeout > 0 {
		return c.ControlTimeout
	}
	return defaultControlTimeout
}

func (c *SessionControls) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
