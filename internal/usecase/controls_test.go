package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"seedrush/internal/domain"
)

type fakeControlGateway struct {
	pauseCalls  []domain.ContentID
	resumeCalls []domain.ContentID
	removeCalls []struct {
		id          domain.ContentID
		deleteFiles bool
	}
	removeErr error
	// onRemove runs inside RemoveSession, before it returns; tests use it to
	// observe state mid-call.
	onRemove  func()
	openCalls int
}

func (f *fakeControlGateway) PauseSession(ctx context.Context, id domain.ContentID) error {
	f.pauseCalls = append(f.pauseCalls, id)
	return nil
}

func (f *fakeControlGateway) ResumeSession(ctx context.Context, id domain.ContentID) error {
	f.resumeCalls = append(f.resumeCalls, id)
	return nil
}

func (f *fakeControlGateway) RemoveSession(ctx context.Context, id domain.ContentID, deleteFiles bool) error {
	if f.onRemove != nil {
		f.onRemove()
	}
	f.removeCalls = append(f.removeCalls, struct {
		id          domain.ContentID
		deleteFiles bool
	}{id, deleteFiles})
	return f.removeErr
}

func (f *fakeControlGateway) OpenStorageLocation(ctx context.Context) error {
	f.openCalls++
	return nil
}

func newControls(gw *fakeControlGateway) *SessionControls {
	return &SessionControls{
		Gateway: gw,
		Logger:  slog.New(slog.DiscardHandler),
	}
}

func TestToggleStatusMatrix(t *testing.T) {
	tests := []struct {
		name       string
		session    domain.Session
		wantResume bool
	}{
		{"downloading pauses", domain.Session{ContentID: "x", Status: domain.StatusDownloading}, false},
		{"seeding pauses", domain.Session{ContentID: "x", Status: domain.StatusSeeding}, false},
		{"paused resumes", domain.Session{ContentID: "x", Status: domain.StatusPaused}, true},
		{"stalled resumes", domain.Session{ContentID: "x", Status: domain.StatusStalled}, true},
		{"paused flag resumes", domain.Session{ContentID: "x", Status: domain.StatusDownloading, IsPaused: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeControlGateway{}
			c := newControls(gw)
			if err := c.ToggleStatus(context.Background(), tt.session); err != nil {
				t.Fatalf("ToggleStatus failed: %v", err)
			}
			if tt.wantResume {
				if len(gw.resumeCalls) != 1 || len(gw.pauseCalls) != 0 {
					t.Errorf("resume=%d pause=%d, want resume only", len(gw.resumeCalls), len(gw.pauseCalls))
				}
			} else {
				if len(gw.pauseCalls) != 1 || len(gw.resumeCalls) != 0 {
					t.Errorf("resume=%d pause=%d, want pause only", len(gw.resumeCalls), len(gw.pauseCalls))
				}
			}
		})
	}
}

func TestRequestRemovalMessages(t *testing.T) {
	c := newControls(&fakeControlGateway{})
	s := domain.Session{ContentID: "x", Name: "Holiday Photos"}

	plain := c.RequestRemoval(s, false)
	if strings.Contains(plain.Message, "delete") {
		t.Errorf("plain removal message mentions deletion: %q", plain.Message)
	}
	if !strings.Contains(plain.Message, "Holiday Photos") {
		t.Errorf("message missing session name: %q", plain.Message)
	}

	withFiles := c.RequestRemoval(s, true)
	if !strings.Contains(withFiles.Message, "permanently delete") {
		t.Errorf("deleteFiles message lacks permanence warning: %q", withFiles.Message)
	}
	if !withFiles.DeleteFiles {
		t.Error("DeleteFiles flag not carried")
	}
}

func TestConfirmRemovalClearsSelectionBeforeRemove(t *testing.T) {
	gw := &fakeControlGateway{}
	c := newControls(gw)

	var selectedDuringRemove domain.ContentID
	var pendingDuringRemove bool
	gw.onRemove = func() {
		selectedDuringRemove = c.Selected()
		_, pendingDuringRemove = c.PendingRemoval()
	}

	s := domain.Session{ContentID: "x", Name: "Holiday Photos"}
	c.Select("x")
	c.RequestRemoval(s, true)

	if err := c.ConfirmRemoval(context.Background()); err != nil {
		t.Fatalf("ConfirmRemoval failed: %v", err)
	}

	// Even with a slow remove call, the detail panel must already be empty
	// and the confirmation dismissed while the call is in flight.
	if selectedDuringRemove != "" {
		t.Errorf("selection = %q during remove, want cleared", selectedDuringRemove)
	}
	if pendingDuringRemove {
		t.Error("confirmation context still open during remove")
	}
	if len(gw.removeCalls) != 1 || !gw.removeCalls[0].deleteFiles {
		t.Errorf("remove calls = %+v", gw.removeCalls)
	}
}

func TestConfirmRemovalKeepsUnrelatedSelection(t *testing.T) {
	gw := &fakeControlGateway{}
	c := newControls(gw)

	c.Select("other")
	c.RequestRemoval(domain.Session{ContentID: "x", Name: "n"}, false)
	if err := c.ConfirmRemoval(context.Background()); err != nil {
		t.Fatalf("ConfirmRemoval failed: %v", err)
	}
	if c.Selected() != "other" {
		t.Errorf("selection = %q, want untouched", c.Selected())
	}
}

func TestConfirmRemovalFailureSurfacesError(t *testing.T) {
	gw := &fakeControlGateway{removeErr: errors.New("engine down")}
	c := newControls(gw)

	c.RequestRemoval(domain.Session{ContentID: "x", Name: "n"}, false)
	if err := c.ConfirmRemoval(context.Background()); !errors.Is(err, ErrRemote) {
		t.Fatalf("got %v, want ErrRemote", err)
	}
	if c.ErrorMessage() == "" {
		t.Error("expected a surfaced error message")
	}
}

func TestConfirmWithoutPending(t *testing.T) {
	c := newControls(&fakeControlGateway{})
	if err := c.ConfirmRemoval(context.Background()); !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}

func TestCancelRemoval(t *testing.T) {
	gw := &fakeControlGateway{}
	c := newControls(gw)

	c.RequestRemoval(domain.Session{ContentID: "x", Name: "n"}, false)
	c.CancelRemoval()
	if _, ok := c.PendingRemoval(); ok {
		t.Error("confirmation context still open after cancel")
	}
	if err := c.ConfirmRemoval(context.Background()); err == nil {
		t.Error("confirm after cancel should fail")
	}
	if len(gw.removeCalls) != 0 {
		t.Errorf("remove called %d times after cancel, want 0", len(gw.removeCalls))
	}
}

func TestSelection(t *testing.T) {
	c := newControls(&fakeControlGateway{})
	c.Select("abc")
	if c.Selected() != "abc" {
		t.Errorf("Selected() = %q", c.Selected())
	}
	c.ClearSelection()
	if c.Selected() != "" {
		t.Errorf("Selected() = %q after clear", c.Selected())
	}
}

func TestOpenStorageLocation(t *testing.T) {
	gw := &fakeControlGateway{}
	c := newControls(gw)
	if err := c.OpenStorageLocation(context.Background()); err != nil {
		t.Fatalf("OpenStorageLocation failed: %v", err)
	}
	if gw.openCalls != 1 {
		t.Errorf("open called %d times, want 1", gw.openCalls)
	}
}
