package enginehttp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"seedrush/internal/domain"
)

func TestListSessionsMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/torrents" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{
			"id": "abc123",
			"name": "Holiday Photos",
			"totalSize": 1048576,
			"progress": 42.5,
			"status": "downloading",
			"isPaused": false,
			"downloadRate": 2048,
			"peerCount": 5,
			"seedCount": 2,
			"etaSeconds": 90,
			"satoshisEarned": 10,
			"satoshisSpent": 250,
			"files": [{"name": "a.jpg", "path": "photos/a.jpg", "size": 1024, "progress": 100}]
		}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	sessions, err := c.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}

	s := sessions[0]
	if s.ContentID != "abc123" || s.ID != "abc123" {
		t.Errorf("ids = %q / %q", s.ID, s.ContentID)
	}
	if s.SizeStr != "1.0 MiB" {
		t.Errorf("SizeStr = %q, want %q", s.SizeStr, "1.0 MiB")
	}
	if s.DownloadRateStr != "2.0 KiB/s" {
		t.Errorf("DownloadRateStr = %q, want %q", s.DownloadRateStr, "2.0 KiB/s")
	}
	if s.ETA != "1m" {
		t.Errorf("ETA = %q, want %q", s.ETA, "1m")
	}
	if s.Status != domain.StatusDownloading {
		t.Errorf("Status = %q", s.Status)
	}
	if len(s.Files) != 1 || s.Files[0].SizeStr != "1.0 KiB" {
		t.Errorf("files = %+v", s.Files)
	}
	if s.SatoshisSpent != 250 {
		t.Errorf("SatoshisSpent = %d", s.SatoshisSpent)
	}
}

func TestETAUnknownWhenZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "x", "status": "seeding", "etaSeconds": 0}]`))
	}))
	defer srv.Close()

	sessions, err := NewClient(srv.URL).ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if sessions[0].ETA != domain.ETAUnknown {
		t.Errorf("ETA = %q, want %q", sessions[0].ETA, domain.ETAUnknown)
	}
}

func TestErrorEnvelopeDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": "invalid_magnet", "message": "magnet could not be parsed"}}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).SubmitContent(context.Background(), "magnet:?broken")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got != "engine invalid_magnet: magnet could not be parsed" {
		t.Errorf("error = %q", got)
	}
}

func TestNotFoundMapsToDomainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).PauseSession(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestRemoveSessionCarriesDeleteFlag(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).RemoveSession(context.Background(), "abc", true); err != nil {
		t.Fatalf("RemoveSession failed: %v", err)
	}
	if gotPath != "/torrents/abc" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "deleteFiles=true" {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestPreviewEscapesMagnet(t *testing.T) {
	var gotMagnet string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMagnet = r.URL.Query().Get("magnet")
		_, _ = w.Write([]byte(`{"name": "n", "totalSize": 2048, "totalPieceCount": 500, "pricePerPiece": 10}`))
	}))
	defer srv.Close()

	ref := "magnet:?xt=urn:btih:abc&dn=a b"
	preview, err := NewClient(srv.URL).PreviewContent(context.Background(), ref)
	if err != nil {
		t.Fatalf("PreviewContent failed: %v", err)
	}
	if gotMagnet != ref {
		t.Errorf("magnet param = %q, want round-tripped %q", gotMagnet, ref)
	}
	if preview.EstimatedCost() != 5000 {
		t.Errorf("EstimatedCost = %d, want 5000", preview.EstimatedCost())
	}
	if preview.SizeStr != "2.0 KiB" {
		t.Errorf("SizeStr = %q", preview.SizeStr)
	}
}

func TestContextCancellationAbandonsRequest(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewClient(srv.URL).SyncWallet(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
