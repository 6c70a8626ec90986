// Package apihttp exposes the client's state and operations to the UI over
// a local HTTP and WebSocket API.
package apihttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"seedrush/internal/domain"
	"seedrush/internal/usecase"
	"seedrush/internal/view"
)

type SessionRegistry interface {
	Snapshot() ([]domain.Session, domain.AggregateStats)
	Get(id domain.ContentID) (domain.Session, error)
	Refresh(ctx context.Context) error
	Version() uint64
}

type WalletReader interface {
	State() domain.WalletState
}

type AcquireController interface {
	Submit(ctx context.Context, ref string) (domain.ContentPreview, error)
	Confirm(ctx context.Context) error
	Cancel() error
	State() usecase.AcquireState
	Preview() (domain.ContentPreview, bool)
	ErrorMessage() string
}

type PublishController interface {
	SelectPath(ctx context.Context) (string, error)
	Create(ctx context.Context, priceRaw string) (string, error)
	Reset()
	State() usecase.PublishState
	Path() string
	PriceRaw() string
	Result() (string, uint64, bool)
	ErrorMessage() string
}

type ControlsController interface {
	ToggleStatus(ctx context.Context, s domain.Session) error
	RequestRemoval(s domain.Session, deleteFiles bool) usecase.RemovalRequest
	ConfirmRemoval(ctx context.Context) error
	CancelRemoval()
	PendingRemoval() (usecase.RemovalRequest, bool)
	Select(id domain.ContentID)
	ClearSelection()
	Selected() domain.ContentID
	OpenStorageLocation(ctx context.Context) error
	ErrorMessage() string
}

type WalletController interface {
	RefreshBalance(ctx context.Context) error
	RequestFunds(ctx context.Context, amount int64) error
	ErrorMessage() string
}

type FundLedger interface {
	List(ctx context.Context) ([]domain.FundSnapshot, error)
}

type Server struct {
	registry       SessionRegistry
	wallet         WalletReader
	acquire        AcquireController
	publish        PublishController
	controls       ControlsController
	walletCtrl     WalletController
	ledger         FundLedger
	allowedOrigins []string
	logger         *slog.Logger
	handler        http.Handler
	wsHub          *wsHub
}

type ServerOption func(*Server)

func WithWallet(w WalletReader) ServerOption {
	return func(s *Server) { s.wallet = w }
}

func WithAcquire(c AcquireController) ServerOption {
	return func(s *Server) { s.acquire = c }
}

func WithPublish(c PublishController) ServerOption {
	return func(s *Server) { s.publish = c }
}

func WithControls(c ControlsController) ServerOption {
	return func(s *Server) { s.controls = c }
}

func WithWalletController(c WalletController) ServerOption {
	return func(s *Server) { s.walletCtrl = c }
}

func WithFundLedger(l FundLedger) ServerOption {
	return func(s *Server) { s.ledger = l }
}

// WithAllowedOrigins configures the CORS allowed origins whitelist.
// When empty (default), any origin is permitted (development mode).
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) { s.allowedOrigins = origins }
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

func NewServer(registry SessionRegistry, opts ...ServerOption) *Server {
	s := &Server{registry: registry}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.wsHub = newWSHub(s.logger)
	go s.wsHub.run()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("POST /sessions/refresh", s.handleRefreshSessions)
	mux.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /sessions/{id}/toggle", s.handleToggleSession)
	mux.HandleFunc("POST /sessions/{id}/remove", s.handleRequestRemoval)
	mux.HandleFunc("GET /removal", s.handlePendingRemoval)
	mux.HandleFunc("POST /removal/confirm", s.handleConfirmRemoval)
	mux.HandleFunc("POST /removal/cancel", s.handleCancelRemoval)
	mux.HandleFunc("GET /selection", s.handleGetSelection)
	mux.HandleFunc("PUT /selection/{id}", s.handleSelect)
	mux.HandleFunc("DELETE /selection", s.handleClearSelection)
	mux.HandleFunc("GET /acquire", s.handleAcquireState)
	mux.HandleFunc("POST /acquire", s.handleAcquireSubmit)
	mux.HandleFunc("POST /acquire/confirm", s.handleAcquireConfirm)
	mux.HandleFunc("POST /acquire/cancel", s.handleAcquireCancel)
	mux.HandleFunc("GET /publish", s.handlePublishState)
	mux.HandleFunc("POST /publish/select-path", s.handlePublishSelectPath)
	mux.HandleFunc("POST /publish", s.handlePublishCreate)
	mux.HandleFunc("POST /publish/reset", s.handlePublishReset)
	mux.HandleFunc("GET /wallet", s.handleWalletState)
	mux.HandleFunc("POST /wallet/refresh", s.handleWalletRefresh)
	mux.HandleFunc("POST /wallet/funds", s.handleWalletFunds)
	mux.HandleFunc("GET /ledger", s.handleLedger)
	mux.HandleFunc("POST /system/open-downloads", s.handleOpenDownloads)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /ws", s.handleWS)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "seedrush-client",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/healthz" && !strings.HasPrefix(p, "/ws")
		}),
	)
	s.handler = recoveryMiddleware(s.logger, rateLimitMiddleware(100, 200, metricsMiddleware(corsMiddleware(s.allowedOrigins, traced))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.wsHub == nil {
		http.Error(w, "websocket not available", http.StatusServiceUnavailable)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{
		hub:  s.wsHub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	s.wsHub.register <- client
	go client.writePump()
	go client.readPump()
}

// BroadcastSessions pushes the current list projection to all connected UI
// clients. Called from the registry's change hook.
func (s *Server) BroadcastSessions() {
	if s.wsHub == nil {
		return
	}
	sessions, stats := s.registry.Snapshot()
	s.wsHub.Broadcast("sessions", sessionListResponse{
		Projection: view.Project(sessions, view.Query{StatusFilter: view.FilterAll}),
		Stats:      stats,
		Version:    s.registry.Version(),
	})
}

// BroadcastWallet pushes the cached wallet state to all connected UI clients.
func (s *Server) BroadcastWallet() {
	if s.wsHub == nil || s.wallet == nil {
		return
	}
	s.wsHub.Broadcast("wallet", s.wallet.State())
}

// Close shuts down the WebSocket hub, disconnecting all clients.
func (s *Server) Close() {
	if s.wsHub != nil {
		s.wsHub.Close()
	}
}
