package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"golang.org/x/time/rate"

	apihttp "seedrush/internal/api/http"
	"seedrush/internal/app"
	"seedrush/internal/domain"
	"seedrush/internal/domain/ports"
	"seedrush/internal/gateway/enginehttp"
	"seedrush/internal/metrics"
	"seedrush/internal/registry"
	mongorepo "seedrush/internal/repository/mongo"
	"seedrush/internal/syncer"
	"seedrush/internal/telemetry"
	"seedrush/internal/usecase"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "seedrush-client")
	if err != nil {
		logger.Error("telemetry init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics.Register(prometheus.DefaultRegisterer)

	gw := enginehttp.NewClient(cfg.EngineURL)
	events := enginehttp.NewEventStream(cfg.EngineWSURL, logger)

	sessions := registry.New(gw)
	wallet := registry.NewWalletCache(gw)

	var ledger ports.FundLedger
	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		client, err := mongorepo.Connect(connectCtx, cfg.MongoURI,
			options.Client().SetMonitor(otelmongo.NewMonitor()))
		cancel()
		if err != nil {
			logger.Error("mongo connect failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			dcCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dcCtx)
		}()

		repo := mongorepo.NewLedgerRepository(client, cfg.MongoDatabase, cfg.MongoCollection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Warn("mongo index setup failed", slog.String("error", err.Error()))
		}
		ledger = repo
		logger.Info("fund ledger enabled", slog.String("db", cfg.MongoDatabase))
	} else {
		logger.Info("fund ledger disabled, MONGO_URI not set")
	}

	acquire := &usecase.AcquireWorkflow{
		Gateway:        gw,
		Registry:       sessions,
		Logger:         logger,
		PreviewTimeout: cfg.PreviewTimeout,
		ConfirmTimeout: cfg.ConfirmTimeout,
		ErrorTTL:       cfg.ErrorTTL,
	}
	publish := &usecase.PublishWorkflow{
		Gateway:       gw,
		Registry:      sessions,
		Logger:        logger,
		CreateTimeout: cfg.CreateTimeout,
		ErrorTTL:      cfg.ErrorTTL,
	}
	controls := &usecase.SessionControls{
		Gateway:        gw,
		Registry:       sessions,
		Logger:         logger,
		ControlTimeout: cfg.ControlTimeout,
		ErrorTTL:       cfg.ErrorTTL,
	}
	walletCtrl := &usecase.WalletController{
		Gateway:        gw,
		Cache:          wallet,
		ControlTimeout: cfg.ControlTimeout,
		ErrorTTL:       cfg.ErrorTTL,
	}

	opts := []apihttp.ServerOption{
		apihttp.WithWallet(wallet),
		apihttp.WithAcquire(acquire),
		apihttp.WithPublish(publish),
		apihttp.WithControls(controls),
		apihttp.WithWalletController(walletCtrl),
		apihttp.WithAllowedOrigins(cfg.CORSAllowedOrigins),
		apihttp.WithLogger(logger),
	}
	if ledger != nil {
		opts = append(opts, apihttp.WithFundLedger(ledger))
	}
	server := apihttp.NewServer(sessions, opts...)
	defer server.Close()

	sessions.SetOnChange(func() {
		server.BroadcastSessions()
		snapshot, stats := sessions.Snapshot()
		metrics.ActiveSessions.Set(float64(stats.ActiveSessionCount))
		metrics.TotalPeers.Set(float64(stats.TotalPeerCount))
		if ledger != nil {
			go recordFunds(ctx, logger, ledger, snapshot)
		}
	})
	wallet.SetOnChange(func() {
		server.BroadcastWallet()
		metrics.WalletBalanceSats.Set(float64(wallet.State().Balance))
	})

	sync := &syncer.Synchronizer{
		Events:   events,
		Registry: sessions,
		Wallet:   wallet,
		Logger:   logger,
		Limiter:  rate.NewLimiter(rate.Limit(1), cfg.RefreshBurst),
	}
	sync.Start(ctx)
	defer sync.Stop()
	go events.Run(ctx)

	go func() {
		refreshCtx, cancel := context.WithTimeout(ctx, cfg.ControlTimeout)
		defer cancel()
		if err := sessions.Refresh(refreshCtx); err != nil {
			logger.Warn("initial session refresh failed", slog.String("error", err.Error()))
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.HTTPAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shCtx); err != nil {
		logger.Warn("http shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("shutdown complete")
}

// recordFunds persists the per-content satoshi totals of a snapshot so they
// survive client restarts.
func recordFunds(ctx context.Context, logger *slog.Logger, ledger ports.FundLedger, snapshot []domain.Session) {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	now := time.Now().UTC()
	for _, s := range snapshot {
		err := ledger.RecordSnapshot(writeCtx, domain.FundSnapshot{
			ContentID:      s.ContentID,
			Name:           s.Name,
			SatoshisEarned: s.SatoshisEarned,
			SatoshisSpent:  s.SatoshisSpent,
			RecordedAt:     now,
		})
		if err != nil {
			metrics.LedgerWriteFailures.Inc()
			logger.Warn("ledger write failed",
				slog.String("contentID", string(s.ContentID)),
				slog.String("error", err.Error()))
			return
		}
	}
}

func newLogger(cfg app.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
