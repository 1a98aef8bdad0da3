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

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/prometheus/client_golang/prometheus"

	inferenceadapter "github.com/trinetra-dev/credregistry/internal/adapter/driven/inference"
	ledgeradapter "github.com/trinetra-dev/credregistry/internal/adapter/driven/ledger"
	sqliteadapter "github.com/trinetra-dev/credregistry/internal/adapter/driven/sqlite"
	httphandler "github.com/trinetra-dev/credregistry/internal/adapter/driving/http"
	"github.com/trinetra-dev/credregistry/internal/application"
	"github.com/trinetra-dev/credregistry/internal/config"
	"github.com/trinetra-dev/credregistry/internal/domain/port/driven"
	"github.com/trinetra-dev/credregistry/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"share_ttl", cfg.ShareTTL,
		"ledger_configured", cfg.HasLedger(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	credentialStore := sqliteadapter.NewCredentialRepo(db)
	shareStore := sqliteadapter.NewShareRepo(db)
	auditStore := sqliteadapter.NewAuditLogRepo(db)

	// 6. External clients, each optional.
	var ledgerClient driven.LedgerClient
	if cfg.HasLedger() {
		ledgerClient = ledgeradapter.NewClient(cfg.LedgerRPCURL, cfg.ContractAddress)
		slog.Info("ledger client created", "contract", cfg.ContractAddress)
	} else {
		slog.Info("no ledger endpoint configured, health score will be static")
	}

	var inferenceClient driven.InferenceClient
	if cfg.HFAPIKey != "" {
		inferenceClient = inferenceadapter.NewClient(cfg.HFAPIKey, cfg.HFModel)
		slog.Info("inference client created", "model", cfg.HFModel)
	} else {
		slog.Info("no inference API key configured, natural chat disabled")
	}

	// 7. Create services.
	m := metrics.New(prometheus.DefaultRegisterer)
	registrySvc := application.NewRegistryService(credentialStore, shareStore, auditStore, slog.Default(), m)
	dashboardSvc := application.NewDashboardService(credentialStore, shareStore, auditStore, ledgerClient, slog.Default())
	assistantSvc := application.NewAssistantService()

	// 8. Create HTTP handler and register routes.
	apiHandler := httphandler.NewHandler(registrySvc, dashboardSvc, assistantSvc, inferenceClient, cfg.ShareTTL, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("credregistry started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
