package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/bighogz/insider-ledger/internal/cache"
	"github.com/bighogz/insider-ledger/internal/config"
	"github.com/bighogz/insider-ledger/internal/fmp"
	"github.com/bighogz/insider-ledger/internal/httpclient"
	"github.com/bighogz/insider-ledger/internal/logging"
	"github.com/bighogz/insider-ledger/internal/pipeline"
	"github.com/bighogz/insider-ledger/internal/telemetry"
	"github.com/bighogz/insider-ledger/internal/yahoo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "insider-ledger api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	tel, err := telemetry.Setup(cfg.Telemetry, logger)
	if err != nil {
		return err
	}

	hc := httpclient.New(cfg.Providers.HTTPTimeout)
	sources := pipeline.Fallback{yahoo.New(logger)}
	if cfg.Providers.FMPAPIKey != "" {
		sources = append(sources, fmp.New(cfg.Providers.FMPAPIKey, hc))
	}
	svc := pipeline.NewService(sources, pipeline.Options{
		Cache:  cache.Options{TTL: cfg.Cache.TTL, MaxEntries: cfg.Cache.MaxEntries},
		Logger: logger,
	})

	s := &server{
		svc:     svc,
		cfg:     cfg,
		logger:  logger,
		metrics: tel.MetricsHandler,
		health: func() providerHealth {
			return providerHealth{Sources: sources.Names(), FMPConfigured: cfg.Providers.FMPAPIKey != ""}
		},
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort("", cfg.Server.Port),
		Handler:      s.routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown", zap.Error(err))
	}
	return nil
}
