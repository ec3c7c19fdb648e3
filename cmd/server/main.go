package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	directoryhandler "bankledger/internal/directory/handler"
	directorymetrics "bankledger/internal/directory/metrics"
	directoryservice "bankledger/internal/directory/service"
	directorystore "bankledger/internal/directory/store"
	ledgerhandler "bankledger/internal/ledger/handler"
	ledgermetrics "bankledger/internal/ledger/metrics"
	ledgerservice "bankledger/internal/ledger/service"
	ledgerstore "bankledger/internal/ledger/store"
	"bankledger/internal/platform/config"
	"bankledger/internal/platform/httpserver"
	"bankledger/internal/platform/logger"
	transporthttp "bankledger/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	var (
		customers directoryservice.CustomerStore
		ledger    ledgerstore.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			return err
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("failed to reach database", "error", err)
			return err
		}
		customers = directorystore.NewPostgres(db)
		ledger = ledgerstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		customers = directorystore.NewInMemory()
		ledger = ledgerstore.NewMemory()
		log.Info("using in-memory stores")
	}

	directorySvc := directoryservice.New(customers, ledger, log, directorymetrics.New())
	ledgerSvc := ledgerservice.New(ledger, log, ledgermetrics.New())

	router := transporthttp.NewRouter(log, cfg.RequestTimeout,
		directoryhandler.New(directorySvc, log),
		ledgerhandler.New(ledgerSvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error("server failed", "error", err)
		return err
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		return err
	}

	log.Info("server stopped")
	return nil
}
