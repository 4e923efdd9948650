// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, database and HTTP routing into the
// auth and tasks service binaries.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/taskboard/internal/config"
	"codeberg.org/oliverandrich/taskboard/internal/database"
	"codeberg.org/oliverandrich/taskboard/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/vinovest/sqlx"
)

// schemaFor returns the migration set owned by service.
func schemaFor(service config.Service) database.Schema {
	if service == config.ServiceAuth {
		return database.SchemaUsers
	}
	return database.SchemaTasks
}

// Run starts service with the resolved configuration and blocks until shutdown.
func Run(ctx context.Context, cfg *config.Config, service config.Service) error {
	slog.Info("starting server",
		"service", service,
		"addr", cfg.Server.Addr(),
		"tls_mode", cfg.TLS.Mode,
	)

	db, err := openDatabase(ctx, cfg, service)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := database.Close(db); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	repo := repository.New(db)

	var e *echo.Echo
	switch service {
	case config.ServiceAuth:
		e, err = NewAuthEcho(cfg, repo)
	case config.ServiceTasks:
		e, err = NewTasksEcho(cfg, repo)
	default:
		err = fmt.Errorf("unknown service %q", service)
	}
	if err != nil {
		return err
	}

	return startWithGracefulShutdown(ctx, e, cfg)
}

// openDatabase connects, waits for the database to answer and applies the service's migrations.
func openDatabase(ctx context.Context, cfg *config.Config, service config.Service) (*sqlx.DB, error) {
	db, err := database.Open(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.WaitReady(ctx, db, cfg.Database.WaitTimeout, cfg.Database.WaitInterval); err != nil {
		_ = database.Close(db)
		return nil, err
	}

	if err := database.RunMigrations(ctx, db, schemaFor(service)); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	tlsResult, err := SetupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	errChan := make(chan error, 2)

	// HTTP challenge server for ACME mode
	var httpServer *http.Server

	switch tlsResult.Mode {
	case TLSModeOff:
		go func() {
			slog.Info("server running", "addr", cfg.Server.Addr())
			if err := e.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeACME:
		go func() {
			slog.Info("server running", "addr", ":443")
			if err := startTLSServer(e, ":443", tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		httpServer = &http.Server{
			Addr:              ":80",
			Handler:           tlsResult.HTTPHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("HTTP→HTTPS redirect active", "addr", ":80")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeManual:
		go func() {
			slog.Info("server running", "addr", cfg.Server.Addr(), "tls", true)
			if err := startTLSServer(e, cfg.Server.Addr(), tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server", "reason", ctx.Err())
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown main server", "error", err)
	}

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown HTTP redirect server", "error", err)
		}
	}

	slog.Info("server stopped")
	return nil
}

// startTLSServer starts the Echo server with a custom TLS configuration.
func startTLSServer(e *echo.Echo, addr string, tlsConfig *tls.Config) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	e.TLSListener = tls.NewListener(ln, tlsConfig)
	e.TLSServer.TLSConfig = tlsConfig
	return e.TLSServer.Serve(e.TLSListener)
}
