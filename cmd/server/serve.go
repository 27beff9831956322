package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"bulkmail/internal/adapters/email"
	web "bulkmail/internal/adapters/http"
	"bulkmail/internal/adapters/http/middleware"
	"bulkmail/internal/adapters/http/perf"
	"bulkmail/internal/adapters/metrics"
	"bulkmail/internal/adapters/storage"
	accountStore "bulkmail/internal/adapters/storage/account"
	mailStore "bulkmail/internal/adapters/storage/mail"
	"bulkmail/internal/config"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a.cfg)
		},
	}
	cmd.Flags().String("http.addr", ":5000", "listen address")
	cmd.Flags().String("mail.transport", config.TransportSMTP, "mail transport: smtp, resend, noop")
	a.bindFlags(cmd.Flags(), "http.addr", "mail.transport")
	return cmd
}

func runServe(parent context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	csrfKey, err := cfg.CSRFKey()
	if err != nil {
		return err
	}
	tokens, err := middleware.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiry)
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.New()
	collector := perf.NewCollector(cfg.Perf.RingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.Perf.SlowQueryMs).WithObserver(m)

	stores := &web.Stores{
		AccountStore: accountStore.NewSQLiteStore(timedDB),
		MailStore:    mailStore.NewSQLiteStore(timedDB),
	}
	if n, err := stores.AccountStore.Count(ctx); err == nil && n == 0 {
		slog.Warn("auth_event", "event", "no_accounts", "hint", "run `bulkmail seed-admin` to create the admin account")
	}

	handler := web.NewMux(ctx, stores, web.Options{
		Transport:          email.NewTransportHandle(transportFactory(cfg, m)),
		MailFrom:           mailFrom(cfg),
		Tokens:             tokens,
		Metrics:            m,
		Collector:          collector,
		CORSOrigins:        cfg.CORS.Origins,
		CSRFKey:            csrfKey,
		RateLimitPerSecond: cfg.RateLimit.PerSecond,
		SlowRequestMs:      cfg.Perf.SlowRequestMs,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_event", "event", "listening", "addr", cfg.HTTP.Addr, "version", version,
			"env", cfg.Env, "transport", cfg.Mail.Transport, "schema", storage.LatestSchemaVersion())
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
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_event", "event", "shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// openDB opens the database and applies pending migrations.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	if err := storage.InitDB(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}
