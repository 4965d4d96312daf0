// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/accountd/internal/auth"
	"github.com/holomush/accountd/internal/auth/postgres"
	"github.com/holomush/accountd/internal/config"
	"github.com/holomush/accountd/internal/logging"
	"github.com/holomush/accountd/internal/observability"
	"github.com/holomush/accountd/internal/store"
	"github.com/holomush/accountd/internal/web"
)

// readinessTimeout bounds the database ping behind /healthz/readiness.
const readinessTimeout = 2 * time.Second

func newServeCmd() *cobra.Command {
	return newServeCmdWithDeps(nil)
}

func newServeCmdWithDeps(deps *ServeDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the account API server",
		Long: `Start the HTTP API for users and sessions, the metrics and health
listener, and the expired session janitor.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(contextOf(cmd), cmd, deps)
		},
	}
}

// services are the auth components shared by the handlers and the janitor.
type services struct {
	users    *auth.UserDirectory
	sessions *auth.SessionStore
	authn    *auth.Authenticator
}

func newServices(ctx context.Context, cfg *config.Config, db Database, metrics *observability.Metrics, logger *slog.Logger) (*services, error) {
	cost := cfg.Auth.BcryptCost
	if cost == 0 {
		cost = auth.CostForEnvironment(cfg.Environment)
	}
	hasher, err := auth.NewBcryptHasher(cost, cfg.Auth.HashConcurrency)
	if err != nil {
		return nil, err
	}

	opts := []auth.Option{
		auth.WithLogger(logger),
		auth.WithFailureRecorder(metrics),
		auth.WithPurgeRecorder(metrics),
	}
	users, err := auth.NewUserDirectory(postgres.NewUserRepository(db), hasher, opts...)
	if err != nil {
		return nil, err
	}
	sessions, err := auth.NewSessionStore(postgres.NewSessionRepository(db), cfg.Auth.SessionTTL, opts...)
	if err != nil {
		return nil, err
	}
	authn, err := auth.NewAuthenticator(ctx, users, hasher, opts...)
	if err != nil {
		return nil, err
	}
	return &services{users: users, sessions: sessions, authn: authn}, nil
}

// runServeWithDeps starts the service with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	logger, err := logging.Setup(serviceName, version, logging.Options{
		Format: cfg.Log.Format,
		Level:  cfg.Log.Level,
	}, deps.LogOutput)
	if err != nil {
		return oops.With("operation", "set up logging").Wrap(err)
	}
	slog.SetDefault(logger)

	logger.Info("starting accountd",
		"environment", cfg.Environment,
		"http_addr", cfg.HTTP.Addr,
		"metrics_addr", cfg.Metrics.Addr,
	)

	db, err := deps.DatabaseFactory(ctx, store.PoolConfig{
		URL:            cfg.Database.URL,
		MaxConns:       cfg.Database.MaxConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	obsServer := deps.ObservabilityServerFactory(cfg.Metrics.Addr, store.ReadinessCheck(db, readinessTimeout), logger)
	if stater, ok := db.(interface{ Stat() *pgxpool.Stat }); ok {
		collector := observability.NewPoolCollector(func() observability.PoolStats { return stater.Stat() })
		if err := obsServer.Register(collector); err != nil {
			return err
		}
	}
	metrics := obsServer.Metrics()

	svc, err := newServices(ctx, cfg, db, metrics, logger)
	if err != nil {
		return oops.With("operation", "build auth services").Wrap(err)
	}

	api, err := web.New(web.Deps{
		Users:         svc.users,
		Sessions:      svc.sessions,
		Authenticator: svc.authn,
		Migrators: func() (web.Migrator, error) {
			return deps.MigratorFactory(cfg.Database.URL, logger)
		},
		Status: func(ctx context.Context) (*store.DatabaseStatus, error) {
			return store.ProbeDatabase(ctx, db)
		},
		SecureCookies: cfg.IsProduction(),
		Logger:        logger,
		Observer:      metrics,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	obsStarted := false
	if cfg.Metrics.Addr != "" {
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		obsStarted = true
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	httpServer := deps.HTTPServerFactory(cfg.HTTP.Addr, api.Routes(), logger)
	httpErrChan, err := httpServer.Start()
	if err != nil {
		if obsStarted {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer shutdownCancel()
			if stopErr := obsServer.Stop(shutdownCtx); stopErr != nil {
				logger.Warn("failed to stop observability server during cleanup", "error", stopErr)
			}
		}
		return oops.With("operation", "start http server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, httpErrChan, "http")

	var janitor sync.WaitGroup
	janitor.Add(1)
	go func() {
		defer janitor.Done()
		svc.sessions.RunJanitor(ctx, cfg.Auth.SessionPurgeInterval, cfg.Auth.SessionRetention)
	}()

	sigChan := deps.Signals
	if sigChan == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(ch)
		sigChan = ch
	}

	cmd.Println("accountd started")
	logger.Info("accountd ready", "http_addr", httpServer.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	if obsStarted {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}
	janitor.Wait()

	logger.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when the channel closes or ctx ends.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
