// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/auth"
	authpg "github.com/gatehouse/gatehouse/internal/auth/postgres"
	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/httpapi"
	"github.com/gatehouse/gatehouse/internal/logging"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/store"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication API server",
		Long: `Start the HTTP server exposing login, registration, password reset,
and identifier availability endpoints, plus a separate metrics/health
listener.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	defaults := config.Default()
	cmd.Flags().String("server.addr", defaults.Server.Addr, "API listen address")
	cmd.Flags().String("metrics.addr", defaults.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	cmd.Flags().Bool("database.automigrate", false, "run pending migrations on startup")
	cmd.Flags().String("auth.token_secret", "", "HS256 signing secret for session tokens")
	cmd.Flags().String("log.format", defaults.Log.Format, "log format (json or text)")

	return cmd
}

// runServe wires the services together and runs until interrupted.
func runServe(ctx context.Context, cfg *config.Config) error {
	logging.SetDefault("gatehouse", version, cfg.Log.Format)
	logger := slog.Default()

	logger.Info("starting gatehouse",
		"server_addr", cfg.Server.Addr,
		"metrics_addr", cfg.Metrics.Addr,
		"log_format", cfg.Log.Format,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	logger.Info("connected to database")

	if cfg.Database.Automigrate {
		if err := migrateUp(cfg.Database.URL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("database schema up to date")
	}

	hasher := auth.NewArgon2idHasher()
	issuer, err := auth.NewJWTIssuer([]byte(cfg.Auth.TokenSecret))
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}
	principals := authpg.NewPrincipalRepository(pool)

	logins, err := auth.NewLoginServiceWithLogger(principals, hasher, issuer, logger)
	if err != nil {
		return fmt.Errorf("failed to create login service: %w", err)
	}
	registrations, err := auth.NewRegistrationServiceWithLogger(principals, hasher, logger)
	if err != nil {
		return fmt.Errorf("failed to create registration service: %w", err)
	}
	resets, err := auth.NewResetServiceWithLogger(principals, hasher, logger)
	if err != nil {
		return fmt.Errorf("failed to create reset service: %w", err)
	}

	var obsServer *observability.Server
	var obsErrCh <-chan error
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr, func() bool {
			return pool.Ping(ctx) == nil
		})
		obsErrCh, err = obsServer.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		metrics = obsServer.Metrics()
	}

	apiServer, err := httpapi.NewServer(httpapi.Config{
		Addr:          cfg.Server.Addr,
		Logins:        logins,
		Registrations: registrations,
		Resets:        resets,
		Metrics:       metrics,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create api server: %w", err)
	}

	apiErrCh, err := apiServer.Start()
	if err != nil {
		return fmt.Errorf("failed to start api server: %w", err)
	}

	logger.Info("gatehouse ready", "addr", apiServer.Addr())

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr := <-apiErrCh:
		if serveErr != nil {
			return fmt.Errorf("api server failed: %w", serveErr)
		}
	case obsErr := <-obsErrCh:
		if obsErr != nil {
			return fmt.Errorf("observability server failed: %w", obsErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping api server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("gatehouse stopped")
	return nil
}
