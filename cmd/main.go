// Package main wires the HTTP server and maintenance commands of the group task tracker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"group-task-tracker/config"
	"group-task-tracker/internal/repository/postgres"
	"group-task-tracker/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "tasktracker",
		Short:         "Group task tracker with workload balancing",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), serve)
		},
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API and the preview sweeper",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRuntime(cmd.Context(), serve)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRuntime(cmd.Context(), migrate)
			},
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Delete expired distribution previews once and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRuntime(cmd.Context(), sweep)
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

type runFunc func(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error

func withRuntime(ctx context.Context, run runFunc) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	return run(ctx, cfg, log)
}

func migrate(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	if cfg.Storage.Backend != config.BackendPostgres {
		log.Infow("nothing to migrate", "backend", cfg.Storage.Backend)
		return nil
	}
	if err := postgres.Migrate(ctx, cfg.Postgres); err != nil {
		log.Errorw("migration failed", "error", err)
		return err
	}
	log.Infow("migrations applied", "dir", cfg.Postgres.MigrationsDir)
	return nil
}

func sweep(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	n, err := app.uc.SweepExpiredPreviews(ctx)
	if err != nil {
		log.Errorw("sweep failed", "error", err)
		return err
	}
	log.Infow("sweep finished", "deleted", n)
	return nil
}
