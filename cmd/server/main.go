package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mysns/internal/config"
	"mysns/internal/database"
	"mysns/internal/logger"
	"mysns/internal/queue"
	"mysns/internal/redis"
	"mysns/internal/storage"
	transporthttp "mysns/internal/transport/http"
	"mysns/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "mysns",
		Short:         "Social graph, engagement and messaging API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			envErr := config.LoadDotEnv()
			loaded, err := config.LoadConfig()
			if err != nil {
				return err
			}
			cfg = loaded
			logger.Init(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, ServiceName: "mysns"})
			if envErr != nil {
				l := logger.Component("config")
				l.Info().Err(envErr).Msg("no .env file loaded, relying on environment variables")
			}
			return nil
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return transporthttp.Run(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd.Context(), cfg)
			},
		},
		&cobra.Command{
			Use:   "worker",
			Short: "Run the media cleanup consumers without the API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWorker(cmd.Context(), cfg)
			},
		},
	)
	return root
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return database.Migrate(ctx, db)
}

func runWorker(ctx context.Context, cfg *config.Config) error {
	rdb, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()
	if err := rdb.Ping(ctx); err != nil {
		return err
	}

	media, err := storage.NewMediaStore(ctx, cfg)
	if err != nil {
		return err
	}

	manager := worker.NewManager(queue.NewConsumer(rdb.Client), worker.NewHandler(media, cfg.DefaultAvatarKey), worker.ManagerConfig{
		WorkerCount:  cfg.WorkerCount,
		BatchSize:    cfg.WorkerBatchSize,
		BlockTimeout: cfg.WorkerBlockTimeout,
	})
	if err := manager.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	manager.Stop()
	return nil
}
