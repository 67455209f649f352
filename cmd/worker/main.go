package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/worldtrek/warden/internal/redis"
	"github.com/worldtrek/warden/internal/setup"
	"github.com/worldtrek/warden/internal/setup/config"
	"github.com/worldtrek/warden/internal/setup/telemetry"
	"github.com/worldtrek/warden/internal/worker/core"
	"github.com/worldtrek/warden/internal/worker/expiry"
	"go.uber.org/zap"
)

const (
	// WorkerLogDir specifies where worker log files are stored.
	WorkerLogDir = "logs/worker_logs"

	// ExpiryWorker lifts temporary bans once they run out.
	ExpiryWorker = "expiry"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "worker",
		Usage: "Start the warden worker",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Value:   1,
				Usage:   "Number of workers to start",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "List worker heartbeats",
				Action: showStatus,
			},
			{
				Name:  ExpiryWorker,
				Usage: "Start temporary ban expiry workers",
				Action: func(ctx context.Context, c *cli.Command) error {
					return runWorkers(ctx, ExpiryWorker, c.Int("workers"))
				},
			},
		},
	}

	return app.Run(context.Background(), os.Args)
}

// showStatus prints every worker heartbeat still held in Redis.
func showStatus(ctx context.Context, _ *cli.Command) error {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	redisManager := redis.NewManager(&cfg.Common.Redis, logger)
	defer redisManager.Close()

	client, err := redisManager.GetClient(redis.WorkerStatusDBIndex)
	if err != nil {
		return err
	}

	statuses, err := core.NewMonitor(client, logger).GetAllStatuses(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, status := range statuses {
		logger.Info("Worker",
			zap.String("workerType", status.WorkerType),
			zap.String("workerID", status.WorkerID),
			zap.String("task", status.CurrentTask),
			zap.Int64("processed", status.Processed),
			zap.Bool("healthy", status.IsHealthy),
			zap.Bool("stale", status.IsStale(now)),
			zap.Time("lastSeen", status.LastSeen))
	}

	logger.Info("Workers reporting", zap.Int("count", len(statuses)))
	return nil
}

// runWorkers starts multiple instances of a worker type and blocks until a shutdown signal.
// Expiry claims are conditional, so concurrent instances never lift the same ban twice.
func runWorkers(ctx context.Context, workerType string, count int64) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := setup.InitializeApp(ctx, telemetry.ServiceWorker, WorkerLogDir, workerType)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup(context.Background())

	var wg sync.WaitGroup
	for i := range count {
		wg.Add(1)
		go func(workerID int64) {
			defer wg.Done()

			workerLogger := app.LogManager.GetWorkerLogger(fmt.Sprintf("%s_worker_%d", workerType, workerID))
			reporter := core.NewStatusReporter(
				app.StatusClient, workerType, fmt.Sprintf("%s_%d", app.LogManager.GetInstanceID(), workerID), workerLogger,
			)

			switch workerType {
			case ExpiryWorker:
				expiry.New(app.DB, app.Enforcer, reporter, app.Config.Moderation.Expiry, workerLogger).Start(ctx)
			default:
				workerLogger.Fatal("Invalid worker type", zap.String("workerType", workerType))
			}
		}(i)
	}

	app.Logger.Info("Started workers",
		zap.String("workerType", workerType),
		zap.Int64("count", count))

	wg.Wait()
	app.Logger.Info("All workers stopped")

	return nil
}
