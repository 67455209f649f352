package setup

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/rueidis"
	"github.com/uptrace/bun/migrate"
	"github.com/worldtrek/warden/internal/database"
	"github.com/worldtrek/warden/internal/database/migrations"
	"github.com/worldtrek/warden/internal/enforcement"
	"github.com/worldtrek/warden/internal/redis"
	"github.com/worldtrek/warden/internal/setup/config"
	"github.com/worldtrek/warden/internal/setup/telemetry"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config          // Application configuration
	Logger       *zap.Logger             // Main application logger
	DBLogger     *zap.Logger             // Database-specific logger
	DB           database.Client         // Database connection pool
	RedisManager *redis.Manager          // Redis connection manager
	StatusClient rueidis.Client          // Redis client for worker status reporting
	Enforcer     *enforcement.Dispatcher // Live-session enforcement delivery
	LogManager   *telemetry.Manager      // Log management system
	pprofServer  *pprofServer            // Debug HTTP server for pprof
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(
	ctx context.Context, serviceType telemetry.ServiceType, logDir string, workerType string,
) (*App, error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug, &cfg.Common.Telemetry, workerType)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	db, err := checkAndRunMigrations(ctx, &cfg.Common.PostgreSQL, dbLogger)
	if err != nil {
		redisManager.Close()
		return nil, err
	}

	statusClient, err := redisManager.GetClient(redis.WorkerStatusDBIndex)
	if err != nil {
		return nil, err
	}

	enforcer, err := newEnforcer(redisManager, &cfg.Moderation.Enforcement, logger)
	if err != nil {
		return nil, err
	}

	var pprofSrv *pprofServer
	if cfg.Common.Debug.EnablePprof {
		srv, err := startPprofServer(cfg.Common.Debug.PprofPort, logger)
		if err != nil {
			logger.Error("Failed to start pprof server", zap.Error(err))
		} else {
			pprofSrv = srv

			logger.Warn("pprof debugging endpoint enabled - this should not be used in production!")
		}
	}

	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		RedisManager: redisManager,
		StatusClient: statusClient,
		Enforcer:     enforcer,
		LogManager:   logManager,
		pprofServer:  pprofSrv,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup(ctx context.Context) {
	if s.pprofServer != nil {
		if err := s.pprofServer.srv.Shutdown(ctx); err != nil {
			s.Logger.Error("Failed to shutdown pprof server", zap.Error(err))
		}

		s.pprofServer.listener.Close()
	}

	// Pending enforcement signals still need Redis
	s.Enforcer.Close()

	if err := s.DB.Close(); err != nil {
		s.Logger.Error("Failed to close database connection", zap.Error(err))
	}

	s.LogManager.Stop(ctx)

	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	s.RedisManager.Close()
}

// newEnforcer builds the dispatcher over the pub/sub and session Redis databases.
func newEnforcer(
	redisManager *redis.Manager, cfg *config.Enforcement, logger *zap.Logger,
) (*enforcement.Dispatcher, error) {
	pubsub, err := redisManager.GetClient(redis.EnforcementDBIndex)
	if err != nil {
		return nil, err
	}

	session, err := redisManager.GetClient(redis.SessionDBIndex)
	if err != nil {
		return nil, err
	}

	return enforcement.NewDispatcher(enforcement.NewRedisSink(pubsub, session, cfg.Channel), *cfg, logger), nil
}

// checkAndRunMigrations asks the operator before applying pending migrations.
func checkAndRunMigrations(ctx context.Context, cfg *config.PostgreSQL, dbLogger *zap.Logger) (database.Client, error) {
	tempDB, err := database.NewConnection(ctx, cfg, dbLogger, false)
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(tempDB.DB(), migrations.Migrations)

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		tempDB.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	if len(ms.Unapplied()) == 0 {
		return tempDB, nil
	}

	log.Println("Database migrations are pending. Would you like to run them now? (y/N)")

	var response string

	_, _ = fmt.Scanln(&response)

	if response != "y" && response != "Y" {
		tempDB.Close()
		return nil, ErrMigrationsPending
	}

	if err := database.Migrate(ctx, tempDB.DB(), dbLogger); err != nil {
		tempDB.Close()
		return nil, err
	}

	return tempDB, nil
}
