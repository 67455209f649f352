package telemetry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/uptrace-go/uptrace"
	"github.com/worldtrek/warden/internal/setup/config"
	"github.com/worldtrek/warden/internal/setup/telemetry/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceType represents the type of service being initialized.
type ServiceType int

const (
	ServiceAPI ServiceType = iota
	ServiceWorker
	ServiceDB
)

// GetRequestTimeout returns the request timeout for the given service type.
func (s ServiceType) GetRequestTimeout(cfg *config.Config) time.Duration {
	var timeout int

	switch s {
	case ServiceAPI:
		timeout = cfg.API.RequestTimeout
	case ServiceWorker:
		timeout = 30000
	default:
		timeout = 5000
	}

	return time.Duration(timeout) * time.Millisecond
}

// Manager handles the creation and management of log files and directories.
// It maintains timestamped session logs and owns the trace exporter when one is configured.
type Manager struct {
	instanceID        string // Unique identifier for this program instance
	componentName     string // Component identifier for this instance
	currentSessionDir string // Path to the current session's log directory
	logDir            string // Base directory for all logs
	level             string // Logging level (debug, info, warn, error)
	maxLogsToKeep     int    // Maximum number of log sessions to retain
	maxLogLines       int    // Maximum number of lines to keep in each log file
	tracing           bool   // Whether spans are exported to Uptrace
}

// NewManager creates a new Manager instance and configures the trace exporter when a DSN is set.
func NewManager(
	serviceType ServiceType, logDir string, debugCfg *config.Debug, telemetryCfg *config.Telemetry, workerType string,
) *Manager {
	var componentName string

	switch serviceType {
	case ServiceAPI:
		componentName = "api"
	case ServiceWorker:
		componentName = "worker"
		if workerType != "" {
			componentName = workerType + "_worker"
		}
	case ServiceDB:
		componentName = "db"
	default:
		componentName = "unknown"
	}

	manager := &Manager{
		instanceID:    uuid.New().String(),
		componentName: componentName,
		logDir:        logDir,
		level:         debugCfg.LogLevel,
		maxLogsToKeep: debugCfg.MaxLogsToKeep,
		maxLogLines:   debugCfg.MaxLogLines,
	}

	if telemetryCfg != nil && telemetryCfg.UptraceDSN != "" {
		uptrace.ConfigureOpentelemetry(
			uptrace.WithDSN(telemetryCfg.UptraceDSN),
			uptrace.WithServiceName("warden-"+componentName),
			uptrace.WithServiceVersion(config.RepositoryVersion),
			uptrace.WithDeploymentEnvironment(telemetryCfg.Environment),
		)
		manager.tracing = true
	}

	return manager
}

// Stop flushes and shuts down the trace exporter.
// This should be called on application shutdown to ensure spans are delivered.
func (lm *Manager) Stop(ctx context.Context) {
	if lm.tracing {
		_ = uptrace.Shutdown(ctx)
	}
}

const sessionTimeLayout = "2006-01-02_15-04-05"

// GetLoggers initializes the main and database loggers.
// Returns separate loggers for main application and database logging.
func (lm *Manager) GetLoggers() (*zap.Logger, *zap.Logger, error) {
	if err := lm.setupLogDirectories(); err != nil {
		return nil, nil, err
	}

	mainLogger, err := lm.initLogger(filepath.Join(lm.currentSessionDir, "main.log"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize main logger: %w", err)
	}

	dbLogger, err := lm.initLogger(filepath.Join(lm.currentSessionDir, "database.log"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database logger: %w", err)
	}

	return mainLogger.With(zap.String("component", lm.componentName)), dbLogger, nil
}

// GetWorkerLogger creates a logger for one background worker with its own file in the session directory.
// Falls back to the console when the file cannot be opened.
func (lm *Manager) GetWorkerLogger(name string) *zap.Logger {
	if lm.currentSessionDir == "" {
		if err := lm.setupLogDirectories(); err != nil {
			return zap.Must(zap.NewDevelopment()).Named(name)
		}
	}

	workerLogger, err := lm.initLogger(filepath.Join(lm.currentSessionDir, name+".log"))
	if err != nil {
		return zap.Must(zap.NewDevelopment()).Named(name)
	}

	return workerLogger.With(zap.String("component", lm.componentName), zap.String("instance", lm.instanceID))
}

// GetInstanceID returns the unique identifier of this process, shared by its logs and worker heartbeats.
func (lm *Manager) GetInstanceID() string {
	return lm.instanceID
}

// setupLogDirectories prunes old sessions of this component and opens a new session directory.
// Session directories are named <timestamp>_<component> so the API and workers can share a log dir.
func (lm *Manager) setupLogDirectories() error {
	if err := os.MkdirAll(lm.logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	if err := lm.rotateLogSessions(); err != nil {
		return fmt.Errorf("failed to rotate log sessions: %w", err)
	}

	sessionDir := filepath.Join(lm.logDir, time.Now().UTC().Format(sessionTimeLayout)+"_"+lm.componentName)
	if err := os.MkdirAll(sessionDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	lm.currentSessionDir = sessionDir

	return nil
}

// initLogger creates a zap logger writing to a line-capped file, teed to stdout and,
// when tracing is enabled, to the span core.
func (lm *Manager) initLogger(path string) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(lm.level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(logger.NewLogRotator(file, lm.maxLogLines, path)),
			zapLevel,
		),
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(os.Stdout),
			zapLevel,
		),
	}

	if lm.tracing {
		cores = append(cores, NewCore(zapLevel))
	}

	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// rotateLogSessions removes this component's oldest sessions, leaving room for the new one.
// Session names start with a UTC timestamp, so lexical order is age order.
func (lm *Manager) rotateLogSessions() error {
	sessions, err := filepath.Glob(filepath.Join(lm.logDir, "*_"+lm.componentName))
	if err != nil {
		return err
	}

	keep := max(lm.maxLogsToKeep-1, 0)
	if len(sessions) <= keep {
		return nil
	}

	slices.Sort(sessions)

	for _, session := range sessions[:len(sessions)-keep] {
		if err := os.RemoveAll(session); err != nil {
			return err
		}
	}

	return nil
}
