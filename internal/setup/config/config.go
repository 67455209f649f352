package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.3.0"

// EnvPrefix is the prefix of environment variables that override file values.
// Nested keys are separated by a double underscore, e.g. WARDEN_COMMON__POSTGRESQL__HOST.
const EnvPrefix = "WARDEN_"

// Current version of the config file.
const (
	CurrentCommonVersion     = 1
	CurrentAPIVersion        = 1
	CurrentModerationVersion = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common     CommonConfig     `koanf:"common"`
	API        APIConfig        `koanf:"api"`
	Moderation ModerationConfig `koanf:"moderation"`
}

// CommonConfig contains configuration shared between every service.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Telemetry  Telemetry  `koanf:"telemetry"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log files to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
	// Serve net/http/pprof on localhost.
	EnablePprof bool `koanf:"enable_pprof"`
	// Port for the pprof listener.
	PprofPort int `koanf:"pprof_port"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// Telemetry contains tracing configuration.
type Telemetry struct {
	// Uptrace DSN. Tracing is disabled when empty.
	UptraceDSN string `koanf:"uptrace_dsn"`
	// Deployment environment reported with traces.
	Environment string `koanf:"environment"`
}

// APIConfig contains staff REST API configuration.
type APIConfig struct {
	// Version of the api config.
	Version int `koanf:"version"`
	// Server settings.
	Server ServerConfig `koanf:"server"`
	// Request timeout in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	// Host address to listen on.
	Host string `koanf:"host"`
	// Port to listen on.
	Port int `koanf:"port"`
}

// ModerationConfig contains moderation engine configuration.
type ModerationConfig struct {
	// Version of the moderation config.
	Version int `koanf:"version"`
	// Highest rating any account may hold. Refunds never exceed it.
	RatingCeiling int `koanf:"rating_ceiling"`
	// Maximum concurrent opponent updates during a refund.
	RefundConcurrency int `koanf:"refund_concurrency"`
	// Attempts at the rating compare-and-set before an opponent refund is given up.
	RatingCASAttempts int `koanf:"rating_cas_attempts"`
	// Seconds a validated action may run once it starts writing. The caller's cancellation does not apply.
	MutationTimeout int `koanf:"mutation_timeout"`
	// Live-session enforcement settings.
	Enforcement Enforcement `koanf:"enforcement"`
	// Temporary ban expiry settings.
	Expiry Expiry `koanf:"expiry"`
}

// MutationTimeoutDuration returns the write-phase bound, defaulting to five minutes.
func (m *ModerationConfig) MutationTimeoutDuration() time.Duration {
	if m.MutationTimeout <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(m.MutationTimeout) * time.Second
}

// Enforcement contains live-session signal delivery configuration.
type Enforcement struct {
	// Redis pub/sub channel enforcement signals are published on.
	Channel string `koanf:"channel"`
	// Capacity of the pending signal queue. Signals beyond it are dropped.
	QueueSize int `koanf:"queue_size"`
	// Number of delivery goroutines.
	Workers int `koanf:"workers"`
	// Maximum delivery retries per signal.
	MaxRetries uint64 `koanf:"max_retries"`
	// Initial retry delay in milliseconds.
	InitialInterval int `koanf:"initial_interval"`
	// Maximum retry delay in milliseconds.
	MaxInterval int `koanf:"max_interval"`
}

// InitialIntervalDuration returns the initial retry delay.
func (e Enforcement) InitialIntervalDuration() time.Duration {
	return time.Duration(e.InitialInterval) * time.Millisecond
}

// MaxIntervalDuration returns the maximum retry delay.
func (e Enforcement) MaxIntervalDuration() time.Duration {
	return time.Duration(e.MaxInterval) * time.Millisecond
}

// Expiry contains temporary ban expiry worker configuration.
type Expiry struct {
	// Seconds between expiry sweeps.
	Interval int `koanf:"interval"`
	// Maximum bans lifted per sweep.
	BatchSize int `koanf:"batch_size"`
}

// LoadConfig loads the configuration from the config search paths.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".warden",
		homeDir + "/.warden/config",
		"/etc/warden/config",
		"/app/config",
		"config",
		".",
	}

	usedConfigPath, err := loadFiles(k, configPaths)
	if err != nil {
		return nil, "", err
	}

	// Environment variables take precedence over files
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load environment overrides: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("api", config.API.Version, CurrentAPIVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("moderation", config.Moderation.Version, CurrentModerationVersion); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// LoadFromDir loads the configuration files from a single directory.
func LoadFromDir(dir string) (*Config, error) {
	k := koanf.New(".")

	if _, err := loadFiles(k, []string{dir}); err != nil {
		return nil, err
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// loadFiles loads each config file from the first search path that has it.
// Every file is mounted under its own name, so common.toml becomes the "common" section.
func loadFiles(k *koanf.Koanf, configPaths []string) (string, error) {
	var usedConfigPath string

	configFiles := []string{"common", "api", "moderation"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)

			sub := koanf.New(".")
			if err := sub.Load(file.Provider(configPath), toml.Parser()); err != nil {
				continue
			}

			if err := k.MergeAt(sub, configName); err != nil {
				return "", fmt.Errorf("failed to merge %s.toml: %w", configName, err)
			}

			configLoaded = true
			if usedConfigPath == "" {
				usedConfigPath = path
			}

			break
		}

		if !configLoaded {
			return "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	return usedConfigPath, nil
}

// envKey maps WARDEN_MODERATION__RATING_CEILING to moderation.rating_ceiling.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/worldtrek/warden/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
