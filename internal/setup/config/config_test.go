package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worldtrek/warden/internal/setup/config"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".toml"), []byte(content), 0o600))
}

func TestLoadFromDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "common", `
version = 1

[postgresql]
host = "db.internal"
port = 5433
`)
	writeConfig(t, dir, "api", `
version = 1
request_timeout = 1500

[server]
port = 9000
`)
	writeConfig(t, dir, "moderation", `
version = 1
rating_ceiling = 3000

[enforcement]
channel = "enforce"
initial_interval = 250
`)

	cfg, err := config.LoadFromDir(dir)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Common.PostgreSQL.Host)
	assert.Equal(t, 5433, cfg.Common.PostgreSQL.Port)
	assert.Equal(t, 9000, cfg.API.Server.Port)
	assert.Equal(t, 1500, cfg.API.RequestTimeout)
	assert.Equal(t, 3000, cfg.Moderation.RatingCeiling)
	assert.Equal(t, "enforce", cfg.Moderation.Enforcement.Channel)
	assert.Equal(t, int64(250), cfg.Moderation.Enforcement.InitialIntervalDuration().Milliseconds())
}

func TestLoadFromDirMissingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "common", "version = 1\n")

	_, err := config.LoadFromDir(dir)
	require.ErrorIs(t, err, config.ErrConfigFileNotFound)
}

func TestMutationTimeoutDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seconds int
		want    time.Duration
	}{
		{name: "unset falls back", seconds: 0, want: 5 * time.Minute},
		{name: "negative falls back", seconds: -1, want: 5 * time.Minute},
		{name: "configured", seconds: 90, want: 90 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &config.ModerationConfig{MutationTimeout: tt.seconds}
			assert.Equal(t, tt.want, cfg.MutationTimeoutDuration())
		})
	}
}
