package logger_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worldtrek/warden/internal/setup/telemetry/logger"
)

func TestLogRotatorKeepsNewestLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)

	rotator := logger.NewLogRotator(file, 3, path)
	t.Cleanup(func() { _ = file.Close() })

	for _, line := range []string{"one", "two", "three", "four"} {
		_, err := rotator.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", "four"}, strings.Fields(string(data)))

	// The sixth line triggers a rewrite down to the last three
	_, err = rotator.Write([]byte("five\nsix\n"))
	require.NoError(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"four", "five", "six"}, strings.Fields(string(data)))

	_, err = rotator.Write([]byte("seven\n"))
	require.NoError(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"four", "five", "six", "seven"}, strings.Fields(string(data)))
}
