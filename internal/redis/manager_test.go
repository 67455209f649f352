package redis_test

import (
	"net"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worldtrek/warden/internal/redis"
	"github.com/worldtrek/warden/internal/setup/config"
	"go.uber.org/zap/zaptest"
)

func newManager(t *testing.T) (*miniredis.Miniredis, *redis.Manager) {
	t.Helper()

	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	manager := redis.NewManager(&config.Redis{Host: host, Port: portNum}, zaptest.NewLogger(t))
	t.Cleanup(manager.Close)

	return mr, manager
}

func TestGetClientReusesPoolPerIndex(t *testing.T) {
	t.Parallel()

	_, manager := newManager(t)

	first, err := manager.GetClient(redis.SessionDBIndex)
	require.NoError(t, err)
	again, err := manager.GetClient(redis.SessionDBIndex)
	require.NoError(t, err)
	assert.Same(t, first, again)

	status, err := manager.GetClient(redis.WorkerStatusDBIndex)
	require.NoError(t, err)
	assert.NotSame(t, first, status)
}

func TestGetClientSelectsDatabase(t *testing.T) {
	t.Parallel()

	mr, manager := newManager(t)
	ctx := t.Context()

	client, err := manager.GetClient(redis.WorkerStatusDBIndex)
	require.NoError(t, err)
	require.NoError(t, client.Do(ctx, client.B().Set().Key("worker:expiry:1").Value("{}").Build()).Error())

	mr.Select(redis.WorkerStatusDBIndex)
	assert.True(t, mr.Exists("worker:expiry:1"))
	mr.Select(redis.SessionDBIndex)
	assert.False(t, mr.Exists("worker:expiry:1"))
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	_, manager := newManager(t)

	_, err := manager.GetClient(redis.EnforcementDBIndex)
	require.NoError(t, err)

	manager.Close()
	manager.Close()

	// A closed manager opens fresh pools on demand
	_, err = manager.GetClient(redis.EnforcementDBIndex)
	require.NoError(t, err)
}
