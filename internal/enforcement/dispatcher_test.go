package enforcement_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worldtrek/warden/internal/database/types/enum"
	"github.com/worldtrek/warden/internal/enforcement"
	"github.com/worldtrek/warden/internal/setup/config"
	"go.uber.org/zap"
)

func testConfig() config.Enforcement {
	return config.Enforcement{
		Channel:         "warden:enforcement",
		QueueSize:       16,
		Workers:         2,
		MaxRetries:      3,
		InitialInterval: 1,
		MaxInterval:     5,
	}
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, rueidis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return mr, client
}

func TestRedisSinkPublish(t *testing.T) {
	t.Parallel()

	mr, client := setupRedis(t)
	sub := mr.NewSubscriber()
	defer sub.Close()
	sub.Subscribe("warden:enforcement")

	sink := enforcement.NewRedisSink(client, client, "warden:enforcement")
	err := sink.Publish(t.Context(), enforcement.Signal{
		UserID:   42,
		Kind:     enum.EnforcementKindBan,
		IssuedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	select {
	case msg := <-sub.Messages():
		var got enforcement.Signal
		require.NoError(t, sonic.UnmarshalString(msg.Message, &got))
		assert.Equal(t, int64(42), got.UserID)
		assert.Equal(t, enum.EnforcementKindBan, got.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}

func TestDispatcherInvalidatesAuthCache(t *testing.T) {
	t.Parallel()

	mr, client := setupRedis(t)
	require.NoError(t, mr.Set(enforcement.AuthCacheKey(7), "session"))
	require.NoError(t, mr.Set(enforcement.AuthCacheKey(8), "session"))

	sink := enforcement.NewRedisSink(client, client, "warden:enforcement")
	dispatcher := enforcement.NewDispatcher(sink, testConfig(), zap.NewNop())

	dispatcher.InvalidateAuthCache(7)
	dispatcher.Close()

	assert.False(t, mr.Exists(enforcement.AuthCacheKey(7)))
	assert.True(t, mr.Exists(enforcement.AuthCacheKey(8)))
}

// flakySink fails a fixed number of times before succeeding.
type flakySink struct {
	mu        sync.Mutex
	failures  int
	published []enforcement.Signal
	calls     int
}

func (s *flakySink) Publish(_ context.Context, signal enforcement.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.calls <= s.failures {
		return errors.New("connection refused")
	}
	s.published = append(s.published, signal)
	return nil
}

func (s *flakySink) InvalidateSession(context.Context, int64) error {
	return nil
}

func TestDispatcherRetriesDelivery(t *testing.T) {
	t.Parallel()

	sink := &flakySink{failures: 2}
	dispatcher := enforcement.NewDispatcher(sink, testConfig(), zap.NewNop())

	dispatcher.PushEnforcement(9, enum.EnforcementKindNameChange)
	dispatcher.Close()

	require.Len(t, sink.published, 1)
	assert.Equal(t, int64(9), sink.published[0].UserID)
	assert.Equal(t, enum.EnforcementKindNameChange, sink.published[0].Kind)
	assert.Equal(t, 3, sink.calls)
}

func TestDispatcherGivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	sink := &flakySink{failures: 100}
	dispatcher := enforcement.NewDispatcher(sink, testConfig(), zap.NewNop())

	dispatcher.PushEnforcement(9, enum.EnforcementKindBan)
	dispatcher.Close()

	assert.Empty(t, sink.published)
	assert.Equal(t, 4, sink.calls) // first attempt plus three retries
}

func TestDispatcherDropsAfterClose(t *testing.T) {
	t.Parallel()

	sink := &flakySink{}
	dispatcher := enforcement.NewDispatcher(sink, testConfig(), zap.NewNop())
	dispatcher.Close()

	dispatcher.PushEnforcement(1, enum.EnforcementKindBan)
	assert.Zero(t, sink.calls)
}
