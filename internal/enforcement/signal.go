package enforcement

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"github.com/worldtrek/warden/internal/database/types/enum"
)

// Signal is the payload published to live sessions.
type Signal struct {
	UserID   int64                `json:"userId"`
	Kind     enum.EnforcementKind `json:"kind"`
	IssuedAt time.Time            `json:"issuedAt"`
}

// AuthCacheKey returns the session cache key of a user.
func AuthCacheKey(userID int64) string {
	return "auth:user:" + strconv.FormatInt(userID, 10)
}

// Sink delivers enforcement effects to the live-session layer.
type Sink interface {
	// Publish pushes a signal to connected sessions.
	Publish(ctx context.Context, signal Signal) error
	// InvalidateSession drops the cached auth state of a user.
	InvalidateSession(ctx context.Context, userID int64) error
}

// RedisSink publishes signals over Redis pub/sub and evicts auth cache keys.
type RedisSink struct {
	pubsub  rueidis.Client
	session rueidis.Client
	channel string
}

// NewRedisSink creates a RedisSink. The two clients may be the same.
func NewRedisSink(pubsub, session rueidis.Client, channel string) *RedisSink {
	return &RedisSink{
		pubsub:  pubsub,
		session: session,
		channel: channel,
	}
}

// Publish sends the signal as JSON on the enforcement channel.
func (s *RedisSink) Publish(ctx context.Context, signal Signal) error {
	data, err := sonic.Marshal(signal)
	if err != nil {
		return fmt.Errorf("failed to marshal signal: %w", err)
	}

	cmd := s.pubsub.B().Publish().Channel(s.channel).Message(string(data)).Build()
	if err := s.pubsub.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to publish signal: %w", err)
	}

	return nil
}

// InvalidateSession deletes the auth cache key of the user.
func (s *RedisSink) InvalidateSession(ctx context.Context, userID int64) error {
	cmd := s.session.B().Del().Key(AuthCacheKey(userID)).Build()
	if err := s.session.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to invalidate auth cache: %w", err)
	}

	return nil
}
