package redis

import (
	"fmt"
	"sync"

	"github.com/redis/rueidis"
	"github.com/worldtrek/warden/internal/setup/config"
	"go.uber.org/zap"
)

const (
	// SessionDBIndex is the game's auth cache in database 0, holding auth:user:<id> entries.
	// The moderation engine never writes sessions, it only deletes them so a punished
	// player has to re-authenticate.
	SessionDBIndex = 0

	// EnforcementDBIndex uses database 2 for publishing live-session enforcement signals.
	// Pub/Sub is global across databases, so the index only gives the publisher
	// its own connection pool apart from session deletes.
	EnforcementDBIndex = 2

	// WorkerStatusDBIndex uses database 4 for tracking worker heartbeats and status
	// to monitor worker health and activity.
	WorkerStatusDBIndex = 4
)

// Manager maintains a thread-safe mapping of database indices to Redis clients.
// Each database index gets its own dedicated connection pool through rueidis.
type Manager struct {
	clients map[int]rueidis.Client
	config  *config.Redis
	logger  *zap.Logger
	mu      sync.Mutex // Protects concurrent access to the clients map
}

// NewManager initializes the Redis connection manager with an empty client pool.
// Actual client connections are created lazily when first requested.
func NewManager(config *config.Redis, logger *zap.Logger) *Manager {
	return &Manager{
		clients: make(map[int]rueidis.Client),
		config:  config,
		logger:  logger.Named("redis"),
	}
}

// GetClient retrieves or creates a Redis client for the specified database index.
// Uses a mutex so concurrent callers asking for the same index share one client.
func (m *Manager) GetClient(dbIndex int) (rueidis.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Reuse the pool if this index was already opened
	if client, exists := m.clients[dbIndex]; exists {
		return client, nil
	}

	// Every command sent here is a write or a scan, so client-side caching
	// would only add CLIENT TRACKING traffic
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)},
		Username:     m.config.Username,
		Password:     m.config.Password,
		SelectDB:     dbIndex,
		ClientName:   "warden",
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client for DB %d: %w", dbIndex, err)
	}

	m.clients[dbIndex] = client
	m.logger.Info("Created new Redis client", zap.Int("dbIndex", dbIndex))
	return client, nil
}

// Close gracefully shuts down all active Redis clients in the pool.
// Safe to call multiple times as it cleans up only existing connections.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for dbIndex, client := range m.clients {
		client.Close()
		delete(m.clients, dbIndex)
		m.logger.Info("Closed Redis client", zap.Int("dbIndex", dbIndex))
	}
}
